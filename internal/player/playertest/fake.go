// Package playertest provides an in-memory media backend for tests of code built on player.Opener.
package playertest

import (
	"sync"
	"time"

	"yetify/internal/player"
)

const DefaultDuration = 3 * time.Second

// Opener records every handle it opens and how many are alive at once.
type Opener struct {
	mu        sync.Mutex
	durations map[string]time.Duration
	failures  map[string]error
	handles   []*Handle
	live      int
	maxLive   int
}

func NewOpener() *Opener {
	return &Opener{
		durations: map[string]time.Duration{},
		failures:  map[string]error{},
	}
}

// SetDuration makes handles for resource report d. A non-positive d makes Duration fail.
func (o *Opener) SetDuration(resource string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.durations[resource] = d
}

// FailOpen makes Open(resource) return err. A nil err clears the failure.
func (o *Opener) FailOpen(resource string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil {
		delete(o.failures, resource)
		return
	}
	o.failures[resource] = err
}

func (o *Opener) Open(resource string) (player.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err, ok := o.failures[resource]; ok {
		return nil, err
	}
	dur, ok := o.durations[resource]
	if !ok {
		dur = DefaultDuration
	}
	h := &Handle{Resource: resource, dur: dur, owner: o}
	o.handles = append(o.handles, h)
	o.live++
	if o.live > o.maxLive {
		o.maxLive = o.live
	}
	return h, nil
}

func (o *Opener) released() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.live--
}

// Handles returns every handle opened so far, oldest first.
func (o *Opener) Handles() []*Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Handle, len(o.handles))
	copy(out, o.handles)
	return out
}

// Last returns the most recently opened handle, or nil.
func (o *Opener) Last() *Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.handles) == 0 {
		return nil
	}
	return o.handles[len(o.handles)-1]
}

// Live is the number of opened handles not yet released.
func (o *Opener) Live() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live
}

// MaxLive is the highest Live value ever observed.
func (o *Opener) MaxLive() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.maxLive
}

// Handle is a fake media handle whose clock is driven by the test.
type Handle struct {
	Resource string
	owner    *Opener

	mu       sync.Mutex
	playing  bool
	pos      time.Duration
	dur      time.Duration
	onDone   func()
	starts   int
	pauses   int
	releases int
	reads    int
	startErr error
}

func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.releases > 0 {
		return player.ErrReleased
	}
	if h.startErr != nil {
		return h.startErr
	}
	h.starts++
	h.playing = true
	return nil
}

func (h *Handle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.releases > 0 {
		return player.ErrReleased
	}
	h.pauses++
	h.playing = false
	return nil
}

func (h *Handle) Position() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reads++
	if h.releases > 0 {
		return 0, player.ErrReleased
	}
	return h.pos, nil
}

func (h *Handle) Duration() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reads++
	if h.releases > 0 {
		return 0, player.ErrReleased
	}
	if h.dur <= 0 {
		return 0, player.ErrUnknownDuration
	}
	return h.dur, nil
}

func (h *Handle) OnCompletion(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDone = fn
}

func (h *Handle) Release() error {
	h.mu.Lock()
	h.releases++
	first := h.releases == 1
	h.playing = false
	h.mu.Unlock()
	if first {
		h.owner.released()
	}
	return nil
}

// Complete plays the handle to its end and fires the completion callback synchronously,
// as long as the handle was not released.
func (h *Handle) Complete() {
	h.mu.Lock()
	if h.releases > 0 {
		h.mu.Unlock()
		return
	}
	h.playing = false
	h.pos = h.dur
	fn := h.onDone
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// FireStaleCompletion invokes the registered callback even after release, imitating
// a backend that delivers a late end-of-stream event.
func (h *Handle) FireStaleCompletion() {
	h.mu.Lock()
	fn := h.onDone
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (h *Handle) SetPosition(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = d
}

func (h *Handle) SetDuration(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dur = d
}

// FailStart makes the next Start calls return err.
func (h *Handle) FailStart(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startErr = err
}

func (h *Handle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *Handle) Starts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts
}

func (h *Handle) Pauses() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pauses
}

func (h *Handle) Releases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releases
}

// Reads counts Position and Duration calls.
func (h *Handle) Reads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}
