//go:build vlc && !android && !ios

package player

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	vlc "github.com/adrg/libvlc-go/v3"
	"go.uber.org/zap"
)

var (
	vlcOnce    sync.Once
	vlcInitErr error
)

// VLCOpener plays bundled assets through libVLC. libVLC wants a path, so each
// handle owns a temp copy of its asset that is removed on Release.
type VLCOpener struct {
	fsys   fs.FS
	logger *zap.Logger

	mu      sync.Mutex
	volNorm float64
	live    *vlcHandle
}

func NewVLCOpener(fsys fs.FS, volume float64, logger *zap.Logger) (*VLCOpener, error) {
	vlcOnce.Do(func() {
		vlcInitErr = vlc.Init("--no-video", "--quiet")
	})
	if vlcInitErr != nil {
		return nil, fmt.Errorf("init libvlc: %w", vlcInitErr)
	}
	return &VLCOpener{fsys: fsys, logger: logger, volNorm: clampVolume(volume)}, nil
}

func (o *VLCOpener) SetVolume(norm float64) {
	o.mu.Lock()
	o.volNorm = clampVolume(norm)
	h := o.live
	v := o.volNorm
	o.mu.Unlock()
	if h != nil {
		_ = h.p.SetVolume(int(v * 100))
	}
}

func (o *VLCOpener) Open(resource string) (Handle, error) {
	tmp, err := extract(o.fsys, resource)
	if err != nil {
		return nil, err
	}

	p, err := vlc.NewPlayer()
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("new vlc player: %w", err)
	}
	h := &vlcHandle{p: p, path: tmp, owner: o}

	m, err := vlc.NewMediaFromPath(tmp)
	if err != nil {
		h.destroy()
		return nil, fmt.Errorf("open %s: %w", resource, err)
	}
	if err := p.SetMedia(m); err != nil {
		_ = m.Release()
		h.destroy()
		return nil, fmt.Errorf("set media %s: %w", resource, err)
	}
	_ = m.Release()

	em, err := p.EventManager()
	if err != nil {
		h.destroy()
		return nil, fmt.Errorf("vlc events: %w", err)
	}
	id, err := em.Attach(vlc.MediaPlayerEndReached, func(vlc.Event, interface{}) {
		// libVLC forbids calling back into the player from its event thread.
		go h.finish()
	}, nil)
	if err != nil {
		h.destroy()
		return nil, fmt.Errorf("vlc attach: %w", err)
	}
	h.events, h.endID = em, id

	o.mu.Lock()
	_ = p.SetVolume(int(o.volNorm * 100))
	o.live = h
	o.mu.Unlock()

	o.logger.Debug("opened vlc media handle", zap.String("resource", resource), zap.String("path", tmp))
	return h, nil
}

func (o *VLCOpener) forget(h *vlcHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.live == h {
		o.live = nil
	}
}

func extract(fsys fs.FS, resource string) (string, error) {
	data, err := fs.ReadFile(fsys, resource)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", resource, err)
	}
	f, err := os.CreateTemp("", "yetify-*"+filepath.Ext(resource))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

type vlcHandle struct {
	owner  *VLCOpener
	p      *vlc.Player
	path   string
	events *vlc.EventManager
	endID  vlc.EventID

	mu       sync.Mutex
	onDone   func()
	started  bool
	finished bool
	released bool
}

func (h *vlcHandle) OnCompletion(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDone = fn
}

func (h *vlcHandle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	if h.started && !h.finished {
		return h.p.SetPause(false)
	}
	if h.finished {
		// An ended player only restarts from a stopped state.
		if err := h.p.Stop(); err != nil {
			return err
		}
	}
	if err := h.p.Play(); err != nil {
		return err
	}
	h.started, h.finished = true, false
	return nil
}

func (h *vlcHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	return h.p.SetPause(true)
}

func (h *vlcHandle) finish() {
	h.mu.Lock()
	if h.released || h.finished {
		h.mu.Unlock()
		return
	}
	h.finished = true
	fn := h.onDone
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (h *vlcHandle) Position() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, ErrReleased
	}
	ms, err := h.p.MediaTime()
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (h *vlcHandle) Duration() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, ErrReleased
	}
	ms, err := h.p.MediaLength()
	if err != nil {
		return 0, err
	}
	if ms <= 0 {
		return 0, ErrUnknownDuration
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (h *vlcHandle) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	h.mu.Unlock()

	err := h.destroy()
	h.owner.forget(h)
	return err
}

func (h *vlcHandle) destroy() error {
	if h.events != nil {
		h.events.Detach(h.endID)
	}
	_ = h.p.Stop()
	err := h.p.Release()
	_ = os.Remove(h.path)
	return err
}
