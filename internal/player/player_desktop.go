//go:build !android && !ios

package player

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"
)

var (
	speakerOnce sync.Once
	speakerErr  error
	// Fixed speaker rate; every input is resampled so the audio device is initialised exactly once.
	speakerSR = beep.SampleRate(44100)
)

func ensureSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerSR, speakerSR.N(time.Second/10))
	})
	return speakerErr
}

// BeepOpener decodes bundled assets with beep and plays them on the shared speaker.
type BeepOpener struct {
	fsys   fs.FS
	logger *zap.Logger

	mu      sync.Mutex
	volNorm float64
	live    *beepHandle
}

func NewBeepOpener(fsys fs.FS, volume float64, logger *zap.Logger) *BeepOpener {
	return &BeepOpener{fsys: fsys, logger: logger, volNorm: clampVolume(volume)}
}

// SetVolume sets volume with a normalized value in [0,1] and applies it to the live handle.
func (o *BeepOpener) SetVolume(norm float64) {
	o.mu.Lock()
	o.volNorm = clampVolume(norm)
	h := o.live
	v := o.volNorm
	o.mu.Unlock()
	if h != nil {
		h.setVolume(v)
	}
}

func (o *BeepOpener) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volNorm
}

func (o *BeepOpener) Open(resource string) (Handle, error) {
	data, err := fs.ReadFile(o.fsys, resource)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resource, err)
	}
	stream, format, err := decode(resource, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", resource, err)
	}
	if err := ensureSpeaker(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	h := &beepHandle{stream: stream, format: format, volNorm: o.volNorm, owner: o}
	h.rebuild()
	o.live = h
	o.logger.Debug("opened media handle",
		zap.String("resource", resource),
		zap.Int("sampleRate", int(format.SampleRate)))
	return h, nil
}

func (o *BeepOpener) forget(h *beepHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.live == h {
		o.live = nil
	}
}

func decode(name string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	rc := nopCloser{bytes.NewReader(data)}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".mp3":
		return mp3.Decode(rc)
	case ".wav":
		return wav.Decode(rc)
	case ".flac":
		return flac.Decode(rc)
	case ".ogg":
		return vorbis.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

type beepHandle struct {
	owner *BeepOpener

	mu       sync.Mutex
	stream   beep.StreamSeekCloser // decoder, seekable
	format   beep.Format
	vol      *effects.Volume
	ctrl     *beep.Ctrl
	volNorm  float64
	onDone   func()
	started  bool
	finished bool
	released bool
}

// rebuild recreates the resampler chain. Needed after every seek since the resampler buffers input.
func (h *beepHandle) rebuild() {
	resampled := beep.Resample(4, h.format.SampleRate, speakerSR, h.stream)
	h.vol = &effects.Volume{Streamer: resampled, Base: 10, Volume: volumeDB(h.volNorm), Silent: h.volNorm <= 0}
	h.ctrl = &beep.Ctrl{Streamer: h.vol, Paused: true}
}

func (h *beepHandle) OnCompletion(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDone = fn
}

func (h *beepHandle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	if h.started && !h.finished {
		speaker.Lock()
		h.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}
	if h.finished {
		// The previous sequence already drained out of the mixer; rewind and queue a fresh one.
		if err := h.stream.Seek(0); err != nil {
			return fmt.Errorf("rewind: %w", err)
		}
		h.rebuild()
	}
	h.started = true
	h.finished = false
	h.ctrl.Paused = false
	speaker.Play(beep.Seq(h.ctrl, beep.Callback(h.completed)))
	return nil
}

func (h *beepHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// completed runs on the speaker goroutine with the speaker locked, so the real work is handed off.
func (h *beepHandle) completed() {
	go h.finish()
}

func (h *beepHandle) finish() {
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

func (h *beepHandle) Position() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, ErrReleased
	}
	speaker.Lock()
	pos := h.stream.Position()
	speaker.Unlock()
	return h.format.SampleRate.D(pos), nil
}

func (h *beepHandle) Duration() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, ErrReleased
	}
	l := h.stream.Len()
	if l <= 0 || h.format.SampleRate == 0 {
		return 0, ErrUnknownDuration
	}
	return h.format.SampleRate.D(l), nil
}

func (h *beepHandle) setVolume(norm float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volNorm = norm
	if h.vol == nil {
		return
	}
	speaker.Lock()
	h.vol.Volume = volumeDB(norm)
	h.vol.Silent = norm <= 0
	speaker.Unlock()
}

func (h *beepHandle) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	// A nil streamer makes the Ctrl report exhaustion, so the mixer drops the sequence on its next pass.
	speaker.Lock()
	h.ctrl.Paused = true
	h.ctrl.Streamer = nil
	speaker.Unlock()
	err := h.stream.Close()
	h.mu.Unlock()

	h.owner.forget(h)
	return err
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
