//go:generate mockgen -source=player.go -destination=mocks/mock_player.go -package=mocks

package player

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnsupported       = errors.New("media backend not available in this build")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrReleased          = errors.New("media handle already released")
	ErrUnknownBackend    = errors.New("unknown media backend")
	ErrUnknownDuration   = errors.New("duration unknown")
)

// Handle is one open, playable audio resource.
type Handle interface {
	Start() error
	Pause() error
	Position() (time.Duration, error)
	Duration() (time.Duration, error)
	// OnCompletion registers fn to run once the resource plays to its end.
	// fn is never called after Release.
	OnCompletion(fn func())
	Release() error
}

// Opener turns a bundled resource name into a Handle.
type Opener interface {
	Open(resource string) (Handle, error)
}

const (
	BackendBeep = "beep"
	BackendVLC  = "vlc"
)

// NewOpener picks a media backend by name. volume is normalized to [0,1].
func NewOpener(backend string, fsys fs.FS, volume float64, logger *zap.Logger) (Opener, error) {
	switch backend {
	case BackendBeep, "":
		return NewBeepOpener(fsys, volume, logger), nil
	case BackendVLC:
		o, err := NewVLCOpener(fsys, volume, logger)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// volumeDB maps normalized [0..1] to the beep exponent range [-4..0] with base 10, i.e. -40dB to 0dB.
func volumeDB(norm float64) float64 {
	return -4 + 4*clampVolume(norm)
}
