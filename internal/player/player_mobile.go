//go:build android || ios

package player

import (
	"io/fs"

	"go.uber.org/zap"
)

// BeepOpener has no audio device on mobile builds; every Open fails and the controller reports it.
type BeepOpener struct {
	volNorm float64
}

func NewBeepOpener(_ fs.FS, volume float64, _ *zap.Logger) *BeepOpener {
	return &BeepOpener{volNorm: clampVolume(volume)}
}

func (o *BeepOpener) Open(string) (Handle, error) { return nil, ErrUnsupported }
func (o *BeepOpener) SetVolume(norm float64)      { o.volNorm = clampVolume(norm) }
func (o *BeepOpener) Volume() float64             { return o.volNorm }
