//go:build !vlc || android || ios

package player

import (
	"io/fs"

	"go.uber.org/zap"
)

// VLCOpener is only functional when built with -tags vlc.
type VLCOpener struct{}

func NewVLCOpener(fs.FS, float64, *zap.Logger) (*VLCOpener, error) { return nil, ErrUnsupported }

func (o *VLCOpener) Open(string) (Handle, error) { return nil, ErrUnsupported }
func (o *VLCOpener) SetVolume(float64)           {}
