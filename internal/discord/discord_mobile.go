//go:build android || ios

package discord

import (
	"errors"

	"go.uber.org/zap"

	"yetify/internal/playback"
)

var ErrUnsupported = errors.New("discord presence not available on mobile")

// Presence is a no-op on mobile builds: there is no local Discord IPC socket.
type Presence struct{}

func NewPresence(string, *zap.Logger) *Presence { return &Presence{} }

func (p *Presence) Connect() error { return ErrUnsupported }
func (p *Presence) Observe(playback.State) {}
func (p *Presence) Disconnect() {}
