//go:build !vlc

package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"yetify/internal/catalog"
)

func TestVLCUnavailableWithoutTag(t *testing.T) {
	o, err := NewOpener(BackendVLC, catalog.Assets(), 1, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Nil(t, o)
}
