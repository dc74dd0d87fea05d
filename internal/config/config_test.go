package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, FrontendGUI, cfg.UI.Frontend)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, BackendBeep, cfg.Player.Backend)
	assert.Equal(t, 1.0, cfg.Player.Volume)
	assert.False(t, cfg.Discord.Enabled)
	assert.Equal(t, zapcore.InfoLevel, cfg.ZapLevel())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
ui:
  frontend: tui
  theme: light
player:
  backend: vlc
  volume: 0.4
discord:
  enabled: true
  client_id: "42"
log:
  level: debug
`)
	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, FrontendTUI, cfg.UI.Frontend)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
	assert.Equal(t, BackendVLC, cfg.Player.Backend)
	assert.InDelta(t, 0.4, cfg.Player.Volume, 1e-9)
	assert.True(t, cfg.Discord.Enabled)
	assert.Equal(t, "42", cfg.Discord.ClientID)
	assert.Equal(t, zapcore.DebugLevel, cfg.ZapLevel())
}

func TestLoadSearchesXDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "yetify")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ui:\n  theme: light\n"), 0o644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, cfg.UI.Theme)
}

func TestLoadNormalizesUnknownValues(t *testing.T) {
	path := writeConfig(t, `
ui:
  frontend: web
  theme: Solarized
player:
  backend: winamp
  volume: 3
discord:
  client_id: "  "
log:
  level: loud
`)
	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, FrontendGUI, cfg.UI.Frontend)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, BackendBeep, cfg.Player.Backend)
	assert.Equal(t, 1.0, cfg.Player.Volume)
	assert.Equal(t, DefaultDiscordClientID, cfg.Discord.ClientID)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadNegativeVolume(t *testing.T) {
	cfg, err := Load(viper.New(), writeConfig(t, "player:\n  volume: -0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Player.Volume)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "player:\n  volume: 0.4\nui:\n  theme: light\n")
	t.Setenv("YETIFY_PLAYER_VOLUME", "0.7")
	t.Setenv("YETIFY_UI_THEME", "DARK")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, cfg.Player.Volume, 1e-9)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
}

func TestOverridesWinOverEverything(t *testing.T) {
	v := viper.New()
	v.Set("ui.frontend", FrontendTUI)
	t.Setenv("YETIFY_UI_FRONTEND", "gui")

	cfg, err := Load(v, writeConfig(t, "ui:\n  frontend: gui\n"))
	require.NoError(t, err)
	assert.Equal(t, FrontendTUI, cfg.UI.Frontend)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(viper.New(), writeConfig(t, "ui: [unterminated"))
	assert.Error(t, err)
}

func TestWatchWithoutFileIsNoop(t *testing.T) {
	v := viper.New()
	called := false
	Watch(v, func(Config) { called = true }, nil)
	assert.False(t, called)
}
