package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	FrontendGUI = "gui"
	FrontendTUI = "tui"

	ThemeDark  = "dark"
	ThemeLight = "light"

	BackendBeep = "beep"
	BackendVLC  = "vlc"

	envPrefix = "YETIFY"
	appDir    = "yetify"

	// DefaultDiscordClientID is the Rich Presence application the assets are uploaded to.
	DefaultDiscordClientID = "1433179062808875028"
)

type Config struct {
	UI struct {
		Frontend string `mapstructure:"frontend"` // "gui" or "tui"
		Theme    string `mapstructure:"theme"`    // "dark" or "light"
	} `mapstructure:"ui"`
	Player struct {
		Backend string  `mapstructure:"backend"` // "beep" or "vlc"
		Volume  float64 `mapstructure:"volume"`  // [0,1]
	} `mapstructure:"player"`
	Discord struct {
		Enabled  bool   `mapstructure:"enabled"`
		ClientID string `mapstructure:"client_id"`
	} `mapstructure:"discord"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func Default() Config {
	var c Config
	c.UI.Frontend = FrontendGUI
	c.UI.Theme = ThemeDark
	c.Player.Backend = BackendBeep
	c.Player.Volume = 1
	c.Discord.ClientID = DefaultDiscordClientID
	c.Log.Level = "info"
	return c
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("ui.frontend", d.UI.Frontend)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("player.backend", d.Player.Backend)
	v.SetDefault("player.volume", d.Player.Volume)
	v.SetDefault("discord.enabled", d.Discord.Enabled)
	v.SetDefault("discord.client_id", d.Discord.ClientID)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads defaults, then the config file, then YETIFY_* environment variables.
// An empty path searches $XDG_CONFIG_HOME/yetify and ~/.config/yetify and tolerates
// a missing file; an explicit path must exist.
func Load(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()
	return c, nil
}

// Watch calls onChange with the re-read config each time the config file changes.
// It does nothing when no file was loaded.
func Watch(v *viper.Viper, onChange func(Config), onError func(error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(fsnotify.Event) {
		c, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(c)
	})
	v.WatchConfig()
}

// normalize replaces unknown values with defaults.
func (c *Config) normalize() {
	d := Default()
	c.UI.Frontend = strings.ToLower(strings.TrimSpace(c.UI.Frontend))
	if c.UI.Frontend != FrontendGUI && c.UI.Frontend != FrontendTUI {
		c.UI.Frontend = d.UI.Frontend
	}
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if c.UI.Theme != ThemeDark && c.UI.Theme != ThemeLight {
		c.UI.Theme = d.UI.Theme
	}
	c.Player.Backend = strings.ToLower(strings.TrimSpace(c.Player.Backend))
	if c.Player.Backend != BackendBeep && c.Player.Backend != BackendVLC {
		c.Player.Backend = d.Player.Backend
	}
	if c.Player.Volume < 0 {
		c.Player.Volume = 0
	}
	if c.Player.Volume > 1 {
		c.Player.Volume = 1
	}
	if strings.TrimSpace(c.Discord.ClientID) == "" {
		c.Discord.ClientID = d.Discord.ClientID
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		c.Log.Level = d.Log.Level
	}
}

// ZapLevel is the parsed log level; normalize guarantees it parses.
func (c Config) ZapLevel() zapcore.Level {
	l, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func searchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, appDir))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", appDir))
	}
	return dirs
}
