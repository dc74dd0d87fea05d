package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"yetify/internal/catalog"
	"yetify/internal/config"
	"yetify/internal/discord"
	"yetify/internal/playback"
	"yetify/internal/player"
	"yetify/internal/tui"
	"yetify/internal/ui"
)

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, cfg config.Config, v *viper.Viper) error

func newRootCmd(runner runFunc) *cobra.Command {
	v := viper.New()
	var configPath string
	var useTUI bool

	cmd := &cobra.Command{
		Use:           "yetify",
		Short:         "A tiny music player for three bundled songs",
		Version:       appVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if useTUI {
				v.Set("ui.frontend", config.FrontendTUI)
			}
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return runner(cmd.Context(), cfg, v)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/yetify/config.yaml)")
	flags.BoolVar(&useTUI, "tui", false, "run in the terminal instead of a window")
	flags.String("backend", config.BackendBeep, "media backend: beep or vlc")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	_ = v.BindPFlag("player.backend", flags.Lookup("backend"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	return cmd
}

// AppOptions is the dependency graph shared by both frontends.
func AppOptions(cfg config.Config, v *viper.Viper) fx.Option {
	return fx.Options(
		fx.Supply(cfg, v),
		fx.Provide(
			newLogger,
			newOpener,
			newController,
			newPresence,
		),
		fx.Invoke(registerHooks),
	)
}

func run(ctx context.Context, cfg config.Config, v *viper.Viper) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var ctrl *playback.Controller
	var logger *zap.Logger
	app := fx.New(
		AppOptions(cfg, v),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Populate(&ctrl, &logger),
	)

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	if cfg.UI.Frontend == config.FrontendTUI {
		return tui.Run(ctx, ctrl)
	}
	runGUI(ctx, cfg, ctrl, logger)
	return nil
}

func runGUI(ctx context.Context, cfg config.Config, ctrl *playback.Controller, logger *zap.Logger) {
	a := fyneapp.NewWithID("io.yetify.player")
	a.Settings().SetTheme(ui.NewTheme(cfg.UI.Theme))

	w := a.NewWindow(ui.WindowTitle)
	root := ui.NewRoot(w, ctrl, logger)
	defer root.Close()

	go func() {
		<-ctx.Done()
		fyne.Do(a.Quit)
	}()

	w.ShowAndRun()
}

// newLogger builds a production logger at the configured level. The terminal
// frontend owns the screen, so its logs go to a file instead of stderr.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	if cfg.UI.Frontend == config.FrontendTUI {
		path := filepath.Join(os.TempDir(), "yetify.log")
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	return zc.Build()
}

func newOpener(cfg config.Config, logger *zap.Logger) (player.Opener, error) {
	return player.NewOpener(cfg.Player.Backend, catalog.Assets(), cfg.Player.Volume, logger)
}

func newController(opener player.Opener, logger *zap.Logger) (*playback.Controller, error) {
	return playback.New(opener, catalog.Songs(), logger)
}

func newPresence(cfg config.Config, logger *zap.Logger) *discord.Presence {
	return discord.NewPresence(cfg.Discord.ClientID, logger)
}

type volumeSetter interface {
	SetVolume(norm float64)
}

// registerHooks connects the optional integrations on start and releases
// the media handle on every exit path.
func registerHooks(
	lc fx.Lifecycle,
	cfg config.Config,
	v *viper.Viper,
	logger *zap.Logger,
	opener player.Opener,
	ctrl *playback.Controller,
	presence *discord.Presence,
) {
	var unsubscribe func()

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("yetify started",
				zap.String("frontend", cfg.UI.Frontend),
				zap.String("backend", cfg.Player.Backend),
			)

			if cfg.Discord.Enabled {
				if err := presence.Connect(); err != nil {
					// non-fatal, Observe retries
					logger.Warn("discord connect failed", zap.Error(err))
				}
				unsubscribe = ctrl.Subscribe(presence.Observe)
			}

			config.Watch(v, func(c config.Config) {
				if vs, ok := opener.(volumeSetter); ok {
					vs.SetVolume(c.Player.Volume)
					logger.Info("volume changed", zap.Float64("volume", c.Player.Volume))
				}
			}, func(err error) {
				logger.Warn("config reload failed", zap.Error(err))
			})
			return nil
		},
		OnStop: func(context.Context) error {
			if unsubscribe != nil {
				unsubscribe()
			}
			err := ctrl.Release()
			presence.Disconnect()
			logger.Info("yetify stopped")
			if syncErr := logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.ENOTTY) && !errors.Is(syncErr, syscall.EINVAL) {
				err = errors.Join(err, syncErr)
			}
			return err
		},
	})
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-(no build info)"
	}
	if bi.Main.Version == "" {
		return "unknown-(no version)"
	}
	return bi.Main.Version
}
