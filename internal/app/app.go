package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/homedash/internal/bluetooth"
	"github.com/five82/homedash/internal/config"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/logger"
	"github.com/five82/homedash/internal/netatmo"
	"github.com/five82/homedash/internal/prefs"
	"github.com/five82/homedash/internal/ui"
	"github.com/five82/homedash/internal/weather"
)

// Options configure the homedash application.
type Options struct {
	ConfigPath string
	EnvFile    string
	PrefsPath  string // empty uses default ~/.config/homedash/prefs.toml
	LogLevel   string // overrides the configured level when set
}

// Run boots homedash until the presentation exits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log, err := logger.New(logger.Options{Path: cfg.Log.Path, Level: level})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("homedash starting", zap.Int("devices", len(cfg.Bluetooth.Devices)), zap.Bool("weather", cfg.Netatmo.Enabled()), zap.Bool("display", cfg.Display.Enabled))

	components := Components{
		Bluetooth: bluetoothInit(cfg.Bluetooth, log.Named("bluetooth")),
		Logger:    log,
	}
	if cfg.Netatmo.Enabled() {
		w, err := newWeatherWatcher(cfg.Netatmo, log.Named("weather"))
		if err != nil {
			return err
		}
		components.Weather = w
	}
	if cfg.Display.Enabled {
		components.Display = display.NewWatcher(display.Options{
			Enumerate:      display.EnumerateI2C(cfg.Display.SysfsDRM, cfg.Display.DevDir),
			PreferredModel: cfg.Display.PreferredModel,
			Interval:       cfg.Display.PollInterval.Std(),
			Logger:         log.Named("display"),
		})
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	present := func(ctx context.Context, link Link) error {
		return ui.Run(ui.Options{
			Context:        ctx,
			Snapshots:      link.Snapshots,
			Commands:       link.Commands,
			Redraw:         link.Redraw,
			ThemeName:      userPrefs.Theme,
			BrightnessStep: userPrefs.BrightnessStep,
			PrefsPath:      opts.PrefsPath,
			LogPath:        cfg.Log.Path,
			Logger:         log.Named("ui"),
		})
	}

	return NewOrchestrator(components).Run(ctx, present)
}

func bluetoothInit(cfg config.BluetoothConfig, log *zap.Logger) func(context.Context) (BluetoothWatcher, error) {
	targets := make([]bluetooth.Target, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		targets = append(targets, bluetooth.Target{Name: d.Name, Address: d.Address})
	}
	return func(ctx context.Context) (BluetoothWatcher, error) {
		w, err := bluetooth.Initialize(ctx, bluetooth.OpenBlueZ, targets, log)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

func newWeatherWatcher(cfg config.NetatmoConfig, log *zap.Logger) (*weather.Watcher, error) {
	client, err := netatmo.NewClient(cfg.BaseURL, cfg.RequestTimeout.Std())
	if err != nil {
		return nil, fmt.Errorf("init netatmo client: %w", err)
	}
	tokens, err := netatmo.NewTokenSource(cfg.BaseURL, netatmo.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
		Username:     cfg.Username,
		Password:     cfg.Password,
	}, client.HTTPClient())
	if err != nil {
		return nil, fmt.Errorf("init netatmo token source: %w", err)
	}
	return weather.NewWatcher(weather.Options{
		Tokens:   tokens,
		API:      client,
		Station:  cfg.Station,
		Rooms:    cfg.Rooms,
		Interval: cfg.PollInterval.Std(),
		Logger:   log,
	}), nil
}
