package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/sdinode/cmd"
	"github.com/smazurov/sdinode/internal/api"
	"github.com/smazurov/sdinode/internal/config"
	"github.com/smazurov/sdinode/internal/events"
	"github.com/smazurov/sdinode/internal/led"
	"github.com/smazurov/sdinode/internal/logging"
	"github.com/smazurov/sdinode/internal/receiver"
	"github.com/smazurov/sdinode/internal/systemd"
	"github.com/smazurov/sdinode/internal/version"
	"github.com/smazurov/sdinode/pkg/sdirx/uio"
	"golang.org/x/sync/errgroup"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Receiver settings
	UIODevice  string `help:"UIO device of the SDI receiver" default:"/dev/uio0" toml:"receiver.uio_device" env:"RECEIVER_UIO_DEVICE"`
	UIOMapSize int    `help:"Register map size in bytes, 0 reads it from sysfs" default:"0" toml:"receiver.uio_map_size" env:"RECEIVER_UIO_MAP_SIZE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Show lock state on the board status LED" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Systemd settings
	SystemdUnit string `help:"Unit controlled by the systemd API routes, empty disables them" default:"" toml:"systemd.unit" env:"SYSTEMD_UNIT"`

	// Logging settings. Per-module levels live in [logging.modules].
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if err := config.LoadConfig(opts, cli.Root()); err != nil {
			slog.Warn("Failed to load config", "error", err)
		}

		loggingConfig, err := config.LoadLoggingConfig(opts.Config)
		if err != nil {
			slog.Warn("Failed to load logging config", "error", err)
		}
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			defer close(done)
			logger.Info("Starting sdinode", "version", version.Get().Version)
			if err := run(ctx, opts, logger); err != nil {
				logger.Error("sdinode failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			<-done
		})
	})

	cli.Root().Version = version.Get().String()
	cli.Root().AddCommand(cmd.CreateDecodeCmd())
	cli.Root().AddCommand(cmd.CreateFormatsCmd())

	cli.Run()
}

// run wires the receiver, API, LED and systemd integration and blocks
// until ctx is done or one of them fails.
func run(ctx context.Context, opts *Options, logger *slog.Logger) error {
	dev, err := uio.Open(opts.UIODevice, opts.UIOMapSize)
	if err != nil {
		return fmt.Errorf("open receiver: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Warn("Failed to close UIO device", "error", err)
		}
	}()

	bus := events.New()

	svc, err := receiver.New(receiver.Options{
		Device:    dev.Path(),
		Registers: dev,
		IRQ:       dev,
		Bus:       bus,
		Logger:    logging.GetLogger("receiver"),
	})
	if err != nil {
		return err
	}

	apiOpts := &api.Options{
		AuthUsername:      opts.AuthUsername,
		AuthPassword:      opts.AuthPassword,
		Receiver:          svc,
		EventBus:          bus,
		PrometheusHandler: promhttp.Handler(),
	}

	if opts.FeaturesLEDControl {
		ledLogger := logging.GetLogger("led")
		ledManager := led.NewManager(led.New(ledLogger), bus, ledLogger)
		ledManager.Start()
		defer ledManager.Stop()
		apiOpts.LEDController = ledManager.Controller()
	}

	if opts.SystemdUnit != "" {
		mgr, err := systemd.NewManager(ctx, opts.SystemdUnit, false)
		if err != nil {
			logger.Warn("Systemd API disabled", "error", err)
		} else {
			defer mgr.Close()
			apiOpts.ServiceManager = mgr
		}
	}

	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	defer bus.Subscribe(func(e events.StreamStateEvent) {
		status := "no signal"
		if e.Up != nil {
			status = "locked " + e.Up.Format
		}
		if err := notifier.Status(status); err != nil {
			logger.Debug("Failed to update systemd status", "error", err)
		}
	})()

	server := api.NewServer(apiOpts)

	watcher := config.NewWatcher(opts.Config, config.LoadLoggingConfig, logging.GetLogger("config"))
	watcher.OnReload(func(cfg logging.Config) {
		logging.Reconfigure(cfg)
		logger.Info("Logging configuration reloaded", "level", cfg.Level)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error { return server.Run(gctx, opts.Port) })
	g.Go(func() error {
		if err := watcher.Run(gctx); err != nil {
			logger.Warn("Config hot reload disabled", "error", err)
		}
		return nil
	})
	g.Go(func() error { return notifier.RunWatchdog(gctx) })

	if err := notifier.Ready(); err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
	}
	if err := notifier.Status("no signal"); err != nil {
		logger.Debug("Failed to update systemd status", "error", err)
	}

	err = g.Wait()
	if stopErr := notifier.Stopping(); stopErr != nil {
		logger.Warn("Failed to notify systemd", "error", stopErr)
	}
	return err
}
