package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/mixnode/cmd"
	"github.com/smazurov/mixnode/internal/api"
	"github.com/smazurov/mixnode/internal/config"
	"github.com/smazurov/mixnode/internal/events"
	"github.com/smazurov/mixnode/internal/layers"
	"github.com/smazurov/mixnode/internal/logging"
	"github.com/smazurov/mixnode/internal/metrics"
	"github.com/smazurov/mixnode/internal/metrics/exporters"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/sinks"
	"github.com/smazurov/mixnode/internal/video"
	"golang.org/x/sync/errgroup"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Layer settings
	LayersConfigFile string `help:"Layer definitions file" default:"layers.toml" toml:"layers.config_file" env:"LAYERS_CONFIG_FILE"`

	// Mixer settings
	Background      string `help:"Canvas background (checker, black, white, transparent)" default:"checker" toml:"mixer.background" env:"MIXER_BACKGROUND"`
	BroadcastBuffer int    `help:"Frames buffered per output subscriber" default:"8" toml:"mixer.broadcast_buffer" env:"MIXER_BROADCAST_BUFFER"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingMixer   string `help:"Mixer logging level" default:"info" toml:"logging.mixer" env:"LOGGING_MIXER"`
	LoggingLayers  string `help:"Layers logging level" default:"info" toml:"logging.layers" env:"LOGGING_LAYERS"`
	LoggingSources string `help:"Sources logging level" default:"info" toml:"logging.sources" env:"LOGGING_SOURCES"`
	LoggingSinks   string `help:"Sinks logging level" default:"info" toml:"logging.sinks" env:"LOGGING_SINKS"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"mixer":   opts.LoggingMixer,
				"layers":  opts.LoggingLayers,
				"sources": opts.LoggingSources,
				"sinks":   opts.LoggingSinks,
				"api":     opts.LoggingAPI,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		background, err := mixer.ParseBackground(opts.Background)
		if err != nil {
			logger.Warn("Invalid background, using checker", "error", err)
			background = mixer.BackgroundChecker
		}

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Build the output chain: mixer -> bus bridge -> meter -> broadcast.
		// The broadcast sink fans composited frames out to subscribers, the
		// meter feeds lateness back into the mixer.
		broadcast := sinks.NewBroadcast(video.AnyCaps())
		meter := sinks.NewMeter(broadcast, nil)
		bridge := sinks.NewBusBridge(meter, eventBus)

		compositor := mixer.NewCompositor(background)
		mix := mixer.New(compositor, bridge)
		meter.SetReporter(mix)

		// Create layer store and service
		layerStore := layers.NewTOML(opts.LayersConfigFile)
		layerService := layers.NewService(&layers.ServiceOptions{
			Store:    layerStore,
			Mixer:    mix,
			EventBus: eventBus,
		})

		// Load existing layers from TOML config into memory at startup.
		// Runtime layer management should use CRUD APIs (not reload).
		if loadErr := layerService.LoadFromConfig(); loadErr != nil {
			logger.Warn("Failed to load existing layers from config", "error", loadErr)
		}

		// Watch the layers file so edits on disk reach the running composition
		specsLoader := func(path string) (map[string]layers.LayerSpec, error) {
			s := layers.NewTOML(path)
			if err := s.Load(); err != nil {
				return nil, err
			}
			return s.GetAllLayers(), nil
		}
		watcher := config.NewConfigWatcher(
			opts.LayersConfigFile,
			specsLoader,
			logger,
			config.WithDebounce[map[string]layers.LayerSpec](1500*time.Millisecond),
		)
		watcher.OnReload(layerService.ApplySnapshot)

		// Prometheus recorder polls the mixer and listens on the bus
		recorder := metrics.NewRecorder(mix, eventBus)

		apiOpts := &api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			LayerService:      layerService,
			Mixer:             mix,
			Compositor:        compositor,
			Broadcast:         broadcast,
			FrameBuffer:       opts.BroadcastBuffer,
			EventBus:          eventBus,
			PrometheusHandler: exporters.HTTPHandler(),
		}

		server := api.NewServer(apiOpts)

		runCtx, cancelRun := context.WithCancel(context.Background())
		group, groupCtx := errgroup.WithContext(runCtx)

		hooks.OnStart(func() {
			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
			}

			group.Go(func() error {
				return mix.Run(groupCtx)
			})
			group.Go(func() error {
				return recorder.Run(groupCtx)
			})

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			_ = watcher.Stop()

			// Stop the layer sources before the mixer loop so detach does
			// not race with aggregation.
			layerService.StopAll()

			cancelRun()
			if waitErr := group.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) {
				logger.Error("Mixer stopped", "error", waitErr)
			}
		})
	})

	// Add validate-layers command
	cli.Root().AddCommand(cmd.ValidateLayersCmd)

	// Add render command
	renderCmd := cmd.CreateRenderCmd()
	cli.Root().AddCommand(renderCmd)

	// Run the CLI
	cli.Run()
}
