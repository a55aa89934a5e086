package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/smazurov/mixnode/internal/config"
	"github.com/smazurov/mixnode/internal/layers"
	"github.com/smazurov/mixnode/internal/logging"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/sinks"
	"github.com/spf13/cobra"
)

// CreateRenderCmd creates the render command.
func CreateRenderCmd() *cobra.Command {
	var configFile string
	var background string
	var duration time.Duration
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run the composition headless",
		Long: `Loads the layer configuration and runs the mixer against a counting sink ` +
			`for the given duration. Useful for exercising a composition without the API server.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			// Initialize minimal logging
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("render")

			logger.Info("Starting render command", "config", configFile, "duration", duration)

			bg, err := mixer.ParseBackground(background)
			if err != nil {
				logger.Error("Invalid background", "error", err)
				os.Exit(1)
			}

			sink := sinks.NewNull()
			compositor := mixer.NewCompositor(bg)
			mix := mixer.New(compositor, sink)

			service := layers.NewService(&layers.ServiceOptions{
				Store: layers.NewTOML(configFile),
				Mixer: mix,
			})
			if err := service.LoadFromConfig(); err != nil {
				logger.Error("Failed to load layer configuration", "error", err, "config", configFile)
				os.Exit(1)
			}
			defer service.StopAll()

			// Pick up layer edits while rendering, same as the server does.
			specsLoader := func(path string) (map[string]layers.LayerSpec, error) {
				s := layers.NewTOML(path)
				if err := s.Load(); err != nil {
					return nil, err
				}
				return s.GetAllLayers(), nil
			}
			watcher := config.NewConfigWatcher(
				configFile,
				specsLoader,
				logger,
				config.WithDebounce[map[string]layers.LayerSpec](1500*time.Millisecond),
			)
			watcher.OnReload(service.ApplySnapshot)
			if err := watcher.Start(); err != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", err)
			} else {
				defer func() { _ = watcher.Stop() }()
			}

			ctx, cancel := context.WithTimeout(context.Background(), duration)
			defer cancel()

			runErr := mix.Run(ctx)
			if runErr != nil && !errors.Is(runErr, context.DeadlineExceeded) {
				logger.Error("Mixer stopped", "error", runErr)
				os.Exit(1)
			}

			stats := mix.Stats()
			logger.Info("Render finished",
				"frames", sink.Frames(),
				"processed", stats.Processed,
				"dropped", stats.Dropped,
				"eos", sink.EOS())
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "layers.toml", "Path to layer configuration file")
	cmd.Flags().StringVar(&background, "background", "checker", "Canvas background (checker, black, white, transparent)")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to run the composition")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}
