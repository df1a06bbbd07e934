package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/defra"
	"github.com/jackzampolin/bookcast/internal/logging"
	"github.com/jackzampolin/bookcast/internal/server"
)

var (
	serveHost     string
	servePort     string
	serveDefraURL string
	serveMemory   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Bookcast server",
	Long: `Start the Bookcast HTTP server.

By default this starts a DefraDB container that stores books and podcast
artifacts. When the server shuts down (via Ctrl+C or SIGTERM), in-flight
series runs are cancelled and DefraDB is stopped.

Use --defra-url to connect to a DefraDB instance you manage yourself, or
--memory to keep everything in process memory.

Examples:
  bookcast serve                              # Start on default port 8080
  bookcast serve --port 3000                  # Start on custom port
  bookcast serve --memory                     # No DefraDB, nothing persisted
  bookcast serve --defra-url http://db:9181   # Use an external DefraDB`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		logger, logCloser, err := logging.New(cfg.LoggingConfig(), os.Stdout)
		if err != nil {
			return err
		}
		defer logCloser.Close()
		slog.SetDefault(logger)

		mgr.WatchConfig()
		if f := mgr.ConfigFile(); f != "" {
			logger.Info("config loaded", "file", f)
		}

		srv, err := server.New(server.Config{
			Host: serveHost,
			Port: servePort,
			Home: h,
			DefraConfig: defra.DockerConfig{
				ContainerName: cfg.Defra.ContainerName,
				Image:         cfg.Defra.Image,
				HostPort:      cfg.Defra.Port,
				DataPath:      h.DefraDataPath(),
			},
			DefraURL:      serveDefraURL,
			InMemory:      serveMemory,
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().StringVar(&serveDefraURL, "defra-url", "", "Use an already running DefraDB at this URL")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Keep books and artifacts in memory")
	serveCmd.MarkFlagsMutuallyExclusive("defra-url", "memory")

	rootCmd.AddCommand(serveCmd)
}
