package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/defra"
	"github.com/jackzampolin/bookcast/internal/schema"
)

var defraCmd = &cobra.Command{
	Use:   "defra",
	Short: "Manage the DefraDB container",
	Long: `Manage the DefraDB container lifecycle.

DefraDB stores the book library and every podcast artifact (outlines and
episode scripts). The database runs in a Docker container with data
persisted to ~/.bookcast/defradb/. Container name, image and port come from
the defra section of the config file.

Examples:
  bookcast defra start   # Start the container and apply the schema
  bookcast defra stop    # Stop the container (data preserved)
  bookcast defra status  # Check container status
  bookcast defra logs    # View container logs`,
}

// withDockerManager builds a DockerManager from config and runs fn with it.
func withDockerManager(cmd *cobra.Command, fn func(ctx context.Context, mgr *defra.DockerManager) error) error {
	h, err := getHome()
	if err != nil {
		return err
	}
	cm, err := loadConfig(h)
	if err != nil {
		return err
	}
	cfg := cm.Get().Defra

	mgr, err := defra.NewDockerManager(defra.DockerConfig{
		ContainerName: cfg.ContainerName,
		Image:         cfg.Image,
		HostPort:      cfg.Port,
		DataPath:      h.DefraDataPath(),
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	return fn(cmd.Context(), mgr)
}

var defraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DefraDB container",
	Long: `Start the DefraDB container.

If the container doesn't exist, it is created and started. If it exists but
is stopped, it is started. Once healthy, the Book and Artifact collections
are added if missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Println("Starting DefraDB...")
			if err := mgr.Start(ctx); err != nil {
				return fmt.Errorf("failed to start DefraDB: %w", err)
			}
			if err := schema.Initialize(ctx, defra.NewClient(mgr.URL()), slog.Default()); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
			fmt.Printf("DefraDB is running at %s\n", mgr.URL())
			return nil
		})
	},
}

var defraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the DefraDB container",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Println("Stopping DefraDB...")
			if err := mgr.Stop(ctx); err != nil {
				return fmt.Errorf("failed to stop DefraDB: %w", err)
			}
			fmt.Println("DefraDB stopped")
			return nil
		})
	},
}

var defraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show DefraDB container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			status, err := mgr.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			switch status {
			case defra.StatusRunning:
				fmt.Printf("Status: %s\n", status)
				fmt.Printf("URL: %s\n", mgr.URL())
				if err := defra.NewClient(mgr.URL()).HealthCheck(ctx); err != nil {
					fmt.Printf("Health: unhealthy (%v)\n", err)
				} else {
					fmt.Println("Health: healthy")
				}
			case defra.StatusStopped:
				fmt.Printf("Status: %s (use 'bookcast defra start' to start)\n", status)
			case defra.StatusNotFound:
				fmt.Printf("Status: %s (use 'bookcast defra start' to create)\n", status)
			default:
				fmt.Printf("Status: %s\n", status)
			}
			return nil
		})
	},
}

var logsTail string

var defraLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show DefraDB container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			logs, err := mgr.Logs(ctx, logsTail)
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}
			fmt.Print(logs)
			return nil
		})
	},
}

var defraRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the DefraDB container",
	Long: `Remove the DefraDB container.

Data in ~/.bookcast/defradb/ is NOT deleted, only the container.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Println("Removing DefraDB container...")
			if err := mgr.Remove(ctx); err != nil {
				return fmt.Errorf("failed to remove container: %w", err)
			}
			fmt.Println("DefraDB container removed (data preserved)")
			return nil
		})
	},
}

var defraWaitTimeout time.Duration

var defraWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for DefraDB to be ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Printf("Waiting for DefraDB (timeout: %s)...\n", defraWaitTimeout)
			if err := mgr.WaitReady(ctx, defraWaitTimeout); err != nil {
				return fmt.Errorf("DefraDB not ready: %w", err)
			}
			fmt.Println("DefraDB is ready")
			return nil
		})
	},
}

func init() {
	defraCmd.AddCommand(defraStartCmd)
	defraCmd.AddCommand(defraStopCmd)
	defraCmd.AddCommand(defraStatusCmd)
	defraCmd.AddCommand(defraLogsCmd)
	defraCmd.AddCommand(defraRemoveCmd)
	defraCmd.AddCommand(defraWaitCmd)

	defraLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	defraWaitCmd.Flags().DurationVar(&defraWaitTimeout, "timeout", 30*time.Second, "Timeout waiting for DefraDB")

	rootCmd.AddCommand(defraCmd)
}
