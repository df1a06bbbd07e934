package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/config"
	"github.com/jackzampolin/bookcast/internal/home"
	"github.com/jackzampolin/bookcast/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "bookcast",
	Short: "Turn e-books into multi-episode podcast series",
	Long: `Bookcast turns EPUB, PDF and plain-text books into podcast series.

A series run:
  - Reuses an existing series for the same book and tone when one exists
  - Extracts and condenses the book text
  - Plans an outline of seasons and episodes with an LLM
  - Writes two-host dialogue scripts in batches, recording failures per episode
  - Renders episode audio on demand with a text-to-speech provider`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookcast/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bookcast home directory (default: ~/.bookcast)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the home directory, creating it if needed.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	return h, nil
}

// loadConfig loads .env files from the working and home directories, then
// opens the config named by --config, falling back to the home directory's
// config.yaml when it exists.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	if _, err := config.LoadDotEnv(".env", filepath.Join(h.Path(), ".env")); err != nil {
		return nil, err
	}
	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}
