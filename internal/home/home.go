package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the bookcast home directory.
	DefaultDirName = ".bookcast"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir is the bookcast home directory:
//
//	config.yaml
//	defradb/                      DefraDB data (bind mounted into the container)
//	books/<book_id>/<file>        uploaded book files
//	audio/<book_id>/<tone_id>/    rendered episode audio
type Dir struct {
	path string
}

// New creates a Dir at path, or at ~/.bookcast when path is empty.
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DefraDataPath returns the DefraDB data directory.
func (d *Dir) DefraDataPath() string {
	return filepath.Join(d.path, "defradb")
}

// BooksDir returns the directory holding uploaded book files.
func (d *Dir) BooksDir() string {
	return filepath.Join(d.path, "books")
}

// BookDir returns the directory for one uploaded book.
func (d *Dir) BookDir(bookID string) string {
	return filepath.Join(d.BooksDir(), bookID)
}

// AudioDir returns the directory for generated audio files.
func (d *Dir) AudioDir() string {
	return filepath.Join(d.path, "audio")
}

// EpisodeAudioPath returns where an episode's audio is written.
func (d *Dir) EpisodeAudioPath(bookID, toneID string, episode int, format string) string {
	return filepath.Join(d.AudioDir(), bookID, toneID, fmt.Sprintf("episode_%03d.%s", episode, format))
}

// EnsureExists creates the home directory and its fixed subdirectories.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DefraDataPath(), d.BooksDir(), d.AudioDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
