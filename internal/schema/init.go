package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/bookcast/internal/defra"
)

// Initialize applies all schemas to DefraDB. Collections that already exist
// are skipped, so it is safe to call on every server start.
func Initialize(ctx context.Context, client *defra.Client, logger *slog.Logger) error {
	schemas, err := All()
	if err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	for _, s := range schemas {
		err := client.AddSchema(ctx, s.SDL)
		switch {
		case err == nil:
			logger.Info("schema added", "name", s.Name)
		case isAlreadyExists(err):
			logger.Debug("schema already exists", "name", s.Name)
		default:
			return fmt.Errorf("failed to add schema %s: %w", s.Name, err)
		}
	}
	return nil
}

// DefraDB only reports this condition in the response body.
func isAlreadyExists(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}
