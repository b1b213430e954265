// Package settings stores application settings by key.
package settings

import (
	"context"
	"log/slog"

	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
)

// NotFoundError reports a missing setting.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return "setting " + e.Key + " not found"
}

// Store reads and writes settings.
type Store struct {
	client awsctl.DynamoDBAPI
	table  string
	logger *slog.Logger
}

// New returns a Store over the settings table.
func New(client awsctl.DynamoDBAPI, table string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	return &Store{client: client, table: table, logger: logger}
}

// Get returns the setting stored under key.
func (s *Store) Get(ctx context.Context, key string) (models.Setting, error) {
	key = helpers.Unescape(key)
	setting, found, err := awsctl.GetItem[models.Setting](ctx, s.client, s.table, map[string]string{"id": key})
	if err != nil {
		return setting, err
	}
	if !found {
		return setting, &NotFoundError{Key: key}
	}
	return setting, nil
}

// Put stores value under key.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	key = helpers.Unescape(key)
	if err := awsctl.PutItem(ctx, s.client, s.table, models.Setting{ID: key, Value: value}); err != nil {
		return err
	}
	s.logger.Debug("saved setting", slog.String("key", key))
	return nil
}

// Delete removes the setting stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return awsctl.DeleteItem(ctx, s.client, s.table, map[string]string{"id": helpers.Unescape(key)})
}
