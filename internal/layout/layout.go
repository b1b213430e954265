// Package layout stores the positions of diagram nodes per view.
package layout

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

// Store reads and writes node layouts.
type Store struct {
	client awsctl.DynamoDBAPI
	table  string
	logger *slog.Logger
}

// New returns a Store over the layout table.
func New(client awsctl.DynamoDBAPI, table string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	return &Store{client: client, table: table, logger: logger}
}

// View returns the node positions of a view.
func (s *Store) View(ctx context.Context, view string) ([]models.LayoutItem, error) {
	input, err := awsctl.KeyQuery(s.table, "", expression.Key("view").Equal(expression.Value(helpers.Unescape(view))))
	if err != nil {
		return nil, err
	}
	return awsctl.QueryAll[models.LayoutItem](ctx, s.client, input)
}

// SetNodes stores the node positions, overwriting previous positions of the same nodes.
func (s *Store) SetNodes(ctx context.Context, items []models.LayoutItem) error {
	for _, item := range items {
		if item.View == "" || item.ID == "" {
			return errors.New("layout item requires view and id")
		}
		if err := awsctl.PutItem(ctx, s.client, s.table, item); err != nil {
			return err
		}
	}
	s.logger.Debug("saved layout", slog.Int("count", len(items)))
	return nil
}

// DeleteNode removes the position of one node from a view.
func (s *Store) DeleteNode(ctx context.Context, view, id string) error {
	return awsctl.DeleteItem(ctx, s.client, s.table, map[string]string{
		"view": helpers.Unescape(view),
		"id":   helpers.Unescape(id),
	})
}
