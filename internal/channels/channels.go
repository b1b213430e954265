// Package channels stores named groups of diagram nodes shown as channel tiles.
package channels

import (
	"context"
	"log/slog"
	"slices"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
)

// Store reads and writes channel tiles.
type Store struct {
	client awsctl.DynamoDBAPI
	table  string
	logger *slog.Logger
}

// New returns a Store over the channels table.
func New(client awsctl.DynamoDBAPI, table string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = helpers.NewNoopLogger()
	}
	return &Store{client: client, table: table, logger: logger}
}

// List returns the sorted names of every channel.
func (s *Store) List(ctx context.Context) ([]string, error) {
	nodes, err := awsctl.ScanAll[models.ChannelNode](ctx, s.client, s.table)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, node.Channel)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Nodes returns the member nodes of a channel.
func (s *Store) Nodes(ctx context.Context, name string) ([]models.ChannelNode, error) {
	return s.nodes(ctx, helpers.Unescape(name))
}

func (s *Store) nodes(ctx context.Context, name string) ([]models.ChannelNode, error) {
	input, err := awsctl.KeyQuery(s.table, "", expression.Key("channel").Equal(expression.Value(name)))
	if err != nil {
		return nil, err
	}
	return awsctl.QueryAll[models.ChannelNode](ctx, s.client, input)
}

// SetNodes replaces the member nodes of a channel.
func (s *Store) SetNodes(ctx context.Context, name string, nodes []models.ChannelNode) error {
	name = helpers.Unescape(name)
	if err := s.deleteNodes(ctx, name); err != nil {
		return err
	}
	for _, node := range nodes {
		node.Channel = name
		if err := awsctl.PutItem(ctx, s.client, s.table, node); err != nil {
			return err
		}
	}
	s.logger.Info("saved channel", slog.String("channel", name), slog.Int("nodes", len(nodes)))
	return nil
}

// Delete removes a channel and all its nodes.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.deleteNodes(ctx, helpers.Unescape(name))
}

func (s *Store) deleteNodes(ctx context.Context, name string) error {
	nodes, err := s.nodes(ctx, name)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err = awsctl.DeleteItem(ctx, s.client, s.table, map[string]string{"channel": name, "id": node.ID}); err != nil {
			return err
		}
	}
	return nil
}
