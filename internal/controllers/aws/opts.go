package aws

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithContext sets a custom context to be used by the Controller instance for request operations.
func WithContext(ctx context.Context) Option {
	return func(a *Controller) {
		a.ctx = ctx
	}
}

// WithConfig uses the given AWS configuration instead of loading the default one.
func WithConfig(cfg *aws.Config) Option {
	return func(a *Controller) {
		a.config = cfg
	}
}

// WithDynamoDBRegion pins the DynamoDB client to the region hosting the tables.
func WithDynamoDBRegion(region string) Option {
	return func(a *Controller) {
		a.dynamoRegion = region
	}
}
