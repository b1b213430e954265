// Package cache provides the content cache of discovered media resources.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

// ServiceRegionIndex is the secondary index keyed by service (hash) and region (range).
const ServiceRegionIndex = "ServiceRegionIndex"

// RegionLister enumerates the regions of the account.
type RegionLister interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// Option is a functional option of the Cache.
type Option func(*Cache)

// WithLogger sets the logger of the Cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithRegionLister sets the region catalog client.
func WithRegionLister(regions RegionLister) Option {
	return func(c *Cache) {
		c.regions = regions
	}
}

// WithItemTTL sets the lifetime applied to entries written without an expiry.
func WithItemTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache reads and writes cache entries in the content table.
type Cache struct {
	client  awsctl.DynamoDBAPI
	regions RegionLister
	table   string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// New returns a Cache over the given content table.
func New(client awsctl.DynamoDBAPI, table string, opts ...Option) *Cache {
	_inst := &Cache{client: client, table: table, now: time.Now}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// ByARN returns the entries cached under the given ARN.
func (c *Cache) ByARN(ctx context.Context, arn string) ([]models.CacheEntry, error) {
	arn = helpers.Unescape(arn)
	return c.query(ctx, "", expression.Key("arn").Equal(expression.Value(arn)))
}

// ByService returns every entry of a service across all regions.
func (c *Cache) ByService(ctx context.Context, service string) ([]models.CacheEntry, error) {
	service = helpers.Unescape(service)
	return c.query(ctx, ServiceRegionIndex, expression.Key("service").Equal(expression.Value(service)))
}

// ByServiceRegion returns every entry of a service in one region.
func (c *Cache) ByServiceRegion(ctx context.Context, service, region string) ([]models.CacheEntry, error) {
	service, region = helpers.Unescape(service), helpers.Unescape(region)
	keyCond := expression.Key("service").Equal(expression.Value(service)).
		And(expression.Key("region").Equal(expression.Value(region)))
	return c.query(ctx, ServiceRegionIndex, keyCond)
}

func (c *Cache) query(ctx context.Context, index string, keyCond expression.KeyConditionBuilder) ([]models.CacheEntry, error) {
	input, err := awsctl.KeyQuery(c.table, index, keyCond)
	if err != nil {
		return nil, err
	}
	entries, err := awsctl.QueryAll[models.CacheEntry](ctx, c.client, input)
	if err != nil {
		c.logger.Error("failed to query cache", slog.Any("error", err))
		return nil, err
	}
	c.logger.Debug("queried cache", slog.String("index", index), slog.Int("count", len(entries)))
	return entries, nil
}

// Put writes the entries, overwriting existing ones. Entries without timestamps are stamped with the current time and the configured TTL.
func (c *Cache) Put(ctx context.Context, entries ...models.CacheEntry) error {
	for _, entry := range entries {
		if entry.Arn == "" {
			return errors.New("cache entry without arn")
		}
		if entry.Updated == 0 {
			entry.Updated = models.EpochSeconds(c.now().Unix())
		}
		if entry.Expires == 0 && c.ttl > 0 {
			entry.Expires = entry.Updated + models.EpochSeconds(c.ttl/time.Second)
		}
		if err := awsctl.PutItem(ctx, c.client, c.table, entry); err != nil {
			c.logger.Error("failed to write cache entry", slog.String("arn", entry.Arn), slog.Any("error", err))
			return err
		}
	}
	c.logger.Info("saved cache entries", slog.Int("count", len(entries)))
	return nil
}

// Delete removes the entry stored under the ARN.
func (c *Cache) Delete(ctx context.Context, arn string) error {
	arn = helpers.Unescape(arn)
	if err := awsctl.DeleteItem(ctx, c.client, c.table, map[string]string{"arn": arn}); err != nil {
		c.logger.Error("failed to delete cache entry", slog.String("arn", arn), slog.Any("error", err))
		return err
	}
	return nil
}

// Regions returns the regions known to the region catalog.
func (c *Cache) Regions(ctx context.Context) ([]ec2types.Region, error) {
	if c.regions == nil {
		return nil, errors.New("no region catalog configured")
	}
	out, err := c.regions.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to describe regions")
	}
	return out.Regions, nil
}
