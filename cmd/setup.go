package cmd

import (
	"time"

	"github.com/isometry/media-mapper/internal/alarms"
	"github.com/isometry/media-mapper/internal/api"
	"github.com/isometry/media-mapper/internal/cache"
	"github.com/isometry/media-mapper/internal/channels"
	"github.com/isometry/media-mapper/internal/config"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/eventstore"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/layout"
	"github.com/isometry/media-mapper/internal/normalizer"
	"github.com/isometry/media-mapper/internal/pipeline"
	"github.com/isometry/media-mapper/internal/runtime"
	"github.com/isometry/media-mapper/internal/settings"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var mapperRuntime *runtime.Runtime

// setup builds the AWS clients, the stores and the runtime. The API key is only resolved when the REST API is served.
func setup(cmd *cobra.Command, serveAPI, serveMetrics bool) error {
	logger.Debug("creating AWS controller...")
	ctl, err := awsctl.NewController(
		awsctl.WithContext(cmd.Context()),
		awsctl.WithLogger(logger),
		awsctl.WithDynamoDBRegion(config.Tables.Region))
	if err != nil {
		return errors.Wrap(err, "failed to create AWS controller")
	}
	db := ctl.DynamoDB()

	contentCache := cache.New(db, config.Tables.Content,
		cache.WithLogger(logger.With("component", "cache")),
		cache.WithRegionLister(ctl.EC2()),
		cache.WithItemTTL(time.Duration(config.Cache.ItemTTL)*time.Second))
	eventStore := eventstore.New(db, config.Tables.Alerts, config.Tables.History,
		eventstore.WithLogger(logger.With("component", "eventstore")))
	alarmStore := alarms.New(db, ctl.CloudWatch(), config.Tables.Alarms,
		alarms.WithLogger(logger.With("component", "alarms")))

	normalizerOpts := []normalizer.Option{
		normalizer.WithLogger(logger.With("component", "normalizer")),
		normalizer.WithItemTTL(time.Duration(config.Events.ItemTTL) * time.Second),
		normalizer.WithEndpointResolver(ctl),
		normalizer.WithPipelineStater(pipeline.New(contentCache,
			pipeline.WithLogger(logger.With("component", "pipeline")))),
	}
	if config.Events.Archive.Enabled {
		normalizerOpts = append(normalizerOpts, normalizer.WithArchive(ctl, config.Events.Archive.BucketName))
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithEvents(normalizer.New(eventStore, normalizerOpts...)),
		runtime.WithAlarms(alarmStore),
	}

	if serveAPI {
		key, err := apiKey(ctl)
		if err != nil {
			return err
		}
		logger.Debug("creating REST API...")
		runtimeOpts = append(runtimeOpts, runtime.WithAPI(api.New(
			api.WithLogger(logger.With("component", "api")),
			api.WithAPIKey(key),
			api.WithBuildStamp(config.Global.BuildStamp),
			api.WithMetrics(serveMetrics),
			api.WithCache(contentCache),
			api.WithAlarms(alarmStore),
			api.WithEvents(eventStore),
			api.WithLayout(layout.New(db, config.Tables.Layout, logger.With("component", "layout"))),
			api.WithChannels(channels.New(db, config.Tables.Channels, logger.With("component", "channels"))),
			api.WithSettings(settings.New(db, config.Tables.Settings, logger.With("component", "settings"))),
		)))
	}

	logger.Debug("creating runtime...")
	mapperRuntime = runtime.NewRuntime(runtimeOpts...)
	return nil
}

// secretGetter reads secrets from a parameter store.
type secretGetter interface {
	GetSecret(key string, encrypted bool) (*string, error)
}

// apiKey returns the configured API key, reading it from SSM when a parameter is set.
func apiKey(secrets secretGetter) (string, error) {
	if config.API.KeySSMParameter == "" {
		if config.API.Key == "" {
			logger.Warn("no API key configured: every REST request will be rejected")
		}
		return config.API.Key, nil
	}
	logger.Debug("fetching API key...", "parameter", config.API.KeySSMParameter)
	key, err := secrets.GetSecret(config.API.KeySSMParameter, true)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch API key")
	}
	return helpers.String(key), nil
}
