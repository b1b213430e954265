package cmd

import (
	"github.com/isometry/media-mapper/internal/config"
	"github.com/isometry/media-mapper/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda-events', 'lambda-alarms', 'lambda-alarm-refresh', 'lambda-api' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.Global.BuildStamp: {
		Name:        "build-stamp",
		Description: "The build identifier reported by the ping endpoint",
		Env:         helpers.Ptr("BUILD_STAMP"),
	},
	&config.Tables.Region: {
		Name:        "tables-region",
		Description: "The region hosting the DynamoDB tables. If not specified, the default AWS region is used",
		Env:         helpers.Ptr("EVENTS_TABLE_REGION"),
	},
	&config.Tables.Content: {
		Name:        "content-table",
		Description: "The DynamoDB table of the content cache",
		Env:         helpers.Ptr("CONTENT_TABLE_NAME"),
	},
	&config.Tables.Alerts: {
		Name:        "alerts-table",
		Description: "The DynamoDB table holding the latest alert per resource",
		Env:         helpers.Ptr("EVENTS_TABLE_NAME"),
	},
	&config.Tables.History: {
		Name:        "history-table",
		Description: "The DynamoDB table holding the event history",
		Env:         helpers.Ptr("CLOUDWATCH_EVENTS_TABLE_NAME"),
	},
	&config.Tables.Alarms: {
		Name:        "alarms-table",
		Description: "The DynamoDB table of the alarm subscriptions",
		Env:         helpers.Ptr("ALARMS_TABLE_NAME"),
	},
	&config.Tables.Channels: {
		Name:        "channels-table",
		Description: "The DynamoDB table of the channel tiles",
		Env:         helpers.Ptr("CHANNELS_TABLE_NAME"),
	},
	&config.Tables.Layout: {
		Name:        "layout-table",
		Description: "The DynamoDB table of the diagram layouts",
		Env:         helpers.Ptr("LAYOUT_TABLE_NAME"),
	},
	&config.Tables.Settings: {
		Name:        "settings-table",
		Description: "The DynamoDB table of the application settings",
		Env:         helpers.Ptr("SETTINGS_TABLE_NAME"),
	},
	&config.API.Key: {
		Name:        "api-key",
		Description: "The expected value of the x-api-key header",
		Env:         helpers.Ptr("API_KEY"),
		Hidden:      true,
	},
	&config.API.KeySSMParameter: {
		Name:        "api-key-ssm-parameter",
		Description: "The SSM parameter holding the API key. Takes precedence over the literal key",
		Env:         helpers.Ptr("API_KEY_SSM_PARAMETER"),
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapInt64 = map[*int64]boundEnvVar[int64]{
	&config.Events.ItemTTL: {
		Name:        "item-ttl",
		Description: "The lifetime in seconds of stored events",
		Env:         helpers.Ptr("ITEM_TTL"),
	},
	&config.Cache.ItemTTL: {
		Name:        "cache-item-ttl",
		Description: "The lifetime in seconds of content cache entries",
		Env:         helpers.Ptr("CACHE_ITEM_TTL"),
	},
}
