package cmd

import (
	"github.com/isometry/media-mapper/internal/config"
	"github.com/isometry/media-mapper/internal/helpers"
)

var lambdaEnvMapString = map[*string]boundEnvVar[string]{
	&config.Events.Archive.BucketName: {
		Name:        "events-archive-bucket",
		Description: "The S3 bucket receiving a copy of every raw incoming event",
		Env:         helpers.Ptr("EVENTS_ARCHIVE_BUCKET"),
	},
}

var lambdaEnvMapBool = map[*bool]boundEnvVar[bool]{
	&config.Events.Archive.Enabled: {
		Name:        "events-archive",
		Description: "Enable the S3 archive of raw incoming events",
		Env:         helpers.Ptr("EVENTS_ARCHIVE"),
	},
}
