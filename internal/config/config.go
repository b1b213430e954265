// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

const (
	// ModeLambdaEvents consumes media service events from the event bus.
	ModeLambdaEvents = "lambda-events"
	// ModeLambdaAlarms consumes CloudWatch alarm state changes from the event bus.
	ModeLambdaAlarms = "lambda-alarms"
	// ModeLambdaAlarmRefresh refreshes the state of every subscribed alarm on a schedule.
	ModeLambdaAlarmRefresh = "lambda-alarm-refresh"
	// ModeLambdaAPI serves the REST API behind an API Gateway proxy integration.
	ModeLambdaAPI = "lambda-api"
	// ModeService serves the REST API as a standalone HTTP service.
	ModeService = "service"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Tables is a struct that contains the DynamoDB table names.
	Tables tables
	// Events is a struct that contains the configuration of the event ingestion.
	Events events
	// Cache is a struct that contains the configuration of the content cache.
	Cache cache
	// API is a struct that contains the configuration of the REST API.
	API api
	// Service is a struct that contains the configuration for the service mode.
	Service service
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"lambda-events"`
	// BuildStamp identifies the deployed build. It is reported by the ping endpoint.
	BuildStamp string `yaml:"buildStamp,omitempty" default:"unknown"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type tables struct {
	// Region is the region hosting the tables. Empty means the default AWS region.
	Region   string `yaml:"region,omitempty"`
	Content  string `yaml:"content,omitempty" default:"msam-content"`
	Alerts   string `yaml:"alerts,omitempty" default:"msam-events"`
	History  string `yaml:"history,omitempty" default:"msam-cloudwatch-events"`
	Alarms   string `yaml:"alarms,omitempty" default:"msam-alarms"`
	Channels string `yaml:"channels,omitempty" default:"msam-channels"`
	Layout   string `yaml:"layout,omitempty" default:"msam-layout"`
	Settings string `yaml:"settings,omitempty" default:"msam-settings"`
}

type events struct {
	// ItemTTL is the lifetime in seconds of stored events.
	ItemTTL int64 `yaml:"itemTTL,omitempty" default:"604800"`
	// Archive controls the upload of raw incoming events to S3.
	Archive struct {
		BucketName string `yaml:"bucketName,omitempty"`
		Enabled    bool   `yaml:"enabled,omitempty"`
	} `yaml:"archive,omitempty"`
}

type cache struct {
	// ItemTTL is the lifetime in seconds of cache entries written by the discovery task.
	ItemTTL int64 `yaml:"itemTTL,omitempty" default:"7200"`
}

type api struct {
	// Key is the expected value of the x-api-key header.
	Key string `yaml:"key,omitempty"`
	// KeySSMParameter names an SSM parameter holding the API key. It takes precedence over Key.
	KeySSMParameter string `yaml:"keySSMParameter,omitempty"`
}

type service struct {
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"8080"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Tables),
		defaults.Set(&Events),
		defaults.Set(&Cache),
		defaults.Set(&API),
		defaults.Set(&Service),
	)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global  global  `yaml:"global,omitempty"`
		Tables  tables  `yaml:"tables,omitempty"`
		Events  events  `yaml:"events,omitempty"`
		Cache   cache   `yaml:"cache,omitempty"`
		API     api     `yaml:"api,omitempty"`
		Service service `yaml:"service,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Tables = a.Tables
	Events = a.Events
	Cache = a.Cache
	API = a.API
	Service = a.Service

	return nil
}
