package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/isometry/media-mapper/internal/models"
	"github.com/isometry/media-mapper/internal/pipeline"
	"github.com/stretchr/testify/assert"
)

type finder struct {
	entries []models.CacheEntry
	err     error
	calls   int
}

func (f *finder) ByARN(context.Context, string) ([]models.CacheEntry, error) {
	f.calls++
	return f.entries, f.err
}

func alarmSet(source string) *models.Event {
	return &models.Event{
		Source:      source,
		ResourceArn: "arn:aws:medialive:us-west-2:123456789012:channel:123",
		Detail:      map[string]any{"alarm_state": "SET"},
	}
}

func TestStateLookup_Lookup(t *testing.T) {
	testCases := []struct {
		Name          string
		Event         *models.Event
		Finder        *finder
		Expected      bool
		ExpectedCalls int
	}{
		{
			Name:  "multiplex_is_single",
			Event: alarmSet("aws.medialive"),
			Finder: &finder{entries: []models.CacheEntry{
				{Service: pipeline.MultiplexService, Data: `{"ChannelClass":"SINGLE_PIPELINE"}`},
			}},
			Expected:      false,
			ExpectedCalls: 1,
		},
		{
			Name:  "multiplex_ignores_class",
			Event: alarmSet("aws.medialive"),
			Finder: &finder{entries: []models.CacheEntry{
				{Service: pipeline.MultiplexService, Data: `{}`},
			}},
			Expected:      false,
			ExpectedCalls: 1,
		},
		{
			Name:  "standard_class_is_single",
			Event: alarmSet("aws.medialive"),
			Finder: &finder{entries: []models.CacheEntry{
				{Service: "medialive-channel", Data: `{"ChannelClass":"STANDARD"}`},
			}},
			Expected:      false,
			ExpectedCalls: 1,
		},
		{
			Name:  "other_class_is_redundant",
			Event: alarmSet("aws.medialive"),
			Finder: &finder{entries: []models.CacheEntry{
				{Service: "medialive-channel", Data: `{"ChannelClass":"SINGLE_PIPELINE"}`},
			}},
			Expected:      true,
			ExpectedCalls: 1,
		},
		{
			Name:  "missing_class_is_redundant",
			Event: alarmSet("aws.medialive"),
			Finder: &finder{entries: []models.CacheEntry{
				{Service: "medialive-channel", Data: `{"Id":"123"}`},
			}},
			Expected:      true,
			ExpectedCalls: 1,
		},
		{
			Name:  "undecodable_data_keeps_default",
			Event: alarmSet("aws.medialive"),
			Finder: &finder{entries: []models.CacheEntry{
				{Service: "medialive-channel", Data: `not json`},
			}},
			Expected:      true,
			ExpectedCalls: 1,
		},
		{
			Name:          "cache_miss_keeps_default",
			Event:         alarmSet("aws.medialive"),
			Finder:        &finder{},
			Expected:      true,
			ExpectedCalls: 1,
		},
		{
			Name:          "lookup_error_keeps_default",
			Event:         alarmSet("aws.medialive"),
			Finder:        &finder{err: errors.New("ResourceNotFoundException")},
			Expected:      true,
			ExpectedCalls: 1,
		},
		{
			Name:          "other_source_skips_lookup",
			Event:         alarmSet("aws.mediaconnect"),
			Finder:        &finder{entries: []models.CacheEntry{{Service: pipeline.MultiplexService}}},
			Expected:      true,
			ExpectedCalls: 0,
		},
		{
			Name: "cleared_alarm_skips_lookup",
			Event: &models.Event{
				Source:      "aws.medialive",
				ResourceArn: "arn:aws:medialive:us-west-2:123456789012:channel:123",
				Detail:      map[string]any{"alarm_state": "CLEARED"},
			},
			Finder:        &finder{entries: []models.CacheEntry{{Service: pipeline.MultiplexService}}},
			Expected:      true,
			ExpectedCalls: 0,
		},
		{
			Name:          "lowercase_set_is_looked_up",
			Event:         &models.Event{Source: "aws.medialive", ResourceArn: "arn", Detail: map[string]any{"alarm_state": "set"}},
			Finder:        &finder{entries: []models.CacheEntry{{Service: pipeline.MultiplexService}}},
			Expected:      false,
			ExpectedCalls: 1,
		},
		{
			Name:          "no_resource_skips_lookup",
			Event:         &models.Event{Source: "aws.medialive", Detail: map[string]any{"alarm_state": "SET"}},
			Finder:        &finder{entries: []models.CacheEntry{{Service: pipeline.MultiplexService}}},
			Expected:      true,
			ExpectedCalls: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			l := pipeline.New(tc.Finder)
			assert.Equal(t, tc.Expected, l.Lookup(context.Background(), tc.Event))
			assert.Equal(t, tc.ExpectedCalls, tc.Finder.calls)
		})
	}
}
