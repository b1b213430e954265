package models_test

import (
	"encoding/json"
	"testing"

	"github.com/isometry/media-mapper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochSeconds_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		Name        string
		Input       string
		Expected    models.EpochSeconds
		ExpectError bool
	}{
		{Name: "integer", Input: `1600000000`, Expected: 1600000000},
		{Name: "float", Input: `1600000000.75`, Expected: 1600000000},
		{Name: "integer_string", Input: `"1600000000"`, Expected: 1600000000},
		{Name: "float_string", Input: `"1600000000.2"`, Expected: 1600000000},
		{Name: "null", Input: `null`, Expected: 0},
		{Name: "invalid", Input: `"soon"`, ExpectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			var v models.EpochSeconds
			err := json.Unmarshal([]byte(tc.Input), &v)
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, v)
		})
	}
}

func TestCacheEntry_Coercion(t *testing.T) {
	body := `[{"arn":"arn:aws:medialive:us-west-2:1:channel:1","service":"medialive-channel","region":"us-west-2","updated":"1600000000.5","expires":1600007200.9,"data":"{}"}]`
	var entries []models.CacheEntry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.EpochSeconds(1600000000), entries[0].Updated)
	assert.Equal(t, models.EpochSeconds(1600007200), entries[0].Expires)
}

func TestCacheEntry_ExtraAttributes(t *testing.T) {
	testCases := []struct {
		Name          string
		Input         string
		ExpectedExtra map[string]any
	}{
		{
			Name:          "known_only",
			Input:         `{"arn":"arn:1","service":"medialive-channel","region":"us-west-2","updated":1,"expires":2,"data":"{}"}`,
			ExpectedExtra: nil,
		},
		{
			Name:  "extra",
			Input: `{"arn":"arn:1","service":"medialive-channel","region":"us-west-2","updated":1,"expires":2,"data":"{}","tags":{"Owner":"ops"},"pipelines":2}`,
			ExpectedExtra: map[string]any{
				"tags":      map[string]any{"Owner": "ops"},
				"pipelines": float64(2),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			var entry models.CacheEntry
			require.NoError(t, json.Unmarshal([]byte(tc.Input), &entry))
			assert.Equal(t, "arn:1", entry.Arn)
			assert.Equal(t, tc.ExpectedExtra, entry.Extra)

			out, err := json.Marshal(entry)
			require.NoError(t, err)
			assert.JSONEq(t, tc.Input, string(out))
		})
	}
}

func TestEvent_Clone(t *testing.T) {
	e := &models.Event{Detail: map[string]any{"alarm_id": "A1"}, Resources: []string{"r"}}
	c := e.Clone()
	c.Detail["pipeline_state"] = true
	c.Resources[0] = "x"
	_, found := e.Detail["pipeline_state"]
	assert.False(t, found)
	assert.Equal(t, "r", e.Resources[0])

	v, ok := c.DetailString("alarm_id")
	assert.True(t, ok)
	assert.Equal(t, "A1", v)
}

func TestRegionAlarmName(t *testing.T) {
	assert.Equal(t, "us-west-2:high-latency", models.RegionAlarmName("us-west-2", "high-latency"))
}
