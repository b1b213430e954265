package helpers_test

import (
	"testing"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    *string
		Expected string
	}{
		{
			Name:     "nil_string",
			Input:    nil,
			Expected: "",
		},
		{
			Name:     "empty_string",
			Input:    new(string),
			Expected: "",
		},
		{
			Name:     "value",
			Input:    helpers.Ptr("arn:aws:medialive:eu-west-1:1:channel:1"),
			Expected: "arn:aws:medialive:eu-west-1:1:channel:1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, helpers.String(tc.Input))
		})
	}
}

func TestUnescape(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    string
		Expected string
	}{
		{
			Name:     "encoded_arn",
			Input:    "arn%3Aaws%3Amediastore%3Aus-east-1%3A1%3Acontainer%2Flive",
			Expected: "arn:aws:mediastore:us-east-1:1:container/live",
		},
		{
			Name:     "plain_arn",
			Input:    "arn:aws:medialive:us-east-1:1:channel:1",
			Expected: "arn:aws:medialive:us-east-1:1:channel:1",
		},
		{
			Name:     "invalid_escape",
			Input:    "100%",
			Expected: "100%",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, helpers.Unescape(tc.Input))
		})
	}
}

func TestContainsAny(t *testing.T) {
	assert.True(t, helpers.ContainsAny("arn:aws:iam::1:role/x", "user", "role"))
	assert.False(t, helpers.ContainsAny("arn:aws:medialive:us-east-1:1:channel:1", "user", "role"))
	assert.False(t, helpers.ContainsAny("anything"))
}
