package normalizer

import (
	"slices"

	"github.com/buger/jsonparser"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/pkg/errors"
)

// ArnKeys are the field names under which media services report resource ARNs.
var ArnKeys = []string{
	"arn",
	"aRN",
	"resource-arn",
	"channel_arn",
	"multiplex_arn",
	"flowArn",
	"PlaybackConfigurationArn",
	"resourceArn",
}

// excludedArnMarkers flag identity and security group ARNs, which never name the monitored resource.
var excludedArnMarkers = []string{"user", "role", "inputSecurityGroup"}

// FindStrings returns, in document order, the string values of every field named one of keys at any depth of the JSON document.
func FindStrings(data []byte, keys ...string) ([]string, error) {
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse event")
	}
	var found []string
	if err = walk(data, dataType, keys, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func walk(data []byte, dataType jsonparser.ValueType, keys []string, found *[]string) error {
	switch dataType {
	case jsonparser.Object:
		return jsonparser.ObjectEach(data, func(key []byte, value []byte, valueType jsonparser.ValueType, _ int) error {
			if valueType == jsonparser.String && slices.Contains(keys, string(key)) {
				s, err := jsonparser.ParseString(value)
				if err != nil {
					return errors.Wrapf(err, "invalid string in %s", key)
				}
				*found = append(*found, s)
				return nil
			}
			return walk(value, valueType, keys, found)
		})
	case jsonparser.Array:
		var walkErr error
		_, err := jsonparser.ArrayEach(data, func(value []byte, valueType jsonparser.ValueType, _ int, _ error) {
			if walkErr == nil {
				walkErr = walk(value, valueType, keys, found)
			}
		})
		if err != nil {
			return errors.Wrap(err, "failed to parse array")
		}
		return walkErr
	}
	return nil
}

// ResourceArn picks the resource ARN of an event: the first ARN-labelled field that does not name an identity
// or a security group, URL-decoded, falling back to the first entry of resources unless it is a VOD resource.
func ResourceArn(raw []byte, resources []string) (string, error) {
	candidates, err := FindStrings(raw, ArnKeys...)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		if !helpers.ContainsAny(candidate, excludedArnMarkers...) {
			return helpers.Unescape(candidate), nil
		}
	}
	if len(resources) > 0 && !helpers.ContainsAny(resources[0], "vod") {
		return resources[0], nil
	}
	return "", nil
}
