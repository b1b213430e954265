package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// CacheEntry is a discovered resource in the content cache.
type CacheEntry struct {
	Arn     string       `json:"arn" dynamodbav:"arn"`
	Service string       `json:"service" dynamodbav:"service"`
	Region  string       `json:"region" dynamodbav:"region"`
	Updated EpochSeconds `json:"updated" dynamodbav:"updated"`
	Expires EpochSeconds `json:"expires" dynamodbav:"expires"`
	// Data is the JSON encoded description of the resource.
	Data string `json:"data" dynamodbav:"data"`
	// Extra holds any other attributes of the entry. They are stored and returned unchanged.
	Extra map[string]any `json:"-" dynamodbav:"-"`
}

// plainCacheEntry encodes the known attributes only.
type plainCacheEntry CacheEntry

var cacheEntryAttributes = map[string]bool{
	"arn": true, "service": true, "region": true, "updated": true, "expires": true, "data": true,
}

func extraAttributes(all map[string]any) map[string]any {
	var extra map[string]any
	for k, v := range all {
		if cacheEntryAttributes[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CacheEntry) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, (*plainCacheEntry)(c)); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	c.Extra = extraAttributes(all)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c CacheEntry) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(plainCacheEntry(c))
	if err != nil || len(c.Extra) == 0 {
		return known, err
	}
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(fields)+len(c.Extra))
	for k, v := range extraAttributes(c.Extra) {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (c CacheEntry) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(plainCacheEntry(c))
	if err != nil {
		return nil, err
	}
	for k, v := range extraAttributes(c.Extra) {
		if item[k], err = attributevalue.Marshal(v); err != nil {
			return nil, errors.Wrapf(err, "invalid attribute %s", k)
		}
	}
	return &types.AttributeValueMemberM{Value: item}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (c *CacheEntry) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return errors.Errorf("cache entry is not a map: %T", av)
	}
	if err := attributevalue.UnmarshalMap(m.Value, (*plainCacheEntry)(c)); err != nil {
		return err
	}
	c.Extra = nil
	for k, v := range m.Value {
		if cacheEntryAttributes[k] {
			continue
		}
		var value any
		if err := attributevalue.Unmarshal(v, &value); err != nil {
			return errors.Wrapf(err, "invalid attribute %s", k)
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[k] = value
	}
	return nil
}

// EpochSeconds is a unix timestamp in seconds.
// It decodes from JSON integers, floats and numeric strings, truncating fractions.
type EpochSeconds int64

// UnmarshalJSON implements json.Unmarshaler.
func (e *EpochSeconds) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*e = 0
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*e = EpochSeconds(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid epoch seconds %s", b)
	}
	*e = EpochSeconds(f)
	return nil
}
