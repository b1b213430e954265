// Package models defines the records exchanged between the stores and the API.
package models

// Event is a media service event as stored in the alerts and history tables.
// The envelope fields mirror the EventBridge event; the remaining fields are derived during normalization.
type Event struct {
	Version    string         `json:"version,omitempty" dynamodbav:"version,omitempty"`
	ID         string         `json:"id,omitempty" dynamodbav:"id,omitempty"`
	DetailType string         `json:"detail-type" dynamodbav:"detail-type"`
	Source     string         `json:"source" dynamodbav:"source"`
	Account    string         `json:"account" dynamodbav:"account"`
	Time       string         `json:"time" dynamodbav:"time"`
	Region     string         `json:"region" dynamodbav:"region"`
	Resources  []string       `json:"resources" dynamodbav:"resources"`
	Detail     map[string]any `json:"detail" dynamodbav:"detail"`

	// Timestamp is in epoch seconds for alerts and in epoch milliseconds for history records.
	Timestamp int64 `json:"timestamp" dynamodbav:"timestamp"`
	// Expires is the TTL attribute, in epoch seconds.
	Expires     int64  `json:"expires" dynamodbav:"expires"`
	ResourceArn string `json:"resource_arn,omitempty" dynamodbav:"resource_arn,omitempty"`
	AlarmID     string `json:"alarm_id,omitempty" dynamodbav:"alarm_id,omitempty"`
	AlarmState  string `json:"alarm_state,omitempty" dynamodbav:"alarm_state,omitempty"`
	// Data is the JSON encoded detail. History records only.
	Data string `json:"data,omitempty" dynamodbav:"data,omitempty"`
	// Type is the detail type suffixed by the API event name. History records only.
	Type string `json:"type,omitempty" dynamodbav:"type,omitempty"`
}

// DetailString returns the string value of a top-level detail field.
func (e *Event) DetailString(key string) (string, bool) {
	if e.Detail == nil {
		return "", false
	}
	v, ok := e.Detail[key].(string)
	return v, ok
}

// Clone returns a copy of the event with its own detail map.
func (e *Event) Clone() *Event {
	c := *e
	if e.Detail != nil {
		c.Detail = make(map[string]any, len(e.Detail))
		for k, v := range e.Detail {
			c.Detail[k] = v
		}
	}
	if e.Resources != nil {
		c.Resources = append([]string(nil), e.Resources...)
	}
	return &c
}
