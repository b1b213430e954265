package models

import "fmt"

// AlarmSubscription associates a CloudWatch alarm in a region with one subscribing resource.
type AlarmSubscription struct {
	RegionAlarmName string `json:"RegionAlarmName" dynamodbav:"RegionAlarmName"`
	ResourceArn     string `json:"ResourceArn,omitempty" dynamodbav:"ResourceArn"`
	AlarmName       string `json:"AlarmName" dynamodbav:"AlarmName"`
	Region          string `json:"Region" dynamodbav:"Region"`
	Namespace       string `json:"Namespace,omitempty" dynamodbav:"Namespace,omitempty"`
	StateValue      string `json:"StateValue,omitempty" dynamodbav:"StateValue,omitempty"`
	StateUpdated    int64  `json:"StateUpdated,omitempty" dynamodbav:"StateUpdated,omitempty"`
}

// RegionAlarmName builds the partition key of an alarm subscription.
func RegionAlarmName(region, alarmName string) string {
	return fmt.Sprintf("%s:%s", region, alarmName)
}

// SubscriberAlarms counts the alarms of one subscriber in a given state.
type SubscriberAlarms struct {
	ResourceArn string `json:"ResourceArn"`
	AlarmCount  int    `json:"AlarmCount"`
}
