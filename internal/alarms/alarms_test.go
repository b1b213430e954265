package alarms_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/isometry/media-mapper/internal/alarms"
	"github.com/isometry/media-mapper/internal/controllers/aws/fake"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricAlarm(name, state string) cwtypes.MetricAlarm {
	return cwtypes.MetricAlarm{
		AlarmName:             aws.String(name),
		Namespace:             aws.String("AWS/MediaLive"),
		StateValue:            cwtypes.StateValue(state),
		StateUpdatedTimestamp: aws.Time(time.Unix(1600000000, 0)),
	}
}

func subscription(alarm, region, arn, state string) models.AlarmSubscription {
	return models.AlarmSubscription{
		RegionAlarmName: models.RegionAlarmName(region, alarm),
		ResourceArn:     arn,
		AlarmName:       alarm,
		Region:          region,
		Namespace:       "AWS/MediaLive",
		StateValue:      state,
	}
}

func TestStore_RegionAlarms(t *testing.T) {
	cw := &fake.CloudWatch{Pages: []*cloudwatch.DescribeAlarmsOutput{
		{MetricAlarms: []cwtypes.MetricAlarm{metricAlarm("a", "OK")}, NextToken: aws.String("t1")},
		{MetricAlarms: []cwtypes.MetricAlarm{metricAlarm("b", "ALARM"), metricAlarm("c", "INSUFFICIENT_DATA")}},
	}}
	s := alarms.New(&fake.DynamoDB{}, cw, "msam-alarms")

	got, err := s.RegionAlarms(context.Background(), "eu-west-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "eu-west-1:b", got[1].RegionAlarmName)
	assert.Equal(t, "ALARM", got[1].StateValue)
	assert.Equal(t, int64(1600000000), got[1].StateUpdated)
	assert.Equal(t, []string{"eu-west-1", "eu-west-1"}, cw.Regions)
}

func TestStore_Subscribe(t *testing.T) {
	db := &fake.DynamoDB{}
	cw := &fake.CloudWatch{Pages: []*cloudwatch.DescribeAlarmsOutput{
		{MetricAlarms: []cwtypes.MetricAlarm{metricAlarm("high-latency", "ALARM")}},
	}}
	s := alarms.New(db, cw, "msam-alarms")

	arns := []string{"arn:aws:medialive:us-west-2:1:channel:1", "arn:aws:medialive:us-west-2:1:channel:2"}
	require.NoError(t, s.Subscribe(context.Background(), "high%2Dlatency", "us-west-2", arns))

	assert.Equal(t, []string{"us-west-2"}, cw.Regions)
	assert.Equal(t, []string{"high-latency"}, cw.Inputs[0].AlarmNames)

	written := fake.PutItems[models.AlarmSubscription](db)
	require.Len(t, written, 2)
	for i, sub := range written {
		assert.Equal(t, "us-west-2:high-latency", sub.RegionAlarmName)
		assert.Equal(t, arns[i], sub.ResourceArn)
		assert.Equal(t, "ALARM", sub.StateValue)
		assert.Equal(t, "AWS/MediaLive", sub.Namespace)
	}
}

func TestStore_SubscribeUnknownAlarm(t *testing.T) {
	db := &fake.DynamoDB{}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	err := s.Subscribe(context.Background(), "missing", "us-west-2", []string{"arn"})
	var notFound *alarms.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.AlarmName)
	assert.Empty(t, db.PutInputs)
}

func TestStore_Unsubscribe(t *testing.T) {
	db := &fake.DynamoDB{}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	require.NoError(t, s.Unsubscribe(context.Background(), "high-latency", "us-west-2", []string{"arn:1", "arn:2"}))
	require.Len(t, db.DeleteInputs, 2)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "us-west-2:high-latency"}, db.DeleteInputs[0].Key["RegionAlarmName"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "arn:2"}, db.DeleteInputs[1].Key["ResourceArn"])
}

func TestStore_Queries(t *testing.T) {
	testCases := []struct {
		Name          string
		Query         func(*alarms.Store) (int, error)
		ExpectedIndex string
		ExpectedValue string
	}{
		{
			Name: "subscribers",
			Query: func(s *alarms.Store) (int, error) {
				subs, err := s.Subscribers(context.Background(), "high-latency", "us-west-2")
				return len(subs), err
			},
			ExpectedValue: "us-west-2:high-latency",
		},
		{
			Name: "alarms_for_subscriber",
			Query: func(s *alarms.Store) (int, error) {
				subs, err := s.AlarmsForSubscriber(context.Background(), "arn%3Aaws%3Amedialive%3Aus-west-2%3A1%3Achannel%3A1")
				return len(subs), err
			},
			ExpectedIndex: alarms.ResourceArnIndex,
			ExpectedValue: "arn:aws:medialive:us-west-2:1:channel:1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			db := &fake.DynamoDB{QueryPages: []*dynamodb.QueryOutput{
				fake.QueryPage([]models.AlarmSubscription{subscription("high-latency", "us-west-2", "arn:aws:medialive:us-west-2:1:channel:1", "OK")}, "x"),
				fake.QueryPage([]models.AlarmSubscription{subscription("high-latency", "us-west-2", "arn:aws:medialive:us-west-2:1:channel:2", "OK")}, ""),
			}}
			s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

			count, err := tc.Query(s)
			require.NoError(t, err)
			assert.Equal(t, 2, count)
			assert.Equal(t, tc.ExpectedIndex, aws.ToString(db.QueryInputs[0].IndexName))
			assert.Equal(t, []string{tc.ExpectedValue}, fake.ExpressionValues(db.QueryInputs[0].ExpressionAttributeValues))
		})
	}
}

func TestStore_SubscribedWithState(t *testing.T) {
	db := &fake.DynamoDB{QueryPages: []*dynamodb.QueryOutput{
		fake.QueryPage([]models.AlarmSubscription{
			subscription("a", "us-west-2", "arn:2", "ALARM"),
			subscription("b", "us-west-2", "arn:1", "ALARM"),
			subscription("c", "us-east-1", "arn:2", "ALARM"),
		}, ""),
	}}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	got, err := s.SubscribedWithState(context.Background(), "ALARM")
	require.NoError(t, err)
	assert.Equal(t, []models.SubscriberAlarms{
		{ResourceArn: "arn:1", AlarmCount: 1},
		{ResourceArn: "arn:2", AlarmCount: 2},
	}, got)
	assert.Equal(t, alarms.StateValueIndex, aws.ToString(db.QueryInputs[0].IndexName))
}

func TestStore_AllSubscribed(t *testing.T) {
	db := &fake.DynamoDB{ScanPages: []*dynamodb.ScanOutput{
		fake.ScanPage([]models.AlarmSubscription{
			subscription("a", "us-west-2", "arn:1", "OK"),
			subscription("a", "us-west-2", "arn:2", "OK"),
		}, "k"),
		fake.ScanPage([]models.AlarmSubscription{
			subscription("b", "us-west-2", "arn:1", "ALARM"),
		}, ""),
	}}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	got, err := s.AllSubscribed(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "us-west-2:a", got[0].RegionAlarmName)
	assert.Empty(t, got[0].ResourceArn)
	assert.Equal(t, "us-west-2:b", got[1].RegionAlarmName)
}

func stateChange(t *testing.T, alarm, state, timestamp string) events.CloudWatchEvent {
	detail, err := json.Marshal(map[string]any{
		"alarmName": alarm,
		"state":     map[string]any{"value": state, "timestamp": timestamp},
	})
	require.NoError(t, err)
	return events.CloudWatchEvent{
		Source:     "aws.cloudwatch",
		DetailType: alarms.StateChangeDetailType,
		Region:     "us-west-2",
		Time:       time.Unix(1700000000, 0),
		Detail:     detail,
	}
}

func TestStore_UpdateState(t *testing.T) {
	db := &fake.DynamoDB{QueryPages: []*dynamodb.QueryOutput{
		fake.QueryPage([]models.AlarmSubscription{
			subscription("high-latency", "us-west-2", "arn:1", "OK"),
			subscription("high-latency", "us-west-2", "arn:2", "OK"),
		}, ""),
	}}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	updated, err := s.UpdateState(context.Background(), stateChange(t, "high-latency", "ALARM", "2019-10-02T17:20:48.551+0000"))
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	require.Len(t, db.UpdateInputs, 2)

	in := db.UpdateInputs[1]
	assert.Equal(t, "msam-alarms", aws.ToString(in.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "arn:2"}, in.Key["ResourceArn"])
	assert.ElementsMatch(t, []string{"ALARM", "1570036848"}, fake.ExpressionValues(in.ExpressionAttributeValues))
	assert.Equal(t, []string{"us-west-2:high-latency"}, fake.ExpressionValues(db.QueryInputs[0].ExpressionAttributeValues))
}

func TestStore_UpdateStateFallsBackToEventTime(t *testing.T) {
	db := &fake.DynamoDB{QueryPages: []*dynamodb.QueryOutput{
		fake.QueryPage([]models.AlarmSubscription{subscription("a", "us-west-2", "arn:1", "OK")}, ""),
	}}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	_, err := s.UpdateState(context.Background(), stateChange(t, "a", "OK", "later"))
	require.NoError(t, err)
	require.Len(t, db.UpdateInputs, 1)
	assert.ElementsMatch(t, []string{"OK", "1700000000"}, fake.ExpressionValues(db.UpdateInputs[0].ExpressionAttributeValues))
}

func TestStore_UpdateStateIgnoresOtherEvents(t *testing.T) {
	db := &fake.DynamoDB{}
	s := alarms.New(db, &fake.CloudWatch{}, "msam-alarms")

	updated, err := s.UpdateState(context.Background(), events.CloudWatchEvent{Source: "aws.medialive", DetailType: "MediaLive Alert"})
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, db.QueryInputs)

	bad := stateChange(t, "", "ALARM", "")
	_, err = s.UpdateState(context.Background(), bad)
	assert.Error(t, err)

	db.Err = errors.New("AccessDeniedException")
	_, err = s.UpdateState(context.Background(), stateChange(t, "a", "ALARM", ""))
	assert.ErrorContains(t, err, "AccessDeniedException")
}

func TestStore_Refresh(t *testing.T) {
	testCases := []struct {
		Name             string
		Subscriptions    []models.AlarmSubscription
		Alarms           []cwtypes.MetricAlarm
		ExpectedUpdated  int
		ExpectedUpdates  [][]string
		ExpectedRegions  []string
		ExpectedDescribe [][]string
	}{
		{
			Name: "stale_state",
			Subscriptions: []models.AlarmSubscription{
				subscription("high-latency", "us-west-2", "arn:1", "OK"),
				subscription("high-latency", "us-west-2", "arn:2", "OK"),
				subscription("input-loss", "us-west-2", "arn:1", "ALARM"),
			},
			Alarms: []cwtypes.MetricAlarm{
				metricAlarm("high-latency", "ALARM"),
				metricAlarm("input-loss", "ALARM"),
			},
			ExpectedUpdated: 3,
			ExpectedUpdates: [][]string{
				{"ALARM", "1600000000"},
				{"ALARM", "1600000000"},
				{"ALARM", "1600000000"},
			},
			ExpectedRegions:  []string{"us-west-2"},
			ExpectedDescribe: [][]string{{"high-latency", "input-loss"}},
		},
		{
			Name: "up_to_date",
			Subscriptions: []models.AlarmSubscription{
				func() models.AlarmSubscription {
					sub := subscription("high-latency", "us-west-2", "arn:1", "ALARM")
					sub.StateUpdated = 1600000000
					return sub
				}(),
			},
			Alarms:           []cwtypes.MetricAlarm{metricAlarm("high-latency", "ALARM")},
			ExpectedRegions:  []string{"us-west-2"},
			ExpectedDescribe: [][]string{{"high-latency"}},
		},
		{
			Name: "deleted_alarm",
			Subscriptions: []models.AlarmSubscription{
				subscription("gone", "eu-west-1", "arn:1", "OK"),
			},
			ExpectedRegions:  []string{"eu-west-1"},
			ExpectedDescribe: [][]string{{"gone"}},
		},
		{
			Name: "no_subscriptions",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			db := &fake.DynamoDB{ScanPages: []*dynamodb.ScanOutput{fake.ScanPage(tc.Subscriptions, "")}}
			cw := &fake.CloudWatch{Pages: []*cloudwatch.DescribeAlarmsOutput{{MetricAlarms: tc.Alarms}}}
			s := alarms.New(db, cw, "msam-alarms")

			updated, err := s.Refresh(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedUpdated, updated)
			assert.Equal(t, tc.ExpectedRegions, cw.Regions)
			var describe [][]string
			for _, in := range cw.Inputs {
				describe = append(describe, in.AlarmNames)
			}
			assert.Equal(t, tc.ExpectedDescribe, describe)

			require.Len(t, db.UpdateInputs, len(tc.ExpectedUpdates))
			for i, values := range tc.ExpectedUpdates {
				assert.Equal(t, "msam-alarms", aws.ToString(db.UpdateInputs[i].TableName))
				assert.ElementsMatch(t, values, fake.ExpressionValues(db.UpdateInputs[i].ExpressionAttributeValues))
			}
		})
	}
}

func TestStore_RefreshFailure(t *testing.T) {
	db := &fake.DynamoDB{ScanPages: []*dynamodb.ScanOutput{
		fake.ScanPage([]models.AlarmSubscription{subscription("a", "us-west-2", "arn:1", "OK")}, ""),
	}}
	cw := &fake.CloudWatch{Err: errors.New("AccessDenied")}
	s := alarms.New(db, cw, "msam-alarms")

	_, err := s.Refresh(context.Background())
	assert.ErrorContains(t, err, "failed to describe alarms in us-west-2")
	assert.Empty(t, db.UpdateInputs)
}
