// Package alarms manages the subscriptions of resources to CloudWatch alarms.
package alarms

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/metrics"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

const (
	// StateValueIndex is the subscriptions index keyed by alarm state.
	StateValueIndex = "StateValueIndex"
	// ResourceArnIndex is the subscriptions index keyed by subscriber ARN.
	ResourceArnIndex = "ResourceArnIndex"

	// StateChangeDetailType is the detail type of CloudWatch alarm state change events.
	StateChangeDetailType = "CloudWatch Alarm State Change"
)

// NotFoundError reports an alarm that does not exist in its region.
type NotFoundError struct {
	AlarmName string
	Region    string
}

func (e *NotFoundError) Error() string {
	return "alarm " + e.AlarmName + " not found in " + e.Region
}

// Option is a functional option of the Store.
type Option func(*Store)

// WithLogger sets the logger of the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store reads and writes alarm subscriptions.
type Store struct {
	client     awsctl.DynamoDBAPI
	cloudWatch cloudwatch.DescribeAlarmsAPIClient
	table      string
	logger     *slog.Logger
}

// New returns a Store over the subscriptions table. CloudWatch requests are sent to the region of each alarm.
func New(client awsctl.DynamoDBAPI, cloudWatch cloudwatch.DescribeAlarmsAPIClient, table string, opts ...Option) *Store {
	_inst := &Store{client: client, cloudWatch: cloudWatch, table: table}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

func inRegion(region string) func(*cloudwatch.Options) {
	return func(o *cloudwatch.Options) {
		o.Region = region
	}
}

func fromMetricAlarm(region string, alarm cwtypes.MetricAlarm) models.AlarmSubscription {
	sub := models.AlarmSubscription{
		RegionAlarmName: models.RegionAlarmName(region, aws.ToString(alarm.AlarmName)),
		AlarmName:       aws.ToString(alarm.AlarmName),
		Region:          region,
		Namespace:       aws.ToString(alarm.Namespace),
		StateValue:      string(alarm.StateValue),
	}
	if alarm.StateUpdatedTimestamp != nil {
		sub.StateUpdated = alarm.StateUpdatedTimestamp.Unix()
	}
	return sub
}

// RegionAlarms lists every metric alarm of a region.
func (s *Store) RegionAlarms(ctx context.Context, region string) ([]models.AlarmSubscription, error) {
	region = helpers.Unescape(region)
	alarms := make([]models.AlarmSubscription, 0)
	paginator := cloudwatch.NewDescribeAlarmsPaginator(s.cloudWatch, &cloudwatch.DescribeAlarmsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, inRegion(region))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to describe alarms in %s", region)
		}
		for _, alarm := range page.MetricAlarms {
			alarms = append(alarms, fromMetricAlarm(region, alarm))
		}
	}
	return alarms, nil
}

// Subscribe subscribes the resources to an alarm, recording its namespace and current state.
func (s *Store) Subscribe(ctx context.Context, alarmName, region string, arns []string) error {
	alarmName, region = helpers.Unescape(alarmName), helpers.Unescape(region)
	out, err := s.cloudWatch.DescribeAlarms(ctx, &cloudwatch.DescribeAlarmsInput{
		AlarmNames: []string{alarmName},
	}, inRegion(region))
	if err != nil {
		return errors.Wrapf(err, "failed to describe alarm %s", alarmName)
	}
	if len(out.MetricAlarms) == 0 {
		return &NotFoundError{AlarmName: alarmName, Region: region}
	}
	alarm := fromMetricAlarm(region, out.MetricAlarms[0])
	for _, arn := range arns {
		sub := alarm
		sub.ResourceArn = arn
		if err = awsctl.PutItem(ctx, s.client, s.table, sub); err != nil {
			return err
		}
	}
	s.logger.Info("subscribed resources to alarm", slog.String("alarm", alarm.RegionAlarmName), slog.Int("count", len(arns)))
	return nil
}

// Unsubscribe removes the subscriptions of the resources to an alarm.
func (s *Store) Unsubscribe(ctx context.Context, alarmName, region string, arns []string) error {
	key := models.RegionAlarmName(helpers.Unescape(region), helpers.Unescape(alarmName))
	for _, arn := range arns {
		if err := awsctl.DeleteItem(ctx, s.client, s.table, map[string]string{
			"RegionAlarmName": key,
			"ResourceArn":     arn,
		}); err != nil {
			return err
		}
	}
	s.logger.Info("unsubscribed resources from alarm", slog.String("alarm", key), slog.Int("count", len(arns)))
	return nil
}

// Subscribers returns the subscriptions of an alarm.
func (s *Store) Subscribers(ctx context.Context, alarmName, region string) ([]models.AlarmSubscription, error) {
	key := models.RegionAlarmName(helpers.Unescape(region), helpers.Unescape(alarmName))
	return s.query(ctx, "", expression.Key("RegionAlarmName").Equal(expression.Value(key)))
}

// AlarmsForSubscriber returns the subscriptions of a resource.
func (s *Store) AlarmsForSubscriber(ctx context.Context, arn string) ([]models.AlarmSubscription, error) {
	arn = helpers.Unescape(arn)
	return s.query(ctx, ResourceArnIndex, expression.Key("ResourceArn").Equal(expression.Value(arn)))
}

// SubscribedWithState counts, per subscriber, the subscribed alarms in the given state.
func (s *Store) SubscribedWithState(ctx context.Context, state string) ([]models.SubscriberAlarms, error) {
	subs, err := s.query(ctx, StateValueIndex, expression.Key("StateValue").Equal(expression.Value(helpers.Unescape(state))))
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, sub := range subs {
		counts[sub.ResourceArn]++
	}
	result := make([]models.SubscriberAlarms, 0, len(counts))
	for arn, count := range counts {
		result = append(result, models.SubscriberAlarms{ResourceArn: arn, AlarmCount: count})
	}
	slices.SortFunc(result, func(a, b models.SubscriberAlarms) int {
		return strings.Compare(a.ResourceArn, b.ResourceArn)
	})
	return result, nil
}

// AllSubscribed returns every subscribed alarm once, without its subscribers.
func (s *Store) AllSubscribed(ctx context.Context) ([]models.AlarmSubscription, error) {
	subs, err := awsctl.ScanAll[models.AlarmSubscription](ctx, s.client, s.table)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(subs))
	alarms := make([]models.AlarmSubscription, 0)
	for _, sub := range subs {
		if _, found := seen[sub.RegionAlarmName]; found {
			continue
		}
		seen[sub.RegionAlarmName] = struct{}{}
		sub.ResourceArn = ""
		alarms = append(alarms, sub)
	}
	return alarms, nil
}

type stateChangeDetail struct {
	AlarmName string `json:"alarmName"`
	State     struct {
		Value     string `json:"value"`
		Timestamp string `json:"timestamp"`
	} `json:"state"`
}

// UpdateState records the new state of an alarm on each of its subscriptions. Events other than alarm state changes are ignored.
// It returns the number of subscriptions updated.
func (s *Store) UpdateState(ctx context.Context, event events.CloudWatchEvent) (int, error) {
	if event.Source != "aws.cloudwatch" || event.DetailType != StateChangeDetailType {
		s.logger.Debug("ignoring event", slog.String("source", event.Source), slog.String("detail-type", event.DetailType))
		return 0, nil
	}
	var detail stateChangeDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return 0, errors.Wrap(err, "malformed alarm state change")
	}
	if detail.AlarmName == "" || detail.State.Value == "" {
		return 0, errors.New("alarm state change without alarm name or state")
	}
	updated := parseStateTimestamp(detail.State.Timestamp, event.Time)

	subs, err := s.Subscribers(ctx, detail.AlarmName, event.Region)
	if err != nil {
		return 0, err
	}
	for _, sub := range subs {
		if err = s.setState(ctx, sub, detail.State.Value, updated.Unix()); err != nil {
			return 0, err
		}
	}
	s.logger.Info("updated alarm state",
		slog.String("alarm", models.RegionAlarmName(event.Region, detail.AlarmName)),
		slog.String("state", detail.State.Value),
		slog.Int("subscribers", len(subs)))
	return len(subs), nil
}

// describeBatch is the largest number of alarm names accepted by one DescribeAlarms request.
const describeBatch = 100

// Refresh reads the current state of every subscribed alarm from CloudWatch and records it on the
// subscriptions that are out of date. Alarms no longer found in their region are left unchanged.
// It returns the number of subscriptions updated.
func (s *Store) Refresh(ctx context.Context) (int, error) {
	subs, err := awsctl.ScanAll[models.AlarmSubscription](ctx, s.client, s.table)
	if err != nil {
		return 0, err
	}
	names := make(map[string]map[string]struct{})
	for _, sub := range subs {
		if names[sub.Region] == nil {
			names[sub.Region] = make(map[string]struct{})
		}
		names[sub.Region][sub.AlarmName] = struct{}{}
	}

	current := make(map[string]models.AlarmSubscription)
	for _, region := range slices.Sorted(maps.Keys(names)) {
		for batch := range slices.Chunk(slices.Sorted(maps.Keys(names[region])), describeBatch) {
			paginator := cloudwatch.NewDescribeAlarmsPaginator(s.cloudWatch, &cloudwatch.DescribeAlarmsInput{AlarmNames: batch})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx, inRegion(region))
				if err != nil {
					return 0, errors.Wrapf(err, "failed to describe alarms in %s", region)
				}
				for _, alarm := range page.MetricAlarms {
					found := fromMetricAlarm(region, alarm)
					current[found.RegionAlarmName] = found
				}
			}
		}
	}

	updated := 0
	for _, sub := range subs {
		alarm, found := current[sub.RegionAlarmName]
		if !found {
			s.logger.Warn("subscribed alarm not found", slog.String("alarm", sub.RegionAlarmName), slog.String("subscriber", sub.ResourceArn))
			continue
		}
		if alarm.StateValue == sub.StateValue && alarm.StateUpdated == sub.StateUpdated {
			continue
		}
		if err = s.setState(ctx, sub, alarm.StateValue, alarm.StateUpdated); err != nil {
			return updated, err
		}
		updated++
	}
	s.logger.Info("refreshed alarm subscriptions",
		slog.Int("alarms", len(current)),
		slog.Int("subscriptions", len(subs)),
		slog.Int("updated", updated))
	return updated, nil
}

func (s *Store) setState(ctx context.Context, sub models.AlarmSubscription, state string, updated int64) error {
	update := expression.
		Set(expression.Name("StateValue"), expression.Value(state)).
		Set(expression.Name("StateUpdated"), expression.Value(updated))
	if err := awsctl.UpdateItem(ctx, s.client, s.table, map[string]string{
		"RegionAlarmName": sub.RegionAlarmName,
		"ResourceArn":     sub.ResourceArn,
	}, update); err != nil {
		return err
	}
	metrics.AlarmUpdates.Inc()
	return nil
}

// stateTimestampLayouts are the layouts CloudWatch uses for state change timestamps.
var stateTimestampLayouts = []string{"2006-01-02T15:04:05.000-0700", time.RFC3339Nano}

func parseStateTimestamp(value string, fallback time.Time) time.Time {
	for _, layout := range stateTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}

func (s *Store) query(ctx context.Context, index string, keyCond expression.KeyConditionBuilder) ([]models.AlarmSubscription, error) {
	input, err := awsctl.KeyQuery(s.table, index, keyCond)
	if err != nil {
		return nil, err
	}
	return awsctl.QueryAll[models.AlarmSubscription](ctx, s.client, input)
}
