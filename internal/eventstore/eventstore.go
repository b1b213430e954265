// Package eventstore persists normalized events to the alerts and history tables and reads them back.
package eventstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsctl "github.com/isometry/media-mapper/internal/controllers/aws"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

// AlarmStateIndex is the alerts table index keyed by alarm_state.
const AlarmStateIndex = "AlarmStateIndex"

// RangeError reports a history range ending before it starts.
type RangeError struct {
	Start int64
	End   int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("end time %d is before start time %d", e.End, e.Start)
}

// Option is a functional option of the Store.
type Option func(*Store)

// WithLogger sets the logger of the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for open-ended history queries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store writes to and reads from the alerts and history tables.
type Store struct {
	client       awsctl.DynamoDBAPI
	alertsTable  string
	historyTable string
	now          func() time.Time
	logger       *slog.Logger
}

// New returns a Store over the given alerts and history tables.
func New(client awsctl.DynamoDBAPI, alertsTable, historyTable string, opts ...Option) *Store {
	_inst := &Store{
		client:       client,
		alertsTable:  alertsTable,
		historyTable: historyTable,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// PutAlert writes an alert record.
func (s *Store) PutAlert(ctx context.Context, event *models.Event) error {
	if err := awsctl.PutItem(ctx, s.client, s.alertsTable, event); err != nil {
		return errors.Wrap(err, "failed to store alert")
	}
	s.logger.Debug("stored alert", slog.String("alarm_id", event.AlarmID), slog.String("resource_arn", event.ResourceArn))
	return nil
}

// PutHistory writes a history record. The record must carry a resource ARN.
func (s *Store) PutHistory(ctx context.Context, event *models.Event) error {
	if event.ResourceArn == "" {
		return errors.New("history record without resource_arn")
	}
	if err := awsctl.PutItem(ctx, s.client, s.historyTable, event); err != nil {
		return errors.Wrap(err, "failed to store event history")
	}
	s.logger.Debug("stored event history", slog.String("resource_arn", event.ResourceArn), slog.Int64("timestamp", event.Timestamp))
	return nil
}

// AlertsByState returns the alerts currently in the given state.
func (s *Store) AlertsByState(ctx context.Context, state string) ([]models.Event, error) {
	state = helpers.Unescape(state)
	input, err := awsctl.KeyQuery(s.alertsTable, AlarmStateIndex, expression.Key("alarm_state").Equal(expression.Value(state)))
	if err != nil {
		return nil, err
	}
	return awsctl.QueryAll[models.Event](ctx, s.client, input)
}

// History returns the history records of a resource between start and end, in epoch milliseconds.
// A zero end means now.
func (s *Store) History(ctx context.Context, arn string, start, end int64) ([]models.Event, error) {
	arn = helpers.Unescape(arn)
	if end == 0 {
		end = s.now().UnixMilli()
	}
	if end < start {
		return nil, &RangeError{Start: start, End: end}
	}
	keyCond := expression.Key("resource_arn").Equal(expression.Value(arn)).
		And(expression.Key("timestamp").Between(expression.Value(start), expression.Value(end)))
	input, err := awsctl.KeyQuery(s.historyTable, "", keyCond)
	if err != nil {
		return nil, err
	}
	return awsctl.QueryAll[models.Event](ctx, s.client, input)
}
