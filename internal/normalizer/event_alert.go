package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/metrics"
)

const (
	alarmStateSet     = "set"
	alarmStateCleared = "cleared"
)

type alertEventProcessor struct {
	logger    *slog.Logger
	writer    EventWriter
	pipelines PipelineStater
}

// NewAlertEventProcessor derives the alarm fields of MediaLive and MediaConnect alerts and writes every alert to the alerts table.
// Without a pipeline stater, MediaLive alerts report redundant pipelines.
func NewAlertEventProcessor(writer EventWriter, pipelines PipelineStater) Processor {
	return &alertEventProcessor{writer: writer, pipelines: pipelines, logger: helpers.NewNoopLogger()}
}

func (p *alertEventProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:alert")
}

func (p *alertEventProcessor) Process(ctx context.Context, res *Result) error {
	event := res.Event
	if !strings.Contains(event.DetailType, "Alert") {
		return nil
	}

	switch {
	case strings.Contains(event.DetailType, "MediaLive"):
		event.AlarmID = detailText(event.Detail, "alarm_id")
		event.AlarmState = strings.ToLower(detailText(event.Detail, "alarm_state"))
		running := true
		if p.pipelines != nil {
			running = p.pipelines.Lookup(ctx, event)
		}
		event.Detail["pipeline_state"] = running
		p.logger.Debug("resolved pipeline state",
			slog.Any("pipeline", event.Detail["pipeline"]),
			slog.String("resource_arn", event.ResourceArn),
			slog.Bool("running", running))

	case strings.Contains(event.DetailType, "MediaConnect"):
		event.AlarmID = detailText(event.Detail, "error-id")
		if errored, _ := event.Detail["errored"].(bool); errored {
			event.AlarmState = alarmStateSet
		} else {
			event.AlarmState = alarmStateCleared
		}
		renameDetail(event.Detail, "error-code", "alert_type")
		renameDetail(event.Detail, "error-message", "message")
	}

	res.Alert = event.Clone()
	if err := p.writer.PutAlert(ctx, res.Alert); err != nil {
		return err
	}
	res.AlertStored = true
	metrics.EventsStored.WithLabelValues("alert").Inc()
	p.logger.Info("stored alert", slog.String("alarm_id", event.AlarmID), slog.String("alarm_state", event.AlarmState))
	return nil
}

// detailText returns the text of a scalar detail field.
func detailText(detail map[string]any, key string) string {
	switch v := detail[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func renameDetail(detail map[string]any, from, to string) {
	if v, ok := detail[from]; ok {
		detail[to] = v
		delete(detail, from)
	}
}
