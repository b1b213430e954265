package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

const (
	sourceMediaLive    = "aws.medialive"
	sourceMediaPackage = "aws.mediapackage"
	sourceMediaStore   = "aws.mediastore"
)

type sourceOverridesEventProcessor struct {
	logger    *slog.Logger
	endpoints EndpointResolver
}

// NewSourceOverridesEventProcessor corrects the resource ARN of the history record for events whose captured ARN is not the monitored resource.
func NewSourceOverridesEventProcessor(endpoints EndpointResolver) Processor {
	return &sourceOverridesEventProcessor{endpoints: endpoints, logger: helpers.NewNoopLogger()}
}

func (p *sourceOverridesEventProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:sourceOverrides")
}

func (p *sourceOverridesEventProcessor) Process(ctx context.Context, res *Result) error {
	history := res.History
	if history == nil {
		return nil
	}
	switch history.Source {
	case sourceMediaLive:
		if strings.Contains(history.Type, "BatchUpdateSchedule") {
			p.batchUpdateSchedule(history)
		}
	case sourceMediaPackage:
		if strings.Contains(history.Type, "HarvestJob") {
			return p.harvestJob(ctx, res)
		}
	case sourceMediaStore:
		if strings.Contains(history.Type, "MediaStore Object State Change") {
			p.objectStateChange(history)
		}
	}
	return nil
}

// batchUpdateSchedule names the channel whose schedule was updated.
func (p *sourceOverridesEventProcessor) batchUpdateSchedule(history *models.Event) {
	params, _ := history.Detail["requestParameters"].(map[string]any)
	channelID, _ := params["channelId"].(string)
	if channelID == "" {
		p.logger.Warn("BatchUpdateSchedule event without channelId")
		return
	}
	history.ResourceArn = fmt.Sprintf("arn:aws:medialive:%s:%s:channel:%s", history.Region, history.Account, channelID)
	p.logger.Debug("synthesized channel ARN", slog.String("resource_arn", history.ResourceArn))
}

// harvestJob replaces the harvest job ARN with the ARN of the origin endpoint it harvests.
func (p *sourceOverridesEventProcessor) harvestJob(ctx context.Context, res *Result) error {
	ids, err := FindStrings(res.Raw, "origin_endpoint_id")
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		res.History.ResourceArn = ""
		return skipf("origin endpoint id not present in %s event", res.History.Type)
	}
	if p.endpoints == nil {
		return errors.New("no origin endpoint resolver configured")
	}
	arn, err := p.endpoints.OriginEndpointArn(ctx, ids[0])
	if err != nil {
		return err
	}
	res.History.ResourceArn = arn
	p.logger.Debug("resolved origin endpoint", slog.String("id", ids[0]), slog.String("resource_arn", arn))
	return nil
}

// objectStateChange trims an object ARN to the ARN of its container.
func (p *sourceOverridesEventProcessor) objectStateChange(history *models.Event) {
	parts := strings.Split(history.ResourceArn, "/")
	if len(parts) < 2 {
		return
	}
	history.ResourceArn = parts[0] + "/" + parts[1]
}
