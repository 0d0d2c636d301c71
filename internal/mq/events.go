package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/happythoughts/apiserver/types"
)

// AttributeType carries the event type on every published thought event.
const AttributeType = "type"

// EventPublisher publishes thought events as JSON on a single channel.
type EventPublisher struct {
	mq      *MQ
	channel string
}

func NewEventPublisher(mq *MQ, channel string) *EventPublisher {
	return &EventPublisher{mq: mq, channel: channel}
}

func (p *EventPublisher) Publish(ctx context.Context, event types.ThoughtEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode thought event: %w", err)
	}
	if _, err := p.mq.Publish(ctx, p.channel, data, map[string]string{AttributeType: string(event.Type)}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// DecodeEvent parses a message produced by EventPublisher.
func DecodeEvent(msg Message) (types.ThoughtEvent, error) {
	var event types.ThoughtEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.ThoughtEvent{}, fmt.Errorf("decode thought event %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		return types.ThoughtEvent{}, errors.New("thought event without type")
	}
	return event, nil
}
