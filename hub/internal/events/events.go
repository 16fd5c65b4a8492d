// Package events fans hub activity out to optional external sinks.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doniyusdinar/scanfleet/pkg/logger"
	natspkg "github.com/doniyusdinar/scanfleet/pkg/nats"
	"github.com/doniyusdinar/scanfleet/pkg/redis"
)

// Event types
const (
	AgentRegistered = "agent.registered"
	ScanTriggered   = "scan.triggered"
	ScanCompleted   = "scan.completed"
)

// RedisChannel is the pub/sub channel events are published on
const RedisChannel = "scanfleet:events"

// Event describes something that happened on the hub
type Event struct {
	Type      string `json:"type"`
	AgentID   string `json:"agent_id"`
	CommandID string `json:"command_id,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher delivers events to a sink
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NATSPublisher publishes each event on <prefix>.<type>
type NATSPublisher struct {
	client *natspkg.Client
	prefix string
}

func NewNATSPublisher(client *natspkg.Client, prefix string) *NATSPublisher {
	return &NATSPublisher{client: client, prefix: prefix}
}

func (p *NATSPublisher) Publish(_ context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.prefix + "." + evt.Type
	if err := p.client.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS subject %s: %w", subject, err)
	}
	return nil
}

// RedisPublisher publishes events on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data); err != nil {
		return fmt.Errorf("failed to publish to Redis channel %s: %w", p.channel, err)
	}
	return nil
}

// Emit publishes evt and logs, rather than returns, any failure.
// Sinks are best effort; hub operations never fail because of them.
func Emit(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Log.WithField("event", evt.Type).Warnf("Failed to publish event: %v", err)
	}
}
