package rabbitmq

import (
	"context"
	"fmt"
	"sync"
)

// IPublisher sends a payload to a durable queue on the default exchange.
type IPublisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

type Publisher struct {
	channel  *ChannelManager
	mu       sync.Mutex
	declared map[string]bool
}

func NewPublisher(ctx context.Context, connManager *ConnectionManager) *Publisher {
	return &Publisher{
		channel:  NewChannelManager(ctx, connManager),
		declared: map[string]bool{},
	}
}

func (p *Publisher) Publish(ctx context.Context, queue string, payload any) error {
	msg, err := NewMessage(payload, nil)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel.GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	if !p.declared[queue] {
		cfg := DefaultQueueConfig()
		if _, err := ch.QueueDeclare(queue, cfg.Durable, cfg.AutoDelete, cfg.Exclusive, cfg.NoWait, cfg.Args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, *msg.GeneratePayload()); err != nil {
		delete(p.declared, queue)
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

// NopPublisher drops every event. Used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
