package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher emits tagged row-change events on table channels. Write paths
// call it after a successful mutation so subscribed mirrors stay current.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	if client == nil {
		panic("realtime: redis client required")
	}
	return &Publisher{client: client}
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	data, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("realtime: encode event: %w", err)
	}
	if err := p.client.Publish(ctx, ChannelFor(ev.Table, ""), data).Err(); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", ev.Table, err)
	}
	return nil
}

// PublishInsert announces a newly inserted row.
func (p *Publisher) PublishInsert(ctx context.Context, table string, row map[string]any) error {
	return p.publish(ctx, Event{Type: EventInsert, Table: table, Row: row})
}

// PublishUpdate announces an updated row image.
func (p *Publisher) PublishUpdate(ctx context.Context, table string, row map[string]any) error {
	return p.publish(ctx, Event{Type: EventUpdate, Table: table, Row: row})
}

// PublishDelete announces a removal, carrying the old row image so
// subscribers can match on identity.
func (p *Publisher) PublishDelete(ctx context.Context, table string, oldRow map[string]any) error {
	return p.publish(ctx, Event{Type: EventDelete, Table: table, OldRow: oldRow})
}
