package events

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher pushes ingestion events onto a Redis stream for downstream
// consumers. A Publisher built over a nil client is disabled and
// silently drops events, so the pipeline can run without Redis.
type Publisher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client, stream string, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		log:    log,
	}
}

func (p *Publisher) ImageIngested(ctx context.Context, imageID int64, storedName string, tags []string) error {
	if p == nil || p.client == nil {
		return nil
	}

	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"imageId":  imageID,
			"filename": storedName,
			"tags":     strings.Join(tags, ","),
		},
	}).Result()
	return err
}
