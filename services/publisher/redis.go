package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
	"github.com/dealmungchi/jobcrawler/logger"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks the Redis connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish adds the record to the stream.
// The JSON payload is base64 encoded before publishing.
func (p *RedisPublisher) Publish(ctx context.Context, record crawler.JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"key":    strconv.Itoa(record.Key),
			"target": record.Target.String(),
			"record": base64.StdEncoding.EncodeToString(payload),
		},
	}).Err()
}

// Flush trims the stream to the configured maximum length
func (p *RedisPublisher) Flush(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	trimmed, err := p.client.XTrimMaxLen(ctx, p.stream, int64(p.streamMaxLength)).Result()
	if err != nil {
		p.log.WithError(err).Warn().Str("stream", p.stream).Msg("Failed to trim stream")
		return err
	}
	p.log.Debug().
		Str("stream", p.stream).
		Int64("trimmed", trimmed).
		Msg("Stream trimmed")
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
