package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 10000

// StreamAPI is the subset of the redis client used for streams.
type StreamAPI interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamClient appends queue messages to a Redis stream.
type RedisStreamClient struct {
	client StreamAPI
	stream string
	maxLen int64
}

// NewRedisStreamClient constructs a stream-backed queue client. The stream
// is trimmed to roughly maxLen entries; zero means 10000.
func NewRedisStreamClient(client StreamAPI, stream string, maxLen int64) (*RedisStreamClient, error) {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisStreamClient{client: client, stream: stream, maxLen: maxLen}, nil
}

// Send appends msg as one stream entry.
func (r *RedisStreamClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode stream message: %w", err)
	}
	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			"entryId": strconv.FormatInt(msg.EntryID, 10),
			"type":    msg.Type,
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", r.stream, err)
	}
	return nil
}

var _ Client = (*RedisStreamClient)(nil)
