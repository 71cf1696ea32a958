package data

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

const streamEvents = "multisig.events"

// ConnectRedis parses a redis:// URL and returns a client.
func ConnectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return redis.NewClient(opt), nil
}

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamSink publishes every reconciliation result to a Redis stream.
type StreamSink struct {
	rdb    streamAdder
	stream string
	maxLen int64
}

var _ multisig.Sink = (*StreamSink)(nil)

// NewStreamSink publishes to multisig.events, keeping roughly maxLen entries (0 = unbounded).
func NewStreamSink(rdb streamAdder, maxLen int64) *StreamSink {
	return &StreamSink{rdb: rdb, stream: streamEvents, maxLen: maxLen}
}

func (s *StreamSink) Publish(ctx context.Context, block uint64, res multisig.Result, applyErr error) error {
	values := ResultValues(block, res, applyErr)
	args := &redis.XAddArgs{Stream: s.stream, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.rdb.XAdd(ctx, args).Err()
}

// ResultValues flattens a result into stream entry fields.
func ResultValues(block uint64, res multisig.Result, applyErr error) map[string]interface{} {
	kind := string(res.Kind)
	errText := ""
	switch {
	case applyErr != nil:
		kind = "failed"
		errText = applyErr.Error()
	case res.NotifyErr != nil:
		errText = res.NotifyErr.Error()
	}
	return map[string]interface{}{
		"id":        uuid.NewString(),
		"kind":      kind,
		"event":     res.Event,
		"call_hash": res.CallHash.String(),
		"thread":    string(res.Thread),
		"block":     strconv.FormatUint(block, 10),
		"error":     errText,
	}
}
