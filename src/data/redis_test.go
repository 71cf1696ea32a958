package data

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/multisig-comms/src/multisig"
)

type recordingAdder struct {
	args []*redis.XAddArgs
	err  error
}

func (r *recordingAdder) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	r.args = append(r.args, a)
	return redis.NewStringResult("1-0", r.err)
}

func TestStreamSinkPublishes(t *testing.T) {
	rdb := &recordingAdder{}
	sink := NewStreamSink(rdb, 1000)

	var hash multisig.CallHash
	hash[31] = 1
	res := multisig.Result{Kind: multisig.ResultCreated, Event: multisig.EventStarted, CallHash: hash, Thread: "t1"}
	require.NoError(t, sink.Publish(context.Background(), 42, res, nil))

	require.Len(t, rdb.args, 1)
	args := rdb.args[0]
	assert.Equal(t, "multisig.events", args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.(map[string]interface{})
	assert.Equal(t, "created", values["kind"])
	assert.Equal(t, "42", values["block"])
	assert.Equal(t, hash.String(), values["call_hash"])
	assert.Equal(t, "t1", values["thread"])
	assert.Equal(t, "", values["error"])
	_, err := uuid.Parse(values["id"].(string))
	assert.NoError(t, err)
}

func TestResultValuesErrors(t *testing.T) {
	res := multisig.Result{Kind: multisig.ResultUpdated, NotifyErr: errors.New("discord down")}
	values := ResultValues(1, res, nil)
	assert.Equal(t, "updated", values["kind"])
	assert.Equal(t, "discord down", values["error"])

	values = ResultValues(1, multisig.Result{Event: multisig.EventStarted}, errors.New("store broken"))
	assert.Equal(t, "failed", values["kind"])
	assert.Equal(t, "store broken", values["error"])
}

func TestStreamSinkReturnsRedisError(t *testing.T) {
	rdb := &recordingAdder{err: errors.New("connection refused")}
	sink := NewStreamSink(rdb, 0)

	err := sink.Publish(context.Background(), 1, multisig.Result{Kind: multisig.ResultGap}, nil)
	assert.ErrorContains(t, err, "connection refused")
	assert.Zero(t, rdb.args[0].MaxLen)
}
