package multisig_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/multisig-comms/src/multisig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestRetryNotifier_RetriesTransient(t *testing.T) {
	ctx := context.Background()
	next := &mockNotifier{}
	next.On("UpdateThread", ctx, mock.Anything).Return(restError(502)).Once()
	next.On("UpdateThread", ctx, mock.Anything).Return(nil).Once()

	n := multisig.RetryNotifier{Next: next, Attempts: 3, Delay: time.Millisecond}
	err := n.UpdateThread(ctx, multisig.UpdateThread{Thread: "t"})
	require.NoError(t, err)
	next.AssertExpectations(t)
}

func TestRetryNotifier_CreateRetriesRateLimit(t *testing.T) {
	ctx := context.Background()
	next := &mockNotifier{}
	next.On("CreateThread", ctx, mock.Anything).Return(multisig.ThreadHandle(""), restError(429)).Once()
	next.On("CreateThread", ctx, mock.Anything).Return(multisig.ThreadHandle("t"), nil).Once()

	n := multisig.RetryNotifier{Next: next, Attempts: 3, Delay: time.Millisecond}
	thread, err := n.CreateThread(ctx, multisig.CreateThread{Topic: "x"})
	require.NoError(t, err)
	assert.Equal(t, multisig.ThreadHandle("t"), thread)
	next.AssertExpectations(t)
}

func TestRetryNotifier_CreateDoesNotRetryAmbiguousFailures(t *testing.T) {
	for name, failure := range map[string]error{
		"timeout":     timeoutError{},
		"server":      restError(502),
		"wrapped 503": fmt.Errorf("discord: create thread: %w", restError(503)),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			next := &mockNotifier{}
			next.On("CreateThread", ctx, mock.Anything).Return(multisig.ThreadHandle(""), failure)

			n := multisig.RetryNotifier{Next: next, Attempts: 5, Delay: time.Millisecond}
			_, err := n.CreateThread(ctx, multisig.CreateThread{Topic: "x"})
			assert.ErrorIs(t, err, failure)
			next.AssertNumberOfCalls(t, "CreateThread", 1)
		})
	}
}

func TestRetryNotifier_StopsOnPermanent(t *testing.T) {
	ctx := context.Background()
	next := &mockNotifier{}
	next.On("UpdateThread", ctx, mock.Anything).Return(restError(403)).Once()

	n := multisig.RetryNotifier{Next: next, Attempts: 5, Delay: time.Millisecond}
	err := n.UpdateThread(ctx, multisig.UpdateThread{Thread: "t"})
	var rest *discordgo.RESTError
	assert.True(t, errors.As(err, &rest))
	next.AssertNumberOfCalls(t, "UpdateThread", 1)
}

func TestRetryNotifier_GivesUp(t *testing.T) {
	ctx := context.Background()
	next := &mockNotifier{}
	next.On("CloseThread", ctx, mock.Anything).Return(restError(429))

	n := multisig.RetryNotifier{Next: next, Attempts: 3, Delay: time.Millisecond}
	err := n.CloseThread(ctx, multisig.CloseThread{Thread: "t"})
	assert.Error(t, err)
	next.AssertNumberOfCalls(t, "CloseThread", 3)
}
