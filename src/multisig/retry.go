package multisig

import (
	"context"
	"time"

	"github.com/stake-plus/multisig-comms/src/logging"
	"github.com/stake-plus/multisig-comms/src/webclient"
)

// RetryNotifier retries transient notifier failures before giving up.
// CreateThread is only retried on rate limits: after a timeout or a 5xx the
// thread may already exist, and a retry would open a duplicate.
type RetryNotifier struct {
	Next     Notifier
	Attempts int
	Delay    time.Duration
}

func (n RetryNotifier) CreateThread(ctx context.Context, cmd CreateThread) (ThreadHandle, error) {
	var thread ThreadHandle
	err := webclient.Retry(ctx, n.Attempts, n.Delay, logging.IsRateLimit, func() error {
		var err error
		thread, err = n.Next.CreateThread(ctx, cmd)
		return err
	})
	return thread, err
}

func (n RetryNotifier) UpdateThread(ctx context.Context, cmd UpdateThread) error {
	return n.retry(ctx, func() error { return n.Next.UpdateThread(ctx, cmd) })
}

func (n RetryNotifier) CloseThread(ctx context.Context, cmd CloseThread) error {
	return n.retry(ctx, func() error { return n.Next.CloseThread(ctx, cmd) })
}

func (n RetryNotifier) DeleteThread(ctx context.Context, thread ThreadHandle) error {
	return n.retry(ctx, func() error { return n.Next.DeleteThread(ctx, thread) })
}

func (n RetryNotifier) retry(ctx context.Context, fn func() error) error {
	return webclient.Retry(ctx, n.Attempts, n.Delay, logging.IsTransient, fn)
}
