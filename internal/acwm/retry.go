package acwm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/muurk/mhacwifi/internal/logging"
)

// withRetry runs cmd through dispatch, retrying failed attempts after a
// fixed delay until attempts are exhausted. The last failure is returned
// unchanged. Decode and authentication failures are not retried.
//
// The command lock is held per attempt, not across the delay.
func (c *Client) withRetry(ctx context.Context, cmd Command, delay time.Duration, attempts int) (*CommandResult, error) {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)

	var (
		result  *CommandResult
		attempt int
	)
	operation := func() error {
		attempt++
		res, err := c.do(ctx, cmd)
		if err != nil {
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logging.LogRetry(c.BaseURL, cmd.Name, attempt, wait, err)
		c.observe(func(o Observer) { o.Retrying(cmd.Name, attempt, err) })
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return result, nil
}

// retryPolicy returns the configured delay and attempt count
func (c *Client) retryPolicy() (time.Duration, int) {
	attempts := c.RetryAttempts
	if attempts < 1 {
		attempts = DefaultRetryAttempts
	}
	delay := c.RetryDelay
	if delay < 0 {
		delay = 0
	}
	return delay, attempts
}
