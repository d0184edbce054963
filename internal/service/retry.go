package service

import (
	"context"
	"time"
)

// readRetry retries transient read failures against the slow store. It is
// only ever applied to reads: a write retried blindly could double-post.
type readRetry struct {
	attempts int
	backoff  time.Duration
}

// do runs fn up to attempts times, sleeping backoff between tries. The last
// error wins. Context expiry stops the loop immediately.
func (r readRetry) do(ctx context.Context, fn func() error) error {
	attempts := r.attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if i < attempts-1 && r.backoff > 0 {
			t := time.NewTimer(r.backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		}
	}
	return err
}
