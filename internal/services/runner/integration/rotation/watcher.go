package rotation

import (
	"context"
	"errors"
	"io"
	"log"
	"time"
)

const (
	watchInitialBackoff = 200 * time.Millisecond
	watchMaxBackoff     = 5 * time.Second
)

// WatchRevocations keeps a revocation stream open for channel and calls
// handle for every notice until ctx ends. Broken streams are reopened with
// backoff.
func (c *Client) WatchRevocations(ctx context.Context, channel string, handle func(reason int32, info string), logf func(string, ...any)) error {
	if logf == nil {
		logf = log.Printf
	}
	backoff := watchInitialBackoff
	for {
		received, err := c.watchOnce(ctx, channel, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if received {
			backoff = watchInitialBackoff
		}
		if err != nil && !errors.Is(err, io.EOF) {
			logf("combat engine callback stream: channel=%s err=%v", channel, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, watchMaxBackoff)
	}
}

func (c *Client) watchOnce(ctx context.Context, channel string, handle func(int32, string)) (bool, error) {
	stream, err := c.WatchLeaseCallbacks(ctx, channel)
	if err != nil {
		return false, err
	}
	received := false
	for {
		msg, err := stream.Recv()
		if err != nil {
			return received, err
		}
		received = true
		cb := CallbackFromStruct(msg)
		handle(cb.Reason, cb.Info)
	}
}
