package runner

import (
	"context"
	"time"

	"github.com/doniyusdinar/scanfleet/pkg/logger"
	"github.com/doniyusdinar/scanfleet/pkg/rpc"
)

// Dialer opens a client that is ready to serve calls
type Dialer func(ctx context.Context) (*rpc.Client, error)

// HubDialer dials the hub at address and waits up to attemptTimeout for the
// connection to become ready.
func HubDialer(address string, attemptTimeout time.Duration) Dialer {
	return func(ctx context.Context) (*rpc.Client, error) {
		client, err := rpc.Dial(address)
		if err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()

		if err := client.WaitReady(attemptCtx); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil
	}
}

// Connect retries dial at a fixed interval until it succeeds or ctx is done
func Connect(ctx context.Context, dial Dialer, retryInterval time.Duration) (*rpc.Client, error) {
	for {
		client, err := dial(ctx)
		if err == nil {
			return client, nil
		}

		logger.Log.Warnf("Failed to connect to hub: %v. Retrying in %v...", err, retryInterval)

		select {
		case <-time.After(retryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
