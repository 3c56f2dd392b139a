// Package retry wraps a provider so that failed Materialize, Persist and Flush
// calls are retried with an exponential backoff; List and Close go straight to
// the wrapped provider. Errors marked permanent with backoff.Permanent are
// passed through, as is context cancellation.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/id"
	"github.com/chunkfs/chunkfs/internal/provider"
)

// Provider retries operations on the wrapped provider in case of an error
// with a backoff.
type Provider struct {
	provider.Provider
	MaxElapsedTime time.Duration
	Report         func(msg string, err error, d time.Duration)
}

// statically ensure that *Provider implements provider.Provider.
var _ provider.Provider = &Provider{}

// New wraps p with retries. report is called with a description and the
// error whenever an operation failed and will be retried; it may be nil.
func New(p provider.Provider, maxElapsedTime time.Duration, report func(string, error, time.Duration)) *Provider {
	return &Provider{
		Provider:       p,
		MaxElapsedTime: maxElapsedTime,
		Report:         report,
	}
}

func (be *Provider) retry(ctx context.Context, msg string, f func() error) error {
	// no retries on an already cancelled context, for consistency
	if ctx.Err() != nil {
		return ctx.Err()
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = be.MaxElapsedTime

	err := backoff.RetryNotify(f,
		backoff.WithContext(bo, ctx),
		func(err error, d time.Duration) {
			debug.Log("%v failed: %v, retrying in %v", msg, err, d)
			if be.Report != nil {
				be.Report(msg, err, d)
			}
		})

	return err
}

// Materialize retries the wrapped Materialize.
func (be *Provider) Materialize(ctx context.Context, chunkID id.ID) (*chunk.Chunk, error) {
	var c *chunk.Chunk
	err := be.retry(ctx, "Materialize("+chunkID.Str()+")", func() error {
		var err error
		c, err = be.Provider.Materialize(ctx, chunkID)
		return err
	})

	return c, err
}

// Persist retries the wrapped Persist. The chunk is re-read from the start
// on every attempt; persisting is idempotent.
func (be *Provider) Persist(ctx context.Context, c *chunk.Chunk) error {
	return be.retry(ctx, "Persist("+c.ID().Str()+")", func() error {
		return be.Provider.Persist(ctx, c)
	})
}

// Flush retries the wrapped Flush.
func (be *Provider) Flush(ctx context.Context) error {
	return be.retry(ctx, "Flush", func() error {
		return be.Provider.Flush(ctx)
	})
}
