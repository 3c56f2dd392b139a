package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
	"github.com/chunkfs/chunkfs/internal/provider"
	"github.com/chunkfs/chunkfs/internal/provider/mem"
	"github.com/chunkfs/chunkfs/internal/provider/retry"
	rtest "github.com/chunkfs/chunkfs/internal/test"
)

// flaky fails the first failures calls of Materialize and Persist.
type flaky struct {
	provider.Provider
	failures int
	calls    int
}

func (f *flaky) Materialize(ctx context.Context, chunkID id.ID) (*chunk.Chunk, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient failure")
	}
	return f.Provider.Materialize(ctx, chunkID)
}

func (f *flaky) Persist(ctx context.Context, c *chunk.Chunk) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient failure")
	}
	return f.Provider.Persist(ctx, c)
}

func TestRetryMaterialize(t *testing.T) {
	f := &flaky{Provider: mem.New(), failures: 2}

	reports := 0
	be := retry.New(f, 5*time.Second, func(string, error, time.Duration) { reports++ })

	c, err := be.Materialize(context.TODO(), id.NewRandom())
	rtest.OK(t, err)
	rtest.Assert(t, c != nil, "no chunk returned")
	rtest.Equals(t, 2, reports)
}

func TestRetryPersist(t *testing.T) {
	f := &flaky{Provider: mem.New(), failures: 1}
	be := retry.New(f, 5*time.Second, nil)

	c := chunk.New(id.NewRandom())
	w := c.Writer()
	rtest.OK(t, w.Close())

	rtest.OK(t, be.Persist(context.TODO(), c))
	rtest.Equals(t, 2, f.calls)
}

// permanent errors must not be retried.
type broken struct {
	provider.Provider
	calls int
}

func (b *broken) Persist(context.Context, *chunk.Chunk) error {
	b.calls++
	return backoff.Permanent(errors.New("out of space"))
}

func TestRetryPermanent(t *testing.T) {
	b := &broken{Provider: mem.New()}
	be := retry.New(b, 5*time.Second, nil)

	c := chunk.New(id.NewRandom())
	w := c.Writer()
	rtest.OK(t, w.Close())

	rtest.Error(t, be.Persist(context.TODO(), c), "permanent error was swallowed")
	rtest.Equals(t, 1, b.calls)
}

func TestRetryCancelledContext(t *testing.T) {
	be := retry.New(mem.New(), 5*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := be.Materialize(ctx, id.NewRandom())
	rtest.Assert(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
}
