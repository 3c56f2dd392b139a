// Package cache wraps a provider with a fixed-size LRU of materialized
// chunks, so that repeated access to hot chunks skips the backing store.
package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/id"
	"github.com/chunkfs/chunkfs/internal/provider"
)

// Provider memoizes materialized chunks. All callers of Materialize for the
// same id share one *chunk.Chunk, which is what makes the single-writer
// discipline effective across goroutines; cached chunks must therefore never
// be deconstructed by callers.
type Provider struct {
	provider.Provider

	mu sync.Mutex
	c  *lru.Cache[id.ID, *chunk.Chunk]
}

// statically ensure that *Provider implements provider.Provider.
var _ provider.Provider = &Provider{}

// New wraps p with an LRU holding at most size chunks. At 4 MiB per chunk the
// memory bound is size*4 MiB plus lock words.
func New(p provider.Provider, size int) (*Provider, error) {
	c, err := lru.New[id.ID, *chunk.Chunk](size)
	if err != nil {
		return nil, err
	}

	return &Provider{Provider: p, c: c}, nil
}

// Materialize returns the cached chunk for chunkID, materializing and caching
// it on a miss.
func (be *Provider) Materialize(ctx context.Context, chunkID id.ID) (*chunk.Chunk, error) {
	be.mu.Lock()
	if c, ok := be.c.Get(chunkID); ok {
		be.mu.Unlock()
		debug.Log("cache hit for chunk %v", chunkID)
		return c, nil
	}
	be.mu.Unlock()

	c, err := be.Provider.Materialize(ctx, chunkID)
	if err != nil {
		return nil, err
	}

	be.mu.Lock()
	// another goroutine may have raced us here; keep the first chunk so
	// that everybody shares the same instance
	if prev, ok := be.c.Get(chunkID); ok {
		c = prev
	} else {
		be.c.Add(chunkID, c)
	}
	be.mu.Unlock()

	return c, nil
}

// Drop removes the chunk for chunkID from the cache, for callers that intend
// to deconstruct it.
func (be *Provider) Drop(chunkID id.ID) {
	be.mu.Lock()
	be.c.Remove(chunkID)
	be.mu.Unlock()
}
