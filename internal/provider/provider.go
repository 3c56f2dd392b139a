// Package provider defines how chunks reach and leave backing storage. The
// chunk core interacts with a provider through two verbs: materialize a chunk
// by identifier and persist a chunk's contents. Everything else (layout,
// transport, caching, retries) is the provider's business.
package provider

import (
	"context"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/id"
)

// Provider materializes chunks from and persists chunks to backing storage.
type Provider interface {
	// Materialize returns the chunk stored under chunkID. A chunk that
	// was never persisted is returned zeroed; absence is not an error.
	Materialize(ctx context.Context, chunkID id.ID) (*chunk.Chunk, error)

	// Persist opens a reader on c and copies its entire contents to
	// backing storage, creating the chunk if it does not exist.
	Persist(ctx context.Context, c *chunk.Chunk) error

	// Flush writes out any buffered state.
	Flush(ctx context.Context) error

	// List calls fn once for every chunk id in the store. When fn returns
	// an error, List stops and returns it.
	List(ctx context.Context, fn func(id.ID) error) error

	// Close releases resources held by the provider.
	Close() error
}

// MaterializeAll materializes one chunk per id, in order.
func MaterializeAll(ctx context.Context, p Provider, ids []id.ID) ([]*chunk.Chunk, error) {
	chunks := make([]*chunk.Chunk, 0, len(ids))
	for _, chunkID := range ids {
		c, err := p.Materialize(ctx, chunkID)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}

// PersistAll persists every given chunk.
func PersistAll(ctx context.Context, p Provider, chunks []*chunk.Chunk) error {
	for _, c := range chunks {
		if err := p.Persist(ctx, c); err != nil {
			return err
		}
	}

	return nil
}
