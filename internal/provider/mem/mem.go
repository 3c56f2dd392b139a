// Package mem implements a chunk provider that keeps everything in memory.
// It is meant for tests.
package mem

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
	"github.com/chunkfs/chunkfs/internal/provider"
)

// make sure that Memory implements provider.Provider
var _ provider.Provider = &Memory{}

// Memory stores all persisted chunks in a map. Each entry carries an xxhash
// digest that is verified when the chunk is materialized again, as a guard
// against code handing out aliased buffers.
type Memory struct {
	m      sync.Mutex
	data   map[id.ID][]byte
	digest map[id.ID]uint64
}

// New returns a provider that saves all chunks in a map in memory.
func New() *Memory {
	debug.Log("created new memory provider")

	return &Memory{
		data:   make(map[id.ID][]byte),
		digest: make(map[id.ID]uint64),
	}
}

// Materialize returns the chunk stored under chunkID, or a zeroed chunk if it
// was never persisted.
func (be *Memory) Materialize(ctx context.Context, chunkID id.ID) (*chunk.Chunk, error) {
	be.m.Lock()
	defer be.m.Unlock()

	stored, ok := be.data[chunkID]
	if !ok {
		return chunk.New(chunkID), ctx.Err()
	}

	if d := xxhash.Sum64(stored); d != be.digest[chunkID] {
		return nil, errors.Errorf("chunk %v content digest mismatch", chunkID.Str())
	}

	// the store keeps its copy, the chunk adopts a fresh one
	buf := make([]byte, chunk.ChunkSize)
	copy(buf, stored)

	var blocks [chunk.BlocksPerChunk]chunk.Block
	for i := range blocks {
		blocks[i] = (chunk.Block)(buf[i*chunk.BlockSize : (i+1)*chunk.BlockSize])
	}

	return chunk.NewFromBlocks(chunkID, &blocks), ctx.Err()
}

// Persist copies the chunk's contents into the map.
func (be *Memory) Persist(ctx context.Context, c *chunk.Chunk) error {
	rd := c.Reader()
	defer func() { _ = rd.Close() }()

	var w bytes.Buffer
	w.Grow(chunk.ChunkSize)
	n, err := io.Copy(&w, rd)
	if err != nil {
		return err
	}

	// sanity check
	if n != chunk.ChunkSize {
		return errors.Errorf("read %d bytes instead of the expected %d bytes", n, chunk.ChunkSize)
	}

	buf := w.Bytes()

	be.m.Lock()
	defer be.m.Unlock()

	be.data[c.ID()] = buf
	be.digest[c.ID()] = xxhash.Sum64(buf)

	return ctx.Err()
}

// Flush does nothing.
func (be *Memory) Flush(_ context.Context) error {
	return nil
}

// List calls fn for every persisted chunk id.
func (be *Memory) List(ctx context.Context, fn func(id.ID) error) error {
	be.m.Lock()
	ids := make([]id.ID, 0, len(be.data))
	for chunkID := range be.data {
		ids = append(ids, chunkID)
	}
	be.m.Unlock()

	for _, chunkID := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(chunkID); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// Delete removes all data in the provider.
func (be *Memory) Delete() {
	be.m.Lock()
	defer be.m.Unlock()

	be.data = make(map[id.ID][]byte)
	be.digest = make(map[id.ID]uint64)
}

// Close closes the provider.
func (be *Memory) Close() error {
	return nil
}
