// Package chunk implements the 4 MiB storage unit that the file system is
// built on. A chunk is partitioned into 1024 blocks of 4 KiB, each guarded by
// its own lock, so that a single streaming producer can hand completed blocks
// to any number of concurrent consumers without whole-chunk serialization.
//
// Bytes enter a chunk through exactly one Writer, created via
// (*Chunk).Writer, which locks every block exclusively up front and releases
// each block the moment its last byte is written. Bytes leave through any
// number of Readers, each of which acquires blocks shared, per call. A reader
// that catches up with the producer either parks on the block's lock (Read)
// or registers a Waker and returns not-ready (PollRead), so chunks work for
// both thread-per-consumer and cooperatively scheduled consumers at the same
// time.
package chunk

import (
	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
)

const (
	// BlockSize is the size of a single block, the locking granularity
	// within a chunk.
	BlockSize = 4096

	// BlocksPerChunk is the number of blocks in a chunk.
	BlocksPerChunk = 1024

	// ChunkSize is the total capacity of a chunk in bytes.
	ChunkSize = BlockSize * BlocksPerChunk
)

// Block is a fixed-size 4 KiB buffer. Blocks are handed around by pointer so
// that a chunk can be deconstructed into its blocks without copying bytes.
type Block = *[BlockSize]byte

// A Waker resumes a cooperatively scheduled consumer. Invoking a Waker whose
// consumer is no longer suspended must be a harmless no-op; the chunk may
// call stale Wakers.
type Waker func()

// Chunk is the minimum storage unit, with a fixed size of 4 MiB.
type Chunk struct {
	id     id.ID
	data   [BlocksPerChunk]Block
	locks  [BlocksPerChunk]blockLock
	hs     handleState
	wakeup wakeupList
}

// New returns a chunk with the given id whose blocks are all zero. The block
// storage is one contiguous 4 MiB allocation carved into 1024 blocks.
func New(chunkID id.ID) *Chunk {
	c := &Chunk{id: chunkID}

	buf := make([]byte, ChunkSize)
	for i := range c.data {
		c.data[i] = (Block)(buf[i*BlockSize : (i+1)*BlockSize])
	}
	for i := range c.locks {
		c.locks[i].init()
	}

	return c
}

// NewFromBlocks returns a chunk with the given id that adopts the 1024 given
// blocks verbatim, without copying their contents. All entries must be
// non-nil; the caller must not touch the blocks afterwards.
func NewFromBlocks(chunkID id.ID, blocks *[BlocksPerChunk]Block) *Chunk {
	c := &Chunk{id: chunkID, data: *blocks}
	for i := range c.locks {
		c.locks[i].init()
	}

	return c
}

// ID returns the chunk's identifier.
func (c *Chunk) ID() id.ID {
	return c.id
}

// Writer returns the chunk's single producer handle. It blocks until every
// block can be locked exclusively, that is, until all readers have released
// and any previous writer has been closed.
func (c *Chunk) Writer() *Writer {
	c.hs.addWriter()

	w := &Writer{chunk: c}
	for i := range c.locks {
		c.locks[i].lock()
		w.guards[i] = true
	}

	debug.Log("chunk %v: writer attached", c.id)
	return w
}

// Reader returns a new consumer handle positioned at offset 0. Any number of
// readers may coexist; none acquires a lock before its first Read.
func (c *Chunk) Reader() *Reader {
	c.hs.addReader()

	return &Reader{chunk: c}
}

// Blocks deconstructs the chunk and returns its blocks without copying. It
// fails while any writer or reader handle is outstanding. Afterwards the
// chunk is spent and must not be used again.
func (c *Chunk) Blocks() (*[BlocksPerChunk]Block, error) {
	if err := c.hs.retire(); err != nil {
		return nil, errors.Wrapf(err, "deconstruct chunk %v", c.id.Str())
	}

	debug.Log("chunk %v: deconstructed", c.id)
	return &c.data, nil
}

// subscribe registers wake to be invoked the next time the writer releases a
// block or shuts down.
func (c *Chunk) subscribe(wake Waker) {
	c.wakeup.add(wake)
}

// broadcast drains the wakeup registry and resumes every registered
// consumer. The registry is not held locked while the Wakers run.
func (c *Chunk) broadcast() {
	for _, wake := range c.wakeup.drain() {
		wake()
	}
}
