package chunk

import (
	"io"

	"github.com/chunkfs/chunkfs/internal/errors"
)

// Reader is a consumer handle of a chunk. Each Reader has an independent
// cursor and holds no locks between calls, so seeking is always safe while
// the writer makes progress. Any number of Readers may coexist.
//
// A Reader is not safe for concurrent use by multiple goroutines.
type Reader struct {
	chunk  *Chunk
	off    int
	closed bool
}

// tryRead greedily copies bytes from blocks whose shared lock can be taken
// without waiting, continuing across boundaries until the buffer is full, the
// end of the chunk is reached, or the next block is still held by the writer.
func (r *Reader) tryRead(p []byte) int {
	n := 0
	for len(p) > 0 && r.off < ChunkSize {
		blockIdx := r.off / BlockSize
		offset := r.off % BlockSize

		lk := &r.chunk.locks[blockIdx]
		if !lk.tryRLock() {
			break
		}

		in := min(BlockSize-offset, len(p))
		copy(p[:in], r.chunk.data[blockIdx][offset:offset+in])
		lk.rUnlock()

		r.off += in
		p = p[in:]
		n += in
	}

	return n
}

// Read copies bytes into p starting at the cursor. If no data is available
// yet, it parks on the current block's lock; the writer releasing that block
// both publishes its bytes and unblocks the wait. Read returns at least one
// byte unless the cursor is at the end of the chunk, in which case it returns
// io.EOF.
func (r *Reader) Read(p []byte) (int, error) {
	if r.off == ChunkSize {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n := r.tryRead(p)
	for n == 0 && r.off < ChunkSize {
		// Wait for the writer to release the block under the cursor,
		// then immediately drop the guard and go through the
		// non-waiting path again. The loop is for the rare case of a
		// new writer grabbing the block between the two acquisitions.
		lk := &r.chunk.locks[r.off/BlockSize]
		lk.rLock()
		lk.rUnlock()

		n = r.tryRead(p)
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// PollRead is the cooperative variant of Read. If no data is available it
// registers wake with the chunk and reports not ready; wake will be invoked
// when the writer next releases a block or shuts down. A zero count with
// ready status means end of chunk.
func (r *Reader) PollRead(p []byte, wake Waker) (int, bool) {
	n := r.tryRead(p)
	if n > 0 || r.off == ChunkSize || len(p) == 0 {
		return n, true
	}

	r.chunk.subscribe(wake)

	// Re-check after subscribing: the writer may have released the block
	// between tryRead and subscribe, and its broadcast would not have seen
	// our registration. The stale registry entry is harmless, waking a
	// consumer that is not suspended is a no-op.
	if n = r.tryRead(p); n > 0 {
		return n, true
	}

	return 0, false
}

// Seek moves the cursor. A position at or past the end of the chunk is
// clamped to ChunkSize-1; a negative position is an error. Seek never blocks
// and is the same in both the blocking and the cooperative dialect.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(r.off) + offset
	case io.SeekEnd:
		abs = ChunkSize + offset
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}

	if abs < 0 {
		return 0, errors.Errorf("invalid seek to negative position %d", abs)
	}
	if abs >= ChunkSize {
		abs = ChunkSize - 1
	}

	r.off = int(abs)
	return abs, nil
}

// Offset returns the current read cursor.
func (r *Reader) Offset() int {
	return r.off
}

// Close releases the handle. It does not invalidate the chunk; it only
// allows the chunk to be deconstructed once all handles are closed. Close is
// idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	r.chunk.hs.releaseReader()
	return nil
}
