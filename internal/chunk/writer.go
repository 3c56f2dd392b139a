package chunk

import (
	"github.com/chunkfs/chunkfs/internal/debug"
)

// Writer is the single producer handle of a chunk. It is created holding the
// exclusive lock of every block and releases each block the moment its last
// byte has been written, which is what unparks readers waiting on that block.
//
// A Writer is not safe for concurrent use; the chunk itself enforces that at
// most one Writer is live at a time.
type Writer struct {
	chunk  *Chunk
	guards [BlocksPerChunk]bool
	off    int
	closed bool
}

// Write copies bytes from p into the chunk at the current cursor, crossing
// block boundaries as needed, and returns the number of bytes consumed. At
// every boundary crossing the completed block's lock is released and all
// registered Wakers are resumed.
//
// When the chunk fills up mid-call, Write stops and returns n < len(p) with a
// nil error; once the cursor is at the end of the chunk it returns 0. This is
// a deliberate deviation from the io.Writer contract: running out of chunk is
// an expected condition for the caller, not an error.
func (w *Writer) Write(p []byte) (int, error) {
	n := 0
	for len(p) > 0 && w.off < ChunkSize {
		blockIdx := w.off / BlockSize
		offset := w.off % BlockSize

		in := min(BlockSize-offset, len(p))
		copy(w.chunk.data[blockIdx][offset:offset+in], p[:in])

		w.off += in
		p = p[in:]
		n += in

		// The block is full once the cursor has left it. Publish it
		// right away: release the exclusive lock for parked readers,
		// then resume the cooperative ones.
		if w.off/BlockSize != blockIdx {
			w.releaseGuard(blockIdx)
			w.chunk.broadcast()
		}
	}

	return n, nil
}

// Flush implements the stream contract and does nothing; chunk contents live
// in memory and durability belongs to the provider.
func (w *Writer) Flush() error {
	return nil
}

// Close forces end-of-chunk: all remaining block locks are released, the
// cursor moves to ChunkSize and every registered Waker is resumed. Readers
// reaching the cursor observe a clean EOF; further writes return 0. Close is
// idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	for i := range w.guards {
		if w.guards[i] {
			w.releaseGuard(i)
		}
	}
	w.off = ChunkSize

	w.chunk.broadcast()
	w.chunk.hs.releaseWriter()

	debug.Log("chunk %v: writer closed", w.chunk.id)
	return nil
}

// Offset returns the current write cursor.
func (w *Writer) Offset() int {
	return w.off
}

// PollWrite is the cooperative variant of Write. The writer already holds
// every lock it needs, so it always completes immediately.
func (w *Writer) PollWrite(p []byte) (int, bool) {
	n, _ := w.Write(p)
	return n, true
}

// PollFlush is the cooperative variant of Flush and always completes
// immediately.
func (w *Writer) PollFlush() bool {
	return true
}

// PollClose is the cooperative variant of Close and always completes
// immediately.
func (w *Writer) PollClose() bool {
	_ = w.Close()
	return true
}

func (w *Writer) releaseGuard(blockIdx int) {
	w.chunk.locks[blockIdx].unlock()
	w.guards[blockIdx] = false
}
