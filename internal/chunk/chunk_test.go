package chunk_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/id"
	rtest "github.com/chunkfs/chunkfs/internal/test"
)

func TestFullWriteFullRead(t *testing.T) {
	c := chunk.New(id.NewRandom())

	w := c.Writer()
	buf := make([]byte, chunk.ChunkSize)
	for i := range buf {
		buf[i] = byte(i / chunk.BlockSize)
	}

	n, err := w.Write(buf)
	rtest.OK(t, err)
	rtest.Equals(t, chunk.ChunkSize, n)
	rtest.OK(t, w.Close())

	rd := c.Reader()
	defer func() { rtest.OK(t, rd.Close()) }()

	out, err := io.ReadAll(rd)
	rtest.OK(t, err)
	rtest.Equals(t, chunk.ChunkSize, len(out))

	for i := range out {
		if out[i] != byte(i/chunk.BlockSize) {
			t.Fatalf("wrong byte at offset %d: got 0x%02x, want 0x%02x", i, out[i], byte(i/chunk.BlockSize))
		}
	}
}

func TestShortWriteZeroTail(t *testing.T) {
	c := chunk.New(id.NewRandom())

	w := c.Writer()
	n, err := w.Write(bytes.Repeat([]byte{0xaa}, 5000))
	rtest.OK(t, err)
	rtest.Equals(t, 5000, n)
	rtest.OK(t, w.Close())

	rd := c.Reader()
	out, err := io.ReadAll(rd)
	rtest.OK(t, err)
	rtest.Equals(t, chunk.ChunkSize, len(out))

	for i, b := range out {
		want := byte(0x00)
		if i < 5000 {
			want = 0xaa
		}
		if b != want {
			t.Fatalf("wrong byte at offset %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}
}

func TestWriteCapacity(t *testing.T) {
	c := chunk.New(id.NewRandom())

	w := c.Writer()
	defer func() { rtest.OK(t, w.Close()) }()

	// odd slab size so writes straddle block boundaries
	slab := make([]byte, 10000)
	total := 0
	for {
		n, err := w.Write(slab)
		rtest.OK(t, err)
		total += n
		if n < len(slab) {
			break
		}
	}

	rtest.Equals(t, chunk.ChunkSize, total)

	n, err := w.Write(slab)
	rtest.OK(t, err)
	rtest.Equals(t, 0, n)
}

func TestDeconstructRoundTrip(t *testing.T) {
	var blocks [chunk.BlocksPerChunk]chunk.Block
	for i := range blocks {
		var b [chunk.BlockSize]byte
		for j := range b {
			b[j] = byte(i)
		}
		blocks[i] = &b
	}

	c := chunk.NewFromBlocks(id.NewRandom(), &blocks)

	rd := c.Reader()
	head := make([]byte, 2*chunk.BlockSize)
	_, err := io.ReadFull(rd, head)
	rtest.OK(t, err)
	for i, b := range head {
		if b != byte(i/chunk.BlockSize) {
			t.Fatalf("wrong byte at offset %d: got 0x%02x", i, b)
		}
	}

	// deconstruction must be refused while the reader is attached
	_, err = c.Blocks()
	rtest.Error(t, err, "deconstruct with open reader succeeded")

	rtest.OK(t, rd.Close())

	got, err := c.Blocks()
	rtest.OK(t, err)
	for i := range got {
		if got[i] != blocks[i] {
			t.Fatalf("block %d was copied instead of moved", i)
		}
		for j, b := range got[i] {
			if b != byte(i) {
				t.Fatalf("block %d byte %d: got 0x%02x, want 0x%02x", i, j, b, byte(i))
			}
		}
	}

	// a second deconstruction must fail
	_, err = c.Blocks()
	rtest.Error(t, err, "double deconstruct succeeded")
}

func TestDeconstructRefusedWithWriter(t *testing.T) {
	c := chunk.New(id.NewRandom())

	w := c.Writer()
	_, err := c.Blocks()
	rtest.Error(t, err, "deconstruct with open writer succeeded")

	rtest.OK(t, w.Close())

	_, err = c.Blocks()
	rtest.OK(t, err)
}

func TestAdoptedBlocksReadable(t *testing.T) {
	var blocks [chunk.BlocksPerChunk]chunk.Block
	for i := range blocks {
		blocks[i] = new([chunk.BlockSize]byte)
	}
	blocks[7][42] = 0x5a

	c := chunk.NewFromBlocks(id.NewRandom(), &blocks)

	rd := c.Reader()
	_, err := rd.Seek(7*chunk.BlockSize+42, io.SeekStart)
	rtest.OK(t, err)

	b := make([]byte, 1)
	_, err = io.ReadFull(rd, b)
	rtest.OK(t, err)
	rtest.Equals(t, byte(0x5a), b[0])
}
