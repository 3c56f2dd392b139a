package local_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/id"
	"github.com/chunkfs/chunkfs/internal/provider/local"
	rtest "github.com/chunkfs/chunkfs/internal/test"
)

func TestLocalRoundTrip(t *testing.T) {
	be, err := local.Open(filepath.Join(t.TempDir(), "store"))
	rtest.OK(t, err)
	defer func() { rtest.OK(t, be.Close()) }()

	chunkID := id.NewRandom()

	c := chunk.New(chunkID)
	w := c.Writer()
	payload := bytes.Repeat([]byte{0x42}, 2*chunk.BlockSize+999)
	_, err = w.Write(payload)
	rtest.OK(t, err)
	rtest.OK(t, w.Close())

	rtest.OK(t, be.Persist(context.TODO(), c))

	// the chunk lands in a sharded path derived from its hex name
	name := chunkID.String()
	fn := filepath.Join(be.Path, name[:2], name[:4], name[:6], name)
	fi, err := os.Stat(fn)
	rtest.OK(t, err)
	rtest.Equals(t, int64(chunk.ChunkSize), fi.Size())

	got, err := be.Materialize(context.TODO(), chunkID)
	rtest.OK(t, err)

	rd := got.Reader()
	buf := make([]byte, len(payload))
	_, err = io.ReadFull(rd, buf)
	rtest.OK(t, err)
	rtest.Equals(t, payload, buf)
}

func TestLocalMaterializeAbsent(t *testing.T) {
	be, err := local.Open(filepath.Join(t.TempDir(), "store"))
	rtest.OK(t, err)

	chunkID := id.NewRandom()

	c, err := be.Materialize(context.TODO(), chunkID)
	rtest.OK(t, err)
	rtest.Equals(t, chunkID, c.ID())

	// absence reserves a chunk-sized file
	found := false
	rtest.OK(t, be.List(context.TODO(), func(got id.ID) error {
		if got == chunkID {
			found = true
		}
		return nil
	}))
	rtest.Assert(t, found, "reserved chunk not listed")

	// the zeroed chunk reads back as zeroes once its writer is closed
	w := c.Writer()
	rtest.OK(t, w.Close())

	rd := c.Reader()
	buf := make([]byte, 100)
	_, err = io.ReadFull(rd, buf)
	rtest.OK(t, err)
	for _, b := range buf {
		rtest.Equals(t, byte(0), b)
	}
}

func TestLocalList(t *testing.T) {
	be, err := local.Open(filepath.Join(t.TempDir(), "store"))
	rtest.OK(t, err)

	ids := make(map[id.ID]struct{})
	for i := 0; i < 5; i++ {
		c := chunk.New(id.NewRandom())
		w := c.Writer()
		rtest.OK(t, w.Close())
		rtest.OK(t, be.Persist(context.TODO(), c))
		ids[c.ID()] = struct{}{}
	}

	seen := make(map[id.ID]struct{})
	rtest.OK(t, be.List(context.TODO(), func(chunkID id.ID) error {
		seen[chunkID] = struct{}{}
		return nil
	}))

	rtest.Equals(t, ids, seen)
}

func TestLocalOpenRejectsFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "file")
	rtest.OK(t, os.WriteFile(fn, []byte("x"), 0600))

	_, err := local.Open(fn)
	rtest.Error(t, err, "Open accepted a plain file as provider root")
}

func TestLocalInvalidSize(t *testing.T) {
	be, err := local.Open(filepath.Join(t.TempDir(), "store"))
	rtest.OK(t, err)

	c := chunk.New(id.NewRandom())
	w := c.Writer()
	rtest.OK(t, w.Close())
	rtest.OK(t, be.Persist(context.TODO(), c))

	name := c.ID().String()
	fn := filepath.Join(be.Path, name[:2], name[:4], name[:6], name)
	rtest.OK(t, os.Truncate(fn, 100))

	_, err = be.Materialize(context.TODO(), c.ID())
	rtest.Error(t, err, "truncated chunk file was materialized")
}
