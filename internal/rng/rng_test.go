package rng_test

import (
	"bytes"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/chunkfs/chunkfs/internal/rng"
	rtest "github.com/chunkfs/chunkfs/internal/test"
)

func TestRead(t *testing.T) {
	a := make([]byte, 64)
	b := make([]byte, 64)

	rng.Read(a)
	rng.Read(b)

	rtest.Assert(t, !bytes.Equal(a, b), "two random reads returned identical bytes")
}

func TestGetPut(t *testing.T) {
	r := rng.Get()
	rtest.Assert(t, r != nil, "no generator returned")
	rng.Put(r)

	// the generator goes back into the pool and comes out again
	r2 := rng.Get()
	rtest.Assert(t, r2 != nil, "no generator returned after Put")
	rng.Put(r2)
}

func TestConcurrentRead(t *testing.T) {
	var wg errgroup.Group
	for i := 0; i < 32; i++ {
		wg.Go(func() error {
			buf := make([]byte, 128)
			for j := 0; j < 100; j++ {
				rng.Read(buf)
			}
			return nil
		})
	}
	rtest.OK(t, wg.Wait())
}
