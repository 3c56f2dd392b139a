// Package rng maintains a small pool of seeded random number generators.
// math/rand generators are not safe for concurrent use and seeding from
// crypto/rand on every use is expensive, so generators are parked in a
// fixed-capacity queue and handed out on demand.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"

	"github.com/puzpuzpuz/xsync/v3"
)

const poolSize = 10

var pool = xsync.NewMPMCQueueOf[*mrand.Rand](poolSize)

// Get returns a generator from the pool, seeding a fresh one when the pool is
// empty. Return it with Put when done.
func Get() *mrand.Rand {
	if r, ok := pool.TryDequeue(); ok {
		return r
	}

	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic(err) // the platform random source is broken
	}

	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// Put returns a generator to the pool. Generators beyond the pool capacity
// are discarded.
func Put(r *mrand.Rand) {
	_ = pool.TryEnqueue(r)
}

// Read fills p with random bytes from a pooled generator.
func Read(p []byte) {
	r := Get()
	defer Put(r)

	// math/rand.Read never returns an error
	_, _ = r.Read(p)
}
