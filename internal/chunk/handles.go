package chunk

import (
	"sync"

	"github.com/chunkfs/chunkfs/internal/errors"
)

// handleState counts outstanding writer and reader handles so that
// deconstruction can be refused while any exist. Creating a handle on a chunk
// after it has been deconstructed is a programming error and panics; a second
// deconstruction returns an error.
type handleState struct {
	mu      sync.Mutex
	writers int
	readers int
	spent   bool
}

func (h *handleState) addWriter() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.spent {
		panic("chunk: Writer called after deconstruction")
	}
	h.writers++
}

func (h *handleState) releaseWriter() {
	h.mu.Lock()
	h.writers--
	h.mu.Unlock()
}

func (h *handleState) addReader() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.spent {
		panic("chunk: Reader called after deconstruction")
	}
	h.readers++
}

func (h *handleState) releaseReader() {
	h.mu.Lock()
	h.readers--
	h.mu.Unlock()
}

func (h *handleState) retire() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.spent {
		return errors.New("chunk already deconstructed")
	}
	if h.writers > 0 || h.readers > 0 {
		return errors.Errorf("%d writer(s) and %d reader(s) still attached", h.writers, h.readers)
	}

	h.spent = true
	return nil
}

// wakeupList is the registry of suspended cooperative consumers. It grows
// without bound; dropping registrations would lose wakeups.
type wakeupList struct {
	mu     sync.Mutex
	wakers []Waker
}

func (l *wakeupList) add(wake Waker) {
	l.mu.Lock()
	l.wakers = append(l.wakers, wake)
	l.mu.Unlock()
}

func (l *wakeupList) drain() []Waker {
	l.mu.Lock()
	wakers := l.wakers
	l.wakers = nil
	l.mu.Unlock()

	return wakers
}
