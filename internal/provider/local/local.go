// Package local implements a chunk provider backed by a local directory.
// Chunks are stored as plain 4 MiB files named by the hex encoding of their
// id, sharded over three levels of prefix directories to keep directory
// sizes reasonable.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cenkalti/backoff/v4"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/debug"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
	"github.com/chunkfs/chunkfs/internal/provider"
)

// Local is a provider in a local directory.
type Local struct {
	Path string

	dirMode  os.FileMode
	fileMode os.FileMode
}

// ensure statically that *Local implements provider.Provider.
var _ provider.Provider = &Local{}

// Open opens the provider rooted at path, creating the directory if it does
// not exist yet.
func Open(path string) (*Local, error) {
	debug.Log("open local provider at %v", path)

	fi, err := os.Stat(path)
	switch {
	case err == nil && !fi.IsDir():
		return nil, errors.Errorf("provider path %v exists but is not a directory", path)
	case err != nil && os.IsNotExist(err):
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, errors.WithStack(err)
		}
	case err != nil:
		return nil, errors.WithStack(err)
	}

	return &Local{
		Path:     path,
		dirMode:  0700,
		fileMode: 0600,
	}, nil
}

// chunkPath returns the sharded file name for chunkID:
// base/ab/abcd/abcdef/abcdef...
func (b *Local) chunkPath(chunkID id.ID) string {
	name := chunkID.String()
	return filepath.Join(b.Path, name[:2], name[:4], name[:6], name)
}

// Materialize loads the chunk stored under chunkID. A chunk that has never
// been persisted is created zeroed, and a sparse file is reserved for it so
// that it shows up in List.
func (b *Local) Materialize(ctx context.Context, chunkID id.ID) (*chunk.Chunk, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fn := b.chunkPath(chunkID)

	buf, err := os.ReadFile(fn)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.WithStack(err)
	}

	if os.IsNotExist(err) {
		debug.Log("chunk %v absent, reserving", chunkID)

		if err := b.reserve(fn); err != nil {
			return nil, err
		}
		return chunk.New(chunkID), nil
	}

	if len(buf) != chunk.ChunkSize {
		return nil, errors.Errorf("chunk file %v has invalid size %d", fn, len(buf))
	}

	// carve the file contents into blocks in place, no copy
	var blocks [chunk.BlocksPerChunk]chunk.Block
	for i := range blocks {
		blocks[i] = (chunk.Block)(buf[i*chunk.BlockSize : (i+1)*chunk.BlockSize])
	}

	return chunk.NewFromBlocks(chunkID, &blocks), nil
}

// reserve creates an empty chunk-sized sparse file at fn.
func (b *Local) reserve(fn string) error {
	if err := os.MkdirAll(filepath.Dir(fn), b.dirMode); err != nil {
		return errors.WithStack(err)
	}

	f, err := os.OpenFile(fn, os.O_CREATE|os.O_WRONLY|os.O_EXCL, b.fileMode)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := f.Truncate(chunk.ChunkSize); err != nil {
		_ = f.Close()
		return errors.WithStack(err)
	}

	return errors.WithStack(f.Close())
}

// Persist streams the chunk's contents into a temporary file which is then
// synced and renamed over the final name.
func (b *Local) Persist(ctx context.Context, c *chunk.Chunk) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	defer func() {
		// mark non-retriable errors as such
		if errors.Is(err, syscall.ENOSPC) || os.IsPermission(err) {
			err = backoff.Permanent(err)
		}
	}()

	finalname := b.chunkPath(c.ID())
	dir := filepath.Dir(finalname)

	if err := os.MkdirAll(dir, b.dirMode); err != nil {
		return errors.WithStack(err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(finalname)+"-tmp-")
	if err != nil {
		return errors.WithStack(err)
	}

	defer func(f *os.File) {
		if err != nil {
			_ = f.Close() // double Close is harmless
			_ = os.Remove(f.Name())
		}
	}(f)

	rd := c.Reader()
	defer func() { _ = rd.Close() }()

	wbytes, err := io.Copy(f, rd)
	if err != nil {
		return errors.WithStack(err)
	}
	// sanity check
	if wbytes != chunk.ChunkSize {
		return errors.Errorf("wrote %d bytes instead of the expected %d bytes", wbytes, chunk.ChunkSize)
	}

	// ignore the error if the filesystem does not support fsync
	err = f.Sync()
	syncNotSup := err != nil && errors.Is(err, syscall.ENOTSUP)
	if err != nil && !syncNotSup {
		return errors.WithStack(err)
	}

	if err = f.Close(); err != nil {
		return errors.WithStack(err)
	}
	if err = os.Rename(f.Name(), finalname); err != nil {
		return errors.WithStack(err)
	}

	// sync the directory to commit the rename
	if !syncNotSup {
		if err = fsyncDir(dir); err != nil {
			return errors.WithStack(err)
		}
	}

	debug.Log("persisted chunk %v", c.ID())
	return nil
}

// Flush does nothing, Persist leaves no buffered state behind.
func (b *Local) Flush(_ context.Context) error {
	return nil
}

// List calls fn for every chunk file below the provider root.
func (b *Local) List(ctx context.Context, fn func(id.ID) error) error {
	return filepath.WalkDir(b.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		chunkID, err := id.Parse(d.Name())
		if err != nil {
			debug.Log("ignoring foreign file %v", path)
			return nil
		}

		return fn(chunkID)
	})
}

// Close closes the provider.
func (b *Local) Close() error {
	return nil
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}

	err = d.Sync()
	if err != nil && errors.Is(err, syscall.ENOTSUP) {
		err = nil
	}

	cerr := d.Close()
	if err == nil {
		err = cerr
	}

	return err
}
