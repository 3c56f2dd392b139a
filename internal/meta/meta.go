// Package meta contains the file system metadata records stored inside
// chunks. Regular files at or above the chunk size occupy contiguous
// exclusive chunks addressed by derived ids; smaller files share a chunk and
// are addressed by a block offset into it.
package meta

import (
	"encoding/json"
	"time"

	"github.com/chunkfs/chunkfs/internal/chunk"
	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/id"
)

// ChunkType describes what a chunk holds.
type ChunkType uint8

const (
	// TypeUnknown is used by providers that do not track chunk types.
	TypeUnknown ChunkType = iota
	// TypeRaw marks a chunk holding raw file data.
	TypeRaw
	// TypeDirMeta marks a chunk holding directory metadata.
	TypeDirMeta
	// TypeTinyFiles marks a shared chunk holding several tiny files.
	TypeTinyFiles
)

func (t ChunkType) String() string {
	switch t {
	case TypeRaw:
		return "raw"
	case TypeDirMeta:
		return "dirmeta"
	case TypeTinyFiles:
		return "tinyfiles"
	default:
		return "unknown"
	}
}

// Attrs contains the POSIX attributes kept for every node.
type Attrs struct {
	Size    uint64    `json:"size"`
	Blocks  uint64    `json:"blocks"`
	Mode    uint32    `json:"mode"`
	ModTime time.Time `json:"mtime"`
}

// File is the metadata of a file with a size of at least one chunk. Its data
// lives in contiguous exclusive chunks whose ids are derived from the file's
// id.
type File struct {
	ID    id.ID `json:"id"`
	Attrs Attrs `json:"attrs"`
}

// ChunkIDs returns the ids of the chunks holding the file's data, in order.
// The first chunk is addressed by the file's own id, each following chunk by
// the keyed derivation of its index.
func (f *File) ChunkIDs() []id.ID {
	n := (f.Attrs.Size + chunk.ChunkSize - 1) / chunk.ChunkSize
	if n == 0 {
		n = 1
	}

	ids := make([]id.ID, 0, n)
	ids = append(ids, f.ID)
	for i := uint64(1); i < n; i++ {
		ids = append(ids, f.ID.DeriveN(i))
	}

	return ids
}

// TinyFile is the metadata of a file smaller than a chunk. It lives in a
// shared chunk at a block-aligned offset.
type TinyFile struct {
	ID          id.ID  `json:"id"`
	ChunkID     id.ID  `json:"chunk_id"`
	ChunkOffset uint16 `json:"chunk_offset"` // block index within the chunk
	Attrs       Attrs  `json:"attrs"`
}

// Dir is the metadata of a directory.
type Dir struct {
	Dirs      []Dir      `json:"dirs,omitempty"`
	Files     []File     `json:"files,omitempty"`
	TinyFiles []TinyFile `json:"tiny_files,omitempty"`
	Attrs     Attrs      `json:"attrs"`
}

// Store writes the directory record into c. The record must fit into a
// single chunk.
func (d *Dir) Store(c *chunk.Chunk) error {
	buf, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "Marshal")
	}

	if len(buf) > chunk.ChunkSize {
		return errors.Errorf("directory record of %d bytes exceeds the chunk size", len(buf))
	}

	w := c.Writer()
	defer func() { _ = w.Close() }()

	if _, err := w.Write(buf); err != nil {
		return err
	}

	return nil
}

// LoadDir reads a directory record from c. The chunk's writer must have been
// closed; the zero padding after the record is ignored.
func LoadDir(c *chunk.Chunk) (*Dir, error) {
	rd := c.Reader()
	defer func() { _ = rd.Close() }()

	d := &Dir{}
	if err := json.NewDecoder(rd).Decode(d); err != nil {
		return nil, errors.Wrap(err, "Decode")
	}

	return d, nil
}
