// Package id implements the 32 byte identifiers that address chunks.
package id

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/chunkfs/chunkfs/internal/errors"
	"github.com/chunkfs/chunkfs/internal/rng"
)

// Size is the size of a chunk ID in bytes.
const Size = 32

// ID references a chunk. It is an opaque 32 byte key; providers treat its hex
// encoding as the chunk's name.
type ID [Size]byte

// New creates an ID from the raw key b.
func New(b [Size]byte) ID {
	return ID(b)
}

// NewRandom returns a random ID drawn from the process-wide generator pool.
func NewRandom() ID {
	id := ID{}
	rng.Read(id[:])
	return id
}

// Parse converts the given string to an ID.
func Parse(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, errors.Wrap(err, "hex.DecodeString")
	}

	if len(b) != Size {
		return ID{}, errors.New("invalid length for ID")
	}

	id := ID{}
	copy(id[:], b)

	return id, nil
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Str returns the shortened string version of id.
func (id ID) Str() string {
	return id.String()[:10]
}

// Equal compares an ID to another other.
func (id ID) Equal(other ID) bool {
	return id == other
}

// IsNull returns true iff id only consists of null bytes.
func (id ID) IsNull() bool {
	var nullID ID

	return id == nullID
}

// DeriveN derives the ID of the n-th successor chunk. The derived ID is the
// keyed BLAKE2b-256 digest of the little-endian counter, keyed with id, so a
// file spanning multiple chunks is addressed by its head ID alone.
func (id ID) DeriveN(n uint64) ID {
	h, err := blake2b.New256(id[:])
	if err != nil {
		panic(err) // only fails for oversized keys
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)

	_, _ = h.Write(buf[:])

	derived := ID{}
	copy(derived[:], h.Sum(nil))

	return derived
}

// MarshalJSON returns the JSON encoding of id.
func (id ID) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 2+hex.EncodedLen(len(id)))

	buf[0] = '"'
	hex.Encode(buf[1:], id[:])
	buf[len(buf)-1] = '"'

	return buf, nil
}

// UnmarshalJSON parses the JSON-encoded data and stores the result in id.
func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	err := json.Unmarshal(b, &s)
	if err != nil {
		return errors.Wrap(err, "Unmarshal")
	}

	if len(s) != hex.EncodedLen(Size) {
		return fmt.Errorf("invalid length for ID: %q", s)
	}

	_, err = hex.Decode(id[:], []byte(s))
	if err != nil {
		return errors.Wrap(err, "hex.Decode")
	}

	return nil
}
