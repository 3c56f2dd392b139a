package id_test

import (
	"encoding/json"
	"testing"

	"github.com/chunkfs/chunkfs/internal/id"
	rtest "github.com/chunkfs/chunkfs/internal/test"
)

func TestParse(t *testing.T) {
	want := id.NewRandom()

	got, err := id.Parse(want.String())
	rtest.OK(t, err)
	rtest.Equals(t, want, got)
	rtest.Assert(t, want.Equal(got), "parsed ID differs")

	_, err = id.Parse("deadbeef")
	rtest.Error(t, err, "short hex string parsed")

	_, err = id.Parse("not hex at all")
	rtest.Error(t, err, "non-hex string parsed")
}

func TestNewRandom(t *testing.T) {
	a := id.NewRandom()
	b := id.NewRandom()

	rtest.Assert(t, !a.Equal(b), "two random IDs are equal")
	rtest.Assert(t, !a.IsNull(), "random ID is null")
}

func TestDeriveN(t *testing.T) {
	base := id.NewRandom()

	d1 := base.DeriveN(1)
	d2 := base.DeriveN(2)

	rtest.Assert(t, !d1.Equal(d2), "different counters derive the same ID")
	rtest.Assert(t, !d1.Equal(base), "derived ID equals its base")

	// derivation is deterministic
	rtest.Equals(t, d1, base.DeriveN(1))

	// distinct bases diverge for the same counter
	other := id.NewRandom()
	rtest.Assert(t, !other.DeriveN(1).Equal(d1), "distinct bases derive the same ID")
}

func TestIDJSON(t *testing.T) {
	want := id.NewRandom()

	buf, err := json.Marshal(want)
	rtest.OK(t, err)
	rtest.Equals(t, `"`+want.String()+`"`, string(buf))

	var got id.ID
	rtest.OK(t, json.Unmarshal(buf, &got))
	rtest.Equals(t, want, got)

	rtest.Error(t, json.Unmarshal([]byte(`"abcd"`), &got), "short hex unmarshalled")
}

func TestStr(t *testing.T) {
	i := id.NewRandom()
	rtest.Equals(t, 10, len(i.Str()))
}
