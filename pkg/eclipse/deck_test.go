package eclipse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecldeck/pkg/ir"
)

func TestDeckOrderAndSize(t *testing.T) {
	d := norne(t).Deck()

	assert.Equal(t, 23, d.Size())

	first, err := d.Record(0)
	require.NoError(t, err)
	assert.Equal(t, "RUNSPEC", first.Name)
	assert.Equal(t, ir.KindNone, first.Kind)

	last, err := d.Record(d.Size() - 1)
	require.NoError(t, err)
	assert.Equal(t, "END", last.Name)

	for i, rec := range d.All() {
		assert.Equal(t, i, rec.Index)
	}
}

func TestDeckRecordOutOfRange(t *testing.T) {
	d := norne(t).Deck()

	for _, i := range []int{-1, d.Size()} {
		_, err := d.Record(i)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ir.ErrIndexOutOfRange))
	}
}

func TestDeckNamedOccurrences(t *testing.T) {
	s, err := ParseData(duplicateNTG)
	require.NoError(t, err)
	d := s.Deck()

	assert.Equal(t, 2, d.Count("NTG"))
	assert.Equal(t, 1, d.Count("PORO"))
	assert.Equal(t, 0, d.Count("PERMX"))
	assert.True(t, d.Has("NTG"))
	assert.False(t, d.Has("PERMX"))

	second, err := d.Named("NTG", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Index)
	assert.Equal(t, 3, second.Len())

	_, err = d.Named("NTG", 2)
	assert.True(t, errors.Is(err, ir.ErrIndexOutOfRange))

	_, err = d.Named("PERMX", 0)
	assert.True(t, IsKeywordNotFound(err))
}

func TestDeckKeepsPositions(t *testing.T) {
	d := norne(t).Deck()

	poro, err := d.Named("PORO", 0)
	require.NoError(t, err)
	assert.Equal(t, 25, poro.Pos.Line)
	assert.Equal(t, 1, poro.Pos.Column)
}
