package eclipse

import (
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/ecldeck/pkg/ir"
)

// Deck is the ordered list of records parsed from one deck, including
// section and flag keywords and every occurrence of repeated keywords.
type Deck struct {
	records []ir.KeywordRecord
	byName  map[string][]int // record indices per keyword, in deck order
}

func newDeck(records []ir.KeywordRecord) *Deck {
	d := &Deck{
		records: records,
		byName:  make(map[string][]int),
	}
	for i, rec := range records {
		d.byName[rec.Name] = append(d.byName[rec.Name], i)
	}
	return d
}

// Size returns the number of records.
func (d *Deck) Size() int {
	return len(d.records)
}

// Record returns the i-th record of the deck.
func (d *Deck) Record(i int) (ir.KeywordRecord, error) {
	if i < 0 || i >= len(d.records) {
		return ir.KeywordRecord{}, fmt.Errorf("record %d: %w (deck has %d records)", i, ir.ErrIndexOutOfRange, len(d.records))
	}
	return d.records[i], nil
}

// Named returns the i-th occurrence of keyword name.
func (d *Deck) Named(name string, i int) (ir.KeywordRecord, error) {
	idx, ok := d.byName[name]
	if !ok {
		return ir.KeywordRecord{}, &KeywordNotFoundError{Keyword: name}
	}
	if i < 0 || i >= len(idx) {
		return ir.KeywordRecord{}, fmt.Errorf("%s occurrence %d: %w (deck has %d)", name, i, ir.ErrIndexOutOfRange, len(idx))
	}
	return d.records[idx[i]], nil
}

// Count returns how many times name occurs.
func (d *Deck) Count(name string) int {
	return len(d.byName[name])
}

// Has reports whether name occurs at least once.
func (d *Deck) Has(name string) bool {
	return len(d.byName[name]) > 0
}

// All iterates over the records in deck order.
func (d *Deck) All() iter.Seq2[int, ir.KeywordRecord] {
	return slices.All(d.records)
}
