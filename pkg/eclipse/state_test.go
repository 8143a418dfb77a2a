package eclipse

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecldeck/internal/testutil"
	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/parser"
	"github.com/roach88/ecldeck/pkg/registry"
)

func norne(t *testing.T) *State {
	t.Helper()
	s, err := ParseData(testutil.NorneDeck)
	require.NoError(t, err)
	return s
}

func TestParseDataNorneScenario(t *testing.T) {
	s, err := ParseData("TITLE NORNE FIELD MODEL\nNTG\n1.0 1.0 0.95 /\n")
	require.NoError(t, err)

	assert.Equal(t, "NORNE FIELD MODEL", s.Title())
	assert.True(t, s.Contains("NTG"))

	ntg, err := s.Get("NTG")
	require.NoError(t, err)
	fa, ok := ntg.(ir.FloatArray)
	require.True(t, ok, "NTG is a float array")
	assert.Equal(t, []float64{1.0, 1.0, 0.95}, fa.Values())
}

func TestTitlePresence(t *testing.T) {
	withTitle, err := ParseData("TITLE\nMy deck\nPORO\n0.1 /\n")
	require.NoError(t, err)
	assert.True(t, withTitle.Contains("TITLE"))
	assert.True(t, withTitle.HasTitle())
	assert.Equal(t, "My deck", withTitle.Title())

	without, err := ParseData("PORO\n0.1 /\n")
	require.NoError(t, err)
	assert.False(t, without.Contains("TITLE"))
	assert.False(t, without.HasTitle())
	assert.Equal(t, "", without.Title())
}

func TestGetMatchesRegisteredKind(t *testing.T) {
	s := norne(t)
	reg := registry.Default()

	for _, name := range s.Keywords() {
		v, err := s.Get(name)
		require.NoError(t, err)

		spec, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, spec.Kind, v.Kind(), name)
	}
}

func TestGetMissingKeyword(t *testing.T) {
	s := norne(t)

	assert.False(t, s.Contains("PERMZ"))

	v, err := s.Get("PERMZ")
	assert.Nil(t, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeywordNotFound))
	assert.True(t, IsKeywordNotFound(err))

	var nf *KeywordNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "PERMZ", nf.Keyword)

	_, err = s.Len("PERMZ")
	assert.True(t, IsKeywordNotFound(err))
}

func TestSectionKeywordsAreNotState(t *testing.T) {
	s := norne(t)

	for _, name := range []string{"RUNSPEC", "GRID", "OIL", "SCHEDULE"} {
		assert.False(t, s.Contains(name), name)
		assert.True(t, s.Deck().Has(name), name)
	}
}

func TestLen(t *testing.T) {
	s := norne(t)

	n, err := s.Len("TOPS")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = s.Len("DZV")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTypedAccessors(t *testing.T) {
	s := norne(t)

	actnum, err := s.Ints("ACTNUM")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 0, 1}, actnum.Values())

	poro, err := s.Floats("PORO")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.2, 0.18, 0.18}, poro.Values())

	start, err := s.Strings("START")
	require.NoError(t, err)
	assert.Equal(t, []string{"6", "NOV", "1997"}, start.Values())

	_, err = s.Floats("ACTNUM")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrongKind))
	assert.Contains(t, err.Error(), "ACTNUM holds int values, not float")

	_, err = s.Ints("NOSUCH")
	assert.True(t, IsKeywordNotFound(err))
}

func TestKeywordsInFirstAppearanceOrder(t *testing.T) {
	s := norne(t)

	assert.Equal(t, []string{
		"TITLE", "DIMENS", "START", "DXV", "DYV", "DZV", "TOPS",
		"PORO", "NTG", "PERMX", "ACTNUM", "SATNUM", "PRESSURE", "SWAT",
	}, s.Keywords())
	assert.Equal(t, 14, s.NumKeywords())
}

func TestKeywordsReturnsCopy(t *testing.T) {
	s := norne(t)

	kws := s.Keywords()
	kws[0] = "MUTATED"
	assert.Equal(t, "TITLE", s.Keywords()[0])
}

func TestString(t *testing.T) {
	assert.Equal(t, "EclipseState: NORNE FIELD MODEL", norne(t).String())

	s, err := ParseData("PORO\n0.1 /\n")
	require.NoError(t, err)
	assert.Equal(t, "EclipseState: ", s.String())
}

const duplicateNTG = `NTG
  1.0 1.0 /
PORO
  0.2 /
NTG
  0.5 0.5 0.5 /
`

func TestDuplicateKeywordLastWins(t *testing.T) {
	for _, opts := range [][]Option{nil, {WithDuplicatePolicy(LastWins)}} {
		s, err := ParseData(duplicateNTG, opts...)
		require.NoError(t, err)

		ntg, err := s.Floats("NTG")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, ntg.Values())

		// Both occurrences stay in the deck; the state holds one entry.
		assert.Equal(t, 2, s.Deck().Count("NTG"))
		assert.Equal(t, []string{"NTG", "PORO"}, s.Keywords())
	}
}

func TestDuplicateKeywordFirstWins(t *testing.T) {
	s, err := ParseData(duplicateNTG, WithDuplicatePolicy(FirstWins))
	require.NoError(t, err)

	ntg, err := s.Floats("NTG")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 1.0}, ntg.Values())
	assert.Equal(t, []string{"NTG", "PORO"}, s.Keywords())
}

func TestDuplicateKeywordReject(t *testing.T) {
	s, err := ParseData(duplicateNTG, WithDuplicatePolicy(Reject))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsStateBuild(err))

	var be *StateBuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "NTG", be.Keyword)
	assert.Equal(t, []int{0, 2}, be.Records)
}

func TestDuplicateTitleFollowsPolicy(t *testing.T) {
	src := "TITLE\nfirst\nTITLE\nsecond\n"

	last, err := ParseData(src)
	require.NoError(t, err)
	assert.Equal(t, "second", last.Title())

	first, err := ParseData(src, WithDuplicatePolicy(FirstWins))
	require.NoError(t, err)
	assert.Equal(t, "first", first.Title())
}

func TestBuildRejectsKindConflict(t *testing.T) {
	res := &parser.Result{
		Records: []ir.KeywordRecord{
			{Name: "X", Index: 0, Kind: ir.KindInt, Values: ir.NewIntArray(1)},
			{Name: "X", Index: 1, Kind: ir.KindFloat, Values: ir.NewFloatArray(1.5)},
		},
	}

	for policy := range ValidDuplicatePolicies {
		s, err := build("", res, policy)
		assert.Nil(t, s, string(policy))

		var be *StateBuildError
		require.ErrorAs(t, err, &be, string(policy))
		assert.Contains(t, be.Reason, "disagree on kind")
		assert.Equal(t, []int{0, 1}, be.Records)
	}
}

func TestInvalidOptions(t *testing.T) {
	_, err := ParseData("PORO\n0.1 /\n", WithDuplicatePolicy("sometimes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown duplicate policy")

	_, err = ParseData("PORO\n0.1 /\n", WithErrorPolicy("panic"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown error policy")
}

func TestParseErrorsSurface(t *testing.T) {
	s, err := ParseData("PORO\n0.1\n0.2 1.2.3 /\n")
	require.Error(t, err)
	assert.Nil(t, s)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, pe.Source)

	var ke *parser.KeywordError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "PORO", ke.Keyword)
	assert.Equal(t, 3, ke.Pos.Line)
	assert.Equal(t, parser.CodeMalformedNumber, ke.Code())
}

func TestBestEffortKeepsErrors(t *testing.T) {
	s, err := ParseData("PORO\n1.2.3 /\nNTG\n0.9 /\n", WithErrorPolicy(parser.BestEffort))
	require.NoError(t, err)

	assert.False(t, s.Contains("PORO"))
	assert.True(t, s.Contains("NTG"))
	require.Len(t, s.Errors(), 1)
	assert.Equal(t, "PORO", s.Errors()[0].Keyword)
}

func TestWarnings(t *testing.T) {
	s, err := ParseData("FOOBAR\n1 2 /\nNTG\n0.9 /\n")
	require.NoError(t, err)

	require.Len(t, s.Warnings(), 1)
	assert.Equal(t, parser.WarnUnknownKeyword, s.Warnings()[0].Code)
	assert.Equal(t, "FOOBAR", s.Warnings()[0].Keyword)
	assert.True(t, s.Contains("NTG"))
}

func TestWithRegistry(t *testing.T) {
	reg, err := registry.Default().Extend(ir.KeywordSpec{
		Name: "FOOBAR", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermSlash,
	})
	require.NoError(t, err)

	s, err := ParseData("FOOBAR\n1 2 /\n", WithRegistry(reg))
	require.NoError(t, err)

	foo, err := s.Ints("FOOBAR")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, foo.Values())
	assert.Empty(t, s.Warnings())
}

func TestDigest(t *testing.T) {
	a, err := ParseData("TITLE\nT\nPORO\n0.1 0.1 0.2 /\n")
	require.NoError(t, err)
	b, err := ParseData("-- same data, different layout\nTITLE T\nPORO\n  2*0.1\n  0.2\n/\n")
	require.NoError(t, err)
	c, err := ParseData("TITLE\nT\nPORO\n0.1 0.2 0.2 /\n")
	require.NoError(t, err)

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)
	dc, err := c.Digest()
	require.NoError(t, err)

	assert.Len(t, da, 64)
	assert.Equal(t, da, db)
	assert.NotEqual(t, da, dc)
}

func TestKeywordDigest(t *testing.T) {
	a, err := ParseData("NTG\n 2*1.0 0.95 /\nPORO\n0.2 /\n")
	require.NoError(t, err)
	b, err := ParseData("-- reformatted\nPORO\n 0.2 /\nNTG\n 1 1 0.95 /\n")
	require.NoError(t, err)

	da, err := a.KeywordDigest("NTG")
	require.NoError(t, err)
	db, err := b.KeywordDigest("NTG")
	require.NoError(t, err)
	assert.Equal(t, da, db)

	rec, err := a.Deck().Named("NTG", 0)
	require.NoError(t, err)
	want, err := ir.RecordDigest(rec)
	require.NoError(t, err)
	assert.Equal(t, want, da)

	poro, err := a.KeywordDigest("PORO")
	require.NoError(t, err)
	assert.NotEqual(t, da, poro)

	_, err = a.KeywordDigest("PERMX")
	assert.True(t, IsKeywordNotFound(err))
}

func TestConcurrentReads(t *testing.T) {
	s := norne(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range s.Keywords() {
				v, err := s.Get(name)
				assert.NoError(t, err)
				assert.True(t, v.Len() > 0)
				assert.True(t, s.Contains(name))
			}
		}()
	}
	wg.Wait()
}

func TestStateJSON(t *testing.T) {
	data, err := json.MarshalIndent(norne(t), "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "norne_state", data)
}
