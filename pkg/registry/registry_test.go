package registry

import (
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecldeck/pkg/ir"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	require.NotNil(t, reg)
	assert.Same(t, reg, Default(), "default registry is built once")

	tests := []struct {
		name string
		want ir.KeywordSpec
	}{
		{"NTG", ir.KeywordSpec{Name: "NTG", Kind: ir.KindFloat, Arity: ir.ArityArray, Terminator: ir.TermSlash}},
		{"ACTNUM", ir.KeywordSpec{Name: "ACTNUM", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermSlash}},
		{"DIMENS", ir.KeywordSpec{Name: "DIMENS", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermCount, Count: 3}},
		{"TITLE", ir.KeywordSpec{Name: "TITLE", Kind: ir.KindString, Arity: ir.ArityScalar, Terminator: ir.TermLine}},
		{"GRID", ir.KeywordSpec{Name: "GRID", Kind: ir.KindNone, Arity: ir.ArityNone, Terminator: ir.TermNone}},
		{"MULTX-", ir.KeywordSpec{Name: "MULTX-", Kind: ir.KindFloat, Arity: ir.ArityArray, Terminator: ir.TermSlash}},
		{"NSTACK", ir.KeywordSpec{Name: "NSTACK", Kind: ir.KindInt, Arity: ir.ArityScalar, Terminator: ir.TermSlash}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.Lookup(tt.name)
			require.True(t, ok)
			got.Description = ""
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultRegistryIsValid(t *testing.T) {
	reg := Default()

	for _, spec := range reg.Specs() {
		assert.NoError(t, spec.Validate(), spec.Name)
		assert.NotEmpty(t, spec.Description, spec.Name)
	}
	assert.Equal(t, len(reg.Names()), reg.Len())
	assert.True(t, slices.IsSorted(reg.Names()))
}

func TestDefaultRegistryConcurrentInit(t *testing.T) {
	var wg sync.WaitGroup
	regs := make([]*Registry, 16)
	for i := range regs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			regs[i] = Default()
		}(i)
	}
	wg.Wait()

	for _, r := range regs {
		assert.Same(t, regs[0], r)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Default().Lookup("NOSUCH")
	assert.False(t, ok)
	assert.False(t, Default().Has("NOSUCH"))
	assert.True(t, Default().Has("PORO"))
}

func TestNewRejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name    string
		spec    ir.KeywordSpec
		wantErr string
	}{
		{
			name:    "missing name",
			spec:    ir.KeywordSpec{Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermSlash},
			wantErr: "name is required",
		},
		{
			name:    "unknown kind",
			spec:    ir.KeywordSpec{Name: "X", Kind: "complex", Arity: ir.ArityArray, Terminator: ir.TermSlash},
			wantErr: "invalid kind",
		},
		{
			name:    "count terminator without count",
			spec:    ir.KeywordSpec{Name: "X", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermCount},
			wantErr: "count > 0",
		},
		{
			name:    "scalar with line terminator",
			spec:    ir.KeywordSpec{Name: "X", Kind: ir.KindInt, Arity: ir.ArityScalar, Terminator: ir.TermLine},
			wantErr: "scalar string",
		},
		{
			name:    "none mixed with data",
			spec:    ir.KeywordSpec{Name: "X", Kind: ir.KindNone, Arity: ir.ArityArray, Terminator: ir.TermSlash},
			wantErr: "none together",
		},
		{
			name:    "count on slash terminator",
			spec:    ir.KeywordSpec{Name: "X", Kind: ir.KindFloat, Arity: ir.ArityArray, Terminator: ir.TermSlash, Count: 2},
			wantErr: "only valid with the count terminator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	spec := ir.KeywordSpec{Name: "PORO", Kind: ir.KindFloat, Arity: ir.ArityArray, Terminator: ir.TermSlash}

	_, err := New(spec, spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate keyword PORO")
}

func TestLoad(t *testing.T) {
	src := `
keywords:
  - {name: FOO, kind: int, arity: array, terminator: count, count: 2}
  - {name: BAR, kind: none, arity: none, terminator: none}
`
	reg, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"BAR", "FOO"}, reg.Names())
	foo, ok := reg.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, 2, foo.Count)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	src := `
keywords:
  - {name: FOO, kind: int, arity: array, terminator: slash, width: 3}
`
	_, err := Load(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode keyword table")
}

func TestLoadEmpty(t *testing.T) {
	reg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestExtend(t *testing.T) {
	base := Default()
	extra := []ir.KeywordSpec{
		{Name: "MYKW", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermSlash},
		{Name: "PORO", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermSlash},
	}

	ext, err := base.Extend(extra...)
	require.NoError(t, err)

	assert.Equal(t, base.Len()+1, ext.Len())
	assert.True(t, ext.Has("MYKW"))

	poro, _ := ext.Lookup("PORO")
	assert.Equal(t, ir.KindInt, poro.Kind, "extension replaces existing spec")

	// The base registry is unchanged.
	assert.False(t, base.Has("MYKW"))
	poro, _ = base.Lookup("PORO")
	assert.Equal(t, ir.KindFloat, poro.Kind)
}

func TestExtendRejectsDuplicateExtensions(t *testing.T) {
	spec := ir.KeywordSpec{Name: "MYKW", Kind: ir.KindInt, Arity: ir.ArityArray, Terminator: ir.TermSlash}

	_, err := Default().Extend(spec, spec)
	require.Error(t, err)
}

func TestNamesReturnsCopy(t *testing.T) {
	reg := Default()
	names := reg.Names()
	names[0] = "MUTATED"
	assert.NotEqual(t, "MUTATED", reg.Names()[0])
}
