package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ecldeck/pkg/ir"
)

//go:embed keywords.yaml
var builtinTable []byte

// Registry maps keyword names to their specs. It is immutable once built, so
// lookups need no locking and one Registry may be shared by any number of
// concurrent parses.
type Registry struct {
	specs map[string]ir.KeywordSpec
	names []string // sorted
}

// table is the on-disk shape of a keyword table.
type table struct {
	Keywords []ir.KeywordSpec `yaml:"keywords"`
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in registry. It is decoded from the embedded
// table on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(builtinTable))
		if err != nil {
			panic(fmt.Sprintf("registry: invalid built-in keyword table: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

// New builds a registry from specs. Every spec must validate and names must
// be unique.
func New(specs ...ir.KeywordSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]ir.KeywordSpec, len(specs))}
	if err := r.add(specs); err != nil {
		return nil, err
	}
	return r, nil
}

// Load builds a registry from a YAML keyword table:
//
//	keywords:
//	  - {name: PORO, kind: float, arity: array, terminator: slash}
//
// Unknown fields are rejected.
func Load(rd io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)

	var t table
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return New()
		}
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	return New(t.Keywords...)
}

// Extend returns a new registry holding r's specs plus specs. A spec whose
// name is already registered replaces the existing one. r is unchanged.
func (r *Registry) Extend(specs ...ir.KeywordSpec) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate keyword %s", s.Name)
		}
		seen[s.Name] = true
	}

	merged := make([]ir.KeywordSpec, 0, len(r.specs)+len(specs))
	for _, name := range r.names {
		if !seen[name] {
			merged = append(merged, r.specs[name])
		}
	}
	merged = append(merged, specs...)
	return New(merged...)
}

func (r *Registry) add(specs []ir.KeywordSpec) error {
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := r.specs[s.Name]; dup {
			return fmt.Errorf("duplicate keyword %s", s.Name)
		}
		r.specs[s.Name] = s
		r.names = append(r.names, s.Name)
	}
	slices.Sort(r.names)
	return nil
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (ir.KeywordSpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Names returns the registered keyword names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Specs returns the registered specs sorted by name.
func (r *Registry) Specs() []ir.KeywordSpec {
	out := make([]ir.KeywordSpec, len(r.names))
	for i, name := range r.names {
		out[i] = r.specs[name]
	}
	return out
}

// Len returns the number of registered keywords.
func (r *Registry) Len() int {
	return len(r.specs)
}
