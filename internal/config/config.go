package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/parser"
	"github.com/roach88/ecldeck/pkg/registry"
)

//go:embed schema.cue
var schemaSource string

// Config is a decoded configuration file.
type Config struct {
	Parse    ParseConfig      `json:"parse"`
	Keywords []ir.KeywordSpec `json:"keywords"`
}

// ParseConfig holds the parse policies.
type ParseConfig struct {
	OnError     parser.ErrorPolicy      `json:"on_error"`
	Duplicates  eclipse.DuplicatePolicy `json:"duplicates"`
	Concurrency int                     `json:"concurrency"`
}

// Error reports an invalid configuration file.
type Error struct {
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Parse: ParseConfig{
			OnError:    parser.Abort,
			Duplicates: eclipse.LastWins,
		},
	}
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse decodes configuration source. filename is used in error positions.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}

	// Cross-field rules live in ir.KeywordSpec.Validate.
	for _, spec := range cfg.Keywords {
		if err := spec.Validate(); err != nil {
			return nil, &Error{Message: err.Error()}
		}
	}
	return &cfg, nil
}

// Registry returns base extended with the configured keywords. A nil base
// means registry.Default().
func (c *Config) Registry(base *registry.Registry) (*registry.Registry, error) {
	if base == nil {
		base = registry.Default()
	}
	if len(c.Keywords) == 0 {
		return base, nil
	}
	return base.Extend(c.Keywords...)
}

// Options translates the configuration into eclipse parse options.
func (c *Config) Options() ([]eclipse.Option, error) {
	reg, err := c.Registry(nil)
	if err != nil {
		return nil, err
	}
	return []eclipse.Option{
		eclipse.WithRegistry(reg),
		eclipse.WithErrorPolicy(c.Parse.OnError),
		eclipse.WithDuplicatePolicy(c.Parse.Duplicates),
		eclipse.WithConcurrency(c.Parse.Concurrency),
	}, nil
}

// formatCUEError returns the most specific CUE error with its position.
// A failed disjunction is reported against its parent path, so the error
// with the deepest path names the offending field.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	best := errs[0]
	for _, e := range errs[1:] {
		if len(e.Path()) > len(best.Path()) {
			best = e
		}
	}
	ce := &Error{Message: best.Error()}
	if positions := cueerrors.Positions(best); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
