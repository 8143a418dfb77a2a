package eclipse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ecldeck/pkg/parser"
	"github.com/roach88/ecldeck/pkg/registry"
)

// Option configures ParseDeck, ParseData and ParseFiles.
type Option func(*options)

type options struct {
	registry    *registry.Registry
	errorPolicy parser.ErrorPolicy
	duplicates  DuplicatePolicy
	logger      *slog.Logger
	concurrency int
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		registry:    registry.Default(),
		errorPolicy: parser.Abort,
		duplicates:  LastWins,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	if !parser.ValidErrorPolicies[o.errorPolicy] {
		return nil, fmt.Errorf("unknown error policy %q", o.errorPolicy)
	}
	if !ValidDuplicatePolicies[o.duplicates] {
		return nil, fmt.Errorf("unknown duplicate policy %q", o.duplicates)
	}
	return o, nil
}

// WithRegistry parses with reg instead of registry.Default().
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithErrorPolicy sets the parser error policy. The default is parser.Abort.
func WithErrorPolicy(policy parser.ErrorPolicy) Option {
	return func(o *options) {
		o.errorPolicy = policy
	}
}

// WithDuplicatePolicy sets how repeated keywords are resolved. The default
// is LastWins.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(o *options) {
		o.duplicates = policy
	}
}

// WithLogger sets the logger used while parsing. Nothing is logged by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency bounds how many decks ParseFiles parses at once. The
// default is GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// ParseDeck reads and parses the deck at path.
func ParseDeck(path string, opts ...Option) (*State, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parseFile(path, o)
}

// ParseData parses deck text held in memory.
func ParseData(src string, opts ...Option) (*State, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parseSource("", src, o)
}

// ParseFiles parses several decks concurrently and returns their States in
// the order of paths. The first failure cancels decks not yet started and
// is returned; ctx cancellation is honored the same way.
func ParseFiles(ctx context.Context, paths []string, opts ...Option) ([]*State, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	states := make([]*State, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.concurrency)
	for i, path := range paths {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			s, err := parseFile(path, o)
			if err != nil {
				return err
			}
			states[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func parseFile(path string, o *options) (*State, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return parseSource(path, string(src), o)
}

func parseSource(source, src string, o *options) (*State, error) {
	logger := o.logger
	if source != "" {
		logger = logger.With("deck", source)
	}

	p := parser.New(o.registry,
		parser.WithErrorPolicy(o.errorPolicy),
		parser.WithLogger(logger),
	)
	res, err := p.Parse(src)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	s, err := build(source, res, o.duplicates)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	logger.Debug("deck parsed",
		"records", s.deck.Size(),
		"keywords", s.NumKeywords(),
		"warnings", len(res.Warnings),
		"errors", len(res.Errors),
	)
	return s, nil
}
