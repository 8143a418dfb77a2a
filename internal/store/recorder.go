package store

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/ecldeck/pkg/eclipse"
)

// Recorder stamps parse outcomes with an ID and time and appends them to a
// Store. Safe for concurrent use; writes serialize on the Store connection.
type Recorder struct {
	store  *Store
	ids    IDGenerator
	clock  Clock
	logger *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDGenerator sets the run ID source. The default is UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) RecorderOption {
	return func(r *Recorder) {
		r.ids = ids
	}
}

// WithClock sets the timestamp source. The default is SystemClock.
func WithClock(clock Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithLogger sets the logger for recorded runs.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s *Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  s,
		ids:    UUIDv7Generator{},
		clock:  SystemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends the outcome of parsing deck. Exactly one of st and
// parseErr is non-nil.
func (r *Recorder) Record(ctx context.Context, deck string, st *eclipse.State, parseErr error) (Run, error) {
	run, err := NewRun(deck, st, parseErr, r.clock.Now())
	if err != nil {
		return Run{}, err
	}
	run.ID = r.ids.Generate()

	seq, err := r.store.WriteRun(ctx, run)
	if err != nil {
		return Run{}, err
	}
	run.Seq = seq

	r.logger.Debug("run recorded",
		"id", run.ID,
		"seq", run.Seq,
		"deck", deck,
		"status", run.Status,
	)
	return run, nil
}
