package store

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecldeck/internal/testutil"
	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/parser"
)

func newTestRecorder(t *testing.T) (*Recorder, *Store) {
	t.Helper()
	s := createTestStore(t)
	return NewRecorder(s,
		WithIDGenerator(testutil.NewSequentialIDGenerator("run")),
		WithClock(testutil.NewDeterministicClock()),
	), s
}

func TestRecorder_SuccessfulParse(t *testing.T) {
	r, s := newTestRecorder(t)
	ctx := context.Background()

	st, err := eclipse.ParseData(testutil.NorneDeck)
	require.NoError(t, err)

	run, err := r.Record(ctx, "NORNE.DATA", st, nil)
	require.NoError(t, err)

	assert.Equal(t, "run-0001", run.ID)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, StatusOK, run.Status)
	assert.Equal(t, "NORNE FIELD MODEL", run.Title)
	assert.Equal(t, 14, run.Keywords)
	assert.Equal(t, 23, run.Records)
	assert.Equal(t, testutil.Epoch, run.ParsedAt)
	assert.Empty(t, run.ErrorCode)

	digest, err := st.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest, run.Digest)

	stored, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, stored)
}

func TestRecorder_FailedParse(t *testing.T) {
	r, s := newTestRecorder(t)
	ctx := context.Background()

	_, parseErr := eclipse.ParseData("PORO\n0.1 1.2.3 /\n")
	require.Error(t, parseErr)

	run, err := r.Record(ctx, "bad.DATA", nil, parseErr)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, string(parser.CodeMalformedNumber), run.ErrorCode)
	assert.Contains(t, run.ErrorMessage, "1.2.3")
	require.Len(t, run.Diagnostics, 1)
	assert.Equal(t, SeverityError, run.Diagnostics[0].Severity)
	assert.Equal(t, "PORO", run.Diagnostics[0].Keyword)
	assert.Equal(t, 2, run.Diagnostics[0].Line)

	stored, err := s.ReadRuns(ctx, "bad.DATA")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, run, stored[0])
}

func TestRecorder_ErrorCodes(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	_, buildErr := eclipse.ParseData("NTG\n1 /\nNTG\n2 /\n", eclipse.WithDuplicatePolicy(eclipse.Reject))
	require.Error(t, buildErr)
	run, err := r.Record(ctx, "dup.DATA", nil, buildErr)
	require.NoError(t, err)
	assert.Equal(t, CodeStateBuild, run.ErrorCode)
	assert.Empty(t, run.Diagnostics)

	_, readErr := eclipse.ParseDeck(filepath.Join(t.TempDir(), "missing.DATA"))
	require.ErrorIs(t, readErr, os.ErrNotExist)
	run, err = r.Record(ctx, "missing.DATA", nil, readErr)
	require.NoError(t, err)
	assert.Equal(t, CodeRead, run.ErrorCode)
}

func TestRecorder_BestEffortDiagnostics(t *testing.T) {
	r, _ := newTestRecorder(t)

	st, err := eclipse.ParseData("FOOBAR\n1 /\nPORO\n1.2.3 /\nNTG\n0.9 /\n",
		eclipse.WithErrorPolicy(parser.BestEffort))
	require.NoError(t, err)

	run, err := r.Record(context.Background(), "messy.DATA", st, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, run.Status)
	require.Len(t, run.Diagnostics, 2)
	assert.Equal(t, SeverityWarning, run.Diagnostics[0].Severity)
	assert.Equal(t, string(parser.WarnUnknownKeyword), run.Diagnostics[0].Code)
	assert.Equal(t, SeverityError, run.Diagnostics[1].Severity)
	assert.Equal(t, string(parser.CodeMalformedNumber), run.Diagnostics[1].Code)
}

func TestRecorder_DefaultIDsAreUUIDv7(t *testing.T) {
	s := createTestStore(t)
	r := NewRecorder(s)

	st, err := eclipse.ParseData("PORO\n0.1 /\n")
	require.NoError(t, err)

	run, err := r.Record(context.Background(), "a.DATA", st, nil)
	require.NoError(t, err)

	parsed, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRecorder_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := createTestStore(t)
	r := NewRecorder(s, WithLogger(logger), WithIDGenerator(testutil.NewSequentialIDGenerator("audit")))

	st, err := eclipse.ParseData("PORO\n0.1 /\n")
	require.NoError(t, err)
	_, err = r.Record(context.Background(), "a.DATA", st, nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "run recorded")
	assert.Contains(t, buf.String(), "id=audit-0001")
}
