package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecldeck/internal/store"
	"github.com/roach88/ecldeck/internal/testutil"
)

const badDeck = "TITLE\nBAD\nPORO\n  0.2 1.2.3 /\nNTG\n  0.9 /\n"

func TestValidateValidDeck(t *testing.T) {
	deck := writeNorne(t, t.TempDir())

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), deck)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+deck+" (14 keywords, 23 records)")
	assert.Contains(t, out, "Validation Summary: 1 valid, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All decks valid")
}

func TestValidateReportsEveryDeck(t *testing.T) {
	dir := t.TempDir()
	good := writeNorne(t, dir)
	bad := testutil.WriteDeck(t, dir, "BAD.DATA", badDeck)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), bad, good)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeParse)

	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "malformed number")
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "Validation Summary: 1 valid, 1 failed, 2 total")
	assert.NotContains(t, out, "All decks valid")
}

func TestValidateWarnings(t *testing.T) {
	deck := testutil.WriteDeck(t, t.TempDir(), "WARN.DATA", "FOOBAR\n 1 2 /\nNTG\n 0.9 /\n")

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), deck)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: UNKNOWN_KEYWORD")
}

func TestValidateBestEffort(t *testing.T) {
	deck := testutil.WriteDeck(t, t.TempDir(), "BAD.DATA", badDeck)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), deck, "--best-effort")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+deck)
	assert.Contains(t, out, "dropped: keyword PORO")
}

func TestValidateBestEffortFromConfig(t *testing.T) {
	dir := t.TempDir()
	deck := testutil.WriteDeck(t, dir, "BAD.DATA", badDeck)
	cfg := writeConfig(t, dir, "parse: {\n\ton_error: \"best_effort\"\n\tconcurrency: 2\n}\n")

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text", Config: cfg}), deck)
	require.NoError(t, err)
	assert.Contains(t, out, "dropped: keyword PORO")
}

func TestValidateMissingDeck(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/NORNE.DATA")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ /nonexistent/NORNE.DATA")
	assert.Contains(t, out, "read deck")
}

func TestValidateNoArgs(t *testing.T) {
	_, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	good := writeNorne(t, dir)
	bad := testutil.WriteDeck(t, dir, "BAD.DATA", badDeck)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)

	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Decks, 2)

	first := resp.Data.Decks[0]
	assert.Equal(t, good, first.Deck)
	assert.True(t, first.Valid)
	assert.Equal(t, "NORNE FIELD MODEL", first.Title)
	assert.Len(t, first.Digest, 64)

	second := resp.Data.Decks[1]
	assert.Equal(t, bad, second.Deck)
	assert.False(t, second.Valid)
	assert.Contains(t, second.Error, "malformed number")
	assert.NotNil(t, second.Details)
}

func TestValidateRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	good := writeNorne(t, dir)
	bad := testutil.WriteDeck(t, dir, "BAD.DATA", badDeck)
	dbPath := filepath.Join(dir, "audit.db")

	opts := &ValidateOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: testutil.NewSequentialIDGenerator("audit"),
		Clock:       testutil.NewDeterministicClock(),
	}
	out, _, err := execute(newValidateCommand(opts), good, bad, "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, out, "run audit-0001")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ReadRuns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "audit-0001", runs[0].ID)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, good, runs[0].Deck)
	assert.Equal(t, store.StatusOK, runs[0].Status)
	assert.Equal(t, testutil.Epoch, runs[0].ParsedAt)

	assert.Equal(t, "audit-0002", runs[1].ID)
	assert.Equal(t, store.StatusFailed, runs[1].Status)
	assert.Equal(t, "MALFORMED_NUMBER", runs[1].ErrorCode)
	require.Len(t, runs[1].Diagnostics, 1)
	assert.Equal(t, 4, runs[1].Diagnostics[0].Line)
}

func TestValidateBadDatabase(t *testing.T) {
	deck := writeNorne(t, t.TempDir())

	_, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), deck, "--db", "/nonexistent/dir/audit.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeStore)
}
