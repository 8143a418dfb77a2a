package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecldeck/internal/store"
	"github.com/roach88/ecldeck/internal/testutil"
)

// recordedDatabase validates a good and a bad deck into a fresh audit
// database and returns the database and deck paths.
func recordedDatabase(t *testing.T) (db, good, bad string) {
	t.Helper()
	dir := t.TempDir()
	good = writeNorne(t, dir)
	bad = testutil.WriteDeck(t, dir, "BAD.DATA", badDeck)
	db = filepath.Join(dir, "audit.db")

	opts := &ValidateOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: testutil.NewSequentialIDGenerator("audit"),
		Clock:       testutil.NewDeterministicClock(),
	}
	_, _, err := execute(newValidateCommand(opts), good, bad, good, "--db", db)
	require.Error(t, err, "BAD.DATA fails to parse")
	return db, good, bad
}

func TestHistoryListsRuns(t *testing.T) {
	db, good, _ := recordedDatabase(t)

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "audit-0001")
	assert.Contains(t, out, "audit-0003")
	assert.Contains(t, out, good)
	assert.Contains(t, out, "failed (MALFORMED_NUMBER)")
	assert.Contains(t, out, "2024-01-01T00:00:00Z")
	assert.Contains(t, out, "(3 runs)")
}

func TestHistoryFilterByDeck(t *testing.T) {
	db, good, _ := recordedDatabase(t)

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--deck", good)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "audit-0001", resp.Data[0].ID)
	assert.Equal(t, "audit-0003", resp.Data[1].ID)
	assert.Equal(t, resp.Data[0].Digest, resp.Data[1].Digest)
}

func TestHistoryLatest(t *testing.T) {
	db, good, _ := recordedDatabase(t)

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--deck", good, "--latest")
	require.NoError(t, err)
	assert.Contains(t, out, "Run audit-0003")
	assert.Contains(t, out, "(1 runs)")
	assert.NotContains(t, out, "audit-0001")
}

func TestHistoryLatestRequiresDeck(t *testing.T) {
	db, _, _ := recordedDatabase(t)

	_, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--latest")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryLatestUnknownDeck(t *testing.T) {
	db, _, _ := recordedDatabase(t)

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--deck", "OTHER.DATA", "--latest")
	require.NoError(t, err)
	assert.Equal(t, "(0 runs)\n", out)
}

func TestHistoryShowRun(t *testing.T) {
	db, _, _ := recordedDatabase(t)

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--run", "audit-0002")
	require.NoError(t, err)
	assert.Contains(t, out, "Run audit-0002")
	assert.Contains(t, out, "error MALFORMED_NUMBER line 4, column 7")
}

func TestHistoryUnknownRun(t *testing.T) {
	db, _, _ := recordedDatabase(t)

	_, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}

func TestHistoryMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")

	_, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.NoFileExists(t, missing)
}

func TestHistoryRequiresDB(t *testing.T) {
	_, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
