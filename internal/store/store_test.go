package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/MJE43/dodepa/internal/games"
)

// exerciseBackend runs the contract every Backend must satisfy.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set(ctx, "save", []byte(`{"money":1}`)))
	got, err := b.Get(ctx, "save")
	require.NoError(t, err)
	assert.Equal(t, `{"money":1}`, string(got))

	require.NoError(t, b.Set(ctx, "save", []byte(`{"money":2}`)))
	got, err = b.Get(ctx, "save")
	require.NoError(t, err)
	assert.Equal(t, `{"money":2}`, string(got))

	require.NoError(t, b.Delete(ctx, "save"))
	_, err = b.Get(ctx, "save")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Delete(ctx, "save"), "deleting a missing key is not an error")
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dodepa.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteBackend(t *testing.T) {
	s, _ := newTestSQLite(t)
	exerciseBackend(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestSQLite(t)
	require.NoError(t, s.Set(ctx, "dodepaSave", []byte("payload")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err, "migrations must be idempotent")
	defer reopened.Close()

	got, err := reopened.Get(ctx, "dodepaSave")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	keys, err := reopened.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dodepaSave"}, keys)
}

func TestSQLiteJournal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLite(t)
	sessionID := uuid.New()
	other := uuid.New()

	work := games.Result{Action: games.ActionWork, Accepted: true, Message: "paid", Delta: games.Delta{Money: 253, Energy: -10, Reputation: 1}}
	require.NoError(t, s.RecordAction(ctx, sessionID, work, games.State{Money: 1253, Energy: 40, Reputation: 11, Bet: 100}))

	rejected := games.Result{Action: games.ActionRepay, Message: "Debt is already paid off"}
	require.NoError(t, s.RecordAction(ctx, sessionID, rejected, games.State{Money: 1253, Energy: 40, Reputation: 11, Bet: 100}))

	require.NoError(t, s.RecordAction(ctx, other, work, games.State{Money: 1253, Energy: 40, Reputation: 11, Bet: 100}))

	entries, total, err := s.ListJournal(ctx, sessionID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, games.ActionRepay, entries[0].Action, "newest first")
	assert.False(t, entries[0].Accepted)
	assert.Equal(t, games.ActionWork, entries[1].Action)
	assert.Equal(t, 253, entries[1].Delta.Money)
	assert.Equal(t, 1253, entries[1].After.Money)
	assert.Equal(t, sessionID, entries[1].SessionID)
	assert.NotEqual(t, uuid.Nil, entries[1].ID)

	_, all, err := s.ListJournal(ctx, uuid.Nil, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all)

	sum, err := s.SummarizeJournal(ctx, sessionID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.Total)
	assert.EqualValues(t, 1, sum.Accepted)
	assert.EqualValues(t, 1, sum.Rejected)
	assert.EqualValues(t, 253, sum.NetMoney)
	assert.EqualValues(t, 1, sum.ByAction[games.ActionWork])
}

func TestKeyringBackend(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring("dodepa-test", filepath.Join(t.TempDir(), "fallback.json"))
	exerciseBackend(t, k)
}

func TestKeyringFallsBackToFile(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: no secret service available"))
	t.Cleanup(keyring.MockInit)

	path := filepath.Join(t.TempDir(), "nested", "fallback.json")
	k := NewKeyring("", path)
	exerciseBackend(t, k)

	ctx := context.Background()
	require.NoError(t, k.Set(ctx, "dodepaSave", []byte("binary\x00ok")))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "dodepaSave")

	got, err := k.Get(ctx, "dodepaSave")
	require.NoError(t, err)
	assert.Equal(t, "binary\x00ok", string(got))
}

func TestKeyringWithoutFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("keyring backend not available"))
	t.Cleanup(keyring.MockInit)

	k := NewKeyring("dodepa-test", "")
	err := k.Set(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fallback path")
}

func TestArchiveRoundTrip(t *testing.T) {
	payload := []byte(`{"money":1000,"energy":50,"reputation":10,"debt":0,"bet":100,"logs":["hi"]}`)

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, payload))
	assert.NotEqual(t, payload, buf.Bytes())

	got, err := ReadArchive(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestArchiveRejectsGarbage(t *testing.T) {
	_, err := ReadArchive(bytes.NewReader([]byte("definitely not zstd")))
	require.Error(t, err)
}

func TestSQLiteRuns(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLite(t)
	sessionID := uuid.New()

	first := Run{
		ID:           uuid.New(),
		SessionID:    sessionID,
		ScriptSource: `function next() { return "work" }`,
		Steps:        5,
		Accepted:     5,
		Reason:       "finished",
		Final:        games.State{Money: 2300, Energy: 0, Reputation: 15, Bet: 100},
	}
	second := first
	second.ID = uuid.New()
	second.Reason = "stopped"
	second.StopMessage = "broke"

	require.NoError(t, s.RecordRun(ctx, first))
	require.NoError(t, s.RecordRun(ctx, second))

	runs, total, err := s.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
	assert.Equal(t, "broke", runs[0].StopMessage)

	got, err := s.GetRun(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Final, got.Final)
	assert.Equal(t, first.ScriptSource, got.ScriptSource)
	assert.Equal(t, sessionID, got.SessionID)

	_, err = s.GetRun(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
