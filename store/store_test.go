package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "card_sends.json")
	ledger := NewFileLedger(path)

	used, err := ledger.Used(ctx, "2025-06-01", "alice")
	require.NoError(t, err)
	assert.Zero(t, used)

	for want := 1; want <= 3; want++ {
		got, err := ledger.Increment(ctx, "2025-06-01", "alice")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = ledger.Increment(ctx, "2025-06-02", "alice")
	require.NoError(t, err)
	_, err = ledger.Increment(ctx, "2025-06-01", "bob")
	require.NoError(t, err)

	// A fresh ledger over the same file sees the persisted counts.
	reopened := NewFileLedger(path)
	day, err := reopened.Day(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 3, "bob": 1}, day)

	used, err = reopened.Used(ctx, "2025-06-02", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestFileLedgerConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	ledger := NewFileLedger(filepath.Join(t.TempDir(), "usage.json"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Increment(ctx, "2025-06-01", "bob")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	used, err := ledger.Used(ctx, "2025-06-01", "bob")
	require.NoError(t, err)
	assert.Equal(t, 20, used)
}

func TestFileLedgerCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileLedger(path).Used(context.Background(), "2025-06-01", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt usage ledger")
}

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "greenwiz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenwiz.db")
	for i := 0; i < 2; i++ {
		db, err := OpenSQLite(path)
		require.NoError(t, err)

		var n int
		require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM schema_meta").Scan(&n))
		assert.Equal(t, 1, n)
		require.NoError(t, db.Close())
	}
}

func TestOpenSQLiteRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenwiz.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = db.db.Exec("UPDATE schema_meta SET version = ?", schemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenSQLite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestSQLiteWallets(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, ok, err := db.LinkedWallet(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.LinkWallet(ctx, "42", "carolcarol12"))
	require.NoError(t, db.LinkWallet(ctx, "42", "carol.wam"))

	wallet, ok, err := db.LinkedWallet(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "carol.wam", wallet)
}

func TestSQLiteUsage(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	used, err := db.Used(ctx, "2025-06-01", "alice")
	require.NoError(t, err)
	assert.Zero(t, used)

	for want := 1; want <= 2; want++ {
		got, err := db.Increment(ctx, "2025-06-01", "alice")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = db.Increment(ctx, "2025-06-01", "bob")
	require.NoError(t, err)
	_, err = db.Increment(ctx, "2025-06-02", "alice")
	require.NoError(t, err)

	day, err := db.Day(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, day)

	used, err = db.Used(ctx, "2025-06-02", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestSQLiteRaffleWindows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	first := time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	third := second.Add(2 * time.Hour)

	done, err := db.WindowProcessed(ctx, first)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, db.MarkWindow(ctx, first, "miner1.wam", "1099"))
	require.NoError(t, db.MarkWindow(ctx, first, "other.wam", "2000"))
	require.NoError(t, db.MarkWindow(ctx, second, "", ""))
	require.NoError(t, db.MarkWindow(ctx, third, "miner2.wam", "1100"))

	done, err = db.WindowProcessed(ctx, first)
	require.NoError(t, err)
	assert.True(t, done)

	winners, err := db.RecentWinners(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"miner1.wam", "miner2.wam"}, winners)

	winners, err = db.RecentWinners(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"miner2.wam"}, winners)
}
