package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
)

func TestLockError_BusyDatabaseIsRetryable(t *testing.T) {
	// GIVEN: One connection holding an open write transaction on a file database
	// WHEN: A second connection with no busy timeout tries to write
	// THEN: The driver's busy error is reported as a concurrent modification

	path := filepath.Join(t.TempDir(), "busy.db")

	holder, err := sql.Open("sqlite3", path+"?_busy_timeout=0")
	require.NoError(t, err)
	defer holder.Close()
	_, err = holder.Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)

	tx, err := holder.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = tx.Exec("INSERT INTO t VALUES (1)")
	require.NoError(t, err)

	other, err := sql.Open("sqlite3", path+"?_busy_timeout=0")
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Exec("INSERT INTO t VALUES (2)")
	require.Error(t, err)

	got := lockError(fmt.Errorf("failed to append ledger entry: %w", err))
	assert.True(t, generic.IsRetryable(got))
	assert.True(t, errors.Is(got, generic.ErrConcurrentModification))
}

func TestLockError_OtherErrorsPassThrough(t *testing.T) {
	dup := &generic.DuplicateEntryError{Kind: generic.EntryUsed, RequestID: "r-1"}
	assert.Same(t, error(dup), lockError(dup))

	plain := errors.New("disk full")
	assert.Equal(t, plain, lockError(plain))
	assert.False(t, generic.IsRetryable(lockError(plain)))
}
