package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/generic/store"
)

func entitlement(id string) generic.LedgerEntry {
	return generic.LedgerEntry{
		ID:         generic.EntryID(id),
		EmployeeID: "emp-1",
		Year:       2025,
		Date:       generic.NewTimePoint(2025, time.March, 10),
		Kind:       generic.EntryEntitlement,
		Credit:     decimal.NewFromInt(20),
		Debit:      decimal.Zero,
		System:     true,
	}
}

func TestMemory_UniqueEntitlementPerYear(t *testing.T) {
	// GIVEN: An ENTITLEMENT for emp-1/2025
	// WHEN: Appending a second one
	// THEN: ErrDuplicateEntitlement; after soft-deleting the first, the second is accepted

	ctx := context.Background()
	s := store.NewMemory()

	first, err := s.AppendEntry(ctx, entitlement("e1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)

	_, err = s.AppendEntry(ctx, entitlement("e2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrDuplicateEntitlement))
	var dup *generic.DuplicateEntryError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, 2025, dup.Year)

	require.NoError(t, s.SetEntryDeleted(ctx, "e1", &generic.Deletion{By: "admin", Reason: "wrong year"}))
	_, err = s.AppendEntry(ctx, entitlement("e2"))
	require.NoError(t, err)

	// Restoring the first would now duplicate
	err = s.SetEntryDeleted(ctx, "e1", nil)
	assert.True(t, errors.Is(err, generic.ErrDuplicateEntitlement))
}

func TestMemory_UniqueUsagePerRequest(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	used := generic.LedgerEntry{
		EmployeeID: "emp-1",
		Year:       2025,
		Date:       generic.NewTimePoint(2025, time.April, 1),
		Kind:       generic.EntryUsed,
		Debit:      decimal.NewFromInt(3),
		RequestID:  "req-1",
	}
	_, err := s.AppendEntry(ctx, used)
	require.NoError(t, err)

	_, err = s.AppendEntry(ctx, used)
	assert.True(t, errors.Is(err, generic.ErrDuplicateUsage))

	// Different request is fine
	used.RequestID = "req-2"
	_, err = s.AppendEntry(ctx, used)
	assert.NoError(t, err)
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	// GIVEN: A transaction that appends an entry and then fails
	// WHEN: WithTx returns
	// THEN: The entry is gone

	ctx := context.Background()
	s := store.NewTxMemory()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx generic.Store) error {
		if _, err := tx.AppendEntry(ctx, entitlement("e1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTxMemory_CommitOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := store.NewTxMemory()

	err := s.WithTx(ctx, func(tx generic.Store) error {
		_, err := tx.AppendEntry(ctx, entitlement("e1"))
		return err
	})
	require.NoError(t, err)

	entries, err := s.ListEntries(ctx, generic.EntryFilter{EmployeeID: "emp-1", Year: 2025})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemory_RequestsAreCopied(t *testing.T) {
	// GIVEN: A saved request
	// WHEN: Mutating the returned copy's history
	// THEN: The stored request is unchanged

	ctx := context.Background()
	s := store.NewMemory()
	req := generic.LeaveRequest{
		ID:         "req-1",
		EmployeeID: "emp-1",
		StartDate:  generic.NewTimePoint(2025, time.April, 1),
		EndDate:    generic.NewTimePoint(2025, time.April, 2),
		Status:     generic.StatusPending,
		History:    []generic.HistoryEntry{{Actor: "emp-1", Status: generic.StatusPending}},
	}
	require.NoError(t, s.SaveRequest(ctx, req))

	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	got.History[0].Note = "changed"

	again, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Empty(t, again.History[0].Note)
}

func TestMemory_HolidaysForIncludesGlobal(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{Date: generic.NewTimePoint(2025, time.January, 1), Name: "New Year"}))
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{CompanyID: "acme", Date: generic.NewTimePoint(2025, time.March, 5), Name: "Founders"}))
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{CompanyID: "globex", Date: generic.NewTimePoint(2025, time.March, 6), Name: "Other"}))

	hs, err := s.HolidaysFor(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, hs, 2)
}
