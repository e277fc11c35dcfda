/*
ledger.go - Running balance replay

PURPOSE:
  The stored Balance on each entry is a cache. The truth is the ordered
  list of non-deleted entries for one (employee, year). Replay walks that
  list and re-derives every running balance; Recalculate does the same
  against a store and persists the result.

CRITICAL INVARIANTS:
  1. Order is (Date asc, Seq asc). Seq is creation order.
  2. balance_i = Σ credit - Σ debit over entries 0..i.
  3. Soft-deleted entries contribute nothing and keep their old Balance.
  4. Replay is idempotent: replaying a replayed list changes nothing.

ANOMALIES:
  An entry with a negative credit or debit is impossible data. Replay
  skips that entry's contribution (its Balance equals the previous running
  balance), records an Anomaly, and carries on. Balance display must stay
  available when part of the data is corrupt.

EXAMPLE FLOW:
  1. ENTITLEMENT 2025-03-10 credit 20  -> 20
  2. USED        2025-06-02 debit  5   -> 15
  3. REVERSAL    2025-06-20 credit 5   -> 20

SEE ALSO:
  - store.go: EntryStore
  - timeoff/ledger.go: Ledger Engine built on Recalculate
*/
package generic

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ANOMALY - Caller-visible diagnostic for impossible entries
// =============================================================================

type Anomaly struct {
	EntryID    EntryID
	EmployeeID EmployeeID
	Year       int
	Kind       EntryKind
	Credit     decimal.Decimal
	Debit      decimal.Decimal
	Message    string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s %s (%s/%d): %s", a.Kind, a.EntryID, a.EmployeeID, a.Year, a.Message)
}

// =============================================================================
// REPLAY
// =============================================================================

type ReplayResult struct {
	Entries     []LedgerEntry // non-deleted, ordered, Balance filled in
	Final       decimal.Decimal
	TotalCredit decimal.Decimal
	TotalDebit  decimal.Decimal
	Anomalies   []Anomaly
}

// SortEntries orders entries by (Date, Seq) in place.
func SortEntries(entries []LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Seq < entries[j].Seq
	})
}

// Replay derives running balances. The input is not modified.
func Replay(entries []LedgerEntry) ReplayResult {
	live := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDeleted() {
			live = append(live, e)
		}
	}
	SortEntries(live)

	res := ReplayResult{
		Final:       decimal.Zero,
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}
	balance := decimal.Zero
	for i := range live {
		e := &live[i]
		if e.Credit.IsNegative() || e.Debit.IsNegative() {
			res.Anomalies = append(res.Anomalies, Anomaly{
				EntryID:    e.ID,
				EmployeeID: e.EmployeeID,
				Year:       e.Year,
				Kind:       e.Kind,
				Credit:     e.Credit,
				Debit:      e.Debit,
				Message:    "negative amount skipped",
			})
			e.Balance = balance
			continue
		}
		balance = balance.Add(e.Credit).Sub(e.Debit)
		res.TotalCredit = res.TotalCredit.Add(e.Credit)
		res.TotalDebit = res.TotalDebit.Add(e.Debit)
		e.Balance = balance
	}
	res.Entries = live
	res.Final = balance
	return res
}

// Recalculate loads the non-deleted entries of (employee, year), replays
// them and persists every changed Balance. Callers serialize it per
// (employee, year); see KeyedLocker.
func Recalculate(ctx context.Context, s EntryStore, employeeID EmployeeID, year int) (ReplayResult, error) {
	entries, err := s.ListEntries(ctx, EntryFilter{EmployeeID: employeeID, Year: year})
	if err != nil {
		return ReplayResult{}, fmt.Errorf("load entries: %w", err)
	}
	prev := make(map[EntryID]decimal.Decimal, len(entries))
	for _, e := range entries {
		prev[e.ID] = e.Balance
	}

	res := Replay(entries)

	changed := make(map[EntryID]decimal.Decimal)
	for _, e := range res.Entries {
		if old, ok := prev[e.ID]; !ok || !old.Equal(e.Balance) {
			changed[e.ID] = e.Balance
		}
	}
	if len(changed) > 0 {
		if err := s.SetBalances(ctx, changed); err != nil {
			return ReplayResult{}, fmt.Errorf("persist balances: %w", err)
		}
	}
	return res, nil
}
