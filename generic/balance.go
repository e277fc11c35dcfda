/*
balance.go - Annual leave balance summary

PURPOSE:
  Folds a replayed (employee, year) ledger into the figures dashboards
  show: entitlement, used, remaining, total credit and total debit.

ANNUAL-LEAVE FILTER:
  The ledger is shared infrastructure, but only annual leave is balance
  tracked. A USED entry counts only when its originating request is
  classified annual. Every other kind (ENTITLEMENT, CARRYOVER,
  ADJUSTMENT, REVERSAL) is entered against the annual balance and always
  counts.

COMPONENTS:
  Entitlement: Σ credit of ENTITLEMENT entries
  Used:        Σ debit of counted USED entries - Σ credit of REVERSAL entries
  TotalCredit: Σ credit of counted entries
  TotalDebit:  Σ debit of counted entries
  Remaining:   TotalCredit - TotalDebit

EXAMPLE:
  ENTITLEMENT +20, CARRYOVER +3, USED -5, REVERSAL +5, USED -2
  Entitlement 20, Used 2, Remaining 21

SEE ALSO:
  - ledger.go: Replay
  - timeoff/ledger.go: CurrentBalance
*/
package generic

import "github.com/shopspring/decimal"

// =============================================================================
// BALANCE
// =============================================================================

type Balance struct {
	EmployeeID  EmployeeID
	Year        int
	Entitlement decimal.Decimal
	Used        decimal.Decimal
	Remaining   decimal.Decimal
	TotalCredit decimal.Decimal
	TotalDebit  decimal.Decimal
	Anomalies   []Anomaly
}

// Summarize folds replayed entries into a Balance. countUsage decides
// whether a USED entry's request is annual leave; entries with negative
// amounts were already reported by Replay and are skipped here too.
func Summarize(employeeID EmployeeID, year int, entries []LedgerEntry, countUsage func(RequestID) bool) Balance {
	b := Balance{
		EmployeeID:  employeeID,
		Year:        year,
		Entitlement: decimal.Zero,
		Used:        decimal.Zero,
		Remaining:   decimal.Zero,
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}
	for _, e := range entries {
		if e.IsDeleted() || e.Credit.IsNegative() || e.Debit.IsNegative() {
			continue
		}
		if e.Kind == EntryUsed && (countUsage == nil || !countUsage(e.RequestID)) {
			continue
		}
		b.TotalCredit = b.TotalCredit.Add(e.Credit)
		b.TotalDebit = b.TotalDebit.Add(e.Debit)
		switch e.Kind {
		case EntryEntitlement:
			b.Entitlement = b.Entitlement.Add(e.Credit)
		case EntryUsed:
			b.Used = b.Used.Add(e.Debit)
		case EntryReversal:
			b.Used = b.Used.Sub(e.Credit)
		}
	}
	b.Remaining = b.TotalCredit.Sub(b.TotalDebit)
	return b
}
