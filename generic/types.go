/*
Package generic provides the core of the leave accounting engine.

PURPOSE:
  This package holds the tenant-agnostic pieces of the engine: identifiers,
  day amounts, ledger entries, the replay that derives running balances,
  the leave request record, directory records (company, department,
  employee, leave type) and the storage contracts every backend satisfies.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days (or hours) backed by decimal.Decimal
  - LedgerEntry: One credit or debit line for an (employee, year)
  - EntryKind: ENTITLEMENT, CARRYOVER, USED, REVERSAL, ADJUSTMENT
  - Deletion: Soft-delete audit marker shared by entries and requests

DESIGN PRINCIPLES:
  1. Entries are never hard-deleted; corrections are new entries or soft deletes
  2. Precision: decimal.Decimal, so 0.5 days and hours/8 stay exact
  3. Type Safety: distinct id types for employees, companies, requests, entries
  4. The stored running balance is derived, never authoritative

USAGE:
  e := generic.LedgerEntry{
      EmployeeID: "emp-1",
      Year:       2025,
      Date:       generic.NewTimePoint(2025, time.March, 10),
      Kind:       generic.EntryEntitlement,
      Credit:     decimal.NewFromInt(20),
  }

SEE ALSO:
  - ledger.go: Replay and recompute
  - store.go: Persistence contracts
  - request.go: Leave request record
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (hourly leave converts to days)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

// HoursPerDay is the day equivalence used for hourly leave.
const HoursPerDay = 8

// InDays converts an hour amount to its day equivalent. Day amounts are returned unchanged.
func (a Amount) InDays() Amount {
	if a.Unit == UnitHours {
		return Amount{Value: a.Value.Div(decimal.NewFromInt(HoursPerDay)), Unit: UnitDays}
	}
	return a
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type CompanyID string
type DealerID string
type DepartmentID string
type LeaveTypeID string
type EntryID string

// ActorID identifies whoever performs an action. Approvers are employees,
// so an approver's ActorID equals their EmployeeID.
type ActorID string

// SystemActor is recorded on entries and history written by the engine itself.
const SystemActor ActorID = "system"

// =============================================================================
// LEDGER ENTRY - One accounting line for an (employee, year)
// =============================================================================

type EntryKind string

const (
	EntryEntitlement EntryKind = "ENTITLEMENT" // yearly grant on/after hire anniversary
	EntryCarryover   EntryKind = "CARRYOVER"   // manual carry of unused days
	EntryUsed        EntryKind = "USED"        // debit for an approved annual leave request
	EntryReversal    EntryKind = "REVERSAL"    // credit undoing a USED entry
	EntryAdjustment  EntryKind = "ADJUSTMENT"  // manual correction, credit or debit
)

func (k EntryKind) Valid() bool {
	switch k {
	case EntryEntitlement, EntryCarryover, EntryUsed, EntryReversal, EntryAdjustment:
		return true
	}
	return false
}

// LedgerEntry is a credit or debit against an employee's annual leave for one year.
// Both Credit and Debit always exist; only one of them is meaningful per entry.
type LedgerEntry struct {
	ID         EntryID
	EmployeeID EmployeeID
	CompanyID  CompanyID
	Year       int
	Date       TimePoint
	Kind       EntryKind
	Credit     decimal.Decimal
	Debit      decimal.Decimal

	// Balance is the running balance after this entry, written by Recalculate.
	// Never read it without a preceding recompute.
	Balance decimal.Decimal

	RequestID RequestID // set for USED and REVERSAL
	Note      string
	System    bool

	// Seq is the creation order assigned by the store. Ties on Date are broken by Seq.
	Seq int64

	CreatedBy ActorID
	CreatedAt time.Time
	Deleted   *Deletion
}

func (e LedgerEntry) IsDeleted() bool { return e.Deleted != nil }

// Net is Credit - Debit.
func (e LedgerEntry) Net() decimal.Decimal { return e.Credit.Sub(e.Debit) }

// Deletion records who soft-deleted a record, when and why.
type Deletion struct {
	By     ActorID
	At     time.Time
	Reason string
}
