/*
request.go - Leave request record

PURPOSE:
  The persisted shape of a leave request: its date span, sizing, status,
  approval progress and the cancellation sub-record. The transitions
  themselves live in timeoff/request.go; this file only defines the data
  and the status predicates every layer shares.

STATUS FLOW:
  ┌─────────────────────────────────────────────────────────────────────┐
  │                                                                     │
  │   create ──▶ PENDING ──▶ IN_PROGRESS ──▶ APPROVED                   │
  │                 │            │   ▲            │                     │
  │                 │            ▼   │            ▼                     │
  │                 │         SUSPENDED     CANCELLATION_REQUESTED      │
  │                 │                           │          │            │
  │                 ├──▶ REJECTED               ▼          ▼            │
  │                 └──▶ CANCELLED ◀──── (approved)   (rejected: back)  │
  │                                                                     │
  └─────────────────────────────────────────────────────────────────────┘

INVARIANTS:
  - CurrentApprover is set iff Status == IN_PROGRESS
  - History is append-only, one entry per transition
  - A request is never SUSPENDED and CANCELLATION_REQUESTED at once

SEE ALSO:
  - timeoff/request.go: State machine
  - store.go: RequestStore
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST STATUS
// =============================================================================

type RequestID string

type RequestStatus string

const (
	StatusPending               RequestStatus = "PENDING"
	StatusInProgress            RequestStatus = "IN_PROGRESS"
	StatusApproved              RequestStatus = "APPROVED"
	StatusRejected              RequestStatus = "REJECTED"
	StatusCancelled             RequestStatus = "CANCELLED"
	StatusCancellationRequested RequestStatus = "CANCELLATION_REQUESTED"
	StatusSuspended             RequestStatus = "SUSPENDED"
)

// IsTerminal reports APPROVED, REJECTED and CANCELLED. APPROVED can still
// enter the cancellation sub-workflow.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// IsLive reports statuses that still hold (or may hold) days: everything
// except REJECTED and CANCELLED.
func (s RequestStatus) IsLive() bool {
	return s != StatusRejected && s != StatusCancelled
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryEntry records one transition: who acted, the resulting status and a note.
type HistoryEntry struct {
	Actor  ActorID
	Role   string
	Status RequestStatus
	Note   string
	At     time.Time
}

// =============================================================================
// CANCELLATION SUB-RECORD
// =============================================================================

type CancellationOutcome string

const (
	CancellationOpen     CancellationOutcome = ""
	CancellationApproved CancellationOutcome = "approved"
	CancellationRejected CancellationOutcome = "rejected"
)

// Cancellation tracks a cancellation request and its own approval walk.
type Cancellation struct {
	Reason          string
	RequestedBy     ActorID
	RequestedAt     time.Time
	CurrentApprover ActorID
	ApprovalCount   int
	RequiredLevels  int
	History         []HistoryEntry

	// Status and approver to restore when the cancellation is rejected.
	PreviousStatus   RequestStatus
	PreviousApprover ActorID

	Outcome         CancellationOutcome
	DecidedBy       ActorID
	DecidedAt       *time.Time
	RejectionReason string
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type LeaveRequest struct {
	ID             RequestID
	EmployeeID     EmployeeID
	CompanyID      CompanyID
	LeaveTypeID    LeaveTypeID
	Classification Classification // copied from the leave type at creation

	StartDate  TimePoint
	EndDate    TimePoint
	ReturnDate TimePoint

	IsHalfDay bool
	IsHourly  bool
	Hours     decimal.Decimal

	// RequestedDays is the chargeable size at creation; CalculatedDays is the
	// authoritative size fixed when the request reaches APPROVED.
	RequestedDays  decimal.Decimal
	CalculatedDays decimal.Decimal

	Reason string
	Status RequestStatus

	CurrentApprover   ActorID
	SuspendedApprover ActorID // held while SUSPENDED
	SuspendedFrom     RequestStatus
	ApprovalCount     int
	RequiredLevels    int // 0 = whole chain
	SingleApproval    bool

	History      []HistoryEntry
	Cancellation *Cancellation

	CreatedBy ActorID
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   *Deletion
}

func (r *LeaveRequest) Period() Period { return Period{Start: r.StartDate, End: r.EndDate} }

func (r *LeaveRequest) IsDeleted() bool { return r.Deleted != nil }

// IsAnnual reports whether the request is tracked against the annual leave balance.
func (r *LeaveRequest) IsAnnual() bool { return r.Classification == ClassAnnual }

// Year is the ledger year the request is charged to.
func (r *LeaveRequest) Year() int { return r.StartDate.Year() }

// Unprocessed reports a request nobody has acted on since creation.
func (r *LeaveRequest) Unprocessed() bool {
	return r.Status == StatusPending && r.CurrentApprover == "" && r.ApprovalCount == 0 && len(r.History) <= 1
}

// AppendHistory records a transition and stamps UpdatedAt.
func (r *LeaveRequest) AppendHistory(h HistoryEntry) {
	r.History = append(r.History, h)
	r.UpdatedAt = h.At
}

// Clone deep-copies the slices and pointers so stores can hand out snapshots.
func (r LeaveRequest) Clone() LeaveRequest {
	out := r
	out.History = append([]HistoryEntry(nil), r.History...)
	if r.Cancellation != nil {
		c := *r.Cancellation
		c.History = append([]HistoryEntry(nil), r.Cancellation.History...)
		if r.Cancellation.DecidedAt != nil {
			t := *r.Cancellation.DecidedAt
			c.DecidedAt = &t
		}
		out.Cancellation = &c
	}
	if r.Deleted != nil {
		d := *r.Deleted
		out.Deleted = &d
	}
	return out
}
