/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger and request records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Balance / ledger:
    BalanceDTO, AnomalyDTO, LedgerEntryDTO, LedgerDTO,
    CarryoverRequest, AdjustmentRequest, ReasonRequest

  Leave requests:
    CreateLeaveRequest, LeaveRequestDTO, HistoryDTO, CancellationDTO,
    ConflictDTO, CreateLeaveResponse

  Directory:
    Upserts reuse the factory seed records (factory.CompanySeed, ...), so
    PUT bodies and seed documents share one schema and one set of rules.

VALIDATION:
  Request types carry validator tags; decode() runs them through the shared
  factory validator so field names in errors match the JSON names.

AMOUNTS:
  Day amounts are rendered as JSON numbers. Halves and hour fractions are
  exact in the ledger; the float here is display only.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/seed.go: Directory record schema
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// BALANCE / LEDGER
// =============================================================================

// BalanceDTO is the dashboard balance of an employee for the current year.
type BalanceDTO struct {
	EmployeeID     string       `json:"employee_id"`
	Year           int          `json:"year"`
	Entitlement    float64      `json:"entitlement"`
	Used           float64      `json:"used"`
	Remaining      float64      `json:"remaining"`
	SeniorityYears int          `json:"seniority_years"`
	Age            *int         `json:"age"`
	Anomalies      []AnomalyDTO `json:"anomalies,omitempty"`
}

type AnomalyDTO struct {
	EntryID string  `json:"entry_id"`
	Kind    string  `json:"kind"`
	Credit  float64 `json:"credit"`
	Debit   float64 `json:"debit"`
	Message string  `json:"message"`
}

// LedgerEntryDTO represents one ledger entry with its running balance.
type LedgerEntryDTO struct {
	ID         string       `json:"id"`
	EmployeeID string       `json:"employee_id"`
	Year       int          `json:"year"`
	Date       string       `json:"date"`
	Kind       string       `json:"kind"`
	Credit     float64      `json:"credit"`
	Debit      float64      `json:"debit"`
	Balance    float64      `json:"balance"`
	RequestID  string       `json:"request_id,omitempty"`
	Note       string       `json:"note,omitempty"`
	System     bool         `json:"system"`
	CreatedBy  string       `json:"created_by"`
	CreatedAt  string       `json:"created_at"`
	Deleted    *DeletionDTO `json:"deleted,omitempty"`
}

type DeletionDTO struct {
	By     string `json:"by"`
	At     string `json:"at"`
	Reason string `json:"reason"`
}

// LedgerDTO is an employee/year ledger after recompute.
type LedgerDTO struct {
	EmployeeID string           `json:"employee_id"`
	Year       int              `json:"year"`
	Entries    []LedgerEntryDTO `json:"entries"`
	Anomalies  []AnomalyDTO     `json:"anomalies"`
}

// RecalculateDTO is the result of an explicit recompute.
type RecalculateDTO struct {
	EmployeeID  string       `json:"employee_id"`
	Year        int          `json:"year"`
	Final       float64      `json:"final"`
	TotalCredit float64      `json:"total_credit"`
	TotalDebit  float64      `json:"total_debit"`
	Anomalies   []AnomalyDTO `json:"anomalies"`
}

// CarryoverRequest credits unused days into a year.
type CarryoverRequest struct {
	Year int     `json:"year" validate:"required,min=1900,max=9999"`
	Days float64 `json:"days" validate:"gt=0"`
	Note string  `json:"note"`
}

// AdjustmentRequest is a signed manual correction. Positive credits, negative debits.
type AdjustmentRequest struct {
	Year int     `json:"year" validate:"required,min=1900,max=9999"`
	Days float64 `json:"days" validate:"ne=0"`
	Note string  `json:"note" validate:"required"`
}

// ReasonRequest is the body of deletes and reason-bearing transitions.
type ReasonRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

// Text prefers the reason and falls back to the note.
func (r ReasonRequest) Text() string {
	if r.Reason != "" {
		return r.Reason
	}
	return r.Note
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// CreateLeaveRequest is the body of POST /api/leave-requests.
type CreateLeaveRequest struct {
	EmployeeID  string  `json:"employee_id" validate:"required"`
	LeaveTypeID string  `json:"leave_type_id" validate:"required"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	ReturnDate  string  `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	IsHalfDay   bool    `json:"is_half_day"`
	IsHourly    bool    `json:"is_hourly"`
	Hours       float64 `json:"hours" validate:"min=0,max=24"`
	Reason      string  `json:"reason" validate:"max=2000"`
}

// LeaveRequestDTO represents a leave request.
type LeaveRequestDTO struct {
	ID                string           `json:"id"`
	EmployeeID        string           `json:"employee_id"`
	CompanyID         string           `json:"company_id"`
	LeaveTypeID       string           `json:"leave_type_id"`
	Classification    string           `json:"classification"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	ReturnDate        string           `json:"return_date"`
	IsHalfDay         bool             `json:"is_half_day"`
	IsHourly          bool             `json:"is_hourly"`
	Hours             float64          `json:"hours,omitempty"`
	RequestedDays     float64          `json:"requested_days"`
	CalculatedDays    float64          `json:"calculated_days"`
	Reason            string           `json:"reason,omitempty"`
	Status            string           `json:"status"`
	CurrentApprover   *string          `json:"current_approver"`
	SuspendedApprover *string          `json:"suspended_approver,omitempty"`
	ApprovalCount     int              `json:"approval_count"`
	RequiredLevels    int              `json:"required_levels"`
	History           []HistoryDTO     `json:"history"`
	Cancellation      *CancellationDTO `json:"cancellation,omitempty"`
	CreatedBy         string           `json:"created_by"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

type HistoryDTO struct {
	Actor  string `json:"actor"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
	At     string `json:"at"`
}

type CancellationDTO struct {
	Reason          string       `json:"reason"`
	RequestedBy     string       `json:"requested_by"`
	RequestedAt     string       `json:"requested_at"`
	CurrentApprover *string      `json:"current_approver"`
	ApprovalCount   int          `json:"approval_count"`
	RequiredLevels  int          `json:"required_levels"`
	Outcome         string       `json:"outcome,omitempty"`
	DecidedBy       string       `json:"decided_by,omitempty"`
	DecidedAt       string       `json:"decided_at,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	History         []HistoryDTO `json:"history"`
}

// ConflictDTO is an advisory overlap warning.
type ConflictDTO struct {
	RequestID      string `json:"request_id"`
	Classification string `json:"classification"`
	Status         string `json:"status"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Message        string `json:"message"`
}

// CreateLeaveResponse wraps the created request and its warnings.
type CreateLeaveResponse struct {
	Request   LeaveRequestDTO `json:"request"`
	Conflicts []ConflictDTO   `json:"conflicts"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(id generic.ActorID) *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}

func toBalanceDTO(b timeoff.EmployeeBalance) BalanceDTO {
	dto := BalanceDTO{
		EmployeeID:     string(b.EmployeeID),
		Year:           b.Year,
		Entitlement:    float(b.Entitlement),
		Used:           float(b.Used),
		Remaining:      float(b.Remaining),
		SeniorityYears: b.Seniority,
		Anomalies:      toAnomalyDTOs(b.Anomalies),
	}
	if b.Age != timeoff.AgeUnknown {
		age := b.Age
		dto.Age = &age
	}
	return dto
}

func toAnomalyDTOs(anomalies []generic.Anomaly) []AnomalyDTO {
	dtos := make([]AnomalyDTO, len(anomalies))
	for i, a := range anomalies {
		dtos[i] = AnomalyDTO{
			EntryID: string(a.EntryID),
			Kind:    string(a.Kind),
			Credit:  float(a.Credit),
			Debit:   float(a.Debit),
			Message: a.Message,
		}
	}
	return dtos
}

func toLedgerEntryDTO(e generic.LedgerEntry) LedgerEntryDTO {
	dto := LedgerEntryDTO{
		ID:         string(e.ID),
		EmployeeID: string(e.EmployeeID),
		Year:       e.Year,
		Date:       e.Date.String(),
		Kind:       string(e.Kind),
		Credit:     float(e.Credit),
		Debit:      float(e.Debit),
		Balance:    float(e.Balance),
		RequestID:  string(e.RequestID),
		Note:       e.Note,
		System:     e.System,
		CreatedBy:  string(e.CreatedBy),
		CreatedAt:  timestamp(e.CreatedAt),
	}
	if e.Deleted != nil {
		dto.Deleted = &DeletionDTO{By: string(e.Deleted.By), At: timestamp(e.Deleted.At), Reason: e.Deleted.Reason}
	}
	return dto
}

func toLedgerEntryDTOs(entries []generic.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	return dtos
}

func toHistoryDTOs(history []generic.HistoryEntry) []HistoryDTO {
	dtos := make([]HistoryDTO, len(history))
	for i, h := range history {
		dtos[i] = HistoryDTO{
			Actor:  string(h.Actor),
			Role:   h.Role,
			Status: string(h.Status),
			Note:   h.Note,
			At:     timestamp(h.At),
		}
	}
	return dtos
}

func toLeaveRequestDTO(r generic.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:                string(r.ID),
		EmployeeID:        string(r.EmployeeID),
		CompanyID:         string(r.CompanyID),
		LeaveTypeID:       string(r.LeaveTypeID),
		Classification:    string(r.Classification),
		StartDate:         r.StartDate.String(),
		EndDate:           r.EndDate.String(),
		ReturnDate:        r.ReturnDate.String(),
		IsHalfDay:         r.IsHalfDay,
		IsHourly:          r.IsHourly,
		Hours:             float(r.Hours),
		RequestedDays:     float(r.RequestedDays),
		CalculatedDays:    float(r.CalculatedDays),
		Reason:            r.Reason,
		Status:            string(r.Status),
		CurrentApprover:   optional(r.CurrentApprover),
		SuspendedApprover: optional(r.SuspendedApprover),
		ApprovalCount:     r.ApprovalCount,
		RequiredLevels:    r.RequiredLevels,
		History:           toHistoryDTOs(r.History),
		CreatedBy:         string(r.CreatedBy),
		CreatedAt:         timestamp(r.CreatedAt),
		UpdatedAt:         timestamp(r.UpdatedAt),
	}
	if c := r.Cancellation; c != nil {
		dto.Cancellation = &CancellationDTO{
			Reason:          c.Reason,
			RequestedBy:     string(c.RequestedBy),
			RequestedAt:     timestamp(c.RequestedAt),
			CurrentApprover: optional(c.CurrentApprover),
			ApprovalCount:   c.ApprovalCount,
			RequiredLevels:  c.RequiredLevels,
			Outcome:         string(c.Outcome),
			DecidedBy:       string(c.DecidedBy),
			RejectionReason: c.RejectionReason,
			History:         toHistoryDTOs(c.History),
		}
		if c.DecidedAt != nil {
			dto.Cancellation.DecidedAt = timestamp(*c.DecidedAt)
		}
	}
	return dto
}

func toLeaveRequestDTOs(reqs []generic.LeaveRequest) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toLeaveRequestDTO(r)
	}
	return dtos
}

func toConflictDTOs(conflicts []timeoff.Conflict) []ConflictDTO {
	dtos := make([]ConflictDTO, len(conflicts))
	for i, c := range conflicts {
		dtos[i] = ConflictDTO{
			RequestID:      string(c.RequestID),
			Classification: string(c.Classification),
			Status:         string(c.Status),
			StartDate:      c.Period.Start.String(),
			EndDate:        c.Period.End.String(),
			Message:        c.Message,
		}
	}
	return dtos
}
