/*
store.go - Persistence contracts for ledger entries, requests and directory

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage; the engine never
  sees SQL.

KEY INTERFACES:
  EntryStore:     Ledger entries (append, list, balances, soft delete)
  RequestStore:   Leave requests (save, get, list)
  Directory:      Companies, departments, employees, leave types, holidays
  AuditLog:       Who did what when, outside the ledger itself
  Store:          All of the above
  TxStore:        Store + WithTx for atomic multi-record writes

ENTRY CONTRACT:
  - Amounts are immutable once written. Only Balance (derived) and the
    soft-delete marker ever change.
  - Nothing is hard-deleted.
  - AppendEntry enforces two uniqueness keys over non-deleted entries:
      (employee, year) for ENTITLEMENT
      (request)        for USED
    and returns a *DuplicateEntryError when either is violated. Callers
    check first; the store closes the race.

ORDERING:
  ListEntries returns entries ordered by (Date asc, Seq asc). Seq is the
  store-assigned creation order.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite with partial UNIQUE indexes
  - generic/store/memory.go: In-memory for tests and development

SEE ALSO:
  - ledger.go: Recalculate uses EntryStore
  - timeoff/: Services run every mutation inside WithTx
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryFilter selects ledger entries. Zero fields do not filter.
type EntryFilter struct {
	EmployeeID     EmployeeID
	Year           int
	RequestID      RequestID
	Kinds          []EntryKind
	IncludeDeleted bool
}

func (f EntryFilter) Matches(e LedgerEntry) bool {
	if f.EmployeeID != "" && e.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Year != 0 && e.Year != f.Year {
		return false
	}
	if f.RequestID != "" && e.RequestID != f.RequestID {
		return false
	}
	if !f.IncludeDeleted && e.IsDeleted() {
		return false
	}
	if len(f.Kinds) > 0 {
		for _, k := range f.Kinds {
			if e.Kind == k {
				return true
			}
		}
		return false
	}
	return true
}

type EntryStore interface {
	// AppendEntry persists a new entry, assigning Seq (and CreatedAt if zero).
	AppendEntry(ctx context.Context, e LedgerEntry) (LedgerEntry, error)

	GetEntry(ctx context.Context, id EntryID) (*LedgerEntry, error)

	// ListEntries returns matching entries ordered by (Date, Seq).
	ListEntries(ctx context.Context, f EntryFilter) ([]LedgerEntry, error)

	// SetBalances writes derived running balances.
	SetBalances(ctx context.Context, balances map[EntryID]decimal.Decimal) error

	// SetEntryDeleted marks (del != nil) or restores (del == nil) an entry.
	// Restoring can violate a uniqueness key and returns *DuplicateEntryError.
	SetEntryDeleted(ctx context.Context, id EntryID, del *Deletion) error
}

// =============================================================================
// REQUEST STORE
// =============================================================================

type RequestFilter struct {
	EmployeeID     EmployeeID
	CompanyID      CompanyID
	Statuses       []RequestStatus
	IncludeDeleted bool
}

func (f RequestFilter) Matches(r LeaveRequest) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.CompanyID != "" && r.CompanyID != f.CompanyID {
		return false
	}
	if !f.IncludeDeleted && r.IsDeleted() {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if r.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

type RequestStore interface {
	// SaveRequest inserts or replaces a request.
	SaveRequest(ctx context.Context, r LeaveRequest) error

	// GetRequest returns nil, nil when the request does not exist.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// ListRequests returns matching requests ordered by start date.
	ListRequests(ctx context.Context, f RequestFilter) ([]LeaveRequest, error)
}

// =============================================================================
// DIRECTORY - Read side of HR data plus admin upserts
// =============================================================================

// Directory lookups return nil, nil for unknown ids.
type Directory interface {
	GetCompany(ctx context.Context, id CompanyID) (*Company, error)
	GetDepartment(ctx context.Context, id DepartmentID) (*Department, error)
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context, companyID CompanyID) ([]Employee, error)
	GetLeaveType(ctx context.Context, id LeaveTypeID) (*LeaveType, error)
	HolidaysFor(ctx context.Context, companyID CompanyID) (HolidaySet, error)

	SaveCompany(ctx context.Context, c Company) error
	SaveDepartment(ctx context.Context, d Department) error
	SaveEmployee(ctx context.Context, e Employee) error
	SaveLeaveType(ctx context.Context, lt LeaveType) error
	SaveHoliday(ctx context.Context, h Holiday) error
}

// =============================================================================
// STORE / TRANSACTIONAL STORE
// =============================================================================

type Store interface {
	EntryStore
	RequestStore
	Directory
	AuditLog
}

// TxStore wraps Store with transaction support.
// Use this when several records must change together (approve + USED entry).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// AUDIT LOG - Separate from the ledger, tracks who did what when
// =============================================================================

type AuditEntry struct {
	ID         string
	Timestamp  time.Time
	ActorID    ActorID
	Action     AuditAction
	EmployeeID EmployeeID
	RequestID  RequestID
	EntryID    EntryID
	Payload    map[string]any
}

type AuditAction string

const (
	AuditEntryAdded     AuditAction = "ledger_entry_added"
	AuditEntryDeleted   AuditAction = "ledger_entry_deleted"
	AuditEntryRestored  AuditAction = "ledger_entry_restored"
	AuditRequestDeleted AuditAction = "request_deleted"
	AuditRequestRestore AuditAction = "request_restored"
	AuditAdminOverride  AuditAction = "admin_override"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	EmployeeID EmployeeID
	RequestID  RequestID
	Actions    []AuditAction
}

func (f AuditFilter) Matches(a AuditEntry) bool {
	if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
		return false
	}
	if f.RequestID != "" && a.RequestID != f.RequestID {
		return false
	}
	if len(f.Actions) > 0 {
		for _, act := range f.Actions {
			if a.Action == act {
				return true
			}
		}
		return false
	}
	return true
}
