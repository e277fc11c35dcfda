/*
Package sqlite provides a SQLite-backed implementation of generic.TxStore.

PURPOSE:
  Persists ledger entries, leave requests, the tenant directory, holidays
  and the audit log. In production the same patterns apply to PostgreSQL,
  with only minor SQL dialect differences.

KEY TABLES:
  ledger_entries: Credit/debit lines per (employee, year). Soft delete only.
  leave_requests: Request state; history and cancellation as JSON columns
  companies, departments, employees, leave_types, holidays: directory
  audit_log:      Who did what, append-only

IDEMPOTENCY KEYS:
  Two partial unique indexes close the races the services re-check for:
  - idx_unique_entitlement: one live ENTITLEMENT per (employee, year)
  - idx_unique_usage:       one live USED entry per leave request
  Violations surface as *generic.DuplicateEntryError.

ORDERING:
  seq is an AUTOINCREMENT primary key, so (entry_date, seq) is the replay
  order. Dates are stored as YYYY-MM-DD and sort lexically.

TRANSACTIONS:
  Every query is written against the dbtx interface; WithTx hands fn a
  queries value bound to the *sql.Tx, so reads inside a transaction see
  its own writes. Writers are serialized by a mutex, readers are not.
  A transaction that loses the database lock to another process (busy
  timeout expired) fails with generic.ErrConcurrentModification.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/generic"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
	mu sync.Mutex
}

var _ generic.TxStore = (*Store)(nil)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements generic.Store against any dbtx.
type queries struct {
	db dbtx
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{queries: queries{db: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ledger_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		entry_date TEXT NOT NULL,
		kind TEXT NOT NULL,
		credit TEXT NOT NULL,
		debit TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		request_id TEXT,
		note TEXT,
		is_system INTEGER NOT NULL DEFAULT 0,
		created_by TEXT,
		created_at TEXT NOT NULL,
		deleted_by TEXT,
		deleted_at TEXT,
		delete_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_employee_year
		ON ledger_entries(employee_id, year, entry_date, seq);
	CREATE INDEX IF NOT EXISTS idx_ledger_request
		ON ledger_entries(request_id) WHERE request_id IS NOT NULL;

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_entitlement
		ON ledger_entries(employee_id, year)
		WHERE kind = 'ENTITLEMENT' AND deleted_at IS NULL;

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_usage
		ON ledger_entries(request_id)
		WHERE kind = 'USED' AND deleted_at IS NULL AND request_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		classification TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		return_date TEXT,
		is_half_day INTEGER NOT NULL DEFAULT 0,
		is_hourly INTEGER NOT NULL DEFAULT 0,
		hours TEXT NOT NULL DEFAULT '0',
		requested_days TEXT NOT NULL,
		calculated_days TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		current_approver TEXT,
		suspended_approver TEXT,
		suspended_from TEXT,
		approval_count INTEGER NOT NULL DEFAULT 0,
		required_levels INTEGER NOT NULL DEFAULT 0,
		single_approval INTEGER NOT NULL DEFAULT 0,
		history_json TEXT,
		cancellation_json TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_by TEXT,
		deleted_at TEXT,
		delete_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_company_status
		ON leave_requests(company_id, status);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		dealer_id TEXT,
		name TEXT NOT NULL,
		requires_approval INTEGER NOT NULL DEFAULT 1,
		auto_approve_without_chain INTEGER NOT NULL DEFAULT 0,
		weekend_json TEXT,
		primary_weekend_day INTEGER,
		deduction_policy TEXT
	);

	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		manager_id TEXT,
		weekend_json TEXT
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		department_id TEXT,
		manager_id TEXT,
		name TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		birth_date TEXT,
		weekend_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_employees_company ON employees(company_id);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		classification TEXT NOT NULL,
		required_levels INTEGER NOT NULL DEFAULT 0,
		escalation_threshold_days TEXT NOT NULL DEFAULT '0',
		single_approval_sufficient INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		company_id TEXT,
		holiday_date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_company ON holidays(company_id);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		ts TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		employee_id TEXT,
		request_id TEXT,
		entry_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_employee ON audit_log(employee_id);
	CREATE INDEX IF NOT EXISTS idx_audit_request ON audit_log(request_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
// fn must only use the store it is given.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lockError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return lockError(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return lockError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Reset deletes all data. Used by tests and the demo seed.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{
		"ledger_entries", "leave_requests", "companies", "departments",
		"employees", "leave_types", "holidays", "audit_log",
	} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// LEDGER ENTRIES (generic.EntryStore)
// =============================================================================

const entryColumns = `seq, id, employee_id, company_id, year, entry_date, kind, credit, debit,
	balance, request_id, note, is_system, created_by, created_at, deleted_by, deleted_at, delete_reason`

func (q *queries) AppendEntry(ctx context.Context, e generic.LedgerEntry) (generic.LedgerEntry, error) {
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ledger_entries
		(id, employee_id, company_id, year, entry_date, kind, credit, debit, balance,
		 request_id, note, is_system, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := q.db.ExecContext(ctx, query,
		e.ID, e.EmployeeID, e.CompanyID, e.Year, e.Date.String(), e.Kind,
		e.Credit.String(), e.Debit.String(), e.Balance.String(),
		nullString(string(e.RequestID)), e.Note, e.System, string(e.CreatedBy),
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.LedgerEntry{}, &generic.DuplicateEntryError{
				Kind: e.Kind, EmployeeID: e.EmployeeID, Year: e.Year, RequestID: e.RequestID,
			}
		}
		return generic.LedgerEntry{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return generic.LedgerEntry{}, fmt.Errorf("failed to read entry seq: %w", err)
	}
	e.Seq = seq
	return e, nil
}

func (q *queries) GetEntry(ctx context.Context, id generic.EntryID) (*generic.LedgerEntry, error) {
	entries, err := q.queryEntries(ctx, "SELECT "+entryColumns+" FROM ledger_entries WHERE id = ?", id)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (q *queries) ListEntries(ctx context.Context, f generic.EntryFilter) ([]generic.LedgerEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, f.Year)
	}
	if f.RequestID != "" {
		where = append(where, "request_id = ?")
		args = append(args, f.RequestID)
	}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if len(f.Kinds) > 0 {
		where = append(where, "kind IN ("+placeholders(len(f.Kinds))+")")
		for _, k := range f.Kinds {
			args = append(args, string(k))
		}
	}

	query := "SELECT " + entryColumns + " FROM ledger_entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entry_date ASC, seq ASC"
	return q.queryEntries(ctx, query, args...)
}

func (q *queries) SetBalances(ctx context.Context, balances map[generic.EntryID]decimal.Decimal) error {
	for id, b := range balances {
		res, err := q.db.ExecContext(ctx, "UPDATE ledger_entries SET balance = ? WHERE id = ?", b.String(), id)
		if err != nil {
			return fmt.Errorf("failed to set balance: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return generic.ErrEntryNotFound
		}
	}
	return nil
}

func (q *queries) SetEntryDeleted(ctx context.Context, id generic.EntryID, del *generic.Deletion) error {
	e, err := q.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return generic.ErrEntryNotFound
	}

	if del == nil {
		_, err = q.db.ExecContext(ctx,
			"UPDATE ledger_entries SET deleted_by = NULL, deleted_at = NULL, delete_reason = NULL WHERE id = ?", id)
	} else {
		_, err = q.db.ExecContext(ctx,
			"UPDATE ledger_entries SET deleted_by = ?, deleted_at = ?, delete_reason = ? WHERE id = ?",
			string(del.By), del.At.Format(time.RFC3339Nano), del.Reason, id)
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.DuplicateEntryError{Kind: e.Kind, EmployeeID: e.EmployeeID, Year: e.Year, RequestID: e.RequestID}
		}
		return fmt.Errorf("failed to update entry deletion: %w", err)
	}
	return nil
}

func (q *queries) queryEntries(ctx context.Context, query string, args ...any) ([]generic.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (generic.LedgerEntry, error) {
	var (
		e                      generic.LedgerEntry
		date, createdAt        string
		credit, debit, balance string
		requestID, note        sql.NullString
		createdBy              sql.NullString
		deletedBy, deletedAt   sql.NullString
		deleteReason           sql.NullString
	)
	err := rows.Scan(
		&e.Seq, &e.ID, &e.EmployeeID, &e.CompanyID, &e.Year, &date, &e.Kind,
		&credit, &debit, &balance, &requestID, &note, &e.System, &createdBy,
		&createdAt, &deletedBy, &deletedAt, &deleteReason,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	e.Date = parseDate(date)
	e.Credit = parseDecimal(credit)
	e.Debit = parseDecimal(debit)
	e.Balance = parseDecimal(balance)
	e.RequestID = generic.RequestID(requestID.String)
	e.Note = note.String
	e.CreatedBy = generic.ActorID(createdBy.String)
	e.CreatedAt = parseTime(createdAt)
	if deletedAt.Valid {
		e.Deleted = &generic.Deletion{
			By:     generic.ActorID(deletedBy.String),
			At:     parseTime(deletedAt.String),
			Reason: deleteReason.String,
		}
	}
	return e, nil
}

// =============================================================================
// LEAVE REQUESTS (generic.RequestStore)
// =============================================================================

const requestColumns = `id, employee_id, company_id, leave_type_id, classification, start_date, end_date,
	return_date, is_half_day, is_hourly, hours, requested_days, calculated_days, reason, status,
	current_approver, suspended_approver, suspended_from, approval_count, required_levels,
	single_approval, history_json, cancellation_json, created_by, created_at, updated_at,
	deleted_by, deleted_at, delete_reason`

func (q *queries) SaveRequest(ctx context.Context, r generic.LeaveRequest) error {
	historyJSON, err := json.Marshal(r.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	var cancellationJSON sql.NullString
	if r.Cancellation != nil {
		b, err := json.Marshal(r.Cancellation)
		if err != nil {
			return fmt.Errorf("failed to encode cancellation: %w", err)
		}
		cancellationJSON = sql.NullString{String: string(b), Valid: true}
	}
	var deletedBy, deletedAt, deleteReason sql.NullString
	if r.Deleted != nil {
		deletedBy = nullString(string(r.Deleted.By))
		deletedAt = nullString(r.Deleted.At.Format(time.RFC3339Nano))
		deleteReason = sql.NullString{String: r.Deleted.Reason, Valid: true}
	}

	query := `
		INSERT INTO leave_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			return_date = excluded.return_date,
			calculated_days = excluded.calculated_days,
			status = excluded.status,
			current_approver = excluded.current_approver,
			suspended_approver = excluded.suspended_approver,
			suspended_from = excluded.suspended_from,
			approval_count = excluded.approval_count,
			required_levels = excluded.required_levels,
			history_json = excluded.history_json,
			cancellation_json = excluded.cancellation_json,
			updated_at = excluded.updated_at,
			deleted_by = excluded.deleted_by,
			deleted_at = excluded.deleted_at,
			delete_reason = excluded.delete_reason
	`
	_, err = q.db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.CompanyID, r.LeaveTypeID, r.Classification,
		r.StartDate.String(), r.EndDate.String(), nullString(r.ReturnDate.String()),
		r.IsHalfDay, r.IsHourly, r.Hours.String(), r.RequestedDays.String(), r.CalculatedDays.String(),
		r.Reason, r.Status, nullString(string(r.CurrentApprover)), nullString(string(r.SuspendedApprover)),
		nullString(string(r.SuspendedFrom)), r.ApprovalCount, r.RequiredLevels, r.SingleApproval,
		string(historyJSON), cancellationJSON, string(r.CreatedBy),
		r.CreatedAt.Format(time.RFC3339Nano), r.UpdatedAt.Format(time.RFC3339Nano),
		deletedBy, deletedAt, deleteReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave request: %w", err)
	}
	return nil
}

func (q *queries) GetRequest(ctx context.Context, id generic.RequestID) (*generic.LeaveRequest, error) {
	reqs, err := q.queryRequests(ctx, "SELECT "+requestColumns+" FROM leave_requests WHERE id = ?", id)
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return &reqs[0], nil
}

func (q *queries) ListRequests(ctx context.Context, f generic.RequestFilter) ([]generic.LeaveRequest, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}

	query := "SELECT " + requestColumns + " FROM leave_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date ASC, created_at ASC"
	return q.queryRequests(ctx, query, args...)
}

func (q *queries) queryRequests(ctx context.Context, query string, args ...any) ([]generic.LeaveRequest, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var reqs []generic.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

func scanRequest(rows *sql.Rows) (generic.LeaveRequest, error) {
	var (
		r                                    generic.LeaveRequest
		startDate, endDate                   string
		returnDate, reason                   sql.NullString
		hours, requestedDays, calculatedDays string
		currentApprover, suspendedApprover   sql.NullString
		suspendedFrom                        sql.NullString
		historyJSON, cancellationJSON        sql.NullString
		createdBy                            sql.NullString
		createdAt, updatedAt                 string
		deletedBy, deletedAt, deleteReason   sql.NullString
	)
	err := rows.Scan(
		&r.ID, &r.EmployeeID, &r.CompanyID, &r.LeaveTypeID, &r.Classification,
		&startDate, &endDate, &returnDate, &r.IsHalfDay, &r.IsHourly, &hours,
		&requestedDays, &calculatedDays, &reason, &r.Status,
		&currentApprover, &suspendedApprover, &suspendedFrom,
		&r.ApprovalCount, &r.RequiredLevels, &r.SingleApproval,
		&historyJSON, &cancellationJSON, &createdBy, &createdAt, &updatedAt,
		&deletedBy, &deletedAt, &deleteReason,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan leave request: %w", err)
	}

	r.StartDate = parseDate(startDate)
	r.EndDate = parseDate(endDate)
	if returnDate.Valid {
		r.ReturnDate = parseDate(returnDate.String)
	}
	r.Hours = parseDecimal(hours)
	r.RequestedDays = parseDecimal(requestedDays)
	r.CalculatedDays = parseDecimal(calculatedDays)
	r.Reason = reason.String
	r.CurrentApprover = generic.ActorID(currentApprover.String)
	r.SuspendedApprover = generic.ActorID(suspendedApprover.String)
	r.SuspendedFrom = generic.RequestStatus(suspendedFrom.String)
	r.CreatedBy = generic.ActorID(createdBy.String)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)

	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &r.History); err != nil {
			return r, fmt.Errorf("failed to decode history of %s: %w", r.ID, err)
		}
	}
	if cancellationJSON.Valid && cancellationJSON.String != "" {
		var c generic.Cancellation
		if err := json.Unmarshal([]byte(cancellationJSON.String), &c); err != nil {
			return r, fmt.Errorf("failed to decode cancellation of %s: %w", r.ID, err)
		}
		r.Cancellation = &c
	}
	if deletedAt.Valid {
		r.Deleted = &generic.Deletion{
			By:     generic.ActorID(deletedBy.String),
			At:     parseTime(deletedAt.String),
			Reason: deleteReason.String,
		}
	}
	return r, nil
}

// =============================================================================
// DIRECTORY (generic.Directory)
// =============================================================================

func (q *queries) SaveCompany(ctx context.Context, c generic.Company) error {
	query := `
		INSERT INTO companies (id, dealer_id, name, requires_approval, auto_approve_without_chain,
			weekend_json, primary_weekend_day, deduction_policy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dealer_id = excluded.dealer_id,
			name = excluded.name,
			requires_approval = excluded.requires_approval,
			auto_approve_without_chain = excluded.auto_approve_without_chain,
			weekend_json = excluded.weekend_json,
			primary_weekend_day = excluded.primary_weekend_day,
			deduction_policy = excluded.deduction_policy
	`
	var primary sql.NullInt64
	if c.PrimaryWeekendDay != nil {
		primary = sql.NullInt64{Int64: int64(*c.PrimaryWeekendDay), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, query,
		c.ID, nullString(string(c.DealerID)), c.Name, c.RequiresApproval, c.AutoApproveWithoutChain,
		encodeWeekend(c.WeekendDays), primary, string(c.DeductionPolicy),
	)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (q *queries) GetCompany(ctx context.Context, id generic.CompanyID) (*generic.Company, error) {
	var (
		c        generic.Company
		dealerID sql.NullString
		weekend  sql.NullString
		primary  sql.NullInt64
		policy   sql.NullString
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, dealer_id, name, requires_approval, auto_approve_without_chain,
			weekend_json, primary_weekend_day, deduction_policy
		FROM companies WHERE id = ?`, id,
	).Scan(&c.ID, &dealerID, &c.Name, &c.RequiresApproval, &c.AutoApproveWithoutChain, &weekend, &primary, &policy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	c.DealerID = generic.DealerID(dealerID.String)
	c.WeekendDays = decodeWeekend(weekend)
	if primary.Valid {
		d := time.Weekday(primary.Int64)
		c.PrimaryWeekendDay = &d
	}
	c.DeductionPolicy = generic.DeductionPolicy(policy.String)
	return &c, nil
}

func (q *queries) SaveDepartment(ctx context.Context, d generic.Department) error {
	query := `
		INSERT INTO departments (id, company_id, name, manager_id, weekend_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			manager_id = excluded.manager_id,
			weekend_json = excluded.weekend_json
	`
	_, err := q.db.ExecContext(ctx, query,
		d.ID, d.CompanyID, d.Name, nullString(string(d.ManagerID)), encodeWeekend(d.WeekendDays))
	if err != nil {
		return fmt.Errorf("failed to save department: %w", err)
	}
	return nil
}

func (q *queries) GetDepartment(ctx context.Context, id generic.DepartmentID) (*generic.Department, error) {
	var (
		d         generic.Department
		managerID sql.NullString
		weekend   sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		"SELECT id, company_id, name, manager_id, weekend_json FROM departments WHERE id = ?", id,
	).Scan(&d.ID, &d.CompanyID, &d.Name, &managerID, &weekend)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	d.ManagerID = generic.EmployeeID(managerID.String)
	d.WeekendDays = decodeWeekend(weekend)
	return &d, nil
}

const employeeColumns = "id, company_id, department_id, manager_id, name, hire_date, birth_date, weekend_json"

func (q *queries) SaveEmployee(ctx context.Context, e generic.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			department_id = excluded.department_id,
			manager_id = excluded.manager_id,
			name = excluded.name,
			hire_date = excluded.hire_date,
			birth_date = excluded.birth_date,
			weekend_json = excluded.weekend_json
	`
	var birth sql.NullString
	if e.BirthDate != nil {
		birth = nullString(e.BirthDate.String())
	}
	_, err := q.db.ExecContext(ctx, query,
		e.ID, e.CompanyID, nullString(string(e.DepartmentID)), nullString(string(e.ManagerID)),
		e.Name, e.HireDate.String(), birth, encodeWeekend(e.WeekendDays),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (q *queries) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	emps, err := q.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	if err != nil || len(emps) == 0 {
		return nil, err
	}
	return &emps[0], nil
}

func (q *queries) ListEmployees(ctx context.Context, companyID generic.CompanyID) ([]generic.Employee, error) {
	if companyID == "" {
		return q.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	}
	return q.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees WHERE company_id = ? ORDER BY id", companyID)
}

func (q *queries) queryEmployees(ctx context.Context, query string, args ...any) ([]generic.Employee, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var emps []generic.Employee
	for rows.Next() {
		var (
			e                  generic.Employee
			deptID, managerID  sql.NullString
			hireDate           string
			birthDate, weekend sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &deptID, &managerID, &e.Name, &hireDate, &birthDate, &weekend); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		e.DepartmentID = generic.DepartmentID(deptID.String)
		e.ManagerID = generic.EmployeeID(managerID.String)
		e.HireDate = parseDate(hireDate)
		if birthDate.Valid {
			b := parseDate(birthDate.String)
			e.BirthDate = &b
		}
		e.WeekendDays = decodeWeekend(weekend)
		emps = append(emps, e)
	}
	return emps, rows.Err()
}

func (q *queries) SaveLeaveType(ctx context.Context, lt generic.LeaveType) error {
	query := `
		INSERT INTO leave_types (id, company_id, name, classification, required_levels,
			escalation_threshold_days, single_approval_sufficient)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			classification = excluded.classification,
			required_levels = excluded.required_levels,
			escalation_threshold_days = excluded.escalation_threshold_days,
			single_approval_sufficient = excluded.single_approval_sufficient
	`
	_, err := q.db.ExecContext(ctx, query,
		lt.ID, lt.CompanyID, lt.Name, lt.Classification, lt.RequiredLevels,
		lt.EscalationThresholdDays.String(), lt.SingleApprovalSufficient,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

func (q *queries) GetLeaveType(ctx context.Context, id generic.LeaveTypeID) (*generic.LeaveType, error) {
	var (
		lt        generic.LeaveType
		threshold string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, classification, required_levels,
			escalation_threshold_days, single_approval_sufficient
		FROM leave_types WHERE id = ?`, id,
	).Scan(&lt.ID, &lt.CompanyID, &lt.Name, &lt.Classification, &lt.RequiredLevels, &threshold, &lt.SingleApprovalSufficient)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave type: %w", err)
	}
	lt.EscalationThresholdDays = parseDecimal(threshold)
	return &lt, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (q *queries) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	query := `
		INSERT INTO holidays (id, company_id, holiday_date, name, recurring)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			holiday_date = excluded.holiday_date,
			name = excluded.name,
			recurring = excluded.recurring
	`
	_, err := q.db.ExecContext(ctx, query, h.ID, nullString(string(h.CompanyID)), h.Date.String(), h.Name, h.Recurring)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// HolidaysFor returns the company's holidays plus the global ones.
func (q *queries) HolidaysFor(ctx context.Context, companyID generic.CompanyID) (generic.HolidaySet, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, company_id, holiday_date, name, recurring
		FROM holidays
		WHERE company_id IS NULL OR company_id = ?
		ORDER BY holiday_date`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out generic.HolidaySet
	for rows.Next() {
		var (
			h       generic.Holiday
			company sql.NullString
			date    string
		)
		if err := rows.Scan(&h.ID, &company, &date, &h.Name, &h.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.CompanyID = generic.CompanyID(company.String)
		h.Date = parseDate(date)
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT LOG (generic.AuditLog)
// =============================================================================

func (q *queries) AppendAudit(ctx context.Context, a generic.AuditEntry) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	var payload sql.NullString
	if len(a.Payload) > 0 {
		b, err := json.Marshal(a.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, ts, actor_id, action, employee_id, request_id, entry_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Timestamp.Format(time.RFC3339Nano), string(a.ActorID), string(a.Action),
		nullString(string(a.EmployeeID)), nullString(string(a.RequestID)), nullString(string(a.EntryID)), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (q *queries) QueryAudit(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.RequestID != "" {
		where = append(where, "request_id = ?")
		args = append(args, f.RequestID)
	}
	if len(f.Actions) > 0 {
		where = append(where, "action IN ("+placeholders(len(f.Actions))+")")
		for _, a := range f.Actions {
			args = append(args, string(a))
		}
	}
	query := "SELECT id, ts, actor_id, action, employee_id, request_id, entry_id, payload_json FROM audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []generic.AuditEntry
	for rows.Next() {
		var (
			a                     generic.AuditEntry
			ts                    string
			employeeID, requestID sql.NullString
			entryID, payload      sql.NullString
		)
		if err := rows.Scan(&a.ID, &ts, &a.ActorID, &a.Action, &employeeID, &requestID, &entryID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		a.Timestamp = parseTime(ts)
		a.EmployeeID = generic.EmployeeID(employeeID.String)
		a.RequestID = generic.RequestID(requestID.String)
		a.EntryID = generic.EntryID(entryID.String)
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &a.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode audit payload: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func parseDate(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// encodeWeekend keeps nil (inherit) distinct from an empty set (no weekend).
func encodeWeekend(s generic.WeekdaySet) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	b, _ := json.Marshal(append([]int{}, s.Ints()...))
	return sql.NullString{String: string(b), Valid: true}
}

func decodeWeekend(ns sql.NullString) generic.WeekdaySet {
	if !ns.Valid {
		return nil
	}
	var days []int
	if err := json.Unmarshal([]byte(ns.String), &days); err != nil {
		return nil
	}
	set := generic.WeekdaySetFromInts(days)
	if set == nil {
		set = generic.WeekdaySet{}
	}
	return set
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// lockError marks SQLITE_BUSY / SQLITE_LOCKED as generic.ErrConcurrentModification:
// another connection (or process) held the write lock past the busy timeout.
func lockError(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", generic.ErrConcurrentModification, err)
	}
	return err
}
