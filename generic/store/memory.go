// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	st *state
}

type state struct {
	seq         int64
	entries     map[generic.EntryID]generic.LedgerEntry
	requests    map[generic.RequestID]generic.LeaveRequest
	companies   map[generic.CompanyID]generic.Company
	departments map[generic.DepartmentID]generic.Department
	employees   map[generic.EmployeeID]generic.Employee
	leaveTypes  map[generic.LeaveTypeID]generic.LeaveType
	holidays    []generic.Holiday
	audit       []generic.AuditEntry
}

func newState() *state {
	return &state{
		entries:     make(map[generic.EntryID]generic.LedgerEntry),
		requests:    make(map[generic.RequestID]generic.LeaveRequest),
		companies:   make(map[generic.CompanyID]generic.Company),
		departments: make(map[generic.DepartmentID]generic.Department),
		employees:   make(map[generic.EmployeeID]generic.Employee),
		leaveTypes:  make(map[generic.LeaveTypeID]generic.LeaveType),
	}
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

var _ generic.Store = (*Memory)(nil)

// --- entries -----------------------------------------------------------------

func (m *Memory) AppendEntry(ctx context.Context, e generic.LedgerEntry) (generic.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.AppendEntry(ctx, e)
}

func (m *Memory) GetEntry(ctx context.Context, id generic.EntryID) (*generic.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetEntry(ctx, id)
}

func (m *Memory) ListEntries(ctx context.Context, f generic.EntryFilter) ([]generic.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListEntries(ctx, f)
}

func (m *Memory) SetBalances(ctx context.Context, balances map[generic.EntryID]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SetBalances(ctx, balances)
}

func (m *Memory) SetEntryDeleted(ctx context.Context, id generic.EntryID, del *generic.Deletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SetEntryDeleted(ctx, id, del)
}

// --- requests ----------------------------------------------------------------

func (m *Memory) SaveRequest(ctx context.Context, r generic.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveRequest(ctx, r)
}

func (m *Memory) GetRequest(ctx context.Context, id generic.RequestID) (*generic.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetRequest(ctx, id)
}

func (m *Memory) ListRequests(ctx context.Context, f generic.RequestFilter) ([]generic.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListRequests(ctx, f)
}

// --- directory ---------------------------------------------------------------

func (m *Memory) GetCompany(ctx context.Context, id generic.CompanyID) (*generic.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetCompany(ctx, id)
}

func (m *Memory) GetDepartment(ctx context.Context, id generic.DepartmentID) (*generic.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetDepartment(ctx, id)
}

func (m *Memory) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetEmployee(ctx, id)
}

func (m *Memory) ListEmployees(ctx context.Context, companyID generic.CompanyID) ([]generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListEmployees(ctx, companyID)
}

func (m *Memory) GetLeaveType(ctx context.Context, id generic.LeaveTypeID) (*generic.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetLeaveType(ctx, id)
}

func (m *Memory) HolidaysFor(ctx context.Context, companyID generic.CompanyID) (generic.HolidaySet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.HolidaysFor(ctx, companyID)
}

func (m *Memory) SaveCompany(ctx context.Context, c generic.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveCompany(ctx, c)
}

func (m *Memory) SaveDepartment(ctx context.Context, d generic.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveDepartment(ctx, d)
}

func (m *Memory) SaveEmployee(ctx context.Context, e generic.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveEmployee(ctx, e)
}

func (m *Memory) SaveLeaveType(ctx context.Context, lt generic.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveLeaveType(ctx, lt)
}

func (m *Memory) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveHoliday(ctx, h)
}

// --- audit -------------------------------------------------------------------

func (m *Memory) AppendAudit(ctx context.Context, a generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.AppendAudit(ctx, a)
}

func (m *Memory) QueryAudit(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.QueryAudit(ctx, f)
}

// =============================================================================
// STATE - Unlocked operations shared by Memory and the tx view
// =============================================================================

func (s *state) AppendEntry(_ context.Context, e generic.LedgerEntry) (generic.LedgerEntry, error) {
	if err := s.checkUnique(e, ""); err != nil {
		return generic.LedgerEntry{}, err
	}
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.seq++
	e.Seq = s.seq
	s.entries[e.ID] = e
	return e, nil
}

// checkUnique enforces the two idempotency keys over non-deleted entries.
func (s *state) checkUnique(e generic.LedgerEntry, self generic.EntryID) error {
	if e.IsDeleted() {
		return nil
	}
	for id, other := range s.entries {
		if id == self || other.IsDeleted() || other.Kind != e.Kind {
			continue
		}
		switch e.Kind {
		case generic.EntryEntitlement:
			if other.EmployeeID == e.EmployeeID && other.Year == e.Year {
				return &generic.DuplicateEntryError{Kind: e.Kind, EmployeeID: e.EmployeeID, Year: e.Year}
			}
		case generic.EntryUsed:
			if e.RequestID != "" && other.RequestID == e.RequestID {
				return &generic.DuplicateEntryError{Kind: e.Kind, EmployeeID: e.EmployeeID, Year: e.Year, RequestID: e.RequestID}
			}
		}
	}
	return nil
}

func (s *state) GetEntry(_ context.Context, id generic.EntryID) (*generic.LedgerEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *state) ListEntries(_ context.Context, f generic.EntryFilter) ([]generic.LedgerEntry, error) {
	var out []generic.LedgerEntry
	for _, e := range s.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	generic.SortEntries(out)
	return out, nil
}

func (s *state) SetBalances(_ context.Context, balances map[generic.EntryID]decimal.Decimal) error {
	for id, b := range balances {
		e, ok := s.entries[id]
		if !ok {
			return generic.ErrEntryNotFound
		}
		e.Balance = b
		s.entries[id] = e
	}
	return nil
}

func (s *state) SetEntryDeleted(_ context.Context, id generic.EntryID, del *generic.Deletion) error {
	e, ok := s.entries[id]
	if !ok {
		return generic.ErrEntryNotFound
	}
	if del == nil {
		restored := e
		restored.Deleted = nil
		if err := s.checkUnique(restored, id); err != nil {
			return err
		}
		s.entries[id] = restored
		return nil
	}
	d := *del
	e.Deleted = &d
	s.entries[id] = e
	return nil
}

func (s *state) SaveRequest(_ context.Context, r generic.LeaveRequest) error {
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *state) GetRequest(_ context.Context, id generic.RequestID) (*generic.LeaveRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	c := r.Clone()
	return &c, nil
}

func (s *state) ListRequests(_ context.Context, f generic.RequestFilter) ([]generic.LeaveRequest, error) {
	var out []generic.LeaveRequest
	for _, r := range s.requests {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *state) GetCompany(_ context.Context, id generic.CompanyID) (*generic.Company, error) {
	c, ok := s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *state) GetDepartment(_ context.Context, id generic.DepartmentID) (*generic.Department, error) {
	d, ok := s.departments[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *state) GetEmployee(_ context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *state) ListEmployees(_ context.Context, companyID generic.CompanyID) ([]generic.Employee, error) {
	var out []generic.Employee
	for _, e := range s.employees {
		if companyID == "" || e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) GetLeaveType(_ context.Context, id generic.LeaveTypeID) (*generic.LeaveType, error) {
	lt, ok := s.leaveTypes[id]
	if !ok {
		return nil, nil
	}
	return &lt, nil
}

func (s *state) HolidaysFor(_ context.Context, companyID generic.CompanyID) (generic.HolidaySet, error) {
	var out generic.HolidaySet
	for _, h := range s.holidays {
		if h.CompanyID == "" || h.CompanyID == companyID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *state) SaveCompany(_ context.Context, c generic.Company) error {
	s.companies[c.ID] = c
	return nil
}

func (s *state) SaveDepartment(_ context.Context, d generic.Department) error {
	s.departments[d.ID] = d
	return nil
}

func (s *state) SaveEmployee(_ context.Context, e generic.Employee) error {
	s.employees[e.ID] = e
	return nil
}

func (s *state) SaveLeaveType(_ context.Context, lt generic.LeaveType) error {
	s.leaveTypes[lt.ID] = lt
	return nil
}

func (s *state) SaveHoliday(_ context.Context, h generic.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	for i, existing := range s.holidays {
		if existing.ID == h.ID {
			s.holidays[i] = h
			return nil
		}
	}
	s.holidays = append(s.holidays, h)
	return nil
}

func (s *state) AppendAudit(_ context.Context, a generic.AuditEntry) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.audit = append(s.audit, a)
	return nil
}

func (s *state) QueryAudit(_ context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	var out []generic.AuditEntry
	for _, a := range s.audit {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

var _ generic.TxStore = (*TxMemory)(nil)

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// fn must only use the store it is given.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.st.clone()

	if err := fn(tm.st); err != nil {
		tm.st = snapshot
		return err
	}
	return nil
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.entries {
		if v.Deleted != nil {
			d := *v.Deleted
			v.Deleted = &d
		}
		c.entries[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v.Clone()
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.departments {
		c.departments[k] = v
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.leaveTypes {
		c.leaveTypes[k] = v
	}
	c.holidays = append([]generic.Holiday(nil), s.holidays...)
	c.audit = append([]generic.AuditEntry(nil), s.audit...)
	return c
}
