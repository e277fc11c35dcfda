/*
ledger.go - Annual leave Ledger Engine

PURPOSE:
  Owns the per-(employee, year) ledger: makes sure the yearly entitlement
  exists, records usage when annual leave is approved, records reversals
  when an approved leave is cancelled, recomputes running balances, and
  answers "what is my balance?".

CONCURRENCY:
  Every write path locks generic.LedgerKey(employee, year) and then runs
  inside Store.WithTx, so read -> recompute -> persist never interleaves
  with another write to the same balance. The store's uniqueness keys on
  (employee, year, ENTITLEMENT) and (request, USED) close the remaining
  race; a duplicate reported by the store is absorbed as a no-op.

FAILURE SEMANTICS:
  Reads degrade: an unknown employee yields a zero balance, not an error.
  Writes fail loudly: RecordUsage / RecordReversal on an unknown employee
  return ErrEmployeeNotFound. Usage of zero days (holidays covering the
  whole span) writes no entry. A reversal is dated today, clamped into the
  year of the usage it reverses.

INTERNAL VS PUBLIC:
  Lower-case methods take the store of an open transaction and assume the
  caller holds the ledger lock. The state machine calls those from inside
  its own transaction. Public methods lock, open a transaction and
  delegate.

SEE ALSO:
  - accrual.go: EntitlementDays
  - generic/ledger.go: Replay / Recalculate
  - request.go: Calls recordUsage / recordReversal on transitions
*/
package timeoff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// LEDGER ENGINE
// =============================================================================

type Ledger struct {
	store  generic.TxStore
	locks  *generic.KeyedLocker
	clock  Clock
	logger *zap.Logger
	group  singleflight.Group

	// OnAnomaly receives every recompute anomaly. Optional.
	OnAnomaly func(generic.Anomaly)
}

type LedgerOption func(*Ledger)

func WithClock(c Clock) LedgerOption               { return func(l *Ledger) { l.clock = c } }
func WithLogger(z *zap.Logger) LedgerOption        { return func(l *Ledger) { l.logger = z } }
func WithLocker(k *generic.KeyedLocker) LedgerOption { return func(l *Ledger) { l.locks = k } }

func NewLedger(store generic.TxStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{store: store}
	for _, opt := range opts {
		opt(l)
	}
	if l.locks == nil {
		l.locks = generic.NewKeyedLocker()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.Named("timeoff.ledger")
	return l
}

// EmployeeBalance is the dashboard view of an employee's annual leave.
type EmployeeBalance struct {
	EmployeeID  generic.EmployeeID
	Year        int
	Entitlement decimal.Decimal
	Used        decimal.Decimal
	Remaining   decimal.Decimal
	Seniority   int
	Age         int // AgeUnknown when no birth date is on file
	Anomalies   []generic.Anomaly
}

// =============================================================================
// PUBLIC OPERATIONS
// =============================================================================

// EnsureEntitlementEntry credits the year's entitlement once the hire
// anniversary for that year has arrived. It returns the entry it created,
// or nil when there was nothing to do.
func (l *Ledger) EnsureEntitlementEntry(ctx context.Context, employeeID generic.EmployeeID, year int) (*generic.LedgerEntry, error) {
	defer l.locks.Lock(generic.LedgerKey(employeeID, year))()

	var created *generic.LedgerEntry
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		emp, err := s.GetEmployee(ctx, employeeID)
		if err != nil || emp == nil {
			return err
		}
		created, err = l.ensureEntitlement(ctx, s, *emp, year)
		if err != nil || created == nil {
			return err
		}
		_, err = l.recalculate(ctx, s, employeeID, year)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecalculateBalances replays (employee, year) and persists running balances.
func (l *Ledger) RecalculateBalances(ctx context.Context, employeeID generic.EmployeeID, year int) (generic.ReplayResult, error) {
	defer l.locks.Lock(generic.LedgerKey(employeeID, year))()

	var res generic.ReplayResult
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		var err error
		res, err = l.recalculate(ctx, s, employeeID, year)
		return err
	})
	return res, err
}

// RecordUsage debits an approved annual leave request. Idempotent per request.
func (l *Ledger) RecordUsage(ctx context.Context, req *generic.LeaveRequest, days decimal.Decimal) (*generic.LedgerEntry, error) {
	defer l.locks.Lock(generic.LedgerKey(req.EmployeeID, req.Year()))()

	var entry *generic.LedgerEntry
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		var err error
		entry, err = l.recordUsage(ctx, s, req, days)
		return err
	})
	return entry, err
}

// RecordReversal credits back the USED entry of a cancelled annual leave request.
func (l *Ledger) RecordReversal(ctx context.Context, req *generic.LeaveRequest) (*generic.LedgerEntry, error) {
	defer l.locks.Lock(generic.LedgerKey(req.EmployeeID, req.Year()))()

	var entry *generic.LedgerEntry
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		var err error
		entry, err = l.recordReversal(ctx, s, req)
		return err
	})
	return entry, err
}

// CurrentBalance ensures this year's entitlement, recomputes, and sums the
// annual-leave entries. Unknown employees yield a zero balance.
func (l *Ledger) CurrentBalance(ctx context.Context, employeeID generic.EmployeeID) (generic.Balance, error) {
	year := l.clock.today().Year()
	defer l.locks.Lock(generic.LedgerKey(employeeID, year))()

	bal := generic.Summarize(employeeID, year, nil, nil)
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		emp, err := s.GetEmployee(ctx, employeeID)
		if err != nil || emp == nil {
			return err
		}
		if _, err := l.ensureEntitlement(ctx, s, *emp, year); err != nil {
			return err
		}
		res, err := l.recalculate(ctx, s, employeeID, year)
		if err != nil {
			return err
		}
		annual, err := annualRequests(ctx, s, employeeID)
		if err != nil {
			return err
		}
		bal = generic.Summarize(employeeID, year, res.Entries, func(id generic.RequestID) bool { return annual[id] })
		bal.Anomalies = res.Anomalies
		return nil
	})
	if err != nil {
		return generic.Summarize(employeeID, year, nil, nil), err
	}
	return bal, nil
}

// EmployeeLeaveBalance is CurrentBalance plus seniority and age. Concurrent
// calls for the same employee share one computation.
func (l *Ledger) EmployeeLeaveBalance(ctx context.Context, employeeID generic.EmployeeID) (EmployeeBalance, error) {
	// Waiters share the call, so one caller's cancellation must not fail the rest.
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(string(employeeID), func() (interface{}, error) {
		return l.employeeLeaveBalance(shared, employeeID)
	})
	if err != nil {
		return EmployeeBalance{EmployeeID: employeeID, Age: AgeUnknown}, err
	}
	return v.(EmployeeBalance), nil
}

func (l *Ledger) employeeLeaveBalance(ctx context.Context, employeeID generic.EmployeeID) (EmployeeBalance, error) {
	today := l.clock.today()
	out := EmployeeBalance{
		EmployeeID:  employeeID,
		Year:        today.Year(),
		Entitlement: decimal.Zero,
		Used:        decimal.Zero,
		Remaining:   decimal.Zero,
		Age:         AgeUnknown,
	}

	emp, err := l.store.GetEmployee(ctx, employeeID)
	if err != nil {
		l.logger.Warn("employee lookup failed", zap.String("employee_id", string(employeeID)), zap.Error(err))
		return out, nil
	}
	if emp == nil {
		return out, nil
	}

	bal, err := l.CurrentBalance(ctx, employeeID)
	if err != nil {
		return out, err
	}
	out.Entitlement = bal.Entitlement
	out.Used = bal.Used
	out.Remaining = bal.Remaining
	out.Anomalies = bal.Anomalies
	out.Seniority = SeniorityAt(*emp, today)
	out.Age = AgeAt(*emp, today)
	return out, nil
}

// Entries recomputes and returns the ledger of (employee, year), deleted entries included.
func (l *Ledger) Entries(ctx context.Context, employeeID generic.EmployeeID, year int) ([]generic.LedgerEntry, []generic.Anomaly, error) {
	res, err := l.RecalculateBalances(ctx, employeeID, year)
	if err != nil {
		return nil, nil, err
	}
	all, err := l.store.ListEntries(ctx, generic.EntryFilter{EmployeeID: employeeID, Year: year, IncludeDeleted: true})
	if err != nil {
		return nil, nil, err
	}
	return all, res.Anomalies, nil
}

// AddCarryover credits days carried into year. Admin only.
func (l *Ledger) AddCarryover(ctx context.Context, actor Actor, employeeID generic.EmployeeID, year int, days decimal.Decimal, note string) (*generic.LedgerEntry, error) {
	if !days.IsPositive() {
		return nil, &generic.ValidationError{Field: "days", Message: "carryover must be positive"}
	}
	return l.addManual(ctx, actor, employeeID, year, generic.EntryCarryover, days, decimal.Zero, generic.StartOfYear(year), note)
}

// AddAdjustment credits (positive) or debits (negative) a manual correction. Admin only.
func (l *Ledger) AddAdjustment(ctx context.Context, actor Actor, employeeID generic.EmployeeID, year int, signedDays decimal.Decimal, note string) (*generic.LedgerEntry, error) {
	if signedDays.IsZero() {
		return nil, &generic.ValidationError{Field: "days", Message: "adjustment must not be zero"}
	}
	if note == "" {
		return nil, generic.ErrReasonRequired
	}
	credit, debit := decimal.Zero, decimal.Zero
	if signedDays.IsPositive() {
		credit = signedDays
	} else {
		debit = signedDays.Neg()
	}
	return l.addManual(ctx, actor, employeeID, year, generic.EntryAdjustment, credit, debit, clampToYear(l.clock.today(), year), note)
}

func (l *Ledger) addManual(ctx context.Context, actor Actor, employeeID generic.EmployeeID, year int, kind generic.EntryKind, credit, debit decimal.Decimal, date generic.TimePoint, note string) (*generic.LedgerEntry, error) {
	defer l.locks.Lock(generic.LedgerKey(employeeID, year))()

	var entry generic.LedgerEntry
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		emp, err := s.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if emp == nil {
			return generic.ErrEmployeeNotFound
		}
		if err := requireCompanyAdmin(ctx, s, actor, emp.CompanyID, "add "+string(kind)); err != nil {
			return err
		}
		entry, err = s.AppendEntry(ctx, generic.LedgerEntry{
			ID:         newEntryID(),
			EmployeeID: employeeID,
			CompanyID:  emp.CompanyID,
			Year:       year,
			Date:       date,
			Kind:       kind,
			Credit:     credit,
			Debit:      debit,
			Note:       note,
			CreatedBy:  actor.ID,
			CreatedAt:  l.clock.now(),
		})
		if err != nil {
			return err
		}
		if err := s.AppendAudit(ctx, generic.AuditEntry{
			Timestamp:  l.clock.now(),
			ActorID:    actor.ID,
			Action:     generic.AuditEntryAdded,
			EmployeeID: employeeID,
			EntryID:    entry.ID,
			Payload:    map[string]any{"kind": string(kind), "credit": credit.String(), "debit": debit.String()},
		}); err != nil {
			return err
		}
		_, err = l.recalculate(ctx, s, employeeID, year)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("manual ledger entry added",
		zap.String("employee_id", string(employeeID)),
		zap.String("kind", string(kind)),
		zap.Int("year", year),
	)
	return &entry, nil
}

// DeleteEntry soft-deletes a ledger entry. Deleting a USED entry also
// soft-deletes its originating request (and every entry referencing it).
func (l *Ledger) DeleteEntry(ctx context.Context, actor Actor, entryID generic.EntryID, reason string) error {
	if reason == "" {
		return generic.ErrReasonRequired
	}
	return l.withEntryLock(ctx, entryID, func(s generic.Store, e *generic.LedgerEntry) error {
		if err := requireCompanyAdmin(ctx, s, actor, e.CompanyID, "delete ledger entry"); err != nil {
			return err
		}
		if e.IsDeleted() {
			return fmt.Errorf("%w: ledger entry %s already deleted", generic.ErrConflict, e.ID)
		}
		del := &generic.Deletion{By: actor.ID, At: l.clock.now(), Reason: reason}

		if e.Kind == generic.EntryUsed && e.RequestID != "" {
			req, err := s.GetRequest(ctx, e.RequestID)
			if err != nil {
				return err
			}
			if req != nil && !req.IsDeleted() {
				if err := l.softDeleteRequest(ctx, s, req, del); err != nil {
					return err
				}
			}
		}
		// Cascade may already have marked it.
		current, err := s.GetEntry(ctx, e.ID)
		if err != nil {
			return err
		}
		if current != nil && !current.IsDeleted() {
			if err := s.SetEntryDeleted(ctx, e.ID, del); err != nil {
				return err
			}
		}
		if err := s.AppendAudit(ctx, generic.AuditEntry{
			Timestamp:  del.At,
			ActorID:    actor.ID,
			Action:     generic.AuditEntryDeleted,
			EmployeeID: e.EmployeeID,
			RequestID:  e.RequestID,
			EntryID:    e.ID,
			Payload:    map[string]any{"reason": reason},
		}); err != nil {
			return err
		}
		_, err = l.recalculate(ctx, s, e.EmployeeID, e.Year)
		return err
	})
}

// RestoreEntry reverses DeleteEntry, restoring the originating request of a USED entry too.
func (l *Ledger) RestoreEntry(ctx context.Context, actor Actor, entryID generic.EntryID) error {
	return l.withEntryLock(ctx, entryID, func(s generic.Store, e *generic.LedgerEntry) error {
		if err := requireCompanyAdmin(ctx, s, actor, e.CompanyID, "restore ledger entry"); err != nil {
			return err
		}
		if !e.IsDeleted() {
			return fmt.Errorf("%w: ledger entry %s is not deleted", generic.ErrConflict, e.ID)
		}
		if e.Kind == generic.EntryUsed && e.RequestID != "" {
			req, err := s.GetRequest(ctx, e.RequestID)
			if err != nil {
				return err
			}
			if req != nil && req.IsDeleted() {
				if err := l.restoreRequest(ctx, s, req); err != nil {
					return err
				}
			}
		}
		current, err := s.GetEntry(ctx, e.ID)
		if err != nil {
			return err
		}
		if current != nil && current.IsDeleted() {
			if err := s.SetEntryDeleted(ctx, e.ID, nil); err != nil {
				return err
			}
		}
		if err := s.AppendAudit(ctx, generic.AuditEntry{
			Timestamp:  l.clock.now(),
			ActorID:    actor.ID,
			Action:     generic.AuditEntryRestored,
			EmployeeID: e.EmployeeID,
			RequestID:  e.RequestID,
			EntryID:    e.ID,
		}); err != nil {
			return err
		}
		_, err = l.recalculate(ctx, s, e.EmployeeID, e.Year)
		return err
	})
}

func (l *Ledger) withEntryLock(ctx context.Context, entryID generic.EntryID, fn func(generic.Store, *generic.LedgerEntry) error) error {
	peek, err := l.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if peek == nil {
		return generic.ErrEntryNotFound
	}
	defer l.locks.Lock(generic.LedgerKey(peek.EmployeeID, peek.Year))()

	return l.store.WithTx(ctx, func(s generic.Store) error {
		e, err := s.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if e == nil {
			return generic.ErrEntryNotFound
		}
		return fn(s, e)
	})
}

// =============================================================================
// IN-TRANSACTION OPERATIONS (caller holds the ledger lock)
// =============================================================================

func (l *Ledger) ensureEntitlement(ctx context.Context, s generic.Store, emp generic.Employee, year int) (*generic.LedgerEntry, error) {
	if emp.HireDate.IsZero() || emp.HireDate.Year() > year {
		return nil, nil
	}
	anniversary := generic.AnniversaryIn(emp.HireDate, year)
	if anniversary.After(l.clock.today()) {
		return nil, nil
	}
	existing, err := s.ListEntries(ctx, generic.EntryFilter{
		EmployeeID: emp.ID,
		Year:       year,
		Kinds:      []generic.EntryKind{generic.EntryEntitlement},
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	seniority := SeniorityAt(emp, anniversary)
	age := AgeAt(emp, anniversary)
	days := EntitlementDays(seniority, age)

	entry, err := s.AppendEntry(ctx, generic.LedgerEntry{
		ID:         newEntryID(),
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Year:       year,
		Date:       anniversary,
		Kind:       generic.EntryEntitlement,
		Credit:     decimal.NewFromInt(int64(days)),
		Debit:      decimal.Zero,
		Note:       fmt.Sprintf("annual entitlement: %d years of service", seniority),
		System:     true,
		CreatedBy:  generic.SystemActor,
		CreatedAt:  l.clock.now(),
	})
	if err != nil {
		if generic.IsConflict(err) {
			return nil, nil
		}
		return nil, err
	}
	l.logger.Info("entitlement credited",
		zap.String("employee_id", string(emp.ID)),
		zap.Int("year", year),
		zap.Int("seniority", seniority),
		zap.Int("days", days),
	)
	return &entry, nil
}

func (l *Ledger) recalculate(ctx context.Context, s generic.Store, employeeID generic.EmployeeID, year int) (generic.ReplayResult, error) {
	res, err := generic.Recalculate(ctx, s, employeeID, year)
	if err != nil {
		return res, err
	}
	for _, a := range res.Anomalies {
		l.logger.Warn("ledger anomaly skipped during recompute",
			zap.String("employee_id", string(a.EmployeeID)),
			zap.Int("year", a.Year),
			zap.String("entry_id", string(a.EntryID)),
			zap.String("kind", string(a.Kind)),
			zap.String("credit", a.Credit.String()),
			zap.String("debit", a.Debit.String()),
		)
		if l.OnAnomaly != nil {
			l.OnAnomaly(a)
		}
	}
	return res, nil
}

func (l *Ledger) recordUsage(ctx context.Context, s generic.Store, req *generic.LeaveRequest, days decimal.Decimal) (*generic.LedgerEntry, error) {
	if !req.IsAnnual() {
		return nil, nil
	}
	// Holidays can cover the whole span at final approval: nothing to debit.
	if !days.IsPositive() {
		l.logger.Info("usage not recorded: no chargeable days",
			zap.String("request_id", string(req.ID)),
			zap.String("days", days.String()),
		)
		return nil, nil
	}
	emp, err := s.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, generic.ErrEmployeeNotFound
	}

	existing, err := s.ListEntries(ctx, generic.EntryFilter{RequestID: req.ID, Kinds: []generic.EntryKind{generic.EntryUsed}})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		l.logger.Debug("usage already recorded", zap.String("request_id", string(req.ID)))
		return &existing[0], nil
	}

	entry, err := s.AppendEntry(ctx, generic.LedgerEntry{
		ID:         newEntryID(),
		EmployeeID: req.EmployeeID,
		CompanyID:  emp.CompanyID,
		Year:       req.Year(),
		Date:       req.StartDate,
		Kind:       generic.EntryUsed,
		Credit:     decimal.Zero,
		Debit:      days,
		RequestID:  req.ID,
		Note:       fmt.Sprintf("leave %s", req.Period()),
		System:     true,
		CreatedBy:  generic.SystemActor,
		CreatedAt:  l.clock.now(),
	})
	if err != nil {
		if generic.IsConflict(err) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := l.recalculate(ctx, s, req.EmployeeID, req.Year()); err != nil {
		return nil, err
	}
	l.logger.Info("usage recorded",
		zap.String("request_id", string(req.ID)),
		zap.String("employee_id", string(req.EmployeeID)),
		zap.String("days", days.String()),
	)
	return &entry, nil
}

func (l *Ledger) recordReversal(ctx context.Context, s generic.Store, req *generic.LeaveRequest) (*generic.LedgerEntry, error) {
	if !req.IsAnnual() {
		return nil, nil
	}
	emp, err := s.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, generic.ErrEmployeeNotFound
	}

	linked, err := s.ListEntries(ctx, generic.EntryFilter{
		RequestID: req.ID,
		Kinds:     []generic.EntryKind{generic.EntryUsed, generic.EntryReversal},
	})
	if err != nil {
		return nil, err
	}
	var used *generic.LedgerEntry
	for i := range linked {
		switch linked[i].Kind {
		case generic.EntryReversal:
			return &linked[i], nil
		case generic.EntryUsed:
			used = &linked[i]
		}
	}
	if used == nil {
		return nil, nil
	}

	entry, err := s.AppendEntry(ctx, generic.LedgerEntry{
		ID:         newEntryID(),
		EmployeeID: used.EmployeeID,
		CompanyID:  used.CompanyID,
		Year:       used.Year,
		Date:       clampToYear(l.clock.today(), used.Year),
		Kind:       generic.EntryReversal,
		Credit:     used.Debit,
		Debit:      decimal.Zero,
		RequestID:  req.ID,
		Note:       fmt.Sprintf("reversal of %s", used.ID),
		System:     true,
		CreatedBy:  generic.SystemActor,
		CreatedAt:  l.clock.now(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := l.recalculate(ctx, s, used.EmployeeID, used.Year); err != nil {
		return nil, err
	}
	l.logger.Info("usage reversed",
		zap.String("request_id", string(req.ID)),
		zap.String("days", used.Debit.String()),
	)
	return &entry, nil
}

// softDeleteRequest marks the request and every entry referencing it, then recomputes.
func (l *Ledger) softDeleteRequest(ctx context.Context, s generic.Store, req *generic.LeaveRequest, del *generic.Deletion) error {
	d := *del
	req.Deleted = &d
	req.UpdatedAt = del.At
	if err := s.SaveRequest(ctx, *req); err != nil {
		return err
	}
	entries, err := s.ListEntries(ctx, generic.EntryFilter{RequestID: req.ID})
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.SetEntryDeleted(ctx, e.ID, del); err != nil {
			return err
		}
	}
	_, err = l.recalculate(ctx, s, req.EmployeeID, req.Year())
	return err
}

// restoreRequest clears the request's deletion and restores its entries, then recomputes.
func (l *Ledger) restoreRequest(ctx context.Context, s generic.Store, req *generic.LeaveRequest) error {
	req.Deleted = nil
	req.UpdatedAt = l.clock.now()
	if err := s.SaveRequest(ctx, *req); err != nil {
		return err
	}
	entries, err := s.ListEntries(ctx, generic.EntryFilter{RequestID: req.ID, IncludeDeleted: true})
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDeleted() {
			continue
		}
		if err := s.SetEntryDeleted(ctx, e.ID, nil); err != nil {
			return err
		}
	}
	_, err = l.recalculate(ctx, s, req.EmployeeID, req.Year())
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func newEntryID() generic.EntryID { return generic.EntryID(uuid.NewString()) }

// annualRequests maps every request of the employee (deleted included) to its annual flag.
func annualRequests(ctx context.Context, s generic.Store, employeeID generic.EmployeeID) (map[generic.RequestID]bool, error) {
	reqs, err := s.ListRequests(ctx, generic.RequestFilter{EmployeeID: employeeID, IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	out := make(map[generic.RequestID]bool, len(reqs))
	for _, r := range reqs {
		out[r.ID] = r.IsAnnual()
	}
	return out, nil
}

func requireCompanyAdmin(ctx context.Context, s generic.Store, actor Actor, companyID generic.CompanyID, action string) error {
	company, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if !CanActAsCompanyAdmin(actor, company) {
		return &generic.AuthorizationError{Actor: actor.ID, Action: action, Reason: "requires company admin"}
	}
	return nil
}

// clampToYear keeps entries of a year dated inside it.
func clampToYear(d generic.TimePoint, year int) generic.TimePoint {
	span := generic.Period{Start: generic.StartOfYear(year), End: generic.EndOfYear(year)}
	switch {
	case span.Contains(d):
		return d
	case d.Before(span.Start):
		return span.Start
	}
	return span.End
}
