/*
request.go - Leave request state machine

PURPOSE:
  Drives a leave request from creation to a terminal status: sequential
  approval along the resolved chain, admin override, suspension/resume,
  rejection, direct cancel, and the cancellation sub-workflow. Calls the
  ledger on every path that reaches APPROVED and when a cancellation is
  approved.

TRANSITIONS:
  create:              -> APPROVED | IN_PROGRESS | PENDING
  approve:             PENDING | IN_PROGRESS -> IN_PROGRESS | APPROVED
  reject:              PENDING | IN_PROGRESS | SUSPENDED -> REJECTED
  suspend:             PENDING | IN_PROGRESS -> SUSPENDED
  resume:              SUSPENDED -> IN_PROGRESS | APPROVED | PENDING
  cancel:              PENDING (unprocessed) -> CANCELLED
  request cancel:      PENDING | IN_PROGRESS | APPROVED -> CANCELLATION_REQUESTED
  approve cancel:      CANCELLATION_REQUESTED -> CANCELLED (or next approver)
  reject cancel:       CANCELLATION_REQUESTED -> previous status

ATOMICITY:
  Each transition locks the request's ledger key, then reads, mutates,
  writes the ledger and saves the request inside one Store.WithTx. A
  failed ledger write leaves the request untouched.

APPROVAL CHAIN:
  Resolved on demand before the transaction, truncated by the request's
  level count and single-approval flag. Never stored.

SEE ALSO:
  - chain.go: ApprovalChainResolver, TruncateChain
  - ledger.go: recordUsage / recordReversal / softDeleteRequest
  - conflict.go: advisory overlap warnings
*/
package timeoff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
)

// CancellationWindowMonths bounds how long after the leave ends an approved
// request can still be cancelled.
const CancellationWindowMonths = 6

// =============================================================================
// REQUEST SERVICE
// =============================================================================

type RequestService struct {
	ledger   *Ledger
	resolver ApprovalChainResolver
	logger   *zap.Logger
}

// NewRequestService shares the ledger's store, lock set and clock.
func NewRequestService(ledger *Ledger, resolver ApprovalChainResolver, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = StaticResolver{}
	}
	return &RequestService{
		ledger:   ledger,
		resolver: resolver,
		logger:   logger.Named("timeoff.requests"),
	}
}

// CreateRequestInput is what an actor submits.
type CreateRequestInput struct {
	EmployeeID  generic.EmployeeID
	LeaveTypeID generic.LeaveTypeID
	StartDate   generic.TimePoint
	EndDate     generic.TimePoint
	ReturnDate  generic.TimePoint // zero = day after EndDate
	IsHalfDay   bool
	IsHourly    bool
	Hours       decimal.Decimal
	Reason      string
}

// CreateResult carries the stored request and any advisory conflicts.
type CreateResult struct {
	Request   generic.LeaveRequest
	Conflicts []Conflict
}

// =============================================================================
// CREATE
// =============================================================================

func (rs *RequestService) Create(ctx context.Context, actor Actor, in CreateRequestInput) (CreateResult, error) {
	rs.logger.Debug("create leave request",
		zap.String("employee_id", string(in.EmployeeID)),
		zap.String("actor", string(actor.ID)),
	)
	if err := validateCreate(in); err != nil {
		rs.logger.Warn("invalid leave request", zap.Error(err))
		return CreateResult{}, err
	}

	chain, err := rs.resolver.Resolve(ctx, in.EmployeeID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("resolve approval chain: %w", err)
	}

	year := in.StartDate.Year()
	defer rs.ledger.locks.Lock(generic.LedgerKey(in.EmployeeID, year))()

	var result CreateResult
	err = rs.ledger.store.WithTx(ctx, func(s generic.Store) error {
		emp, err := s.GetEmployee(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if emp == nil {
			return generic.ErrEmployeeNotFound
		}
		company, err := s.GetCompany(ctx, emp.CompanyID)
		if err != nil {
			return err
		}
		if company == nil {
			return generic.ErrCompanyNotFound
		}
		isAdmin := CanActAsCompanyAdmin(actor, company)
		if actor.ID != generic.ActorID(emp.ID) && !isAdmin {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "create leave request", Reason: "not the employee or a company admin"}
		}
		lt, err := s.GetLeaveType(ctx, in.LeaveTypeID)
		if err != nil {
			return err
		}
		if lt == nil || lt.CompanyID != company.ID {
			return fmt.Errorf("%w: %s", generic.ErrInvalidLeaveType, in.LeaveTypeID)
		}

		now := rs.ledger.clock.now()
		req := &generic.LeaveRequest{
			ID:             generic.RequestID(uuid.NewString()),
			EmployeeID:     emp.ID,
			CompanyID:      company.ID,
			LeaveTypeID:    lt.ID,
			Classification: lt.Classification,
			StartDate:      in.StartDate,
			EndDate:        in.EndDate,
			ReturnDate:     in.ReturnDate,
			IsHalfDay:      in.IsHalfDay,
			IsHourly:       in.IsHourly,
			Hours:          in.Hours,
			Reason:         in.Reason,
			SingleApproval: lt.SingleApprovalSufficient,
			CreatedBy:      actor.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if req.ReturnDate.IsZero() {
			req.ReturnDate = in.EndDate.AddDays(1)
		}

		days, err := rs.size(ctx, s, req, emp, company, false)
		if err != nil {
			return err
		}
		// Only annual leave is charged; a sick weekend is still recorded.
		if !days.IsPositive() && req.IsAnnual() {
			return generic.ErrNoChargeableDays
		}
		req.RequestedDays = days
		req.CalculatedDays = days
		req.RequiredLevels = lt.LevelsFor(days)

		switch {
		case isAdmin:
			if err := rs.finalizeApproval(ctx, s, req, actor, "admin approved"); err != nil {
				return err
			}
		case !company.RequiresApproval:
			if err := rs.finalizeApproval(ctx, s, req, actor, "approval not required"); err != nil {
				return err
			}
		default:
			chain = TruncateChain(chain, req.RequiredLevels, req.SingleApproval)
			switch {
			case len(chain) > 0:
				req.Status = generic.StatusInProgress
				req.CurrentApprover = chain[0]
				rs.record(req, actor, generic.StatusInProgress, "submitted")
			case company.AutoApproveWithoutChain:
				if err := rs.finalizeApproval(ctx, s, req, actor, "auto-approved: no approvers"); err != nil {
					return err
				}
			default:
				req.Status = generic.StatusPending
				rs.record(req, actor, generic.StatusPending, "awaiting admin")
			}
		}

		existing, err := s.ListRequests(ctx, generic.RequestFilter{EmployeeID: emp.ID})
		if err != nil {
			return err
		}
		result.Conflicts = DetectConflicts(*req, existing)

		if err := s.SaveRequest(ctx, *req); err != nil {
			return err
		}
		result.Request = req.Clone()
		return nil
	})
	if err != nil {
		rs.logFailure("create", "", err)
		return CreateResult{}, err
	}

	rs.logger.Info("leave request created",
		zap.String("request_id", string(result.Request.ID)),
		zap.String("status", string(result.Request.Status)),
		zap.String("days", result.Request.RequestedDays.String()),
		zap.Int("conflicts", len(result.Conflicts)),
	)
	return result, nil
}

func validateCreate(in CreateRequestInput) error {
	if in.EmployeeID == "" {
		return &generic.ValidationError{Field: "employee_id", Message: "required"}
	}
	if in.LeaveTypeID == "" {
		return &generic.ValidationError{Field: "leave_type_id", Message: "required"}
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return &generic.ValidationError{Field: "start_date", Message: "start and end dates are required"}
	}
	if _, err := generic.NewPeriod(in.StartDate, in.EndDate); err != nil {
		return err
	}
	if in.IsHalfDay && in.IsHourly {
		return &generic.ValidationError{Field: "is_hourly", Message: "a request is either half-day or hourly"}
	}
	if (in.IsHalfDay || in.IsHourly) && !in.StartDate.Equal(in.EndDate) {
		return &generic.ValidationError{Field: "end_date", Message: "half-day and hourly requests span a single day"}
	}
	if in.IsHourly && !in.Hours.IsPositive() {
		return &generic.ValidationError{Field: "hours", Message: "must be positive"}
	}
	return nil
}

// =============================================================================
// SEQUENTIAL APPROVAL
// =============================================================================

// Approve advances the request one chain position, or finalizes it when an
// admin acts or the level count is met.
func (rs *RequestService) Approve(ctx context.Context, actor Actor, id generic.RequestID, note string) (generic.LeaveRequest, error) {
	return rs.transition(ctx, id, "approve", true, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, chain []generic.ActorID) error {
		switch req.Status {
		case generic.StatusPending, generic.StatusInProgress:
		default:
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "approve"}
		}

		if CanActAsCompanyAdmin(actor, company) {
			if err := rs.finalizeApproval(ctx, s, req, actor, orDefault(note, "admin override")); err != nil {
				return err
			}
			return s.AppendAudit(ctx, generic.AuditEntry{
				Timestamp:  rs.ledger.clock.now(),
				ActorID:    actor.ID,
				Action:     generic.AuditAdminOverride,
				EmployeeID: req.EmployeeID,
				RequestID:  req.ID,
				Payload:    map[string]any{"action": "approve"},
			})
		}

		if req.Status != generic.StatusInProgress || req.CurrentApprover == "" || actor.ID != req.CurrentApprover {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "approve", Reason: "not the current approver"}
		}

		chain = TruncateChain(chain, req.RequiredLevels, req.SingleApproval)
		pos := indexOf(chain, actor.ID)
		if pos < 0 {
			pos = req.ApprovalCount
		}
		req.ApprovalCount++

		if levelsMet(req.ApprovalCount, req.RequiredLevels, pos, len(chain), req.SingleApproval) {
			return rs.finalizeApproval(ctx, s, req, actor, note)
		}
		req.CurrentApprover = chain[pos+1]
		rs.record(req, actor, generic.StatusInProgress, note)
		return nil
	})
}

// levelsMet: the count reached the level requirement, this was the last
// chain position, or a single approval suffices.
func levelsMet(count, required, pos, chainLen int, single bool) bool {
	return single || (required > 0 && count >= required) || pos >= chainLen-1
}

// finalizeApproval moves the request to APPROVED, fixes its authoritative
// size, and debits the ledger for annual leave.
func (rs *RequestService) finalizeApproval(ctx context.Context, s generic.Store, req *generic.LeaveRequest, actor Actor, note string) error {
	req.Status = generic.StatusApproved
	req.CurrentApprover = ""
	req.SuspendedApprover = ""
	req.SuspendedFrom = ""

	if req.IsAnnual() {
		emp, err := s.GetEmployee(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if emp == nil {
			return generic.ErrEmployeeNotFound
		}
		company, err := s.GetCompany(ctx, req.CompanyID)
		if err != nil {
			return err
		}
		days, err := rs.size(ctx, s, req, emp, company, true)
		if err != nil {
			return err
		}
		req.CalculatedDays = days
		if _, err := rs.ledger.recordUsage(ctx, s, req, days); err != nil {
			return err
		}
	}
	rs.record(req, actor, generic.StatusApproved, note)
	return nil
}

// =============================================================================
// REJECT / SUSPEND / RESUME
// =============================================================================

func (rs *RequestService) Reject(ctx context.Context, actor Actor, id generic.RequestID, reason string) (generic.LeaveRequest, error) {
	if reason == "" {
		return generic.LeaveRequest{}, generic.ErrReasonRequired
	}
	return rs.transition(ctx, id, "reject", false, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, _ []generic.ActorID) error {
		switch req.Status {
		case generic.StatusPending, generic.StatusInProgress, generic.StatusSuspended:
		default:
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "reject"}
		}
		if !rs.isDecider(actor, req, company) {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "reject", Reason: "not the current approver"}
		}
		req.Status = generic.StatusRejected
		req.CurrentApprover = ""
		req.SuspendedApprover = ""
		req.SuspendedFrom = ""
		rs.record(req, actor, generic.StatusRejected, reason)
		return nil
	})
}

// Suspend pauses the request. The approver is kept for Resume.
func (rs *RequestService) Suspend(ctx context.Context, actor Actor, id generic.RequestID, note string) (generic.LeaveRequest, error) {
	return rs.transition(ctx, id, "suspend", false, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, _ []generic.ActorID) error {
		switch req.Status {
		case generic.StatusPending, generic.StatusInProgress:
		default:
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "suspend"}
		}
		if !rs.isDecider(actor, req, company) {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "suspend", Reason: "not the current approver"}
		}
		req.SuspendedFrom = req.Status
		req.SuspendedApprover = req.CurrentApprover
		req.CurrentApprover = ""
		req.Status = generic.StatusSuspended
		rs.record(req, actor, generic.StatusSuspended, note)
		return nil
	})
}

// Resume re-enters IN_PROGRESS with the held approver, or the next chain
// approver when none was held. An exhausted chain approves; an empty chain
// falls back to the company's creation policy.
func (rs *RequestService) Resume(ctx context.Context, actor Actor, id generic.RequestID, note string) (generic.LeaveRequest, error) {
	return rs.transition(ctx, id, "resume", true, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, chain []generic.ActorID) error {
		if req.Status != generic.StatusSuspended {
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "resume"}
		}
		if !rs.isDecider(actor, req, company) {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "resume", Reason: "not the held approver"}
		}

		approver := req.SuspendedApprover
		chain = TruncateChain(chain, req.RequiredLevels, req.SingleApproval)
		if approver == "" && req.ApprovalCount < len(chain) {
			approver = chain[req.ApprovalCount]
		}
		req.SuspendedApprover = ""
		req.SuspendedFrom = ""

		switch {
		case approver != "":
			req.Status = generic.StatusInProgress
			req.CurrentApprover = approver
			rs.record(req, actor, generic.StatusInProgress, note)
			return nil
		case len(chain) > 0, company == nil, !company.RequiresApproval, company.AutoApproveWithoutChain:
			return rs.finalizeApproval(ctx, s, req, actor, orDefault(note, "resumed: chain exhausted"))
		}
		req.Status = generic.StatusPending
		rs.record(req, actor, generic.StatusPending, note)
		return nil
	})
}

// =============================================================================
// CANCELLATION
// =============================================================================

// Cancel withdraws a request nobody has acted on yet.
func (rs *RequestService) Cancel(ctx context.Context, actor Actor, id generic.RequestID, note string) (generic.LeaveRequest, error) {
	return rs.transition(ctx, id, "cancel", false, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, _ []generic.ActorID) error {
		if !rs.isOwnerOrAdmin(actor, req, company) {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "cancel", Reason: "not the employee or a company admin"}
		}
		if !req.Unprocessed() {
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "cancel"}
		}
		req.Status = generic.StatusCancelled
		rs.record(req, actor, generic.StatusCancelled, note)
		return nil
	})
}

// RequestCancellation opens the cancellation sub-workflow. From PENDING or
// IN_PROGRESS the request moves to CANCELLATION_REQUESTED at once. From
// APPROVED a reason is required, the leave must have ended less than six
// months ago, and the cancellation walks its own approval chain.
func (rs *RequestService) RequestCancellation(ctx context.Context, actor Actor, id generic.RequestID, reason string) (generic.LeaveRequest, error) {
	return rs.transition(ctx, id, "request cancellation", true, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, chain []generic.ActorID) error {
		if !rs.isOwnerOrAdmin(actor, req, company) {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "request cancellation", Reason: "not the employee or a company admin"}
		}
		now := rs.ledger.clock.now()
		c := &generic.Cancellation{
			Reason:           reason,
			RequestedBy:      actor.ID,
			RequestedAt:      now,
			PreviousStatus:   req.Status,
			PreviousApprover: req.CurrentApprover,
		}

		switch req.Status {
		case generic.StatusPending, generic.StatusInProgress:
			c.CurrentApprover = req.CurrentApprover
			c.RequiredLevels = 1
		case generic.StatusApproved:
			if reason == "" {
				return generic.ErrReasonRequired
			}
			deadline := req.EndDate.AddMonths(CancellationWindowMonths)
			if rs.ledger.clock.today().After(deadline) {
				return fmt.Errorf("%w: leave ended %s", generic.ErrCancellationWindowClosed, req.EndDate)
			}
			chain = TruncateChain(chain, req.RequiredLevels, req.SingleApproval)
			if len(chain) > 0 {
				c.CurrentApprover = chain[0]
			}
			c.RequiredLevels = req.RequiredLevels
		default:
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "request cancellation"}
		}

		c.History = append(c.History, generic.HistoryEntry{
			Actor: actor.ID, Role: string(actor.Role), Status: generic.StatusCancellationRequested, Note: reason, At: now,
		})
		req.Cancellation = c
		req.CurrentApprover = ""
		req.Status = generic.StatusCancellationRequested
		rs.record(req, actor, generic.StatusCancellationRequested, reason)
		return nil
	})
}

// ApproveCancellation advances or completes the cancellation. Completion
// moves the request to CANCELLED and credits back annual leave usage.
func (rs *RequestService) ApproveCancellation(ctx context.Context, actor Actor, id generic.RequestID, note string) (generic.LeaveRequest, error) {
	return rs.transition(ctx, id, "approve cancellation", true, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, chain []generic.ActorID) error {
		c := req.Cancellation
		if req.Status != generic.StatusCancellationRequested || c == nil {
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "approve cancellation"}
		}

		if CanActAsCompanyAdmin(actor, company) {
			return rs.finalizeCancellation(ctx, s, req, actor, orDefault(note, "admin override"))
		}
		if c.CurrentApprover == "" || actor.ID != c.CurrentApprover {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "approve cancellation", Reason: "not the cancellation approver"}
		}

		if c.PreviousStatus != generic.StatusApproved {
			c.ApprovalCount++
			return rs.finalizeCancellation(ctx, s, req, actor, note)
		}

		chain = TruncateChain(chain, c.RequiredLevels, req.SingleApproval)
		pos := indexOf(chain, actor.ID)
		if pos < 0 {
			pos = c.ApprovalCount
		}
		c.ApprovalCount++
		if levelsMet(c.ApprovalCount, c.RequiredLevels, pos, len(chain), req.SingleApproval) {
			return rs.finalizeCancellation(ctx, s, req, actor, note)
		}
		c.CurrentApprover = chain[pos+1]
		c.History = append(c.History, generic.HistoryEntry{
			Actor: actor.ID, Role: string(actor.Role), Status: generic.StatusCancellationRequested, Note: note, At: rs.ledger.clock.now(),
		})
		req.UpdatedAt = rs.ledger.clock.now()
		return nil
	})
}

func (rs *RequestService) finalizeCancellation(ctx context.Context, s generic.Store, req *generic.LeaveRequest, actor Actor, note string) error {
	now := rs.ledger.clock.now()
	c := req.Cancellation
	c.CurrentApprover = ""
	c.Outcome = generic.CancellationApproved
	c.DecidedBy = actor.ID
	c.DecidedAt = &now
	c.History = append(c.History, generic.HistoryEntry{
		Actor: actor.ID, Role: string(actor.Role), Status: generic.StatusCancelled, Note: note, At: now,
	})

	if _, err := rs.ledger.recordReversal(ctx, s, req); err != nil {
		return err
	}
	req.Status = generic.StatusCancelled
	req.CurrentApprover = ""
	rs.record(req, actor, generic.StatusCancelled, note)
	return nil
}

// RejectCancellation restores the status the request had before the
// cancellation was requested. The ledger is not touched.
func (rs *RequestService) RejectCancellation(ctx context.Context, actor Actor, id generic.RequestID, reason string) (generic.LeaveRequest, error) {
	if reason == "" {
		return generic.LeaveRequest{}, generic.ErrReasonRequired
	}
	return rs.transition(ctx, id, "reject cancellation", false, func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, _ []generic.ActorID) error {
		c := req.Cancellation
		if req.Status != generic.StatusCancellationRequested || c == nil {
			return &generic.TransitionError{RequestID: req.ID, From: req.Status, Action: "reject cancellation"}
		}
		if !CanActAsCompanyAdmin(actor, company) && (c.CurrentApprover == "" || actor.ID != c.CurrentApprover) {
			return &generic.AuthorizationError{Actor: actor.ID, Action: "reject cancellation", Reason: "not the cancellation approver"}
		}

		now := rs.ledger.clock.now()
		c.CurrentApprover = ""
		c.Outcome = generic.CancellationRejected
		c.DecidedBy = actor.ID
		c.DecidedAt = &now
		c.RejectionReason = reason
		c.History = append(c.History, generic.HistoryEntry{
			Actor: actor.ID, Role: string(actor.Role), Status: c.PreviousStatus, Note: reason, At: now,
		})

		req.Status = c.PreviousStatus
		if req.Status == generic.StatusInProgress {
			req.CurrentApprover = c.PreviousApprover
		}
		rs.record(req, actor, req.Status, reason)
		return nil
	})
}

// =============================================================================
// SOFT DELETE / RESTORE
// =============================================================================

// Delete soft-deletes the request and every ledger entry referencing it. Admin only.
func (rs *RequestService) Delete(ctx context.Context, actor Actor, id generic.RequestID, reason string) error {
	if reason == "" {
		return generic.ErrReasonRequired
	}
	err := rs.locked(ctx, id, func(s generic.Store, req *generic.LeaveRequest) error {
		if err := requireCompanyAdmin(ctx, s, actor, req.CompanyID, "delete leave request"); err != nil {
			return err
		}
		if req.IsDeleted() {
			return fmt.Errorf("%w: request %s already deleted", generic.ErrConflict, req.ID)
		}
		del := &generic.Deletion{By: actor.ID, At: rs.ledger.clock.now(), Reason: reason}
		if err := rs.ledger.softDeleteRequest(ctx, s, req, del); err != nil {
			return err
		}
		return s.AppendAudit(ctx, generic.AuditEntry{
			Timestamp:  del.At,
			ActorID:    actor.ID,
			Action:     generic.AuditRequestDeleted,
			EmployeeID: req.EmployeeID,
			RequestID:  req.ID,
			Payload:    map[string]any{"reason": reason},
		})
	})
	if err != nil {
		rs.logFailure("delete", id, err)
		return err
	}
	rs.logger.Info("leave request deleted", zap.String("request_id", string(id)), zap.String("actor", string(actor.ID)))
	return nil
}

// Restore reverses Delete. Admin only.
func (rs *RequestService) Restore(ctx context.Context, actor Actor, id generic.RequestID) error {
	err := rs.locked(ctx, id, func(s generic.Store, req *generic.LeaveRequest) error {
		if err := requireCompanyAdmin(ctx, s, actor, req.CompanyID, "restore leave request"); err != nil {
			return err
		}
		if !req.IsDeleted() {
			return fmt.Errorf("%w: request %s is not deleted", generic.ErrConflict, req.ID)
		}
		if err := rs.ledger.restoreRequest(ctx, s, req); err != nil {
			return err
		}
		return s.AppendAudit(ctx, generic.AuditEntry{
			Timestamp:  rs.ledger.clock.now(),
			ActorID:    actor.ID,
			Action:     generic.AuditRequestRestore,
			EmployeeID: req.EmployeeID,
			RequestID:  req.ID,
		})
	})
	if err != nil {
		rs.logFailure("restore", id, err)
		return err
	}
	rs.logger.Info("leave request restored", zap.String("request_id", string(id)), zap.String("actor", string(actor.ID)))
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (rs *RequestService) Get(ctx context.Context, id generic.RequestID) (generic.LeaveRequest, error) {
	req, err := rs.ledger.store.GetRequest(ctx, id)
	if err != nil {
		return generic.LeaveRequest{}, err
	}
	if req == nil || req.IsDeleted() {
		return generic.LeaveRequest{}, generic.ErrRequestNotFound
	}
	return *req, nil
}

func (rs *RequestService) List(ctx context.Context, filter generic.RequestFilter) ([]generic.LeaveRequest, error) {
	return rs.ledger.store.ListRequests(ctx, filter)
}

// =============================================================================
// HELPERS
// =============================================================================

type transitionFunc func(s generic.Store, req *generic.LeaveRequest, company *generic.Company, chain []generic.ActorID) error

// transition runs fn on a live request under the ledger lock and saves the
// result. The approval chain is resolved before the lock when needsChain is
// set, so resolvers may read the store freely.
func (rs *RequestService) transition(ctx context.Context, id generic.RequestID, action string, needsChain bool, fn transitionFunc) (generic.LeaveRequest, error) {
	rs.logger.Debug(action, zap.String("request_id", string(id)))

	var chain []generic.ActorID
	if needsChain {
		peek, err := rs.ledger.store.GetRequest(ctx, id)
		if err != nil {
			return generic.LeaveRequest{}, err
		}
		if peek != nil {
			if chain, err = rs.resolver.Resolve(ctx, peek.EmployeeID); err != nil {
				return generic.LeaveRequest{}, fmt.Errorf("resolve approval chain: %w", err)
			}
		}
	}

	var out generic.LeaveRequest
	err := rs.locked(ctx, id, func(s generic.Store, req *generic.LeaveRequest) error {
		if req.IsDeleted() {
			return generic.ErrRequestNotFound
		}
		company, err := s.GetCompany(ctx, req.CompanyID)
		if err != nil {
			return err
		}
		if err := fn(s, req, company, append([]generic.ActorID(nil), chain...)); err != nil {
			return err
		}
		if err := s.SaveRequest(ctx, *req); err != nil {
			return err
		}
		out = req.Clone()
		return nil
	})
	if err != nil {
		rs.logFailure(action, id, err)
		return generic.LeaveRequest{}, err
	}
	rs.logger.Info("leave request "+action,
		zap.String("request_id", string(id)),
		zap.String("status", string(out.Status)),
		zap.String("current_approver", string(out.CurrentApprover)),
	)
	return out, nil
}

// locked loads the request (deleted included), takes its ledger lock and
// runs fn inside a transaction against a fresh copy.
func (rs *RequestService) locked(ctx context.Context, id generic.RequestID, fn func(s generic.Store, req *generic.LeaveRequest) error) error {
	peek, err := rs.ledger.store.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if peek == nil {
		return generic.ErrRequestNotFound
	}
	defer rs.ledger.locks.Lock(generic.LedgerKey(peek.EmployeeID, peek.Year()))()

	return rs.ledger.store.WithTx(ctx, func(s generic.Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return generic.ErrRequestNotFound
		}
		return fn(s, req)
	})
}

// size computes chargeable days with the employee's resolved weekend and,
// when withHolidays is set, the company holiday calendar.
func (rs *RequestService) size(ctx context.Context, s generic.Store, req *generic.LeaveRequest, emp *generic.Employee, company *generic.Company, withHolidays bool) (decimal.Decimal, error) {
	var dept *generic.Department
	if emp.DepartmentID != "" {
		d, err := s.GetDepartment(ctx, emp.DepartmentID)
		if err != nil {
			return decimal.Zero, err
		}
		dept = d
	}
	in := DayCount{
		Start:     req.StartDate,
		End:       req.EndDate,
		Weekend:   ResolveWeekend(emp, dept, company),
		IsHalfDay: req.IsHalfDay,
		IsHourly:  req.IsHourly,
		Hours:     req.Hours,
		CompanyID: req.CompanyID,
	}
	if company != nil {
		in.Policy = company.DeductionPolicy
		in.PrimaryWeekendDay = company.PrimaryWeekendDay
	}
	if withHolidays {
		hs, err := s.HolidaysFor(ctx, req.CompanyID)
		if err != nil {
			return decimal.Zero, err
		}
		in.Holidays = hs
	}
	return ChargeableDays(in), nil
}

func (rs *RequestService) record(req *generic.LeaveRequest, actor Actor, status generic.RequestStatus, note string) {
	req.AppendHistory(generic.HistoryEntry{
		Actor:  actor.ID,
		Role:   string(actor.Role),
		Status: status,
		Note:   note,
		At:     rs.ledger.clock.now(),
	})
}

// isDecider: an admin of the company, the current approver, or the approver
// held by a suspension.
func (rs *RequestService) isDecider(actor Actor, req *generic.LeaveRequest, company *generic.Company) bool {
	if CanActAsCompanyAdmin(actor, company) {
		return true
	}
	if req.CurrentApprover != "" && actor.ID == req.CurrentApprover {
		return true
	}
	return req.SuspendedApprover != "" && actor.ID == req.SuspendedApprover
}

func (rs *RequestService) isOwnerOrAdmin(actor Actor, req *generic.LeaveRequest, company *generic.Company) bool {
	return actor.ID == generic.ActorID(req.EmployeeID) || CanActAsCompanyAdmin(actor, company)
}

func (rs *RequestService) logFailure(action string, id generic.RequestID, err error) {
	fields := []zap.Field{zap.String("action", action), zap.String("request_id", string(id)), zap.Error(err)}
	if generic.IsClientError(err) {
		rs.logger.Warn("leave request rejected", fields...)
		return
	}
	rs.logger.Error("leave request failed", fields...)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
