/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the ledger and the leave request workflow via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to timeoff.

ENDPOINTS:
  Balance / ledger:
    GET    /api/employees/{id}/balance                 Current-year balance
    GET    /api/employees/{id}/ledger?year=            Entries after recompute
    GET    /api/employees/{id}/ledger/export?year=     Same, as xlsx
    POST   /api/employees/{id}/ledger/recalculate      Explicit recompute
    POST   /api/employees/{id}/ledger/carryover        Manual carryover (admin)
    POST   /api/employees/{id}/ledger/adjustments      Manual adjustment (admin)
    DELETE /api/ledger/{entryID}                       Soft delete (admin)
    POST   /api/ledger/{entryID}/restore               Restore (admin)

  Leave requests:
    GET    /api/employees/{id}/leave-requests          Requests of an employee
    GET    /api/leave-requests/pending                 Waiting on the caller
    POST   /api/leave-requests                         Create (+ conflict warnings)
    GET    /api/leave-requests/{id}
    POST   /api/leave-requests/{id}/{action}           approve, reject, suspend, resume, cancel
    POST   /api/leave-requests/{id}/cancellation       Request cancellation
    POST   /api/leave-requests/{id}/cancellation/{approve|reject}
    DELETE /api/leave-requests/{id}                    Soft delete (admin)
    POST   /api/leave-requests/{id}/restore            Restore (admin)

  Directory:
    PUT    /api/companies/{id}, /api/departments/{id}, /api/employees/{id},
           /api/leave-types/{id}
    POST   /api/holidays
    POST   /api/admin/seed                             Whole org document (super admin)

REQUEST FLOW:
  1. Authenticate middleware puts the actor on the context
  2. Decode + validate the body
  3. Call timeoff (which authorizes state changes itself)
  4. Serialize response
  5. Map errors by class (errors.go)

READ ACCESS:
  Reads are allowed to the employee, company admins over the employee's
  company, and department managers of the same company. The approver a
  request is waiting on may read it too.

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error class -> HTTP status
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

const maxSeedBytes = 4 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    generic.TxStore
	Ledger   *timeoff.Ledger
	Requests *timeoff.RequestService

	// Now picks the default ledger year. Defaults to time.Now.
	Now func() time.Time

	logger *zap.Logger
}

// NewHandler creates a new handler over services sharing store.
func NewHandler(store generic.TxStore, ledger *timeoff.Ledger, requests *timeoff.RequestService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Ledger:   ledger,
		Requests: requests,
		Now:      time.Now,
		logger:   logger.Named("api"),
	}
}

// Health reports store reachability.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, CodeInternal, "store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// BALANCE / LEDGER HANDLERS
// =============================================================================

// GetBalance returns the current-year balance.
// GET /api/employees/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	if err := h.authorizeView(ctx, actorOf(r), empID); err != nil {
		h.writeError(w, r, err)
		return
	}
	bal, err := h.Ledger.EmployeeLeaveBalance(ctx, empID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(bal))
}

// GetLedger returns the recomputed ledger of one year, deleted entries included.
// GET /api/employees/{id}/ledger?year=
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	year, err := h.yearParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeView(ctx, actorOf(r), empID); err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, anomalies, err := h.Ledger.Entries(ctx, empID, year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LedgerDTO{
		EmployeeID: string(empID),
		Year:       year,
		Entries:    toLedgerEntryDTOs(entries),
		Anomalies:  toAnomalyDTOs(anomalies),
	})
}

// ExportLedger streams the recomputed ledger as an xlsx workbook.
// GET /api/employees/{id}/ledger/export?year=
func (h *Handler) ExportLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	year, err := h.yearParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeView(ctx, actorOf(r), empID); err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, anomalies, err := h.Ledger.Entries(ctx, empID, year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	book, err := LedgerWorkbook(empID, year, entries, anomalies)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer book.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-%s-%d.xlsx"`, empID, year))
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		h.logger.Error("ledger export write failed", zap.String("employee_id", string(empID)), zap.Error(err))
	}
}

// Recalculate replays a year explicitly and returns totals and anomalies.
// POST /api/employees/{id}/ledger/recalculate?year=
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	year, err := h.yearParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeView(ctx, actorOf(r), empID); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Ledger.RecalculateBalances(ctx, empID, year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecalculateDTO{
		EmployeeID:  string(empID),
		Year:        year,
		Final:       float(res.Final),
		TotalCredit: float(res.TotalCredit),
		TotalDebit:  float(res.TotalDebit),
		Anomalies:   toAnomalyDTOs(res.Anomalies),
	})
}

// AddCarryover credits carried-over days.
// POST /api/employees/{id}/ledger/carryover
func (h *Handler) AddCarryover(w http.ResponseWriter, r *http.Request) {
	var req CarryoverRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	entry, err := h.Ledger.AddCarryover(r.Context(), actorOf(r), empID, req.Year, decimal.NewFromFloat(req.Days), req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerEntryDTO(*entry))
}

// AddAdjustment records a signed manual correction.
// POST /api/employees/{id}/ledger/adjustments
func (h *Handler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	entry, err := h.Ledger.AddAdjustment(r.Context(), actorOf(r), empID, req.Year, decimal.NewFromFloat(req.Days), req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerEntryDTO(*entry))
}

// DeleteEntry soft-deletes a ledger entry.
// DELETE /api/ledger/{entryID}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := generic.EntryID(chi.URLParam(r, "entryID"))
	if err := h.Ledger.DeleteEntry(r.Context(), actorOf(r), id, req.Text()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreEntry undoes DeleteEntry.
// POST /api/ledger/{entryID}/restore
func (h *Handler) RestoreEntry(w http.ResponseWriter, r *http.Request) {
	id := generic.EntryID(chi.URLParam(r, "entryID"))
	if err := h.Ledger.RestoreEntry(r.Context(), actorOf(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// ListEmployeeRequests lists requests of one employee, optionally by status.
// GET /api/employees/{id}/leave-requests?status=
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empID := generic.EmployeeID(chi.URLParam(r, "id"))
	if err := h.authorizeView(ctx, actorOf(r), empID); err != nil {
		h.writeError(w, r, err)
		return
	}
	filter := generic.RequestFilter{EmployeeID: empID}
	for _, s := range r.URL.Query()["status"] {
		filter.Statuses = append(filter.Statuses, generic.RequestStatus(s))
	}
	reqs, err := h.Requests.List(ctx, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTOs(reqs))
}

// ListPending returns the requests and cancellations waiting on the caller.
// GET /api/leave-requests/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	reqs, err := h.Requests.List(r.Context(), generic.RequestFilter{
		Statuses: []generic.RequestStatus{generic.StatusInProgress, generic.StatusCancellationRequested},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pending := make([]generic.LeaveRequest, 0, len(reqs))
	for _, req := range reqs {
		if waitingOn(req) == actor.ID {
			pending = append(pending, req)
		}
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTOs(pending))
}

// CreateLeaveRequest submits a new request.
// POST /api/leave-requests
func (h *Handler) CreateLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var body CreateLeaveRequest
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Requests.Create(r.Context(), actorOf(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateLeaveResponse{
		Request:   toLeaveRequestDTO(res.Request),
		Conflicts: toConflictDTOs(res.Conflicts),
	})
}

func (b CreateLeaveRequest) input() (timeoff.CreateRequestInput, error) {
	start, err := generic.ParseDate(b.StartDate)
	if err != nil {
		return timeoff.CreateRequestInput{}, err
	}
	end, err := generic.ParseDate(b.EndDate)
	if err != nil {
		return timeoff.CreateRequestInput{}, err
	}
	in := timeoff.CreateRequestInput{
		EmployeeID:  generic.EmployeeID(b.EmployeeID),
		LeaveTypeID: generic.LeaveTypeID(b.LeaveTypeID),
		StartDate:   start,
		EndDate:     end,
		IsHalfDay:   b.IsHalfDay,
		IsHourly:    b.IsHourly,
		Hours:       decimal.NewFromFloat(b.Hours),
		Reason:      b.Reason,
	}
	if b.ReturnDate != "" {
		if in.ReturnDate, err = generic.ParseDate(b.ReturnDate); err != nil {
			return timeoff.CreateRequestInput{}, err
		}
	}
	return in, nil
}

// GetLeaveRequest returns one request.
// GET /api/leave-requests/{id}
func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorOf(r)
	req, err := h.Requests.Get(ctx, generic.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if waitingOn(req) != actor.ID {
		if err := h.authorizeView(ctx, actor, req.EmployeeID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

type transitionCall func(ctx context.Context, actor timeoff.Actor, id generic.RequestID, text string) (generic.LeaveRequest, error)

// Transition adapts one state machine action to a handler. The optional
// body's reason (or note) is passed through.
// POST /api/leave-requests/{id}/{action}
func (h *Handler) Transition(call transitionCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ReasonRequest
		if err := decode(r, &body); err != nil {
			h.writeError(w, r, err)
			return
		}
		id := generic.RequestID(chi.URLParam(r, "id"))
		req, err := call(r.Context(), actorOf(r), id, body.Text())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
	}
}

// DeleteLeaveRequest soft-deletes a request and its ledger entries.
// DELETE /api/leave-requests/{id}
func (h *Handler) DeleteLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var body ReasonRequest
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := generic.RequestID(chi.URLParam(r, "id"))
	if err := h.Requests.Delete(r.Context(), actorOf(r), id, body.Text()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreLeaveRequest undoes DeleteLeaveRequest.
// POST /api/leave-requests/{id}/restore
func (h *Handler) RestoreLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := generic.RequestID(chi.URLParam(r, "id"))
	if err := h.Requests.Restore(r.Context(), actorOf(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// PutCompany upserts a company.
// PUT /api/companies/{id}
func (h *Handler) PutCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body factory.CompanySeed
	body.ID = chi.URLParam(r, "id")
	if err := decodeWithID(r, &body, &body.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	company := body.ToCompany()
	actor := actorOf(r)
	existing, err := h.Store.GetCompany(ctx, company.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if (existing != nil && !timeoff.CanActAsCompanyAdmin(actor, existing)) || !timeoff.CanActAsCompanyAdmin(actor, &company) {
		h.writeError(w, r, forbidden(actor, "update company"))
		return
	}
	if err := h.Store.SaveCompany(ctx, company); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// PutDepartment upserts a department.
// PUT /api/departments/{id}
func (h *Handler) PutDepartment(w http.ResponseWriter, r *http.Request) {
	var body factory.DepartmentSeed
	body.ID = chi.URLParam(r, "id")
	if err := decodeWithID(r, &body, &body.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.requireAdminOf(r.Context(), actorOf(r), generic.CompanyID(body.CompanyID), "update department"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.SaveDepartment(r.Context(), body.ToDepartment()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// PutEmployee upserts an employee.
// PUT /api/employees/{id}
func (h *Handler) PutEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body factory.EmployeeSeed
	body.ID = chi.URLParam(r, "id")
	if err := decodeWithID(r, &body, &body.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	emp, err := body.ToEmployee()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	actor := actorOf(r)
	if err := h.requireAdminOf(ctx, actor, emp.CompanyID, "update employee"); err != nil {
		h.writeError(w, r, err)
		return
	}
	existing, err := h.Store.GetEmployee(ctx, emp.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing != nil && existing.CompanyID != emp.CompanyID {
		if err := h.requireAdminOf(ctx, actor, existing.CompanyID, "move employee"); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// PutLeaveType upserts a leave type.
// PUT /api/leave-types/{id}
func (h *Handler) PutLeaveType(w http.ResponseWriter, r *http.Request) {
	var body factory.LeaveTypeSeed
	body.ID = chi.URLParam(r, "id")
	if err := decodeWithID(r, &body, &body.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.requireAdminOf(r.Context(), actorOf(r), generic.CompanyID(body.CompanyID), "update leave type"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.SaveLeaveType(r.Context(), body.ToLeaveType()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// CreateHoliday adds a company holiday, or a global one (super admin only).
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body factory.HolidaySeed
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	actor := actorOf(r)
	if body.CompanyID == "" {
		if !timeoff.CanActAsCompanyAdmin(actor, nil) {
			h.writeError(w, r, forbidden(actor, "create global holiday"))
			return
		}
	} else if err := h.requireAdminOf(ctx, actor, generic.CompanyID(body.CompanyID), "create holiday"); err != nil {
		h.writeError(w, r, err)
		return
	}
	holiday, err := body.ToHoliday()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.SaveHoliday(ctx, holiday); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// LoadSeed applies a YAML or JSON org document in one transaction.
// POST /api/admin/seed
func (h *Handler) LoadSeed(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	if !timeoff.CanActAsCompanyAdmin(actor, nil) {
		h.writeError(w, r, forbidden(actor, "load seed"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSeedBytes))
	if err != nil {
		h.writeError(w, r, &generic.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	seed, err := factory.ParseSeed(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sum, err := factory.Apply(r.Context(), h.Store, seed)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("seed applied",
		zap.String("actor", string(actor.ID)),
		zap.Int("companies", sum.Companies),
		zap.Int("employees", sum.Employees),
	)
	writeJSON(w, http.StatusOK, sum)
}

// =============================================================================
// HELPERS
// =============================================================================

func actorOf(r *http.Request) timeoff.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}

// waitingOn is the approver a request or its cancellation is waiting on.
func waitingOn(req generic.LeaveRequest) generic.ActorID {
	if req.Status == generic.StatusCancellationRequested && req.Cancellation != nil {
		return req.Cancellation.CurrentApprover
	}
	if req.Status == generic.StatusInProgress {
		return req.CurrentApprover
	}
	return ""
}

func forbidden(actor timeoff.Actor, action string) error {
	return &generic.AuthorizationError{Actor: actor.ID, Action: action, Reason: "insufficient role"}
}

// authorizeView allows the employee, admins of their company and department
// managers in the same company. Callers reading their own record get
// through even when it does not exist, so they see a zero balance.
func (h *Handler) authorizeView(ctx context.Context, actor timeoff.Actor, empID generic.EmployeeID) error {
	if actor.ID == generic.ActorID(empID) {
		return nil
	}
	emp, err := h.Store.GetEmployee(ctx, empID)
	if err != nil {
		return err
	}
	if emp == nil {
		return generic.ErrEmployeeNotFound
	}
	if actor.Role == timeoff.RoleDepartmentManager && actor.CompanyID == emp.CompanyID {
		return nil
	}
	company, err := h.Store.GetCompany(ctx, emp.CompanyID)
	if err != nil {
		return err
	}
	if timeoff.CanActAsCompanyAdmin(actor, company) {
		return nil
	}
	return &generic.AuthorizationError{Actor: actor.ID, Action: "view employee", Reason: "not the employee, a manager or an admin"}
}

func (h *Handler) requireAdminOf(ctx context.Context, actor timeoff.Actor, companyID generic.CompanyID, action string) error {
	company, err := h.Store.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return generic.ErrCompanyNotFound
	}
	if !timeoff.CanActAsCompanyAdmin(actor, company) {
		return forbidden(actor, action)
	}
	return nil
}

func (h *Handler) yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.Now().UTC().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		return 0, &generic.ValidationError{Field: "year", Message: fmt.Sprintf("invalid year %q", raw)}
	}
	return year, nil
}

// decode reads an optional JSON body into dst and validates it. An empty
// body leaves dst at its zero value.
func decode(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validateBody(dst)
}

// decodeWithID decodes a PUT body whose id comes from the path. A body id
// that disagrees with the path is rejected.
func decodeWithID(r *http.Request, dst any, id *string) error {
	pathID := *id
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	if *id != "" && *id != pathID {
		return &generic.ValidationError{Field: "id", Message: "does not match the path"}
	}
	*id = pathID
	return validateBody(dst)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &generic.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

func validateBody(dst any) error {
	if err := factory.Validator().Struct(dst); err != nil {
		return factory.ValidationError(err)
	}
	return nil
}
