package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/generic/store"
	"github.com/warp/leave-engine/timeoff"
)

const (
	testSecret = "test-secret"
	testIssuer = "leave-engine"
)

var (
	employee   = timeoff.Actor{ID: "emp-1", Role: timeoff.RoleEmployee, CompanyID: "acme"}
	colleague  = timeoff.Actor{ID: "emp-2", Role: timeoff.RoleEmployee, CompanyID: "acme"}
	manager    = timeoff.Actor{ID: "mgr-1", Role: timeoff.RoleDepartmentManager, CompanyID: "acme"}
	hrAdmin    = timeoff.Actor{ID: "hr", Role: timeoff.RoleCompanyAdmin, CompanyID: "acme"}
	superAdmin = timeoff.Actor{ID: "root", Role: timeoff.RoleSuperAdmin}
)

type testServer struct {
	store  *store.TxMemory
	ledger *timeoff.Ledger
	router http.Handler
	now    time.Time
}

// newTestServer wires a router over an in-memory store. Company "acme"
// requires approval; emp-1 (hired 2020-03-10) reports to mgr-1. The clock
// is Mon 2025-06-02.
func newTestServer(t *testing.T, cfg api.RouterConfig) *testServer {
	t.Helper()
	ctx := context.Background()

	ts := &testServer{
		store: store.NewTxMemory(),
		now:   time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, ts.store.SaveCompany(ctx, generic.Company{
		ID:               "acme",
		Name:             "Acme",
		RequiresApproval: true,
		WeekendDays:      generic.NewWeekdaySet(time.Saturday, time.Sunday),
	}))
	for _, id := range []generic.EmployeeID{"emp-1", "emp-2", "mgr-1"} {
		require.NoError(t, ts.store.SaveEmployee(ctx, generic.Employee{
			ID:        id,
			CompanyID: "acme",
			Name:      string(id),
			HireDate:  generic.NewTimePoint(2020, time.March, 10),
		}))
	}
	require.NoError(t, ts.store.SaveLeaveType(ctx, generic.LeaveType{
		ID: "annual", CompanyID: "acme", Name: "Annual", Classification: generic.ClassAnnual, RequiredLevels: 1,
	}))

	ts.ledger = timeoff.NewLedger(ts.store, timeoff.WithClock(func() time.Time { return ts.now }))
	svc := timeoff.NewRequestService(ts.ledger, timeoff.StaticResolver{"emp-1": {"mgr-1"}}, nil)
	h := api.NewHandler(ts.store, ts.ledger, svc, nil)
	h.Now = func() time.Time { return ts.now }

	cfg.JWTSecret = testSecret
	cfg.JWTIssuer = testIssuer
	ts.router = api.NewRouter(h, cfg)
	return ts
}

func token(t *testing.T, actor timeoff.Actor) string {
	t.Helper()
	tok, err := api.GenerateToken(testSecret, testIssuer, actor, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path string, actor *timeoff.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *actor))
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func weekRequest() api.CreateLeaveRequest {
	return api.CreateLeaveRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		StartDate:   "2025-06-09",
		EndDate:     "2025-06-13",
		Reason:      "summer",
	}
}

// =============================================================================
// AUTH / HEALTH
// =============================================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{})

	rec := ts.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthenticate(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{})

	t.Run("missing token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, api.CodeUnauthorized, decodeBody[api.ErrorResponse](t, rec).Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := api.GenerateToken("other-secret", testIssuer, employee, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/employees/emp-1/balance", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		tok, err := api.GenerateToken(testSecret, testIssuer, employee, -time.Minute)
		require.NoError(t, err)
		_, err = api.ParseToken(testSecret, testIssuer, tok)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := api.GenerateToken(testSecret, "someone-else", employee, time.Hour)
		require.NoError(t, err)
		_, err = api.ParseToken(testSecret, testIssuer, tok)
		assert.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		claims, err := api.ParseToken(testSecret, testIssuer, token(t, hrAdmin))
		require.NoError(t, err)
		assert.Equal(t, "hr", claims.Subject)
		assert.Equal(t, "company_admin", claims.Role)
		assert.Equal(t, "acme", claims.CompanyID)
	})
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := ts.do(t, http.MethodGet, "/health", nil, nil)
	second := ts.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, api.CodeRateLimited, decodeBody[api.ErrorResponse](t, second).Code)
}

// =============================================================================
// LEAVE REQUEST FLOW
// =============================================================================

func TestCreateApproveAndBalance(t *testing.T) {
	// GIVEN: emp-1 with a 20 day entitlement reporting to mgr-1
	// WHEN: emp-1 requests a 5 day week and mgr-1 approves it
	// THEN: The request is APPROVED and the balance shows 5 used, 15 remaining

	ts := newTestServer(t, api.RouterConfig{})

	rec := ts.do(t, http.MethodPost, "/api/leave-requests", &employee, weekRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[api.CreateLeaveResponse](t, rec)
	assert.Equal(t, "IN_PROGRESS", created.Request.Status)
	require.NotNil(t, created.Request.CurrentApprover)
	assert.Equal(t, "mgr-1", *created.Request.CurrentApprover)
	assert.Equal(t, 5.0, created.Request.RequestedDays)
	assert.Equal(t, "2025-06-14", created.Request.ReturnDate)
	assert.Empty(t, created.Conflicts)
	id := created.Request.ID

	rec = ts.do(t, http.MethodGet, "/api/leave-requests/pending", &manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[[]api.LeaveRequestDTO](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	// The approver may read the request while it waits on them.
	rec = ts.do(t, http.MethodGet, "/api/leave-requests/"+id, &manager, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/leave-requests/"+id+"/approve", &manager, api.ReasonRequest{Note: "enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeBody[api.LeaveRequestDTO](t, rec)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Nil(t, approved.CurrentApprover)
	assert.Equal(t, 1, approved.ApprovalCount)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bal := decodeBody[api.BalanceDTO](t, rec)
	assert.Equal(t, 2025, bal.Year)
	assert.Equal(t, 20.0, bal.Entitlement)
	assert.Equal(t, 5.0, bal.Used)
	assert.Equal(t, 15.0, bal.Remaining)
	assert.Equal(t, 5, bal.SeniorityYears)
	assert.Nil(t, bal.Age)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/leave-requests?status=APPROVED", &hrAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]api.LeaveRequestDTO](t, rec), 1)

	// Approving again is an invalid transition.
	rec = ts.do(t, http.MethodPost, "/api/leave-requests/"+id+"/approve", &manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeInvalidState, decodeBody[api.ErrorResponse](t, rec).Code)
}

func TestCancellationFlow(t *testing.T) {
	// GIVEN: An approved week
	// WHEN: emp-1 asks to cancel and mgr-1 approves the cancellation
	// THEN: The request is CANCELLED and the days come back

	ts := newTestServer(t, api.RouterConfig{})
	rec := ts.do(t, http.MethodPost, "/api/leave-requests", &employee, weekRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[api.CreateLeaveResponse](t, rec).Request.ID
	rec = ts.do(t, http.MethodPost, "/api/leave-requests/"+id+"/approve", &manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A reason is required once approved.
	rec = ts.do(t, http.MethodPost, "/api/leave-requests/"+id+"/cancellation", &employee, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/leave-requests/"+id+"/cancellation", &employee, api.ReasonRequest{Reason: "plans changed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decodeBody[api.LeaveRequestDTO](t, rec)
	assert.Equal(t, "CANCELLATION_REQUESTED", dto.Status)
	require.NotNil(t, dto.Cancellation)
	assert.Equal(t, "plans changed", dto.Cancellation.Reason)

	rec = ts.do(t, http.MethodPost, "/api/leave-requests/"+id+"/cancellation/approve", &manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELLED", decodeBody[api.LeaveRequestDTO](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20.0, decodeBody[api.BalanceDTO](t, rec).Remaining)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{})

	t.Run("colleague cannot read a balance", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &colleague, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, api.CodeForbidden, decodeBody[api.ErrorResponse](t, rec).Code)
	})

	t.Run("colleague cannot file for someone else", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/leave-requests", &colleague, weekRequest())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown request", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/leave-requests/nope", &hrAdmin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, api.CodeNotFound, decodeBody[api.ErrorResponse](t, rec).Code)
	})

	t.Run("unknown employee", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/employees/ghost/balance", &hrAdmin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		body := weekRequest()
		body.StartDate = "09/06/2025"
		rec := ts.do(t, http.MethodPost, "/api/leave-requests", &employee, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, api.CodeInvalidInput, decodeBody[api.ErrorResponse](t, rec).Code)
	})

	t.Run("end before start", func(t *testing.T) {
		body := weekRequest()
		body.StartDate, body.EndDate = body.EndDate, body.StartDate
		rec := ts.do(t, http.MethodPost, "/api/leave-requests", &employee, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/leave-requests", &employee, `{"employee_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad year", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/employees/emp-1/ledger?year=abc", &employee, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("employee cannot add carryover", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/employees/emp-1/ledger/carryover", &employee,
			api.CarryoverRequest{Year: 2025, Days: 3})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("adjustment needs a note", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/employees/emp-1/ledger/adjustments", &hrAdmin,
			api.AdjustmentRequest{Year: 2025, Days: -1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// LEDGER
// =============================================================================

func TestLedgerAdjustmentAndListing(t *testing.T) {
	// GIVEN: An HR admin of acme
	// WHEN: Adding a 2.5 day carryover and reading the ledger
	// THEN: The carryover is listed after the entitlement with a 22.5 running balance

	ts := newTestServer(t, api.RouterConfig{})

	rec := ts.do(t, http.MethodPost, "/api/employees/emp-1/ledger/carryover", &hrAdmin,
		api.CarryoverRequest{Year: 2025, Days: 2.5, Note: "from 2024"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	carry := decodeBody[api.LedgerEntryDTO](t, rec)
	assert.Equal(t, "CARRYOVER", carry.Kind)
	assert.Equal(t, "2025-01-01", carry.Date)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/ledger?year=2025", &employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ledger := decodeBody[api.LedgerDTO](t, rec)
	require.Len(t, ledger.Entries, 2)
	assert.Equal(t, "CARRYOVER", ledger.Entries[0].Kind)
	assert.Equal(t, "ENTITLEMENT", ledger.Entries[1].Kind)
	assert.Equal(t, 22.5, ledger.Entries[1].Balance)
	assert.Empty(t, ledger.Anomalies)

	rec = ts.do(t, http.MethodPost, "/api/employees/emp-1/ledger/recalculate?year=2025", &hrAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 22.5, decodeBody[api.RecalculateDTO](t, rec).Final)

	// Soft delete and restore of the carryover.
	rec = ts.do(t, http.MethodDelete, "/api/ledger/"+carry.ID, &hrAdmin, api.ReasonRequest{Reason: "entered twice"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &employee, nil)
	assert.Equal(t, 20.0, decodeBody[api.BalanceDTO](t, rec).Remaining)

	rec = ts.do(t, http.MethodPost, "/api/ledger/"+carry.ID+"/restore", &hrAdmin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &employee, nil)
	assert.Equal(t, 22.5, decodeBody[api.BalanceDTO](t, rec).Remaining)
}

func TestExportLedger(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{})
	rec := ts.do(t, http.MethodGet, "/api/employees/emp-1/balance", &employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/ledger/export?year=2025", &employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ledger-emp-1-2025.xlsx")

	book, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer book.Close()

	title, err := book.GetCellValue("Ledger", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Annual leave ledger emp-1 2025", title)

	kind, err := book.GetCellValue("Ledger", "B4")
	require.NoError(t, err)
	assert.Equal(t, "ENTITLEMENT", kind)
}

// =============================================================================
// DIRECTORY / SEED
// =============================================================================

func TestLoadSeed(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{})
	doc := `
companies:
  - {id: globex, name: Globex, requires_approval: true}
employees:
  - {id: g-1, company_id: globex, name: Hank, hire_date: 2018-09-01}
leave_types:
  - {id: g-annual, company_id: globex, name: Annual, classification: annual, required_levels: 1}
`

	t.Run("company admin is refused", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/admin/seed", &hrAdmin, doc)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("super admin applies it", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/admin/seed", &superAdmin, doc)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"companies":1,"departments":0,"employees":1,"leave_types":1,"holidays":0}`, rec.Body.String())

		c, err := ts.store.GetCompany(context.Background(), "globex")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.True(t, c.RequiresApproval)
	})

	t.Run("invalid document", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/admin/seed", &superAdmin, "employees:\n  - {id: x}\n")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDirectoryUpserts(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{})

	t.Run("admin updates own company", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/companies/acme", &hrAdmin, map[string]any{
			"name":              "Acme Corp",
			"requires_approval": true,
			"weekend_days":      []int{5, 6},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		c, err := ts.store.GetCompany(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", c.Name)
		assert.Equal(t, []int{5, 6}, c.WeekendDays.Ints())
	})

	t.Run("admin cannot create another company", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/companies/globex", &hrAdmin, map[string]any{"name": "Globex"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("body id must match the path", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/companies/acme", &hrAdmin, map[string]any{"id": "other", "name": "X"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("employee upsert", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/employees/emp-3", &hrAdmin, map[string]any{
			"company_id": "acme",
			"name":       "Three",
			"hire_date":  "2024-02-01",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		e, err := ts.store.GetEmployee(context.Background(), "emp-3")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, "2024-02-01", e.HireDate.String())
	})

	t.Run("global holiday needs super admin", func(t *testing.T) {
		body := map[string]any{"date": "2025-12-25", "name": "Christmas"}
		rec := ts.do(t, http.MethodPost, "/api/holidays", &hrAdmin, body)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ts.do(t, http.MethodPost, "/api/holidays", &superAdmin, body)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}
