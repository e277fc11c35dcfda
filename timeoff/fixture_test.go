package timeoff_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/generic/store"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================
//
// Company "acme" (dealer "d1") requires approval and has a Sat/Sun weekend.
// emp-1 was hired 2020-03-10, so on the fixture date (Mon 2025-06-02) the
// 2025 entitlement is 20 days. mgr-1..mgr-4 are plain employees used as
// approvers through a StaticResolver.

const (
	annualLT  generic.LeaveTypeID = "annual"
	annual2LT generic.LeaveTypeID = "annual-2"
	sickLT    generic.LeaveTypeID = "sick"
)

var (
	employee = timeoff.Actor{ID: "emp-1", Role: timeoff.RoleEmployee, CompanyID: "acme"}
	mgr1     = timeoff.Actor{ID: "mgr-1", Role: timeoff.RoleDepartmentManager, CompanyID: "acme"}
	mgr2     = timeoff.Actor{ID: "mgr-2", Role: timeoff.RoleDepartmentManager, CompanyID: "acme"}
	hrAdmin  = timeoff.Actor{ID: "hr", Role: timeoff.RoleCompanyAdmin, CompanyID: "acme"}
)

type fixture struct {
	store    *store.TxMemory
	ledger   *timeoff.Ledger
	svc      *timeoff.RequestService
	resolver timeoff.StaticResolver
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store:    store.NewTxMemory(),
		resolver: timeoff.StaticResolver{"emp-1": {"mgr-1", "mgr-2"}},
		now:      time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, f.store.SaveCompany(ctx, generic.Company{
		ID:               "acme",
		DealerID:         "d1",
		Name:             "Acme",
		RequiresApproval: true,
		WeekendDays:      generic.NewWeekdaySet(time.Saturday, time.Sunday),
	}))
	require.NoError(t, f.store.SaveEmployee(ctx, generic.Employee{
		ID:        "emp-1",
		CompanyID: "acme",
		Name:      "Employee One",
		HireDate:  generic.NewTimePoint(2020, time.March, 10),
	}))
	for _, id := range []generic.EmployeeID{"mgr-1", "mgr-2", "mgr-3", "mgr-4"} {
		require.NoError(t, f.store.SaveEmployee(ctx, generic.Employee{
			ID:        id,
			CompanyID: "acme",
			HireDate:  generic.NewTimePoint(2015, time.January, 5),
		}))
	}
	require.NoError(t, f.store.SaveLeaveType(ctx, generic.LeaveType{
		ID: annualLT, CompanyID: "acme", Name: "Annual", Classification: generic.ClassAnnual, RequiredLevels: 1,
	}))
	require.NoError(t, f.store.SaveLeaveType(ctx, generic.LeaveType{
		ID: annual2LT, CompanyID: "acme", Name: "Annual (2 levels)", Classification: generic.ClassAnnual, RequiredLevels: 2,
	}))
	require.NoError(t, f.store.SaveLeaveType(ctx, generic.LeaveType{
		ID: sickLT, CompanyID: "acme", Name: "Sick", Classification: generic.ClassSick, RequiredLevels: 1,
	}))

	f.ledger = timeoff.NewLedger(f.store,
		timeoff.WithClock(func() time.Time { return f.now }),
		timeoff.WithLocker(generic.NewKeyedLocker()),
	)
	f.svc = timeoff.NewRequestService(f.ledger, f.resolver, nil)
	return f
}

// june returns 2025-06-dd. June 2025 starts on a Sunday, so the 9th is a Monday.
func june(dd int) generic.TimePoint { return generic.NewTimePoint(2025, time.June, dd) }

// week is Mon 2025-06-09 .. Fri 2025-06-13: 5 chargeable days.
func week(lt generic.LeaveTypeID) timeoff.CreateRequestInput {
	return timeoff.CreateRequestInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: lt,
		StartDate:   june(9),
		EndDate:     june(13),
		Reason:      "holiday",
	}
}

func (f *fixture) create(t *testing.T, actor timeoff.Actor, in timeoff.CreateRequestInput) generic.LeaveRequest {
	t.Helper()
	res, err := f.svc.Create(context.Background(), actor, in)
	require.NoError(t, err)
	return res.Request
}

func (f *fixture) balance(t *testing.T) generic.Balance {
	t.Helper()
	bal, err := f.ledger.CurrentBalance(context.Background(), "emp-1")
	require.NoError(t, err)
	return bal
}

func (f *fixture) entries(t *testing.T, kind generic.EntryKind) []generic.LedgerEntry {
	t.Helper()
	es, err := f.store.ListEntries(context.Background(), generic.EntryFilter{
		EmployeeID: "emp-1",
		Year:       2025,
		Kinds:      []generic.EntryKind{kind},
	})
	require.NoError(t, err)
	return es
}

func days(n float64) decimal.Decimal { return decimal.NewFromFloat(n) }
