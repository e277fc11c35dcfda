package timeoff_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// march3to12 spans Mon 2025-03-03 .. Wed 2025-03-12 with a Sat/Sun weekend.
func march3to12(policy generic.DeductionPolicy) timeoff.DayCount {
	return timeoff.DayCount{
		Start:   generic.NewTimePoint(2025, time.March, 3),
		End:     generic.NewTimePoint(2025, time.March, 12),
		Weekend: generic.NewWeekdaySet(time.Sunday, time.Saturday),
		Policy:  policy,
	}
}

func TestChargeableDays_DeductionPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy generic.DeductionPolicy
		want   int64
	}{
		{"none skips both weekend days", generic.DeductNone, 8},
		{"unset behaves like none", "", 8},
		{"all charges every day", generic.DeductAll, 10},
		// Primary weekend day defaults to Saturday (first in Mon..Sun order)
		{"first_only charges the primary day", generic.DeductFirstOnly, 9},
		{"second_only charges the other day", generic.DeductSecondOnly, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeoff.ChargeableDays(march3to12(tt.policy))
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s", got)
		})
	}
}

func TestChargeableDays_ConfiguredPrimaryWeekendDay(t *testing.T) {
	// GIVEN: Primary weekend day configured as Sunday under first_only
	// WHEN: Counting Mon 3rd .. Sat 8th
	// THEN: Saturday becomes the free day

	in := march3to12(generic.DeductFirstOnly)
	sunday := time.Sunday
	in.PrimaryWeekendDay = &sunday
	in.End = generic.NewTimePoint(2025, time.March, 8)

	assert.True(t, timeoff.ChargeableDays(in).Equal(decimal.NewFromInt(5)))
}

func TestChargeableDays_HalfDayAndHourly(t *testing.T) {
	in := march3to12(generic.DeductNone)
	in.End = in.Start
	in.IsHalfDay = true
	assert.True(t, timeoff.ChargeableDays(in).Equal(decimal.NewFromFloat(0.5)))

	in.IsHalfDay = false
	in.IsHourly = true
	in.Hours = decimal.NewFromInt(6)
	assert.True(t, timeoff.ChargeableDays(in).Equal(decimal.NewFromFloat(0.75)))
}

func TestChargeableDays_EmptyWeekendChargesEverything(t *testing.T) {
	in := march3to12(generic.DeductNone)
	in.Weekend = generic.WeekdaySet{}
	assert.True(t, timeoff.ChargeableDays(in).Equal(decimal.NewFromInt(10)))
}

func TestChargeableDays_SkipsHolidays(t *testing.T) {
	in := march3to12(generic.DeductNone)
	in.CompanyID = "acme"
	in.Holidays = generic.HolidaySet{
		{CompanyID: "acme", Date: generic.NewTimePoint(2025, time.March, 5)},
		{CompanyID: "acme", Date: generic.NewTimePoint(2025, time.March, 8)}, // Saturday, already skipped
		{CompanyID: "globex", Date: generic.NewTimePoint(2025, time.March, 6)},
	}
	assert.True(t, timeoff.ChargeableDays(in).Equal(decimal.NewFromInt(7)))
}

func TestResolveWeekend_MostSpecificWins(t *testing.T) {
	company := &generic.Company{ID: "acme", WeekendDays: generic.NewWeekdaySet(time.Friday, time.Saturday)}
	dept := &generic.Department{ID: "eng", WeekendDays: generic.NewWeekdaySet(time.Sunday, time.Saturday)}
	emp := &generic.Employee{ID: "emp-1"}

	assert.Equal(t, []int{0, 6}, timeoff.ResolveWeekend(emp, dept, company).Ints())
	assert.Equal(t, []int{5, 6}, timeoff.ResolveWeekend(emp, nil, company).Ints())
	assert.Equal(t, []int{0}, timeoff.ResolveWeekend(emp, nil, nil).Ints())

	emp.WeekendDays = generic.WeekdaySet{}
	assert.Empty(t, timeoff.ResolveWeekend(emp, dept, company).Ints())
}
