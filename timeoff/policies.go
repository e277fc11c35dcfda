/*
policies.go - Working-day calculation and weekend policy resolution

PURPOSE:
  Sizes a leave request in chargeable days. Pure: the caller resolves the
  weekend set, deduction policy and holiday calendar and passes them in.

RULES:
  Hourly request:   hours / 8
  Half-day request: 0.5
  Otherwise every calendar day in [start, end] counts as 1 unless it is
  in the skip set or is a holiday.

SKIP SET BY DEDUCTION POLICY:
  none        every weekend day is free (default)
  all         nothing is skipped, weekends are charged
  first_only  only the secondary weekend days are free (primary charged)
  second_only only the primary weekend day is free (secondary charged)

WEEKEND RESOLUTION (most specific wins):
  employee override -> department override -> company default -> {Sunday}
  An explicitly configured empty set means "no weekend days".

PRIMARY WEEKEND DAY:
  Configured per company. When unset it is the first weekend day walking
  Monday..Sunday, so {Sat, Sun} -> Saturday and {Fri, Sat} -> Friday.

EXAMPLE:
  Mon 2025-03-03 .. Wed 2025-03-12, weekend {Sun, Sat}, policy none
  10 calendar days, 2 skipped -> 8

SEE ALSO:
  - request.go: Sizes requests at creation and again at approval
  - generic/policy.go: DeductionPolicy
*/
package timeoff

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// CHARGEABLE DAYS
// =============================================================================

// DayCount is the input of ChargeableDays.
type DayCount struct {
	Start             generic.TimePoint
	End               generic.TimePoint
	Weekend           generic.WeekdaySet
	Policy            generic.DeductionPolicy
	PrimaryWeekendDay *time.Weekday
	IsHalfDay         bool
	IsHourly          bool
	Hours             decimal.Decimal

	// Holidays is optional. Holiday dates are never charged.
	Holidays  generic.HolidayCalendar
	CompanyID generic.CompanyID
}

var half = decimal.NewFromFloat(0.5)

// ChargeableDays returns the number of days the span consumes.
func ChargeableDays(in DayCount) decimal.Decimal {
	if in.IsHourly {
		return generic.Amount{Value: in.Hours, Unit: generic.UnitHours}.InDays().Value
	}
	if in.IsHalfDay {
		return half
	}

	skip := SkipSet(in.Weekend, in.Policy, PrimaryWeekendDay(in.Weekend, in.PrimaryWeekendDay))
	count := 0
	for _, d := range (generic.Period{Start: in.Start, End: in.End}).Days() {
		if skip.Contains(d.Weekday()) {
			continue
		}
		if in.Holidays != nil && in.Holidays.IsHoliday(in.CompanyID, d) {
			continue
		}
		count++
	}
	return decimal.NewFromInt(int64(count))
}

// SkipSet returns the weekdays that are not charged under policy.
func SkipSet(weekend generic.WeekdaySet, policy generic.DeductionPolicy, primary time.Weekday) generic.WeekdaySet {
	skip := generic.WeekdaySet{}
	switch policy.OrDefault() {
	case generic.DeductAll:
	case generic.DeductFirstOnly:
		for d, ok := range weekend {
			if ok && d != primary {
				skip[d] = true
			}
		}
	case generic.DeductSecondOnly:
		if weekend.Contains(primary) {
			skip[primary] = true
		}
	default:
		for d, ok := range weekend {
			if ok {
				skip[d] = true
			}
		}
	}
	return skip
}

// weekOrder walks Monday first so Sunday is the last candidate.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// PrimaryWeekendDay returns configured when set, otherwise the first weekend day in week order.
func PrimaryWeekendDay(weekend generic.WeekdaySet, configured *time.Weekday) time.Weekday {
	if configured != nil {
		return *configured
	}
	for _, d := range weekOrder {
		if weekend.Contains(d) {
			return d
		}
	}
	return time.Sunday
}

// =============================================================================
// WEEKEND RESOLUTION
// =============================================================================

// ResolveWeekend applies employee -> department -> company -> default.
func ResolveWeekend(emp *generic.Employee, dept *generic.Department, company *generic.Company) generic.WeekdaySet {
	switch {
	case emp != nil && emp.WeekendDays != nil:
		return emp.WeekendDays
	case dept != nil && dept.WeekendDays != nil:
		return dept.WeekendDays
	case company != nil && company.WeekendDays != nil:
		return company.WeekendDays
	}
	return generic.DefaultWeekend()
}
