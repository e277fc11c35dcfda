/*
accrual.go - Annual leave entitlement

PURPOSE:
  Pure functions answering "how many annual leave days has this employee
  earned for a year?" and "when is the next entitlement date?". No store,
  no clock: callers pass every input.

SENIORITY TIERS:
  Seniority is counted in completed years at the anniversary.

    < 5 years   -> 14 days
    5..14 years -> 20 days
    >= 15 years -> 26 days

AGE FLOOR:
  Employees younger than 18 or aged 50 and over never get fewer than
  20 days: max(tier, 20). The floor only raises, never lowers. An unknown
  age (no birth date) applies no floor.

ANNIVERSARY:
  The entitlement for a year is granted on the hire month/day of that
  year. NextAnniversary rolls to next year when this year's date is today
  or already past.

EXAMPLE:
  hired 2020-03-10, no birth date, year 2025
  seniority at 2025-03-10 = 5  -> 20 days

SEE ALSO:
  - ledger.go: EnsureEntitlementEntry credits these days
  - generic/period.go: CompletedYears, AnniversaryIn
*/
package timeoff

import "github.com/warp/leave-engine/generic"

// =============================================================================
// ENTITLEMENT TABLE
// =============================================================================

// AgeUnknown is passed to EntitlementDays when no birth date is on file.
const AgeUnknown = -1

const (
	minorAgeLimit  = 18
	seniorAgeLimit = 50
	ageFloorDays   = 20
)

// EntitlementTier grants Days once seniority reaches MinYears.
type EntitlementTier struct {
	MinYears int
	Days     int
}

// DefaultTiers is ordered by MinYears ascending.
var DefaultTiers = []EntitlementTier{
	{MinYears: 0, Days: 14},
	{MinYears: 5, Days: 20},
	{MinYears: 15, Days: 26},
}

// EntitlementDays returns the annual entitlement for the given seniority
// and age. It is total: negative seniority counts as zero.
func EntitlementDays(seniorityYears, age int) int {
	days := DefaultTiers[0].Days
	for _, tier := range DefaultTiers {
		if seniorityYears >= tier.MinYears {
			days = tier.Days
		}
	}
	if age != AgeUnknown && (age < minorAgeLimit || age >= seniorAgeLimit) && days < ageFloorDays {
		days = ageFloorDays
	}
	return days
}

// NextAnniversary is the next hire month/day strictly after today.
func NextAnniversary(hireDate, today generic.TimePoint) generic.TimePoint {
	return generic.NextAnniversary(hireDate, today)
}

// SeniorityAt counts completed years of service at the given date.
func SeniorityAt(emp generic.Employee, at generic.TimePoint) int {
	return generic.CompletedYears(emp.HireDate, at)
}

// AgeAt returns the employee's age in completed years, or AgeUnknown.
func AgeAt(emp generic.Employee, at generic.TimePoint) int {
	if emp.BirthDate == nil || emp.BirthDate.IsZero() {
		return AgeUnknown
	}
	return generic.CompletedYears(*emp.BirthDate, at)
}
