package generic

import "time"

// =============================================================================
// PERIOD - An inclusive date span
// =============================================================================

// Period is the inclusive span [Start, End]. Leave requests and ledger years are periods.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod returns ErrInvalidPeriod when end is before start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the span.
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two inclusive spans share at least one day.
func (p Period) Overlaps(o Period) bool {
	return p.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(p.End)
}

// Days lists every calendar day of the span, Start first.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// ANNIVERSARIES - Seniority and age are counted in completed years
// =============================================================================

// AnniversaryIn returns the anniversary of anchor in the given year.
// A Feb 29 anchor falls on Feb 28 in non-leap years.
func AnniversaryIn(anchor TimePoint, year int) TimePoint {
	month, day := anchor.Month(), anchor.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return NewTimePoint(year, month, day)
}

// NextAnniversary is the first anniversary of anchor strictly after today.
func NextAnniversary(anchor, today TimePoint) TimePoint {
	a := AnniversaryIn(anchor, today.Year())
	if a.After(today) {
		return a
	}
	return AnniversaryIn(anchor, today.Year()+1)
}

// CompletedYears counts full years from anchor to at. Negative spans return 0.
func CompletedYears(anchor, at TimePoint) int {
	if at.Before(anchor) {
		return 0
	}
	years := at.Year() - anchor.Year()
	if at.Before(AnniversaryIn(anchor, at.Year())) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
