package generic

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (leave is charged per day)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) TimePoint {
	t = t.UTC()
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}


// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return TimePoint{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
	}
	return DateOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// WEEKDAY SET - Weekend days of an employee, department or company
// =============================================================================

// WeekdaySet is a set of weekdays. A nil set means "not configured".
type WeekdaySet map[time.Weekday]bool

// DefaultWeekend applies when nothing more specific is configured.
func DefaultWeekend() WeekdaySet { return NewWeekdaySet(time.Sunday) }

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	s := make(WeekdaySet, len(days))
	for _, d := range days {
		s[d] = true
	}
	return s
}

// WeekdaySetFromInts builds a set from 0 (Sunday) .. 6 (Saturday), ignoring out-of-range values.
func WeekdaySetFromInts(days []int) WeekdaySet {
	if days == nil {
		return nil
	}
	s := make(WeekdaySet, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			s[time.Weekday(d)] = true
		}
	}
	return s
}

func (s WeekdaySet) Contains(d time.Weekday) bool { return s[d] }

// Ints returns the set as sorted 0..6 values.
func (s WeekdaySet) Ints() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, len(s))
	for d, ok := range s {
		if ok {
			out = append(out, int(d))
		}
	}
	sort.Ints(out)
	return out
}

// =============================================================================
// HOLIDAY CALENDAR - Company-specific and global holidays
// =============================================================================

// Holiday is a day that is never charged as leave.
type Holiday struct {
	ID        string
	CompanyID CompanyID // empty = applies to every company
	Date      TimePoint
	Name      string
	Recurring bool // same month/day every year
}

// HolidayCalendar answers whether a date is a holiday for a company.
type HolidayCalendar interface {
	IsHoliday(companyID CompanyID, date TimePoint) bool
}

// HolidaySet is a HolidayCalendar over a loaded list of holidays.
type HolidaySet []Holiday

func (hs HolidaySet) IsHoliday(companyID CompanyID, date TimePoint) bool {
	for _, h := range hs {
		if h.CompanyID != "" && h.CompanyID != companyID {
			continue
		}
		if h.Recurring {
			if h.Date.Month() == date.Month() && h.Date.Day() == date.Day() {
				return true
			}
			continue
		}
		if h.Date.Equal(date) {
			return true
		}
	}
	return false
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }
