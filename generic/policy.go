package generic

import "github.com/shopspring/decimal"

// =============================================================================
// LEAVE TYPE CLASSIFICATION
// =============================================================================

// Classification groups leave types. Only ClassAnnual is balance-tracked.
type Classification string

const (
	ClassAnnual Classification = "annual"
	ClassSick   Classification = "sick"
	ClassOther  Classification = "other"
)

func (c Classification) Valid() bool {
	return c == ClassAnnual || c == ClassSick || c == ClassOther
}

// =============================================================================
// DEDUCTION POLICY - Which weekend days are charged
// =============================================================================

type DeductionPolicy string

const (
	DeductNone       DeductionPolicy = "none"        // weekend days are free
	DeductAll        DeductionPolicy = "all"         // every weekend day is charged
	DeductFirstOnly  DeductionPolicy = "first_only"  // primary weekend day charged, secondary free
	DeductSecondOnly DeductionPolicy = "second_only" // secondary weekend day charged, primary free
)

func (p DeductionPolicy) Valid() bool {
	switch p {
	case DeductNone, DeductAll, DeductFirstOnly, DeductSecondOnly, "":
		return true
	}
	return false
}

// OrDefault maps the zero value to DeductNone.
func (p DeductionPolicy) OrDefault() DeductionPolicy {
	if p == "" {
		return DeductNone
	}
	return p
}

// =============================================================================
// LEAVE TYPE - Per-company leave configuration
// =============================================================================

type LeaveType struct {
	ID             LeaveTypeID
	CompanyID      CompanyID
	Name           string
	Classification Classification

	// RequiredLevels truncates the approval chain. 0 keeps the whole chain.
	RequiredLevels int

	// EscalationThresholdDays raises RequiredLevels to at least 2 when the
	// requested days meet it. Zero disables escalation.
	EscalationThresholdDays decimal.Decimal

	// SingleApprovalSufficient collapses the chain to its first approver.
	SingleApprovalSufficient bool
}

// LevelsFor returns the level count for a request of the given size.
func (lt LeaveType) LevelsFor(days decimal.Decimal) int {
	levels := lt.RequiredLevels
	if lt.EscalationThresholdDays.IsPositive() && days.GreaterThanOrEqual(lt.EscalationThresholdDays) && levels > 0 && levels < 2 {
		levels = 2
	}
	return levels
}
