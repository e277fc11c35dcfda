package generic

import "time"

// =============================================================================
// DIRECTORY - Tenant hierarchy records (dealer -> company -> employee)
// =============================================================================

// Company holds the leave settings every request of its employees uses.
type Company struct {
	ID       CompanyID
	DealerID DealerID
	Name     string

	// RequiresApproval routes requests through the approval chain.
	RequiresApproval bool

	// AutoApproveWithoutChain approves immediately when the chain resolves
	// empty; otherwise the request stays PENDING for an admin.
	AutoApproveWithoutChain bool

	WeekendDays       WeekdaySet // nil = global default
	PrimaryWeekendDay *time.Weekday
	DeductionPolicy   DeductionPolicy
}

type Department struct {
	ID          DepartmentID
	CompanyID   CompanyID
	Name        string
	ManagerID   EmployeeID
	WeekendDays WeekdaySet
}

// Employee is the identity the ledger is keyed on. HR owns its lifecycle.
type Employee struct {
	ID           EmployeeID
	CompanyID    CompanyID
	DepartmentID DepartmentID
	ManagerID    EmployeeID
	Name         string
	HireDate     TimePoint
	BirthDate    *TimePoint
	WeekendDays  WeekdaySet
}
