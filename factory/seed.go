/*
Package factory converts org seed documents into directory records.

PURPOSE:
  Loads companies, departments, employees, leave types and holidays from a
  YAML (or JSON) document so an environment can be stood up without a
  separate HR system. Used at startup (seed.path) and by POST /api/admin/seed.

YAML SCHEMA:
  companies:
    - id: acme
      dealer_id: north
      name: Acme
      requires_approval: true
      auto_approve_without_chain: false
      weekend_days: [0, 6]        # 0 = Sunday .. 6 = Saturday; [] = none
      primary_weekend_day: 6      # optional
      deduction_policy: none      # none | all | first_only | second_only
  departments:
    - {id: eng, company_id: acme, name: Engineering, manager_id: e-lead}
  employees:
    - id: e-1
      company_id: acme
      department_id: eng
      manager_id: e-lead
      name: Ada
      hire_date: 2020-03-10
      birth_date: 1990-01-01      # optional
  leave_types:
    - id: annual
      company_id: acme
      name: Annual Leave
      classification: annual      # annual | sick | other
      required_levels: 2
      escalation_threshold_days: 10
      single_approval_sufficient: false
  holidays:
    - {company_id: acme, date: 2025-01-01, name: New Year, recurring: true}

VALIDATION:
  Struct tags are checked with go-playground/validator; the first failure
  is returned as *generic.ValidationError naming the YAML field. Cross
  references (employee -> company, department, leave type -> company)
  must resolve within the document or the store.

SEE ALSO:
  - generic/directory.go: Company, Department, Employee
  - generic/policy.go: LeaveType
*/
package factory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// SEED SCHEMA
// =============================================================================

type OrgSeed struct {
	Companies   []CompanySeed    `yaml:"companies" json:"companies" validate:"dive"`
	Departments []DepartmentSeed `yaml:"departments" json:"departments" validate:"dive"`
	Employees   []EmployeeSeed   `yaml:"employees" json:"employees" validate:"dive"`
	LeaveTypes  []LeaveTypeSeed  `yaml:"leave_types" json:"leave_types" validate:"dive"`
	Holidays    []HolidaySeed    `yaml:"holidays" json:"holidays" validate:"dive"`
}

type CompanySeed struct {
	ID                      string `yaml:"id" json:"id" validate:"required"`
	DealerID                string `yaml:"dealer_id" json:"dealer_id"`
	Name                    string `yaml:"name" json:"name" validate:"required"`
	RequiresApproval        bool   `yaml:"requires_approval" json:"requires_approval"`
	AutoApproveWithoutChain bool   `yaml:"auto_approve_without_chain" json:"auto_approve_without_chain"`
	WeekendDays             []int  `yaml:"weekend_days" json:"weekend_days" validate:"omitempty,dive,min=0,max=6"`
	PrimaryWeekendDay       *int   `yaml:"primary_weekend_day" json:"primary_weekend_day" validate:"omitempty,min=0,max=6"`
	DeductionPolicy         string `yaml:"deduction_policy" json:"deduction_policy" validate:"omitempty,oneof=none all first_only second_only"`
}

type DepartmentSeed struct {
	ID          string `yaml:"id" json:"id" validate:"required"`
	CompanyID   string `yaml:"company_id" json:"company_id" validate:"required"`
	Name        string `yaml:"name" json:"name" validate:"required"`
	ManagerID   string `yaml:"manager_id" json:"manager_id"`
	WeekendDays []int  `yaml:"weekend_days" json:"weekend_days" validate:"omitempty,dive,min=0,max=6"`
}

type EmployeeSeed struct {
	ID           string `yaml:"id" json:"id" validate:"required"`
	CompanyID    string `yaml:"company_id" json:"company_id" validate:"required"`
	DepartmentID string `yaml:"department_id" json:"department_id"`
	ManagerID    string `yaml:"manager_id" json:"manager_id"`
	Name         string `yaml:"name" json:"name" validate:"required"`
	HireDate     string `yaml:"hire_date" json:"hire_date" validate:"required,datetime=2006-01-02"`
	BirthDate    string `yaml:"birth_date" json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	WeekendDays  []int  `yaml:"weekend_days" json:"weekend_days" validate:"omitempty,dive,min=0,max=6"`
}

type LeaveTypeSeed struct {
	ID                       string  `yaml:"id" json:"id" validate:"required"`
	CompanyID                string  `yaml:"company_id" json:"company_id" validate:"required"`
	Name                     string  `yaml:"name" json:"name" validate:"required"`
	Classification           string  `yaml:"classification" json:"classification" validate:"required,oneof=annual sick other"`
	RequiredLevels           int     `yaml:"required_levels" json:"required_levels" validate:"min=0,max=10"`
	EscalationThresholdDays  float64 `yaml:"escalation_threshold_days" json:"escalation_threshold_days" validate:"min=0"`
	SingleApprovalSufficient bool    `yaml:"single_approval_sufficient" json:"single_approval_sufficient"`
}

type HolidaySeed struct {
	ID        string `yaml:"id" json:"id"`
	CompanyID string `yaml:"company_id" json:"company_id"`
	Date      string `yaml:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `yaml:"name" json:"name" validate:"required"`
	Recurring bool   `yaml:"recurring" json:"recurring"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Companies   int `json:"companies"`
	Departments int `json:"departments"`
	Employees   int `json:"employees"`
	LeaveTypes  int `json:"leave_types"`
	Holidays    int `json:"holidays"`
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("yaml")
		if tag == "" {
			tag = fld.Tag.Get("json")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator exposes the shared instance so other packages reuse the yaml/json naming.
func Validator() *validator.Validate { return validate }

// ValidationError converts the first validator failure to *generic.ValidationError.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	msg := "is invalid"
	switch e.Tag() {
	case "required":
		msg = "is required"
	case "oneof":
		msg = "must be one of: " + e.Param()
	case "datetime":
		msg = "must be a YYYY-MM-DD date"
	case "min", "max":
		msg = fmt.Sprintf("must satisfy %s=%s", e.Tag(), e.Param())
	}
	// Drop the root struct name: "OrgSeed.employees[0].hire_date" -> "employees[0].hire_date".
	ns := e.Namespace()
	return &generic.ValidationError{Field: ns[strings.Index(ns, ".")+1:], Message: msg}
}

// =============================================================================
// PARSING
// =============================================================================

// ParseSeed decodes and validates a YAML or JSON document.
func ParseSeed(data []byte) (*OrgSeed, error) {
	var seed OrgSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, &generic.ValidationError{Field: "seed", Message: fmt.Sprintf("malformed document: %v", err)}
	}
	if err := validate.Struct(seed); err != nil {
		return nil, ValidationError(err)
	}
	return &seed, nil
}

// LoadFile reads and parses the seed document at path.
func LoadFile(path string) (*OrgSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// =============================================================================
// CONVERSION
// =============================================================================

func (c CompanySeed) ToCompany() generic.Company {
	company := generic.Company{
		ID:                      generic.CompanyID(c.ID),
		DealerID:                generic.DealerID(c.DealerID),
		Name:                    c.Name,
		RequiresApproval:        c.RequiresApproval,
		AutoApproveWithoutChain: c.AutoApproveWithoutChain,
		WeekendDays:             generic.WeekdaySetFromInts(c.WeekendDays),
		DeductionPolicy:         generic.DeductionPolicy(c.DeductionPolicy),
	}
	if c.PrimaryWeekendDay != nil {
		d := time.Weekday(*c.PrimaryWeekendDay)
		company.PrimaryWeekendDay = &d
	}
	return company
}

func (d DepartmentSeed) ToDepartment() generic.Department {
	return generic.Department{
		ID:          generic.DepartmentID(d.ID),
		CompanyID:   generic.CompanyID(d.CompanyID),
		Name:        d.Name,
		ManagerID:   generic.EmployeeID(d.ManagerID),
		WeekendDays: generic.WeekdaySetFromInts(d.WeekendDays),
	}
}

func (e EmployeeSeed) ToEmployee() (generic.Employee, error) {
	hire, err := generic.ParseDate(e.HireDate)
	if err != nil {
		return generic.Employee{}, err
	}
	emp := generic.Employee{
		ID:           generic.EmployeeID(e.ID),
		CompanyID:    generic.CompanyID(e.CompanyID),
		DepartmentID: generic.DepartmentID(e.DepartmentID),
		ManagerID:    generic.EmployeeID(e.ManagerID),
		Name:         e.Name,
		HireDate:     hire,
		WeekendDays:  generic.WeekdaySetFromInts(e.WeekendDays),
	}
	if e.BirthDate != "" {
		birth, err := generic.ParseDate(e.BirthDate)
		if err != nil {
			return generic.Employee{}, err
		}
		emp.BirthDate = &birth
	}
	return emp, nil
}

func (lt LeaveTypeSeed) ToLeaveType() generic.LeaveType {
	return generic.LeaveType{
		ID:                       generic.LeaveTypeID(lt.ID),
		CompanyID:                generic.CompanyID(lt.CompanyID),
		Name:                     lt.Name,
		Classification:           generic.Classification(lt.Classification),
		RequiredLevels:           lt.RequiredLevels,
		EscalationThresholdDays:  decimal.NewFromFloat(lt.EscalationThresholdDays),
		SingleApprovalSufficient: lt.SingleApprovalSufficient,
	}
}

func (h HolidaySeed) ToHoliday() (generic.Holiday, error) {
	date, err := generic.ParseDate(h.Date)
	if err != nil {
		return generic.Holiday{}, err
	}
	return generic.Holiday{
		ID:        h.ID,
		CompanyID: generic.CompanyID(h.CompanyID),
		Date:      date,
		Name:      h.Name,
		Recurring: h.Recurring,
	}, nil
}

// =============================================================================
// APPLY
// =============================================================================

// Apply upserts every record of the seed in one transaction. Companies are
// written first so the cross-reference checks see them.
func Apply(ctx context.Context, st generic.TxStore, seed *OrgSeed) (Summary, error) {
	var sum Summary
	err := st.WithTx(ctx, func(s generic.Store) error {
		for _, c := range seed.Companies {
			if err := s.SaveCompany(ctx, c.ToCompany()); err != nil {
				return err
			}
			sum.Companies++
		}
		for i, d := range seed.Departments {
			if err := requireCompany(ctx, s, d.CompanyID, fmt.Sprintf("departments[%d].company_id", i)); err != nil {
				return err
			}
			if err := s.SaveDepartment(ctx, d.ToDepartment()); err != nil {
				return err
			}
			sum.Departments++
		}
		for i, e := range seed.Employees {
			if err := requireCompany(ctx, s, e.CompanyID, fmt.Sprintf("employees[%d].company_id", i)); err != nil {
				return err
			}
			emp, err := e.ToEmployee()
			if err != nil {
				return err
			}
			if err := s.SaveEmployee(ctx, emp); err != nil {
				return err
			}
			sum.Employees++
		}
		for i, lt := range seed.LeaveTypes {
			if err := requireCompany(ctx, s, lt.CompanyID, fmt.Sprintf("leave_types[%d].company_id", i)); err != nil {
				return err
			}
			if err := s.SaveLeaveType(ctx, lt.ToLeaveType()); err != nil {
				return err
			}
			sum.LeaveTypes++
		}
		for i, h := range seed.Holidays {
			if h.CompanyID != "" {
				if err := requireCompany(ctx, s, h.CompanyID, fmt.Sprintf("holidays[%d].company_id", i)); err != nil {
					return err
				}
			}
			holiday, err := h.ToHoliday()
			if err != nil {
				return err
			}
			if err := s.SaveHoliday(ctx, holiday); err != nil {
				return err
			}
			sum.Holidays++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func requireCompany(ctx context.Context, s generic.Store, id, field string) error {
	c, err := s.GetCompany(ctx, generic.CompanyID(id))
	if err != nil {
		return err
	}
	if c == nil {
		return &generic.ValidationError{Field: field, Message: fmt.Sprintf("unknown company %q", id)}
	}
	return nil
}
