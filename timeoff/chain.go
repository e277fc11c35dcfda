package timeoff

import (
	"context"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// APPROVAL CHAIN RESOLVER
// =============================================================================

// ApprovalChainResolver returns the ordered approvers for an employee's
// requests. An empty chain is valid. The state machine resolves on demand
// and never stores the chain.
type ApprovalChainResolver interface {
	Resolve(ctx context.Context, employeeID generic.EmployeeID) ([]generic.ActorID, error)
}

// maxChainDepth bounds the manager walk.
const maxChainDepth = 10

// HierarchyResolver walks the manager links of the directory: the
// employee's manager (or department manager when none is set), then that
// person's manager, and so on. The walk stops at a cycle, a missing
// record or maxChainDepth. The employee never approves their own request.
type HierarchyResolver struct {
	Directory generic.Directory
}

func (h HierarchyResolver) Resolve(ctx context.Context, employeeID generic.EmployeeID) ([]generic.ActorID, error) {
	seen := map[generic.EmployeeID]bool{employeeID: true}
	var chain []generic.ActorID

	current := employeeID
	for len(chain) < maxChainDepth {
		emp, err := h.Directory.GetEmployee(ctx, current)
		if err != nil {
			return nil, err
		}
		if emp == nil {
			break
		}
		next, err := h.managerOf(ctx, emp)
		if err != nil {
			return nil, err
		}
		if next == "" || seen[next] {
			break
		}
		seen[next] = true
		chain = append(chain, generic.ActorID(next))
		current = next
	}
	return chain, nil
}

func (h HierarchyResolver) managerOf(ctx context.Context, emp *generic.Employee) (generic.EmployeeID, error) {
	if emp.ManagerID != "" {
		return emp.ManagerID, nil
	}
	if emp.DepartmentID == "" {
		return "", nil
	}
	dept, err := h.Directory.GetDepartment(ctx, emp.DepartmentID)
	if err != nil || dept == nil {
		return "", err
	}
	if dept.ManagerID == emp.ID {
		return "", nil
	}
	return dept.ManagerID, nil
}

// StaticResolver returns a fixed chain per employee. Used in tests and seeds.
type StaticResolver map[generic.EmployeeID][]generic.ActorID

func (s StaticResolver) Resolve(_ context.Context, employeeID generic.EmployeeID) ([]generic.ActorID, error) {
	return append([]generic.ActorID(nil), s[employeeID]...), nil
}

// TruncateChain applies the two independent truncation rules: single
// approval collapses to the first approver, and levels > 0 keeps the first
// levels approvers.
func TruncateChain(chain []generic.ActorID, levels int, single bool) []generic.ActorID {
	if single && len(chain) > 1 {
		return chain[:1]
	}
	if levels > 0 && levels < len(chain) {
		return chain[:levels]
	}
	return chain
}

func indexOf(chain []generic.ActorID, actor generic.ActorID) int {
	for i, a := range chain {
		if a == actor {
			return i
		}
	}
	return -1
}
