package timeoff

import (
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// Conflict is an advisory warning returned on creation. It never blocks.
type Conflict struct {
	RequestID      generic.RequestID
	Classification generic.Classification
	Status         generic.RequestStatus
	Period         generic.Period
	Message        string
}

// DetectConflicts flags live requests of the same employee whose span
// overlaps the candidate when one side is annual leave and the other sick
// leave, in either direction.
func DetectConflicts(candidate generic.LeaveRequest, existing []generic.LeaveRequest) []Conflict {
	var out []Conflict
	for _, other := range existing {
		if other.ID == candidate.ID || other.EmployeeID != candidate.EmployeeID {
			continue
		}
		if other.IsDeleted() || !other.Status.IsLive() {
			continue
		}
		if !annualVersusSick(candidate.Classification, other.Classification) {
			continue
		}
		if !candidate.Period().Overlaps(other.Period()) {
			continue
		}
		out = append(out, Conflict{
			RequestID:      other.ID,
			Classification: other.Classification,
			Status:         other.Status,
			Period:         other.Period(),
			Message: fmt.Sprintf("%s leave overlaps %s leave %s (%s)",
				candidate.Classification, other.Classification, other.Period(), other.Status),
		})
	}
	return out
}

func annualVersusSick(a, b generic.Classification) bool {
	return (a == generic.ClassAnnual && b == generic.ClassSick) ||
		(a == generic.ClassSick && b == generic.ClassAnnual)
}
