package timeoff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

func leave(id generic.RequestID, class generic.Classification, start, end int, status generic.RequestStatus) generic.LeaveRequest {
	return generic.LeaveRequest{
		ID:             id,
		EmployeeID:     "emp-1",
		Classification: class,
		StartDate:      june(start),
		EndDate:        june(end),
		Status:         status,
	}
}

func TestDetectConflicts(t *testing.T) {
	candidate := leave("new", generic.ClassSick, 10, 12, generic.StatusPending)

	deleted := leave("deleted", generic.ClassAnnual, 9, 13, generic.StatusApproved)
	deleted.Deleted = &generic.Deletion{By: "hr", Reason: "dup"}

	otherEmployee := leave("other", generic.ClassAnnual, 9, 13, generic.StatusApproved)
	otherEmployee.EmployeeID = "emp-2"

	existing := []generic.LeaveRequest{
		leave("hit", generic.ClassAnnual, 12, 16, generic.StatusInProgress),
		leave("touching-end", generic.ClassAnnual, 2, 10, generic.StatusApproved),
		leave("apart", generic.ClassAnnual, 16, 20, generic.StatusApproved),
		leave("rejected", generic.ClassAnnual, 9, 13, generic.StatusRejected),
		leave("cancelled", generic.ClassAnnual, 9, 13, generic.StatusCancelled),
		leave("same-class", generic.ClassSick, 9, 13, generic.StatusApproved),
		leave("other-class", generic.ClassOther, 9, 13, generic.StatusApproved),
		deleted,
		otherEmployee,
		candidate,
	}

	got := timeoff.DetectConflicts(candidate, existing)

	ids := make([]generic.RequestID, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.RequestID)
	}
	assert.Equal(t, []generic.RequestID{"hit", "touching-end"}, ids)
	assert.Contains(t, got[0].Message, "sick leave overlaps annual leave")
}

func TestDetectConflicts_EitherDirection(t *testing.T) {
	annual := leave("a", generic.ClassAnnual, 9, 13, generic.StatusPending)
	sick := leave("s", generic.ClassSick, 11, 11, generic.StatusApproved)

	assert.Len(t, timeoff.DetectConflicts(annual, []generic.LeaveRequest{sick}), 1)
	assert.Len(t, timeoff.DetectConflicts(sick, []generic.LeaveRequest{annual}), 1)
	assert.Empty(t, timeoff.DetectConflicts(annual, nil))
}
