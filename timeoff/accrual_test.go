package timeoff_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

func TestEntitlementDays_Tiers(t *testing.T) {
	tests := []struct {
		seniority int
		age       int
		want      int
	}{
		{0, timeoff.AgeUnknown, 14},
		{4, 30, 14},
		{5, 30, 20},
		{14, 30, 20},
		{15, 30, 26},
		{-3, timeoff.AgeUnknown, 14},
		// Age floor raises to 20, never lowers
		{2, 17, 20},
		{2, 50, 20},
		{2, 49, 14},
		{15, 55, 26},
		{2, 18, 14},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("seniority=%d/age=%d", tt.seniority, tt.age), func(t *testing.T) {
			assert.Equal(t, tt.want, timeoff.EntitlementDays(tt.seniority, tt.age))
		})
	}
}

func TestSeniorityAt_Anniversary(t *testing.T) {
	// GIVEN: Hired 2020-03-10
	// WHEN: Measuring at the 2025 anniversary
	// THEN: 5 completed years, worth 20 days

	emp := generic.Employee{ID: "emp-1", HireDate: generic.NewTimePoint(2020, time.March, 10)}
	at := generic.AnniversaryIn(emp.HireDate, 2025)

	seniority := timeoff.SeniorityAt(emp, at)
	assert.Equal(t, 5, seniority)
	assert.Equal(t, 20, timeoff.EntitlementDays(seniority, timeoff.AgeAt(emp, at)))
}

func TestAgeAt_UnknownWithoutBirthDate(t *testing.T) {
	emp := generic.Employee{ID: "emp-1"}
	assert.Equal(t, timeoff.AgeUnknown, timeoff.AgeAt(emp, generic.NewTimePoint(2025, time.January, 1)))

	birth := generic.NewTimePoint(2008, time.June, 1)
	emp.BirthDate = &birth
	assert.Equal(t, 16, timeoff.AgeAt(emp, generic.NewTimePoint(2025, time.January, 1)))
}

func TestNextAnniversary_TodayRollsToNextYear(t *testing.T) {
	hire := generic.NewTimePoint(2020, time.March, 10)

	assert.Equal(t, "2026-03-10", timeoff.NextAnniversary(hire, generic.NewTimePoint(2025, time.March, 10)).String())
	assert.Equal(t, "2025-03-10", timeoff.NextAnniversary(hire, generic.NewTimePoint(2025, time.January, 2)).String())
}
