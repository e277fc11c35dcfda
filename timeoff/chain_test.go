package timeoff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/generic/store"
	"github.com/warp/leave-engine/timeoff"
)

func TestHierarchyResolver_WalksManagersAndStopsAtCycle(t *testing.T) {
	// GIVEN: e1 -> m1 (direct manager) -> m2 (department manager) -> e1
	// WHEN: Resolving e1's chain
	// THEN: [m1, m2]; the cycle back to e1 ends the walk

	ctx := context.Background()
	dir := store.NewMemory()
	require.NoError(t, dir.SaveDepartment(ctx, generic.Department{ID: "ops", CompanyID: "acme", ManagerID: "m2"}))
	require.NoError(t, dir.SaveEmployee(ctx, generic.Employee{ID: "e1", CompanyID: "acme", ManagerID: "m1"}))
	require.NoError(t, dir.SaveEmployee(ctx, generic.Employee{ID: "m1", CompanyID: "acme", DepartmentID: "ops"}))
	require.NoError(t, dir.SaveEmployee(ctx, generic.Employee{ID: "m2", CompanyID: "acme", ManagerID: "e1"}))

	chain, err := timeoff.HierarchyResolver{Directory: dir}.Resolve(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []generic.ActorID{"m1", "m2"}, chain)
}

func TestHierarchyResolver_DepartmentManagerHasNoChain(t *testing.T) {
	ctx := context.Background()
	dir := store.NewMemory()
	require.NoError(t, dir.SaveDepartment(ctx, generic.Department{ID: "ops", CompanyID: "acme", ManagerID: "boss"}))
	require.NoError(t, dir.SaveEmployee(ctx, generic.Employee{ID: "boss", CompanyID: "acme", DepartmentID: "ops"}))

	chain, err := timeoff.HierarchyResolver{Directory: dir}.Resolve(ctx, "boss")
	require.NoError(t, err)
	assert.Empty(t, chain)

	// Unknown employee resolves to an empty chain
	chain, err = timeoff.HierarchyResolver{Directory: dir}.Resolve(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestHierarchyResolver_MissingManagerRecordEndsChain(t *testing.T) {
	ctx := context.Background()
	dir := store.NewMemory()
	require.NoError(t, dir.SaveEmployee(ctx, generic.Employee{ID: "e1", ManagerID: "m1"}))

	chain, err := timeoff.HierarchyResolver{Directory: dir}.Resolve(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []generic.ActorID{"m1"}, chain)
}

func TestTruncateChain(t *testing.T) {
	chain := []generic.ActorID{"a", "b", "c", "d"}

	tests := []struct {
		name   string
		levels int
		single bool
		want   []generic.ActorID
	}{
		{"whole chain when levels unset", 0, false, chain},
		{"first levels approvers", 2, false, []generic.ActorID{"a", "b"}},
		{"levels beyond chain keep all", 9, false, chain},
		{"single approval wins over levels", 3, true, []generic.ActorID{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeoff.TruncateChain(chain, tt.levels, tt.single))
		})
	}

	assert.Empty(t, timeoff.TruncateChain(nil, 2, true))
}

func TestStaticResolver_ReturnsCopy(t *testing.T) {
	r := timeoff.StaticResolver{"e1": {"a", "b"}}

	chain, err := r.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	chain[0] = "x"

	again, _ := r.Resolve(context.Background(), "e1")
	assert.Equal(t, generic.ActorID("a"), again[0])
}
