package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/renderworld/ecs"
	"github.com/stretchr/testify/assert"
)

func TestAccessConflicts(t *testing.T) {
	cases := []struct {
		name     string
		a, b     ecs.Access
		conflict bool
	}{
		{"readers share", ecs.Read[Position](), ecs.Read[Position](), false},
		{"read and write", ecs.Read[Position](), ecs.Write[Position](), true},
		{"write and read", ecs.Write[Position](), ecs.Read[Position](), true},
		{"two writers", ecs.Write[Position](), ecs.Write[Position](), true},
		{"disjoint writers", ecs.Write[Position](), ecs.Write[Velocity](), false},
		{"exclusive", ecs.ExclusiveAccess(), ecs.NoAccess(), true},
		{"nothing", ecs.NoAccess(), ecs.NoAccess(), false},
		{
			"merged overlap",
			ecs.Read[Position]().Merge(ecs.Write[Velocity]()),
			ecs.Read[Velocity](),
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.conflict, tc.a.ConflictsWith(tc.b))
			assert.Equal(t, tc.conflict, tc.b.ConflictsWith(tc.a), "conflicts are symmetric")
		})
	}
}

func TestAccessMerge(t *testing.T) {
	base := ecs.Read[Position]()
	merged := base.Merge(ecs.Read[Position](), ecs.Write[Health](), ecs.ExclusiveAccess())

	assert.Equal(t, []reflect.Type{reflect.TypeFor[Position]()}, merged.Reads)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[Health]()}, merged.Writes)
	assert.True(t, merged.Exclusive)

	assert.Len(t, base.Reads, 1, "merge does not alias the receiver")
	assert.Empty(t, base.Writes)
	assert.False(t, base.Exclusive)
}
