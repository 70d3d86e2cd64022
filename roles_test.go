package session_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/educenter/go-session"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want session.Role
	}{
		{"tag string passes through", "teacher", session.RoleTeacher},
		{"already normalized tag is a no-op", session.RoleParent, session.RoleParent},
		{"id 1 is admin", 1, session.RoleAdmin},
		{"id 2 is teacher", int64(2), session.RoleTeacher},
		{"id 3 is parent", float64(3), session.RoleParent},
		{"id 4 is student", 4, session.RoleStudent},
		{"unrecognized id degrades", 9, session.RoleUnknown},
		{"object with id", map[string]any{"id": float64(3), "name": "Parent"}, session.RoleParent},
		{"object without id degrades", map[string]any{"name": "Parent"}, session.RoleUnknown},
		{"json number", json.Number("2"), session.RoleTeacher},
		{"unknown string degrades", "director", session.RoleUnknown},
		{"nil degrades", nil, session.RoleUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, session.NormalizeRole(tc.raw))
		})
	}
}

func TestNormalizeRoleIsIdempotent(t *testing.T) {
	once := session.NormalizeRole(map[string]any{"id": float64(4)})
	twice := session.NormalizeRole(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, session.RoleStudent, twice)
}

func TestRoleUnmarshalJSONShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want session.Role
	}{
		{"string tag", `"admin"`, session.RoleAdmin},
		{"numeric id", `3`, session.RoleParent},
		{"object with id", `{"id": 2, "name": "Giáo viên"}`, session.RoleTeacher},
		{"garbage degrades", `[1, 2]`, session.RoleUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var role session.Role
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &role))
			assert.Equal(t, tc.want, role)
		})
	}
}

func TestRoleMarshalJSONWritesTag(t *testing.T) {
	raw, err := json.Marshal(session.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, `"parent"`, string(raw))
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, session.RoleAdmin.IsStaff())
	assert.True(t, session.RoleTeacher.IsStaff())
	assert.False(t, session.RoleStudent.IsStaff())
	assert.False(t, session.RoleParent.IsStaff())
	assert.False(t, session.RoleUnknown.IsStaff())
}

func TestParseRole(t *testing.T) {
	role, ok := session.ParseRole("student")
	assert.True(t, ok)
	assert.Equal(t, session.RoleStudent, role)

	_, ok = session.ParseRole("unknown")
	assert.False(t, ok)
}

func TestUserNormalizeBackfillsParentCapabilities(t *testing.T) {
	user := &session.User{ID: "usr-1", Role: session.RoleParent}

	changed := user.Normalize()
	require.True(t, changed)
	require.NotNil(t, user.Parent)
	assert.Equal(t, session.DefaultParentCapabilities(), user.Parent.Capabilities)

	// Second pass is a no-op.
	assert.False(t, user.Normalize())
}

func TestUserNormalizeLeavesSuppliedCapabilities(t *testing.T) {
	user := &session.User{
		ID:   "usr-1",
		Role: session.RoleParent,
		Parent: &session.ParentProfile{
			Capabilities: []session.ParentCapability{session.CapabilityViewFees},
		},
	}

	assert.False(t, user.Normalize())
	assert.Equal(t, []session.ParentCapability{session.CapabilityViewFees}, user.Parent.Capabilities)
}
