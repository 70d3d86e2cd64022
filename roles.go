package session

import (
	"bytes"
	"encoding/json"
)

// Role is the normalized role tag for a session user
type Role string

const (
	// RoleAdmin is the center administrator role
	RoleAdmin Role = "admin"
	// RoleTeacher is the teaching staff role
	RoleTeacher Role = "teacher"
	// RoleStudent is the student role
	RoleStudent Role = "student"
	// RoleParent is the guardian role
	RoleParent Role = "parent"
	// RoleUnknown is the degraded tag for unrecognized role shapes
	RoleUnknown Role = "unknown"
)

// The remote authority encodes roles as numeric ids in some payloads.
var roleIDs = map[int64]Role{
	1: RoleAdmin,
	2: RoleTeacher,
	3: RoleParent,
	4: RoleStudent,
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role logs in through the elevated endpoint.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleTeacher
}

func (r Role) String() string {
	return string(r)
}

// NormalizeRole maps whatever role shape the remote authority supplied (a
// tag string, a numeric id, or an object carrying an id) onto one of the
// fixed tags. It is idempotent and never panics; unrecognized shapes degrade
// to RoleUnknown instead of failing the caller.
func NormalizeRole(raw any) Role {
	switch v := raw.(type) {
	case Role:
		if v.IsValid() {
			return v
		}
		return RoleUnknown
	case string:
		if role := Role(v); role.IsValid() {
			return role
		}
		return RoleUnknown
	case int:
		return roleFromID(int64(v))
	case int64:
		return roleFromID(v)
	case float64:
		return roleFromID(int64(v))
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return roleFromID(id)
		}
		return RoleUnknown
	case map[string]any:
		if id, ok := v["id"]; ok {
			return NormalizeRole(id)
		}
		return RoleUnknown
	default:
		return RoleUnknown
	}
}

func roleFromID(id int64) Role {
	if role, ok := roleIDs[id]; ok {
		return role
	}
	return RoleUnknown
}

// ParseRole safely parses a string into a Role tag
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// UnmarshalJSON accepts the heterogeneous wire shapes (tag string, numeric
// id, or {"id": n} object) so snapshots written by older clients and raw
// authority payloads both decode to a normalized tag.
func (r *Role) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		*r = RoleUnknown
		return nil
	}

	*r = NormalizeRole(raw)
	return nil
}

// MarshalJSON always writes the normalized tag string.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}
