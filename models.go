package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ParentCapability names an action a guardian account may perform.
type ParentCapability = string

const (
	CapabilityViewChildInfo       ParentCapability = "view_child_info"
	CapabilityViewChildAttendance ParentCapability = "view_child_attendance"
	CapabilityViewFees            ParentCapability = "view_fees"
	CapabilityMakePayment         ParentCapability = "make_payment"
	CapabilityViewSchedule        ParentCapability = "view_schedule"
)

// DefaultParentCapabilities returns the capability list a parent account
// receives when the remote authority omits one.
func DefaultParentCapabilities() []ParentCapability {
	return []ParentCapability{
		CapabilityViewChildInfo,
		CapabilityViewChildAttendance,
		CapabilityViewFees,
		CapabilityMakePayment,
		CapabilityViewSchedule,
	}
}

// User is the session user value object. It is replaced wholesale on update
// and never mutated field-by-field in storage.
type User struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Gender      string          `json:"gender,omitempty"`
	Address     string          `json:"address,omitempty"`
	DateOfBirth string          `json:"date_of_birth,omitempty"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	Role        Role            `json:"role,omitempty"`
	Teacher     *TeacherProfile `json:"teacher,omitempty"`
	Student     *StudentProfile `json:"student,omitempty"`
	Parent      *ParentProfile  `json:"parent,omitempty"`
}

// TeacherProfile carries teacher-specific attributes from the authority.
type TeacherProfile struct {
	Subject       string `json:"subject,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	HiredAt       string `json:"hired_at,omitempty"`
}

// StudentProfile carries student-specific attributes from the authority.
type StudentProfile struct {
	ClassName  string `json:"class_name,omitempty"`
	EnrolledAt string `json:"enrolled_at,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
}

// ParentProfile carries guardian-specific attributes from the authority.
type ParentProfile struct {
	Occupation        string             `json:"occupation,omitempty"`
	SecondaryParentID string             `json:"secondary_parent_id,omitempty"`
	Capabilities      []ParentCapability `json:"capabilities,omitempty"`
}

// Normalize enforces the single-boundary rules applied to every user coming
// from the wire or from a persisted snapshot: the role tag is normalized and
// parent accounts missing a capability list get the defaults backfilled.
// It reports whether anything changed so callers can re-persist.
func (u *User) Normalize() bool {
	if u == nil {
		return false
	}

	changed := false

	if normalized := NormalizeRole(u.Role); normalized != u.Role {
		u.Role = normalized
		changed = true
	}

	if u.Role == RoleParent {
		if u.Parent == nil {
			u.Parent = &ParentProfile{}
			changed = true
		}
		if len(u.Parent.Capabilities) == 0 {
			u.Parent.Capabilities = DefaultParentCapabilities()
			changed = true
		}
	}

	return changed
}

// Clone returns a deep copy so observers never share mutable profile state
// with the manager.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	clone := *u
	if u.Teacher != nil {
		t := *u.Teacher
		clone.Teacher = &t
	}
	if u.Student != nil {
		s := *u.Student
		clone.Student = &s
	}
	if u.Parent != nil {
		p := *u.Parent
		if len(u.Parent.Capabilities) > 0 {
			p.Capabilities = append([]ParentCapability(nil), u.Parent.Capabilities...)
		}
		clone.Parent = &p
	}

	return &clone
}

// SecondaryParentID returns the secondary guardian id when the role is
// parent and the authority supplied one.
func (u *User) SecondaryParentID() string {
	if u == nil || u.Role != RoleParent || u.Parent == nil {
		return ""
	}
	return u.Parent.SecondaryParentID
}

// UserPatch is a shallow merge applied to the current user. Nil fields are
// left untouched.
type UserPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Gender      *string
	Address     *string
	DateOfBirth *string
	AvatarURL   *string
	Teacher     *TeacherProfile
	Student     *StudentProfile
	Parent      *ParentProfile
}

func (p UserPatch) applyTo(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = *p.DateOfBirth
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Teacher != nil {
		u.Teacher = p.Teacher
	}
	if p.Student != nil {
		u.Student = p.Student
	}
	if p.Parent != nil {
		u.Parent = p.Parent
	}
}

// Credentials is the login payload submitted by the UI.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&c.Password,
			validation.Required,
		),
	)
}
