package session

// Session describes the caller of one request. A nil *Session means no one
// is logged in.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Decision is the outcome of Authorize.
type Decision bool

const (
	Denied  Decision = false
	Allowed Decision = true
)

// IsAllowed reports whether the decision grants access.
func (d Decision) IsAllowed() bool { return d == Allowed }

func (d Decision) String() string {
	if d {
		return "allowed"
	}
	return "denied"
}

// AdminRoles is the allow-list for administrative analytics.
var AdminRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleSuperAdmin: {},
}

// Authorize grants access iff s is present and its role is in AdminRoles.
// A missing session or any other role is a normal Denied outcome, never an error.
func Authorize(s *Session) Decision {
	if s == nil {
		return Denied
	}
	if _, ok := AdminRoles[s.Role]; ok {
		return Allowed
	}
	return Denied
}
