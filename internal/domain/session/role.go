// Package session models the authenticated caller of a request and decides
// whether that caller may read administrative analytics.
package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of role labels issued by the authentication system.
// The zero value is not a valid role.
type Role uint8

const (
	roleInvalid Role = iota
	RoleUser
	RoleOrganizer
	RoleAdmin
	RoleSuperAdmin
)

var roleLabels = map[Role]string{
	RoleUser:       "USER",
	RoleOrganizer:  "ORGANIZER",
	RoleAdmin:      "ADMIN",
	RoleSuperAdmin: "SUPERADMIN",
}

// ParseRole maps a label such as "ADMIN" to its Role. Matching ignores case
// and surrounding whitespace.
func ParseRole(label string) (Role, error) {
	want := strings.ToUpper(strings.TrimSpace(label))
	for r, l := range roleLabels {
		if l == want {
			return r, nil
		}
	}
	return roleInvalid, fmt.Errorf("%w: %q", ErrUnknownRole, label)
}

// String returns the wire label of the role.
func (r Role) String() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var label string
	if err := json.Unmarshal(b, &label); err != nil {
		return err
	}
	parsed, err := ParseRole(label)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
