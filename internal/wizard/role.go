package wizard

import "fmt"

// Role selects the field set a wizard collects.
type Role string

const (
	RolePatient    Role = "patient"
	RoleSpecialist Role = "specialist"
)

// ParseRole validates a role path segment.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleSpecialist:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Specialist reports whether the richer clinical field set applies.
func (r Role) Specialist() bool {
	return r == RoleSpecialist
}
