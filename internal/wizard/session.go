package wizard

import (
	"strconv"
	"sync"
	"time"
)

// Pending names the backend call a session is waiting on.
type Pending string

const (
	PendingNone   Pending = ""
	PendingUpload Pending = "uploading"
	PendingSubmit Pending = "submitting"
	PendingWound  Pending = "creating_wound"
)

// Session is one wizard mount owned by a single caller.
type Session struct {
	ID        string
	Subject   string
	CreatedAt time.Time

	role    Role
	mu      sync.Mutex
	nav     *Navigator
	pending Pending
	closed  bool // abandoned; callers holding a stale pointer get ErrNotFound
}

func newSession(id, subject string, role Role, ctx Context, now time.Time) *Session {
	return &Session{
		ID:        id,
		Subject:   subject,
		CreatedAt: now,
		role:      role,
		nav:       NewNavigator(role, ctx),
	}
}

// Role is fixed for the lifetime of the session.
func (s *Session) Role() Role {
	return s.role
}

// State is a point-in-time copy of a session.
type State struct {
	WizardID  string
	Role      Role
	Step      Step
	Pending   Pending
	SkipArmed bool
	Draft     Draft
	PainBand  *PainBand
	CreatedAt time.Time
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot() State {
	st := State{
		WizardID:  s.ID,
		Role:      s.role,
		Step:      s.nav.Step(),
		Pending:   s.pending,
		SkipArmed: s.nav.SkipArmed(),
		Draft:     s.nav.Draft(),
		CreatedAt: s.CreatedAt,
	}
	if lvl, err := strconv.Atoi(st.Draft.Measurements.PainLevel); err == nil {
		if band, err := BandFor(lvl); err == nil {
			st.PainBand = &band
		}
	}
	return st
}
