package client

// GuardResult is the outcome of an access check.
type GuardResult int

const (
	// Pending means the session is still resolving; callers should show a
	// loading state, not an access denial.
	Pending GuardResult = iota
	Allow
	Deny
)

func (r GuardResult) String() string {
	switch r {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	default:
		return "deny"
	}
}

// Guard gates access to protected surfaces based on session state.
type Guard struct {
	session   *Session
	superuser bool
}

// NewGuard returns a guard that requires any authenticated user.
func NewGuard(session *Session) *Guard {
	return &Guard{session: session}
}

// RequireSuperuser returns a guard that additionally requires superuser.
func (g *Guard) RequireSuperuser() *Guard {
	return &Guard{session: g.session, superuser: true}
}

// Check evaluates the session. It never returns Deny while the session is
// still loading.
func (g *Guard) Check() GuardResult {
	switch g.session.State() {
	case StateLoading:
		return Pending
	case StateAuthenticated:
		if g.superuser {
			user := g.session.User()
			if user == nil || !user.IsSuperuser {
				return Deny
			}
		}
		return Allow
	default:
		return Deny
	}
}
