package auth

import "github.com/spec-kit/helpdesk-service/internal/domain"

// ScopeKind selects which tickets a user may see.
type ScopeKind int

const (
	// ScopeNone matches nothing; callers must not issue a query.
	ScopeNone ScopeKind = iota
	ScopeAll
	ScopeAssigned
	ScopeCreator
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeAssigned:
		return "assigned"
	case ScopeCreator:
		return "creator"
	}
	return "none"
}

// Scope is the ticket visibility predicate for one user. Soft-deleted tickets
// are outside every scope.
type Scope struct {
	Kind   ScopeKind
	UserID int64
}

// ResolveScope picks the highest-precedence rule matching perms: view-all,
// then assigned tickets, then own tickets. An empty set sees nothing.
func ResolveScope(userID int64, perms PermissionSet) Scope {
	switch {
	case perms.Empty():
		return Scope{Kind: ScopeNone, UserID: userID}
	case perms.Has(CapViewAllTickets):
		return Scope{Kind: ScopeAll, UserID: userID}
	case perms.Has(CapAssignedScope):
		return Scope{Kind: ScopeAssigned, UserID: userID}
	default:
		return Scope{Kind: ScopeCreator, UserID: userID}
	}
}

// IsNone reports whether the scope can never match a ticket.
func (s Scope) IsNone() bool {
	return s.Kind == ScopeNone
}

// Permits evaluates the scope against a single ticket. assigned tells whether
// the scope's user currently holds an assignment on t.
func (s Scope) Permits(t *domain.Ticket, assigned bool) bool {
	if t == nil || !t.Active {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeAssigned:
		return assigned
	case ScopeCreator:
		return t.CreatedBy == s.UserID
	}
	return false
}
