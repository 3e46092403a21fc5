package auth

import (
	"sort"
)

// Capability is one permission identifier returned by the permission lookup.
// The set is closed; values are persisted in user_capabilities.capability_id.
type Capability int

const (
	CapViewAllTickets    Capability = 1
	CapAssignedScope     Capability = 2
	CapCreatorScope      Capability = 3
	CapTransitionStatus  Capability = 4
	CapDeleteTicket      Capability = 5
	CapRestoreTicket     Capability = 6
	CapAdministerTickets Capability = 7
	CapManageCalendar    Capability = 8
	CapCancelOwnTicket   Capability = 9
)

var capabilityNames = map[Capability]string{
	CapViewAllTickets:    "view_all_tickets",
	CapAssignedScope:     "assigned_scope",
	CapCreatorScope:      "creator_scope",
	CapTransitionStatus:  "transition_status",
	CapDeleteTicket:      "delete_ticket",
	CapRestoreTicket:     "restore_ticket",
	CapAdministerTickets: "administer_tickets",
	CapManageCalendar:    "manage_calendar",
	CapCancelOwnTicket:   "cancel_own_ticket",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c Capability) IsKnown() bool {
	_, ok := capabilityNames[c]
	return ok
}

// PermissionSet is the set of capabilities held by one user.
type PermissionSet map[Capability]struct{}

// NewPermissionSet builds a set from raw ids. Unknown ids are dropped.
func NewPermissionSet(ids ...int) PermissionSet {
	set := make(PermissionSet, len(ids))
	for _, id := range ids {
		c := Capability(id)
		if c.IsKnown() {
			set[c] = struct{}{}
		}
	}
	return set
}

// Of builds a set from capabilities.
func Of(caps ...Capability) PermissionSet {
	set := make(PermissionSet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

func (p PermissionSet) Has(c Capability) bool {
	_, ok := p[c]
	return ok
}

func (p PermissionSet) Empty() bool {
	return len(p) == 0
}

// IDs returns the raw ids in ascending order.
func (p PermissionSet) IDs() []int {
	ids := make([]int, 0, len(p))
	for c := range p {
		ids = append(ids, int(c))
	}
	sort.Ints(ids)
	return ids
}

// Role names the bundles of capabilities the helpdesk hands out.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSupporter Role = "supporter"
	RoleReporter  Role = "reporter"
	RoleViewer    Role = "viewer"
)

// CapabilitiesForRole returns the default capability bundle of a role.
func CapabilitiesForRole(role Role) PermissionSet {
	switch role {
	case RoleAdmin:
		return Of(CapViewAllTickets, CapCreatorScope, CapTransitionStatus, CapDeleteTicket,
			CapRestoreTicket, CapAdministerTickets, CapManageCalendar)
	case RoleSupporter:
		return Of(CapAssignedScope, CapTransitionStatus)
	case RoleReporter:
		return Of(CapCreatorScope, CapDeleteTicket, CapRestoreTicket, CapCancelOwnTicket)
	case RoleViewer:
		return Of(CapViewAllTickets)
	}
	return PermissionSet{}
}

// Actor is the authenticated user acting on the engine.
type Actor struct {
	UserID      int64
	Permissions PermissionSet
}

// NewActor builds an actor.
func NewActor(userID int64, perms PermissionSet) Actor {
	if perms == nil {
		perms = PermissionSet{}
	}
	return Actor{UserID: userID, Permissions: perms}
}

// Can reports whether the actor holds c.
func (a Actor) Can(c Capability) bool {
	return a.Permissions.Has(c)
}

// Scope resolves the actor's visibility scope.
func (a Actor) Scope() Scope {
	return ResolveScope(a.UserID, a.Permissions)
}

// IsStaff reports whether the actor works tickets rather than only filing them.
func (a Actor) IsStaff() bool {
	return a.Can(CapTransitionStatus) || a.Can(CapAdministerTickets)
}
