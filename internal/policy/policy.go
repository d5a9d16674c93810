package policy

import (
	"errors"

	"stockroom/internal/entity"
)

// Action is the operation an actor requests on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var (
	// ErrNotFound means the resource does not exist or is soft-deleted.
	// Existence is decided before authorization so that callers render an
	// absence, never a permission failure, for missing resources.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the resource exists but the actor may not act on it.
	ErrForbidden = errors.New("action forbidden")
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   uint
	Role string
}

// IsPrivileged reports whether the actor's role carries cross-owner rights.
func (a Actor) IsPrivileged() bool {
	return a.Role == entity.UserRoleAdmin || a.Role == entity.UserRoleSuperAdmin
}

// ItemState is the already-fetched snapshot of an inventory item.
type ItemState struct {
	OwnerID uint
	Exists  bool
	Active  bool
}

// UserState is the already-fetched snapshot of a target user account.
type UserState struct {
	ID     uint
	Role   string
	Exists bool
	Active bool
}

// CanAccessItem decides whether the actor may perform action on the item.
// It returns nil to permit, ErrNotFound for missing or soft-deleted items,
// and ErrForbidden otherwise. Pure function: no I/O, no side effects.
func CanAccessItem(actor Actor, action Action, item ItemState) error {
	if !item.Exists || !item.Active {
		return ErrNotFound
	}

	switch action {
	case ActionRead:
		// Catalog reads are open to every authenticated actor.
		return nil
	case ActionUpdate, ActionDelete:
		if actor.ID == item.OwnerID || actor.IsPrivileged() {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// CanAccessUser decides whether the actor may perform action on the target
// account. Same contract as CanAccessItem.
func CanAccessUser(actor Actor, action Action, target UserState) error {
	if !target.Exists || !target.Active {
		return ErrNotFound
	}

	switch action {
	case ActionRead:
		if actor.ID == target.ID || actor.IsPrivileged() {
			return nil
		}
		return ErrForbidden
	case ActionUpdate:
		// Profile fields are self-service only; the super admin may touch
		// other accounts solely through the role-assigning creation flow.
		if actor.ID == target.ID {
			return nil
		}
		if actor.Role == entity.UserRoleSuperAdmin {
			return nil
		}
		return ErrForbidden
	case ActionDelete:
		// The super admin account is never deletable through this path.
		if target.Role == entity.UserRoleSuperAdmin {
			return ErrForbidden
		}
		if actor.ID == target.ID {
			return nil
		}
		// Admins may remove plain users only; peers and the super admin
		// are out of reach.
		if actor.Role == entity.UserRoleAdmin && target.Role == entity.UserRoleUser {
			return nil
		}
		if actor.Role == entity.UserRoleSuperAdmin {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
