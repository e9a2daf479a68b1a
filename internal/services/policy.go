package services

import (
	"husaride/internal/auth"
	"husaride/internal/models"
)

type Action string

const (
	ActionBook        Action = "book"
	ActionAccept      Action = "accept"
	ActionAdminAccept Action = "admin-accept"
	ActionReassign    Action = "reassign"
	ActionComplete    Action = "complete"
	ActionCancel      Action = "cancel"
	ActionManageUsers Action = "manage-users"
	ActionViewOwn     Action = "view-own"
)

// Authorize decides whether id may perform action, on ride when the action
// targets one. A nil id is an anonymous caller. Role failures return
// ErrForbidden; ownership failures return ErrNotFound.
func Authorize(action Action, id *auth.Identity, ride *models.Ride) error {
	if action == ActionBook {
		// Guests book too; registered callers book as passengers.
		if id == nil || id.Role == models.RolePassenger || id.Role == models.RoleAdmin || id.Role == models.RoleDriver {
			return nil
		}
		return ErrForbidden
	}
	if id == nil {
		return ErrUnauthenticated
	}
	switch action {
	case ActionAccept:
		return requireRole(id, models.RoleDriver)
	case ActionAdminAccept, ActionReassign, ActionManageUsers:
		return requireRole(id, models.RoleAdmin)
	case ActionComplete:
		if err := requireRole(id, models.RoleDriver); err != nil {
			return err
		}
		if ride != nil && !ride.IsDriver(id.UserID) {
			return ErrNotFound
		}
		return nil
	case ActionCancel:
		if ride != nil && !ride.IsPassenger(id.UserID) {
			return ErrNotFound
		}
		return nil
	case ActionViewOwn:
		return nil
	}
	return ErrForbidden
}

func requireRole(id *auth.Identity, role models.Role) error {
	if id.Role != role {
		return ErrForbidden
	}
	return nil
}
