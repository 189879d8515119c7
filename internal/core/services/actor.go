package services

import "github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"

// Actor identifies the authenticated user performing an operation.
// It is threaded explicitly through service calls instead of living
// in a request-global security context.
type Actor struct {
	UserID uint
	Role   models.Role
}

// IsStaff reports whether the actor may act on behalf of other members
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}
