// Package authz holds the view and mutate rules shared by the feed manager,
// the HTTP handlers, the change feed and the can_edit flag shown to clients.
package authz

import (
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
)

// CanMutate reports whether actor may update or delete item.
func CanMutate(actor models.Actor, item *models.NewsItem) bool {
	if item == nil || actor.UserID == uuid.Nil {
		return false
	}
	return actor.IsAdmin() || item.AuthorID == actor.UserID
}

// CanView reports whether item is visible to actor.
func CanView(actor models.Actor, item *models.NewsItem) bool {
	if item == nil {
		return false
	}
	return actor.IsAdmin() || (actor.SchoolCode != "" && item.SchoolCode == actor.SchoolCode)
}
