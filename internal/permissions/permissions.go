// Package permissions decides what an authenticated user may change inside a project.
// Every check takes its inputs explicitly; nothing is read from the request context.
package permissions

import "github.com/vilanovax/dangi-sub000/internal/models"

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID string
}

// Resource is a ledger record being modified.
type Resource struct {
	// CreatedBy is the user who recorded the resource.
	CreatedBy string

	// ParticipantID is the participant the record belongs to: an expense's payer
	// or a settlement's sender. May be empty.
	ParticipantID string
}

// ForExpense describes an expense as a Resource.
func ForExpense(e *models.Expense) Resource {
	return Resource{CreatedBy: e.CreatedBy, ParticipantID: e.PaidByID}
}

// ForSettlement describes a settlement as a Resource.
func ForSettlement(s *models.Settlement) Resource {
	return Resource{CreatedBy: s.CreatedBy, ParticipantID: s.FromID}
}

// IsMember reports whether the actor is the owner or an active participant of the project.
func IsMember(actor Actor, project *models.Project) bool {
	if actor.UserID == "" || project == nil {
		return false
	}
	if project.OwnerID == actor.UserID {
		return true
	}
	_, ok := project.ParticipantForUser(actor.UserID)
	return ok
}

// CanView reports whether the actor may read the project's ledger.
func CanView(actor Actor, project *models.Project) bool {
	return IsMember(actor, project)
}

// CanManageProject reports whether the actor may change the project itself:
// its name, participants and charge rule. Only the owner may.
func CanManageProject(actor Actor, project *models.Project) bool {
	return actor.UserID != "" && project != nil && project.OwnerID == actor.UserID
}

// CanEdit reports whether the actor may update or delete a resource in the project.
//
// The owner may edit everything. Other members may edit what they recorded, or
// what belongs to the participant linked to their account.
func CanEdit(actor Actor, resource Resource, project *models.Project) bool {
	if !IsMember(actor, project) {
		return false
	}
	if CanManageProject(actor, project) {
		return true
	}
	if resource.CreatedBy != "" && resource.CreatedBy == actor.UserID {
		return true
	}
	if resource.ParticipantID != "" {
		if p, ok := project.ParticipantForUser(actor.UserID); ok && p.ID == resource.ParticipantID {
			return true
		}
	}
	return false
}
