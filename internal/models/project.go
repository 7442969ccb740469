package models

import "fmt"

// Template is a project archetype. It changes which features apply, never the balance math.
type Template string

const (
	TemplateTravel    Template = "travel"
	TemplateBuilding  Template = "building"
	TemplateGathering Template = "gathering"
	TemplatePersonal  Template = "personal"
)

// ParseTemplate validates a template name. Empty defaults to travel.
func ParseTemplate(s string) (Template, error) {
	switch t := Template(s); t {
	case "":
		return TemplateTravel, nil
	case TemplateTravel, TemplateBuilding, TemplateGathering, TemplatePersonal:
		return t, nil
	default:
		return "", fmt.Errorf("unknown template %q", s)
	}
}

// HasCharges reports whether the template tracks monthly charges.
func (t Template) HasCharges() bool {
	return t == TemplateBuilding
}

// Role is a participant's role inside a project.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Project groups participants, expenses and settlements under one ledger.
type Project struct {
	// ID is the unique identifier for the project (UUID format).
	ID string

	Name     string
	Template Template

	// Currency is an ISO code used for display only.
	Currency string

	// OwnerID is the user who created the project.
	OwnerID string

	// CreatedAt is the Unix timestamp when the project was created.
	CreatedAt int64

	Participants []Participant

	// ChargeRule is set only for building projects that configured dues.
	ChargeRule *ChargeRule
}

// Participant is a person taking part in a project's ledger.
type Participant struct {
	ID        string
	ProjectID string
	Name      string

	// Weight drives weighted splits and, in building projects, the number of units owned.
	Weight int64

	Role Role

	// UserID links the participant to an account. Empty for guests.
	UserID string

	// RemovedAt is the Unix timestamp of soft removal, zero while active.
	RemovedAt int64
}

// Active reports whether the participant has not been removed.
func (p Participant) Active() bool {
	return p.RemovedAt == 0
}

// ParticipantIDs returns every participant id in project order, removed ones included.
func (p *Project) ParticipantIDs() []string {
	ids := make([]string, len(p.Participants))
	for i, part := range p.Participants {
		ids[i] = part.ID
	}
	return ids
}

// FindParticipant looks up a participant by id.
func (p *Project) FindParticipant(id string) (*Participant, bool) {
	for i := range p.Participants {
		if p.Participants[i].ID == id {
			return &p.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantForUser returns the active participant linked to a user.
func (p *Project) ParticipantForUser(userID string) (*Participant, bool) {
	if userID == "" {
		return nil, false
	}
	for i := range p.Participants {
		if p.Participants[i].UserID == userID && p.Participants[i].Active() {
			return &p.Participants[i], true
		}
	}
	return nil, false
}
