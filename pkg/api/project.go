package api

type Project struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Template     string         `json:"template"`
	Currency     string         `json:"currency"`
	OwnerID      string         `json:"ownerId"`
	CreatedAt    int64          `json:"createdAt"`
	Participants []*Participant `json:"participants"`
	ChargeRule   *ChargeRule    `json:"chargeRule,omitempty"`
}

type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Weight    int64  `json:"weight,omitempty"`
	Role      string `json:"role,omitempty"`
	UserID    string `json:"userId,omitempty"`
	RemovedAt int64  `json:"removedAt,omitempty"`
}

type ChargeRule struct {
	AmountPerUnit int64  `json:"amountPerUnit"`
	StartPeriod   string `json:"startPeriod"`
}

type ChargePayment struct {
	ID            string `json:"id,omitempty"`
	ParticipantID string `json:"participantId"`
	Period        string `json:"period"`
	Amount        int64  `json:"amount"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
}

// NewParticipant describes a participant to add. UserID links an account.
type NewParticipant struct {
	Name   string `json:"name"`
	Weight int64  `json:"weight,omitempty"`
	UserID string `json:"userId,omitempty"`
}

type CreateProjectRequest struct {
	Name     string `json:"name,omitempty"`
	Template string `json:"template,omitempty"`
	Currency string `json:"currency,omitempty"`
	// OwnerName names the caller's own participant. Defaults to the display name.
	OwnerName    string            `json:"ownerName,omitempty"`
	OwnerWeight  int64             `json:"ownerWeight,omitempty"`
	Participants []*NewParticipant `json:"participants,omitempty"`
}

type CreateProjectResponse struct {
	Project *Project `json:"project"`
}

type GetProjectRequest struct {
	ProjectID string `json:"projectId"`
}

type GetProjectResponse struct {
	Project *Project `json:"project"`
}

type ListProjectsRequest struct{}

type ListProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

type UpdateProjectRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

type UpdateProjectResponse struct {
	Project *Project `json:"project"`
}

type DeleteProjectRequest struct {
	ProjectID string `json:"projectId"`
}

type DeleteProjectResponse struct{}

type AddParticipantRequest struct {
	ProjectID   string          `json:"projectId"`
	Participant *NewParticipant `json:"participant"`
}

type AddParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type RemoveParticipantRequest struct {
	ProjectID     string `json:"projectId"`
	ParticipantID string `json:"participantId"`
}

type RemoveParticipantResponse struct{}

type SetChargeRuleRequest struct {
	ProjectID     string `json:"projectId"`
	AmountPerUnit int64  `json:"amountPerUnit"`
	StartPeriod   string `json:"startPeriod"`
}

type SetChargeRuleResponse struct {
	ChargeRule *ChargeRule `json:"chargeRule"`
}

type RecordChargePaymentRequest struct {
	ProjectID     string `json:"projectId"`
	ParticipantID string `json:"participantId"`
	Period        string `json:"period"`
	Amount        int64  `json:"amount"`
}

type RecordChargePaymentResponse struct {
	Payment *ChargePayment `json:"payment"`
}

type GetProjectSummaryRequest struct {
	ProjectID string `json:"projectId"`
	// Period ("YYYY-MM") bounds charge debts. Defaults to the caller's
	// selected period, then the current month.
	Period string `json:"period,omitempty"`
}

type GetProjectSummaryResponse struct {
	Summary *Summary `json:"summary"`
}
