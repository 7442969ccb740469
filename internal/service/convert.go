package service

import (
	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIPreferences(p models.UserPreferences) *api.Preferences {
	return &api.Preferences{
		DefaultSplitMode: p.DefaultSplitMode,
		SelectedPeriod:   p.SelectedPeriod,
	}
}

func toAPIParticipant(p *models.Participant) *api.Participant {
	return &api.Participant{
		ID:        p.ID,
		Name:      p.Name,
		Weight:    p.Weight,
		Role:      string(p.Role),
		UserID:    p.UserID,
		RemovedAt: p.RemovedAt,
	}
}

func toAPIChargeRule(r *models.ChargeRule) *api.ChargeRule {
	if r == nil {
		return nil
	}
	return &api.ChargeRule{AmountPerUnit: r.AmountPerUnit, StartPeriod: r.StartPeriod}
}

func toAPIProject(p *models.Project) *api.Project {
	participants := make([]*api.Participant, len(p.Participants))
	for i := range p.Participants {
		participants[i] = toAPIParticipant(&p.Participants[i])
	}
	return &api.Project{
		ID:           p.ID,
		Name:         p.Name,
		Template:     string(p.Template),
		Currency:     p.Currency,
		OwnerID:      p.OwnerID,
		CreatedAt:    p.CreatedAt,
		Participants: participants,
		ChargeRule:   toAPIChargeRule(p.ChargeRule),
	}
}

func toAPIShares(shares []models.ExpenseShare) []*api.Share {
	out := make([]*api.Share, len(shares))
	for i, s := range shares {
		out[i] = &api.Share{ParticipantID: s.ParticipantID, Amount: s.Amount}
	}
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Title:     e.Title,
		Amount:    e.Amount,
		PaidByID:  e.PaidByID,
		Date:      e.Date,
		Shares:    toAPIShares(e.Shares),
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		FromID:    s.FromID,
		ToID:      s.ToID,
		Amount:    s.Amount,
		Date:      s.Date,
		Note:      s.Note,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
	}
}

func toAPIChargePayment(p *models.ChargePayment) *api.ChargePayment {
	return &api.ChargePayment{
		ID:            p.ID,
		ParticipantID: p.ParticipantID,
		Period:        p.Period,
		Amount:        p.Amount,
		CreatedAt:     p.CreatedAt,
	}
}

func toModelShares(shares []calculator.Share) []models.ExpenseShare {
	out := make([]models.ExpenseShare, len(shares))
	for i, s := range shares {
		out[i] = models.ExpenseShare{ParticipantID: s.ParticipantID, Amount: s.Amount}
	}
	return out
}

func toAPISplitShares(shares []calculator.Share) []*api.Share {
	out := make([]*api.Share, len(shares))
	for i, s := range shares {
		out[i] = &api.Share{ParticipantID: s.ParticipantID, Amount: s.Amount}
	}
	return out
}
