package main

import (
	"fmt"
	"strings"

	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/service"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/api"
)

// fromLedger converts an offline snapshot into the form the summary engine
// reads from the database. Missing record ids are numbered so that integrity
// errors can still name the record.
func fromLedger(l *api.LedgerSnapshot) (*storage.Snapshot, error) {
	template, err := models.ParseTemplate(l.Template)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(l.Currency)
	if currency == "" {
		currency = service.DefaultCurrency
	}

	project := &models.Project{ID: "offline", Template: template, Currency: currency}
	for i, p := range l.Participants {
		if p.ID == "" {
			return nil, fmt.Errorf("participant %d has no id", i)
		}
		project.Participants = append(project.Participants, models.Participant{
			ID:        p.ID,
			ProjectID: project.ID,
			Name:      p.Name,
			Weight:    max(p.Weight, 1),
			RemovedAt: p.RemovedAt,
		})
	}
	if l.ChargeRule != nil {
		project.ChargeRule = &models.ChargeRule{
			ProjectID:     project.ID,
			AmountPerUnit: l.ChargeRule.AmountPerUnit,
			StartPeriod:   l.ChargeRule.StartPeriod,
		}
	}

	snap := &storage.Snapshot{Project: project}
	for i, e := range l.Expenses {
		expense := &models.Expense{
			ID:        e.ID,
			ProjectID: project.ID,
			Title:     e.Title,
			Amount:    e.Amount,
			PaidByID:  e.PaidByID,
		}
		if expense.ID == "" {
			expense.ID = fmt.Sprintf("#%d", i+1)
		}
		for _, s := range e.Shares {
			expense.Shares = append(expense.Shares, models.ExpenseShare{ParticipantID: s.ParticipantID, Amount: s.Amount})
		}
		snap.Expenses = append(snap.Expenses, expense)
	}
	for i, t := range l.Settlements {
		snap.Settlements = append(snap.Settlements, &models.Settlement{
			ID:        fmt.Sprintf("#%d", i+1),
			ProjectID: project.ID,
			FromID:    t.FromID,
			ToID:      t.ToID,
			Amount:    t.Amount,
		})
	}
	for i, p := range l.ChargePayments {
		payment := &models.ChargePayment{
			ID:            p.ID,
			ProjectID:     project.ID,
			ParticipantID: p.ParticipantID,
			Period:        p.Period,
			Amount:        p.Amount,
		}
		if payment.ID == "" {
			payment.ID = fmt.Sprintf("#%d", i+1)
		}
		snap.ChargePayments = append(snap.ChargePayments, payment)
	}
	return snap, nil
}
