package calculator

import (
	"fmt"
	"math"
	"time"
)

// Period is a calendar month, the unit building charges are due in.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is earlier than other.
func (p Period) Before(other Period) bool {
	return p.index() < other.index()
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}

// MonthsThrough counts the periods from p to end inclusive; zero if end precedes p.
func (p Period) MonthsThrough(end Period) int {
	n := end.index() - p.index() + 1
	if n < 0 {
		return 0
	}
	return n
}

// ChargeTerms is a building project's recurring due.
type ChargeTerms struct {
	AmountPerUnit int64
	Start         Period
}

// ChargeParticipant is a participant liable for charges. Units scales the due;
// a participant owning two apartments pays twice the per-unit amount.
type ChargeParticipant struct {
	ParticipantID string
	Units         int64
}

// ChargePaymentEntry is a recorded payment toward one period's due.
type ChargePaymentEntry struct {
	ParticipantID string
	Period        Period
	Amount        int64
}

// ChargeDebt is one participant's arrears.
type ChargeDebt struct {
	ParticipantID string
	ChargeDebt    int64
	PaidMonths    int
	TotalMonths   int
}

// ChargeSummary is the charge position of a whole project.
type ChargeSummary struct {
	Debts           []ChargeDebt
	TotalChargeDebt int64
}

// ChargeDebts computes arrears from terms.Start through current inclusive.
//
// Each period is settled on its own: unpaid = max(0, due - paid in that period).
// Paying more than the due in one month does not reduce another month's debt.
// Payments dated outside the window are ignored.
func ChargeDebts(terms ChargeTerms, current Period, participants []ChargeParticipant, payments []ChargePaymentEntry) (*ChargeSummary, error) {
	if terms.AmountPerUnit < 0 {
		return nil, fmt.Errorf("charge amount cannot be negative")
	}

	totalMonths := terms.Start.MonthsThrough(current)

	type key struct {
		participant string
		period      int
	}
	paid := make(map[key]int64, len(payments))
	known := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p.Units <= 0 || p.Units > MaxWeight {
			return nil, fmt.Errorf("participant %s must own between 1 and %d units", p.ParticipantID, MaxWeight)
		}
		if terms.AmountPerUnit > math.MaxInt64/p.Units {
			return nil, fmt.Errorf("monthly due of %s overflows", p.ParticipantID)
		}
		known[p.ParticipantID] = true
	}
	for _, pay := range payments {
		if !known[pay.ParticipantID] {
			return nil, integrityErrorf("charge payment", "unknown participant %q", pay.ParticipantID)
		}
		if pay.Amount < 0 {
			return nil, integrityErrorf("charge payment", "negative amount %d for %s", pay.Amount, pay.ParticipantID)
		}
		if pay.Period.Before(terms.Start) || current.Before(pay.Period) {
			continue
		}
		paid[key{pay.ParticipantID, pay.Period.index()}] += pay.Amount
	}

	summary := &ChargeSummary{Debts: make([]ChargeDebt, 0, len(participants))}
	for _, p := range participants {
		due := terms.AmountPerUnit * p.Units
		debt := ChargeDebt{ParticipantID: p.ParticipantID, TotalMonths: totalMonths}
		period := terms.Start
		for i := 0; i < totalMonths; i++ {
			got := paid[key{p.ParticipantID, period.index()}]
			if got >= due {
				debt.PaidMonths++
			} else {
				unpaid := due - got
				if debt.ChargeDebt > math.MaxInt64-unpaid {
					return nil, fmt.Errorf("charge debt of %s overflows", p.ParticipantID)
				}
				debt.ChargeDebt += unpaid
			}
			period = period.Next()
		}
		if summary.TotalChargeDebt > math.MaxInt64-debt.ChargeDebt {
			return nil, fmt.Errorf("total charge debt overflows")
		}
		summary.Debts = append(summary.Debts, debt)
		summary.TotalChargeDebt += debt.ChargeDebt
	}

	return summary, nil
}
