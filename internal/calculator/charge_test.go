package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPeriod(t *testing.T, s string) Period {
	t.Helper()
	p, err := ParsePeriod(s)
	require.NoError(t, err)
	return p
}

func TestPeriod(t *testing.T) {
	p := mustPeriod(t, "2026-11")
	assert.Equal(t, "2026-11", p.String())
	assert.Equal(t, "2026-12", p.Next().String())
	assert.Equal(t, "2027-01", p.Next().Next().String())
	assert.True(t, p.Before(p.Next()))
	assert.False(t, p.Before(p))

	assert.Equal(t, 6, mustPeriod(t, "2026-01").MonthsThrough(mustPeriod(t, "2026-06")))
	assert.Equal(t, 14, mustPeriod(t, "2025-12").MonthsThrough(mustPeriod(t, "2027-01")))
	assert.Equal(t, 0, mustPeriod(t, "2026-06").MonthsThrough(mustPeriod(t, "2026-01")))

	assert.Equal(t, Period{Year: 2026, Month: time.October}, PeriodOf(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)))

	_, err := ParsePeriod("2026-13")
	assert.Error(t, err)
	_, err = ParsePeriod("October")
	assert.Error(t, err)
}

func TestChargeDebts(t *testing.T) {
	start := mustPeriod(t, "2026-01")
	current := mustPeriod(t, "2026-06")
	terms := ChargeTerms{AmountPerUnit: 100000, Start: start}

	var payments []ChargePaymentEntry
	for p, i := start, 0; i < 4; i, p = i+1, p.Next() {
		payments = append(payments, ChargePaymentEntry{ParticipantID: "unit-1", Period: p, Amount: 100000})
	}

	summary, err := ChargeDebts(terms, current, []ChargeParticipant{{ParticipantID: "unit-1", Units: 1}}, payments)
	require.NoError(t, err)
	require.Len(t, summary.Debts, 1)

	debt := summary.Debts[0]
	assert.Equal(t, int64(200000), debt.ChargeDebt)
	assert.Equal(t, 4, debt.PaidMonths)
	assert.Equal(t, 6, debt.TotalMonths)
	assert.Equal(t, int64(200000), summary.TotalChargeDebt)
}

func TestChargeDebts_PerPeriodFloor(t *testing.T) {
	start := mustPeriod(t, "2026-01")
	current := mustPeriod(t, "2026-03")
	terms := ChargeTerms{AmountPerUnit: 1000, Start: start}

	participants := []ChargeParticipant{
		{ParticipantID: "a", Units: 1},
		{ParticipantID: "b", Units: 2},
	}
	payments := []ChargePaymentEntry{
		// a overpays January; it does not cover February or March.
		{ParticipantID: "a", Period: start, Amount: 3000},
		// b pays half of January's double due.
		{ParticipantID: "b", Period: start, Amount: 1000},
		{ParticipantID: "b", Period: start.Next(), Amount: 2000},
		// outside the window
		{ParticipantID: "b", Period: mustPeriod(t, "2025-12"), Amount: 5000},
		{ParticipantID: "b", Period: mustPeriod(t, "2026-04"), Amount: 5000},
	}

	summary, err := ChargeDebts(terms, current, participants, payments)
	require.NoError(t, err)

	assert.Equal(t, ChargeDebt{ParticipantID: "a", ChargeDebt: 2000, PaidMonths: 1, TotalMonths: 3}, summary.Debts[0])
	assert.Equal(t, ChargeDebt{ParticipantID: "b", ChargeDebt: 1000 + 2000, PaidMonths: 1, TotalMonths: 3}, summary.Debts[1])
	assert.Equal(t, int64(5000), summary.TotalChargeDebt)
}

func TestChargeDebts_BeforeStart(t *testing.T) {
	summary, err := ChargeDebts(
		ChargeTerms{AmountPerUnit: 500, Start: mustPeriod(t, "2027-01")},
		mustPeriod(t, "2026-10"),
		[]ChargeParticipant{{ParticipantID: "a", Units: 1}},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, ChargeDebt{ParticipantID: "a"}, summary.Debts[0])
	assert.Zero(t, summary.TotalChargeDebt)
}

func TestChargeDebts_Errors(t *testing.T) {
	start := mustPeriod(t, "2026-01")
	terms := ChargeTerms{AmountPerUnit: 100, Start: start}
	people := []ChargeParticipant{{ParticipantID: "a", Units: 1}}

	_, err := ChargeDebts(terms, start, people, []ChargePaymentEntry{{ParticipantID: "ghost", Period: start, Amount: 100}})
	assert.ErrorIs(t, err, ErrIntegrity)

	_, err = ChargeDebts(terms, start, []ChargeParticipant{{ParticipantID: "a", Units: 0}}, nil)
	assert.Error(t, err)

	_, err = ChargeDebts(ChargeTerms{AmountPerUnit: -1, Start: start}, start, people, nil)
	assert.Error(t, err)

	_, err = ChargeDebts(terms, start, []ChargeParticipant{{ParticipantID: "a", Units: MaxWeight + 1}}, nil)
	assert.Error(t, err)

	huge := ChargeTerms{AmountPerUnit: math.MaxInt64 / 2, Start: start}
	_, err = ChargeDebts(huge, start, []ChargeParticipant{{ParticipantID: "a", Units: 3}}, nil)
	assert.ErrorContains(t, err, "monthly due")

	_, err = ChargeDebts(huge, mustPeriod(t, "2026-03"), people, nil)
	assert.ErrorContains(t, err, "charge debt of a overflows")
}

func TestChargeDebts_NoParticipants(t *testing.T) {
	start := mustPeriod(t, "2026-01")
	summary, err := ChargeDebts(ChargeTerms{AmountPerUnit: 100, Start: start}, start, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Debts)
	assert.Zero(t, summary.TotalChargeDebt)
}
