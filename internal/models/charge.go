package models

// ChargeRule is the monthly due of a building project.
type ChargeRule struct {
	ProjectID string

	// AmountPerUnit is due every month for each unit a participant owns.
	AmountPerUnit int64

	// StartPeriod is the first month ("YYYY-MM") dues are owed for.
	StartPeriod string

	UpdatedAt int64
}

// ChargePayment records money paid toward one month's due.
type ChargePayment struct {
	ID            string
	ProjectID     string
	ParticipantID string

	// Period is the month ("YYYY-MM") the payment covers.
	Period string

	Amount    int64
	CreatedAt int64
	CreatedBy string
}
