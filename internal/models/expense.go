package models

// Expense is a payment made by one participant on behalf of some or all of the project.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID        string
	ProjectID string
	Title     string

	// Amount is in the smallest currency unit.
	Amount int64

	// PaidByID is the participant who paid.
	PaidByID string

	// Date is the Unix timestamp the expense happened at.
	Date int64

	// Shares divide Amount among participants and always sum to it.
	Shares []ExpenseShare

	// CreatedBy is the user who recorded the expense.
	CreatedBy string
	CreatedAt int64
}

// ExpenseShare is one participant's portion of an expense.
type ExpenseShare struct {
	ParticipantID string
	Amount        int64
}
