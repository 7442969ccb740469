package models

// Settlement represents a payment between project participants to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// ProjectID is the project this settlement belongs to.
	ProjectID string

	// FromID is the participant who paid (debtor settling up).
	FromID string

	// ToID is the participant who received payment (creditor being paid).
	ToID string

	// Amount is the payment amount in the smallest currency unit.
	Amount int64

	// Date is the Unix timestamp the payment happened at.
	Date int64

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
