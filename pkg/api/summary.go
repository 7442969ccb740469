package api

// Summary is the computed state of a project's ledger.
type Summary struct {
	ProjectID   string      `json:"projectId,omitempty"`
	Currency    string      `json:"currency,omitempty"`
	Period      string      `json:"period,omitempty"`
	Balances    []*Balance  `json:"balances"`
	Settlements []*Transfer `json:"settlements"`

	// Building projects only.
	ChargeDebts     []*ChargeDebt `json:"chargeDebts,omitempty"`
	TotalChargeDebt int64         `json:"totalChargeDebt,omitempty"`
}

type Balance struct {
	ParticipantID       string `json:"participantId"`
	TotalPaid           int64  `json:"totalPaid"`
	TotalShare          int64  `json:"totalShare"`
	SettlementsSent     int64  `json:"settlementsSent"`
	SettlementsReceived int64  `json:"settlementsReceived"`
	Balance             int64  `json:"balance"`
}

// Transfer is a suggested payment that moves the ledger toward zero.
type Transfer struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Amount int64  `json:"amount"`
}

type ChargeDebt struct {
	ParticipantID string `json:"participantId"`
	ChargeDebt    int64  `json:"chargeDebt"`
	PaidMonths    int    `json:"paidMonths"`
	TotalMonths   int    `json:"totalMonths"`
}

// LedgerSnapshot is an offline ledger: everything needed to compute a Summary
// without a database.
type LedgerSnapshot struct {
	Currency     string         `json:"currency,omitempty"`
	Template     string         `json:"template,omitempty"`
	Participants []*Participant `json:"participants"`
	Expenses     []*Expense     `json:"expenses"`
	Settlements  []*Transfer    `json:"settlements"`

	ChargeRule     *ChargeRule      `json:"chargeRule,omitempty"`
	ChargePayments []*ChargePayment `json:"chargePayments,omitempty"`
	Period         string           `json:"period,omitempty"`
}
