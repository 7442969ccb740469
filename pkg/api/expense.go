package api

type Expense struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"projectId,omitempty"`
	Title     string   `json:"title,omitempty"`
	Amount    int64    `json:"amount"`
	PaidByID  string   `json:"paidById"`
	Date      int64    `json:"date,omitempty"`
	Shares    []*Share `json:"shares"`
	CreatedBy string   `json:"createdBy,omitempty"`
	CreatedAt int64    `json:"createdAt,omitempty"`
}

type Share struct {
	ParticipantID string `json:"participantId"`
	Amount        int64  `json:"amount"`
}

// SplitSpec says how an amount is divided.
//
// Equal and weighted modes split among ParticipantIDs, or every active
// participant when empty. Exact mode takes Shares as given.
type SplitSpec struct {
	Mode           string   `json:"mode,omitempty"`
	ParticipantIDs []string `json:"participantIds,omitempty"`
	Shares         []*Share `json:"shares,omitempty"`
}

type PreviewSplitRequest struct {
	ProjectID string     `json:"projectId"`
	Amount    int64      `json:"amount"`
	Split     *SplitSpec `json:"split,omitempty"`
}

type PreviewSplitResponse struct {
	Mode   string   `json:"mode"`
	Shares []*Share `json:"shares"`
}

type CreateExpenseRequest struct {
	ProjectID string     `json:"projectId"`
	Title     string     `json:"title"`
	Amount    int64      `json:"amount"`
	PaidByID  string     `json:"paidById"`
	Date      int64      `json:"date,omitempty"`
	Split     *SplitSpec `json:"split,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID string     `json:"expenseId"`
	Title     string     `json:"title"`
	Amount    int64      `json:"amount"`
	PaidByID  string     `json:"paidById"`
	Date      int64      `json:"date,omitempty"`
	Split     *SplitSpec `json:"split,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	ProjectID string `json:"projectId"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}
