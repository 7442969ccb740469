package calculator

import "fmt"

// NetBalance is a participant's signed position going into settlement.
type NetBalance struct {
	ParticipantID string
	Amount        int64 // Positive = owed money, Negative = owes money
}

// Transfer is a suggested payment that moves money from a debtor to a creditor.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount int64
}

// Settle produces transfers that bring every balance to exactly zero.
//
// Greedy matching: on each step the largest debtor pays the largest creditor
// min(|debt|, credit). At least one side reaches zero per step, so n participants
// with a nonzero balance need at most n-1 transfers. Equal balances are resolved
// by input order, which keeps the output deterministic.
func Settle(balances []NetBalance) ([]Transfer, error) {
	var total int64
	remaining := make([]int64, len(balances))
	open := 0
	for i, b := range balances {
		total += b.Amount
		remaining[i] = b.Amount
		if b.Amount != 0 {
			open++
		}
	}
	if total != 0 {
		return nil, fmt.Errorf("%w: off by %d", ErrUnbalanced, total)
	}

	transfers := make([]Transfer, 0, max(open-1, 0))
	for {
		debtor, creditor := -1, -1
		for i, amt := range remaining {
			if amt < 0 && (debtor == -1 || amt < remaining[debtor]) {
				debtor = i
			}
			if amt > 0 && (creditor == -1 || amt > remaining[creditor]) {
				creditor = i
			}
		}
		if debtor == -1 || creditor == -1 {
			break
		}

		amount := min(-remaining[debtor], remaining[creditor])
		transfers = append(transfers, Transfer{
			From:   balances[debtor].ParticipantID,
			To:     balances[creditor].ParticipantID,
			Amount: amount,
		})
		remaining[debtor] += amount
		remaining[creditor] -= amount
	}

	return transfers, nil
}
