package calculator

// LedgerExpense is an expense with the minimal information needed for balance calculations.
type LedgerExpense struct {
	ID      string
	Amount  int64
	PayerID string
	Shares  []Share
}

// LedgerSettlement is a recorded transfer with the minimal information needed for balance calculations.
type LedgerSettlement struct {
	ID     string
	FromID string // Who paid (debtor settling up)
	ToID   string // Who received (creditor being paid)
	Amount int64
}

// MemberBalance is the aggregated position of one participant.
type MemberBalance struct {
	ParticipantID       string
	TotalPaid           int64
	TotalShare          int64
	SettlementsSent     int64
	SettlementsReceived int64
	Balance             int64 // Positive = owed money, Negative = owes money
}

// Ledger is the result of folding a project's expenses and settlements.
type Ledger struct {
	// Balances follows the participant order given to Aggregate.
	Balances []MemberBalance
	index    map[string]int
}

// Get returns the balance for a participant.
func (l *Ledger) Get(participantID string) (MemberBalance, bool) {
	i, ok := l.index[participantID]
	if !ok {
		return MemberBalance{}, false
	}
	return l.Balances[i], true
}

// Net returns the signed balances in ledger order, ready for Settle.
func (l *Ledger) Net() []NetBalance {
	out := make([]NetBalance, len(l.Balances))
	for i, b := range l.Balances {
		out[i] = NetBalance{ParticipantID: b.ParticipantID, Amount: b.Balance}
	}
	return out
}

// Aggregate folds expenses and settlements into per-participant balances.
//
// Algorithm:
//   - every listed participant starts at zero
//   - for each expense: payer's TotalPaid += amount, each share adds to that participant's TotalShare
//   - for each settlement: the sender's balance improves, the receiver's balance decreases
//   - balance = paid - share + sent - received
//
// Any record that references an unknown participant, or an expense whose shares do
// not add up to its amount, fails the whole computation with an *IntegrityError.
func Aggregate(participants []string, expenses []LedgerExpense, settlements []LedgerSettlement) (*Ledger, error) {
	ledger := &Ledger{
		Balances: make([]MemberBalance, len(participants)),
		index:    make(map[string]int, len(participants)),
	}
	for i, p := range participants {
		if _, dup := ledger.index[p]; dup {
			return nil, integrityErrorf("", "duplicate participant %s", p)
		}
		ledger.index[p] = i
		ledger.Balances[i].ParticipantID = p
	}

	for _, e := range expenses {
		record := "expense " + e.ID
		if e.Amount < 0 {
			return nil, integrityErrorf(record, "negative amount %d", e.Amount)
		}
		payer, ok := ledger.index[e.PayerID]
		if !ok {
			return nil, integrityErrorf(record, "payer %q is not a participant", e.PayerID)
		}

		var shareSum int64
		for _, s := range e.Shares {
			idx, ok := ledger.index[s.ParticipantID]
			if !ok {
				return nil, integrityErrorf(record, "share references unknown participant %q", s.ParticipantID)
			}
			if s.Amount < 0 {
				return nil, integrityErrorf(record, "negative share %d for %s", s.Amount, s.ParticipantID)
			}
			shareSum += s.Amount
			ledger.Balances[idx].TotalShare += s.Amount
		}
		if shareSum != e.Amount {
			return nil, integrityErrorf(record, "shares sum to %d, amount is %d", shareSum, e.Amount)
		}

		ledger.Balances[payer].TotalPaid += e.Amount
	}

	for _, s := range settlements {
		record := "settlement " + s.ID
		if s.Amount <= 0 {
			return nil, integrityErrorf(record, "amount must be positive, got %d", s.Amount)
		}
		if s.FromID == s.ToID {
			return nil, integrityErrorf(record, "sender and receiver are both %q", s.FromID)
		}
		from, ok := ledger.index[s.FromID]
		if !ok {
			return nil, integrityErrorf(record, "sender %q is not a participant", s.FromID)
		}
		to, ok := ledger.index[s.ToID]
		if !ok {
			return nil, integrityErrorf(record, "receiver %q is not a participant", s.ToID)
		}
		ledger.Balances[from].SettlementsSent += s.Amount
		ledger.Balances[to].SettlementsReceived += s.Amount
	}

	var total int64
	for i := range ledger.Balances {
		b := &ledger.Balances[i]
		b.Balance = b.TotalPaid - b.TotalShare + b.SettlementsSent - b.SettlementsReceived
		total += b.Balance
	}
	if total != 0 {
		return nil, integrityErrorf("", "balances sum to %d", total)
	}

	return ledger, nil
}
