package calculator

import (
	"fmt"
	"math/bits"
)

// MaxWeight bounds a participant's weight, which also counts their charge units.
const MaxWeight = 1_000_000

// SplitMode selects how an expense amount is divided among participants.
type SplitMode string

const (
	SplitEqual    SplitMode = "equal"
	SplitWeighted SplitMode = "weighted"
	SplitExact    SplitMode = "exact"
)

// ParseSplitMode validates a split mode string. An empty string is returned as-is
// so callers can apply their own default.
func ParseSplitMode(s string) (SplitMode, error) {
	switch m := SplitMode(s); m {
	case "", SplitEqual, SplitWeighted, SplitExact:
		return m, nil
	default:
		return "", fmt.Errorf("unknown split mode %q", s)
	}
}

// Share is one participant's portion of an expense, in the smallest currency unit.
type Share struct {
	ParticipantID string
	Amount        int64
}

// SplitInput describes an expense to be divided.
type SplitInput struct {
	Mode         SplitMode
	Amount       int64
	Participants []string
	// Weights is used by SplitWeighted and must be parallel to Participants.
	Weights []int64
	// Exact is used by SplitExact.
	Exact []Share
}

// CalculateSplit divides in.Amount according to in.Mode.
// The returned shares always sum to in.Amount exactly.
func CalculateSplit(in SplitInput) ([]Share, error) {
	switch in.Mode {
	case SplitEqual, "":
		return EqualSplit(in.Amount, in.Participants)
	case SplitWeighted:
		return WeightedSplit(in.Amount, in.Participants, in.Weights)
	case SplitExact:
		return ExactSplit(in.Amount, in.Exact)
	default:
		return nil, fmt.Errorf("unknown split mode %q", in.Mode)
	}
}

// EqualSplit divides amount evenly. The remainder is handed out one unit at a time
// to the first participants in the given order, so 100 over three people is 34/33/33.
func EqualSplit(amount int64, participants []string) ([]Share, error) {
	if err := checkSplitArgs(amount, participants); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	base, rem := amount/n, amount%n

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{ParticipantID: p, Amount: base}
		if int64(i) < rem {
			shares[i].Amount++
		}
	}
	return shares, nil
}

// WeightedSplit divides amount proportionally to weights using largest-remainder
// allocation. Leftover units go to the largest fractional remainders; equal
// remainders are resolved by participant order.
func WeightedSplit(amount int64, participants []string, weights []int64) ([]Share, error) {
	if err := checkSplitArgs(amount, participants); err != nil {
		return nil, err
	}
	if len(weights) != len(participants) {
		return nil, fmt.Errorf("got %d weights for %d participants", len(weights), len(participants))
	}

	var totalWeight int64
	for i, w := range weights {
		if w <= 0 || w > MaxWeight {
			return nil, fmt.Errorf("weight for %s must be between 1 and %d, got %d", participants[i], MaxWeight, w)
		}
		totalWeight += w
	}

	shares := make([]Share, len(participants))
	remainders := make([]int64, len(participants))
	var allocated int64
	for i, p := range participants {
		q, r := mulDiv(amount, weights[i], totalWeight)
		shares[i] = Share{ParticipantID: p, Amount: q}
		remainders[i] = r
		allocated += q
	}

	for left := amount - allocated; left > 0; left-- {
		best := -1
		for i, r := range remainders {
			if r < 0 {
				continue
			}
			if best == -1 || r > remainders[best] {
				best = i
			}
		}
		shares[best].Amount++
		remainders[best] = -1
	}

	return shares, nil
}

// ExactSplit validates caller-provided shares against the expense amount.
func ExactSplit(amount int64, shares []Share) ([]Share, error) {
	if amount < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	if len(shares) == 0 {
		return nil, fmt.Errorf("must have at least one share")
	}

	seen := make(map[string]bool, len(shares))
	var sum int64
	for _, s := range shares {
		if s.Amount < 0 {
			return nil, fmt.Errorf("share for %s cannot be negative", s.ParticipantID)
		}
		if seen[s.ParticipantID] {
			return nil, fmt.Errorf("duplicate share for %s", s.ParticipantID)
		}
		seen[s.ParticipantID] = true
		sum += s.Amount
	}
	if sum != amount {
		return nil, fmt.Errorf("shares sum to %d, expense amount is %d", sum, amount)
	}

	out := make([]Share, len(shares))
	copy(out, shares)
	return out, nil
}

func checkSplitArgs(amount int64, participants []string) error {
	if amount < 0 {
		return fmt.Errorf("amount cannot be negative")
	}
	if len(participants) == 0 {
		return fmt.Errorf("must have at least one participant")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p] {
			return fmt.Errorf("duplicate participant %s", p)
		}
		seen[p] = true
	}
	return nil
}

// mulDiv returns floor(a*b/c) and the remainder of that division, for
// a >= 0 and 0 <= b <= c. The product is taken in 128 bits.
func mulDiv(a, b, c int64) (int64, int64) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, r := bits.Div64(hi, lo, uint64(c))
	return int64(q), int64(r)
}
