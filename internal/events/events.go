// Package events announces ledger changes so that summaries can be
// recomputed out of band.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Kind names the mutation that changed a ledger.
type Kind string

const (
	ProjectUpdated     Kind = "project.updated"
	ProjectDeleted     Kind = "project.deleted"
	ParticipantAdded   Kind = "participant.added"
	ParticipantRemoved Kind = "participant.removed"
	ExpenseCreated     Kind = "expense.created"
	ExpenseUpdated     Kind = "expense.updated"
	ExpenseDeleted     Kind = "expense.deleted"
	SettlementRecorded Kind = "settlement.recorded"
	SettlementDeleted  Kind = "settlement.deleted"
	ChargeRuleSet      Kind = "charge.rule_set"
	ChargePaid         Kind = "charge.paid"
)

// LedgerChanged carries only the project id; consumers reload what they need.
type LedgerChanged struct {
	ProjectID string    `json:"projectId"`
	Kind      Kind      `json:"kind"`
	At        time.Time `json:"at"`
}

// NewLedgerChanged stamps an event with the current time.
func NewLedgerChanged(projectID string, kind Kind) LedgerChanged {
	return LedgerChanged{ProjectID: projectID, Kind: kind, At: time.Now().UTC()}
}

func (e LedgerChanged) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseLedgerChanged decodes an event body.
func ParseLedgerChanged(data []byte) (LedgerChanged, error) {
	var e LedgerChanged
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher sends ledger events. Publish failures must not fail the mutation
// that caused them; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, event LedgerChanged) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, LedgerChanged) error { return nil }
func (Noop) Close() error { return nil }

// Backoff returns the reconnect delay for the given attempt: 1s doubling up
// to a 30s cap.
func Backoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	return time.Second << attempt
}
