package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, Backoff(tt.attempt))
		})
	}
}

func TestLedgerChangedRoundTrip(t *testing.T) {
	event := NewLedgerChanged("p1", ExpenseCreated)

	data, err := event.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"expense.created"`)

	got, err := ParseLedgerChanged(data)
	require.NoError(t, err)
	assert.Equal(t, event.ProjectID, got.ProjectID)
	assert.Equal(t, event.Kind, got.Kind)
	assert.True(t, event.At.Equal(got.At))
}

type fakeDelivery struct {
	data    []byte
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Ack(bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_, requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

func (d *fakeDelivery) body() []byte { return d.data }

func TestProcess(t *testing.T) {
	ctx := context.Background()
	valid, err := NewLedgerChanged("p1", SettlementRecorded).Marshal()
	require.NoError(t, err)

	t.Run("acks handled event", func(t *testing.T) {
		d := &fakeDelivery{data: valid}
		var seen LedgerChanged
		process(ctx, d, func(_ context.Context, e LedgerChanged) error {
			seen = e
			return nil
		})
		assert.True(t, d.acked)
		assert.Equal(t, "p1", seen.ProjectID)
	})

	t.Run("requeues on handler failure", func(t *testing.T) {
		d := &fakeDelivery{data: valid}
		process(ctx, d, func(context.Context, LedgerChanged) error { return errors.New("boom") })
		assert.True(t, d.nacked)
		assert.True(t, d.requeue)
	})

	t.Run("drops malformed body", func(t *testing.T) {
		for _, body := range []string{"not json", `{"kind":"expense.created"}`} {
			d := &fakeDelivery{data: []byte(body)}
			called := false
			process(ctx, d, func(context.Context, LedgerChanged) error {
				called = true
				return nil
			})
			assert.False(t, called)
			assert.True(t, d.nacked)
			assert.False(t, d.requeue)
		}
	})
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), NewLedgerChanged("p1", ChargePaid)))
	assert.NoError(t, p.Close())
}
