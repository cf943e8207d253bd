package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"amqp closed", amqp091.ErrClosed, true},
		{"wrapped amqp closed", fmt.Errorf("publish message: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "budget", queueName: "transactions"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("isCircuitOpen() = true, want false")
		}
	})

	t.Run("failures below threshold keep circuit closed", func(t *testing.T) {
		for i := 0; i < maxFailures-1; i++ {
			client.recordFailure()
		}
		if client.isCircuitOpen() {
			t.Error("isCircuitOpen() = true, want false")
		}
	})

	t.Run("threshold opens circuit", func(t *testing.T) {
		client.recordFailure()
		if !client.isCircuitOpen() {
			t.Error("isCircuitOpen() = false, want true")
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)
		if client.isCircuitOpen() {
			t.Error("isCircuitOpen() = true, want false")
		}
		if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
			t.Errorf("state = %d, want StateHalfOpen", got)
		}
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		client.recordFailure()
		if got := atomic.LoadInt32(&client.state); got != StateOpen {
			t.Errorf("state = %d, want StateOpen", got)
		}
	})

	t.Run("success resets", func(t *testing.T) {
		client.recordSuccess()
		if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("recordSuccess() did not reset the breaker")
		}
	})
}

func TestClient_PublishGuards(t *testing.T) {
	t.Run("open circuit", func(t *testing.T) {
		client := &Client{exchangeName: "budget", queueName: "transactions"}
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishTransactionSync(context.Background(), 1, 42)
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Errorf("PublishTransactionSync() error = %v, want circuit breaker error", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &Client{exchangeName: "budget", queueName: "transactions"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishTransactionDelete(ctx, 1, 42); !errors.Is(err, context.Canceled) {
			t.Errorf("PublishTransactionDelete() error = %v, want context.Canceled", err)
		}
	})
}

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestHandleDelivery(t *testing.T) {
	syncBody, _ := NewTransactionSyncMessage(7, 42).ToJSON()
	deleteBody, _ := NewTransactionDeleteMessage(7, 43).ToJSON()
	errHandler := errors.New("sheet unavailable")

	tests := []struct {
		name        string
		msgType     string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantHandled int64
	}{
		{"sync ok", TypeTransactionSync, syncBody, nil, true, false, 42},
		{"delete ok", TypeTransactionDelete, deleteBody, nil, true, false, 43},
		{"handler error requeues", TypeTransactionSync, syncBody, errHandler, false, true, 42},
		{"bad json dropped", TypeTransactionSync, []byte(`{"id":"x"}`), nil, false, false, 0},
		{"unknown type dropped", "expense.sync", syncBody, nil, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			var handled int64
			h := Handlers{
				Sync: func(_ context.Context, m *TransactionSyncMessage) error {
					handled = m.ID
					return tt.handlerErr
				},
				Delete: func(_ context.Context, m *TransactionDeleteMessage) error {
					handled = m.ID
					return tt.handlerErr
				},
			}

			handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Type: tt.msgType, Body: tt.body}, h)

			if ack.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && !ack.nacked {
				t.Error("delivery was neither acked nor nacked")
			}
			if ack.requeued != tt.wantRequeue {
				t.Errorf("requeued = %v, want %v", ack.requeued, tt.wantRequeue)
			}
			if handled != tt.wantHandled {
				t.Errorf("handled id = %d, want %d", handled, tt.wantHandled)
			}
		})
	}
}

func TestTransactionSyncMessage(t *testing.T) {
	msg := NewTransactionSyncMessage(7, 42)
	if msg.MessageID == "" || msg.ID != 42 || msg.UserID != 7 {
		t.Errorf("NewTransactionSyncMessage() = %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for _, k := range []string{"message_id", "id", "user_id", "timestamp"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("message JSON missing %q: %s", k, body)
		}
	}

	if _, err := TransactionSyncMessageFromJSON([]byte(`{"id": "not_a_number"}`)); err == nil {
		t.Error("TransactionSyncMessageFromJSON() should fail with invalid JSON")
	}
}
