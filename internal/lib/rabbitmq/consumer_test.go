package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(bool) error { a.acked = true; return nil }

func (a *ackRecorder) Nack(_ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_Settlement(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{name: "success acks", wantAck: true},
		{name: "transient error requeues", handlerErr: errors.New("db down"), wantRequeue: true},
		{name: "rejected message is dropped", handlerErr: fmt.Errorf("bad payload: %w", ErrReject)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &ackRecorder{}
			var got []byte
			handler := func(_ context.Context, body []byte) error {
				got = body
				return tt.handlerErr
			}

			handle(context.Background(), []byte(`{"user_id":1}`), rec, handler, discardLogger())

			assert.Equal(t, `{"user_id":1}`, string(got))
			assert.Equal(t, tt.wantAck, rec.acked)
			assert.Equal(t, !tt.wantAck, rec.nacked)
			assert.Equal(t, tt.wantRequeue, rec.requeue)
		})
	}
}

func TestConsumeMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	uri := amqpURIForTest(ctx, t)

	conn, err := Connect(uri, 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	const exchange = "recommendations-consume-test"
	ch, err := SetupChannel(conn, exchange, RecommendationQueues())
	require.NoError(t, err)
	publisher := NewPublisher(ch, exchange)
	defer func() { _ = publisher.Close() }()

	consumer, err := conn.Channel()
	require.NoError(t, err)
	defer func() { _ = consumer.Close() }()
	_, err = consumer.QueuePurge(ProfileUpdatedQueue, false)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		received []string
	)
	wg.Add(2)
	handler := func(_ context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(body))
		wg.Done()
		return nil
	}
	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	consumed, err := ConsumeMessages(consumeCtx, consumer, ProfileUpdatedQueue, 2, handler, discardLogger())
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(ctx, RoutingProfileUpdated, map[string]int64{"user_id": 1}))
	require.NoError(t, publisher.Publish(ctx, RoutingProfileUpdated, map[string]int64{"user_id": 2}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timeout waiting for messages")
	}

	stop()
	select {
	case <-consumed:
	case <-ctx.Done():
		t.Fatal("consumer did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{`{"user_id":1}`, `{"user_id":2}`}, received)
}

// deliveryAcks записывает подтверждения, сделанные через amqp.Delivery.
type deliveryAcks struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *deliveryAcks) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *deliveryAcks) Nack(tag uint64, _ bool, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *deliveryAcks) Reject(tag uint64, _ bool) error {
	return a.Nack(tag, false, false)
}

func (a *deliveryAcks) snapshot() (acked, nacked []uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint64(nil), a.acked...), append([]uint64(nil), a.nacked...)
}

func TestDispatch_WaitsForInFlightHandlerAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acks := &deliveryAcks{}
	deliveries := make(chan amqp.Delivery, 1)
	started := make(chan struct{})
	release := make(chan struct{})
	handler := func(context.Context, []byte) error {
		close(started)
		<-release
		return nil
	}

	done := dispatch(ctx, deliveries, 2, handler, discardLogger())
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte(`{"user_id":1}`)}
	<-started

	cancel()
	select {
	case <-done:
		t.Fatal("dispatch finished while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not finish after the handler returned")
	}

	acked, nacked := acks.snapshot()
	assert.Equal(t, []uint64{1}, acked)
	assert.Empty(t, nacked)
}

func TestDispatch_CancelWhileWaitingForWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acks := &deliveryAcks{}
	deliveries := make(chan amqp.Delivery, 2)
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var calls atomic.Int32
	handler := func(context.Context, []byte) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}

	done := dispatch(ctx, deliveries, 1, handler, discardLogger())
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1}
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2}
	<-started

	// Единственный обработчик занят, вторая доставка ждёт его, пока ctx не отменён.
	cancel()
	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch blocked on a busy worker after cancel")
	}

	assert.Equal(t, int32(1), calls.Load())
	acked, _ := acks.snapshot()
	assert.Equal(t, []uint64{1}, acked)
}

func TestDispatch_StopsWhenDeliveriesClosed(t *testing.T) {
	acks := &deliveryAcks{}
	deliveries := make(chan amqp.Delivery, 1)
	handled := make(chan struct{}, 1)
	handler := func(context.Context, []byte) error {
		handled <- struct{}{}
		return errors.New("db down")
	}

	done := dispatch(context.Background(), deliveries, 1, handler, discardLogger())
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 7}
	<-handled
	close(deliveries)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not stop after the delivery channel closed")
	}
	_, nacked := acks.snapshot()
	assert.Equal(t, []uint64{7}, nacked)
}
