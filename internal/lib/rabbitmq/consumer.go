package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
)

// ErrReject обработчик возвращает ошибку с этим значением, если сообщение повторять бесполезно.
var ErrReject = errors.New("message rejected")

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumeMessages запускает чтение очереди queueName, обрабатывая не больше workers сообщений одновременно.
// Успешно обработанное сообщение подтверждается. Ошибка с ErrReject отбрасывает сообщение,
// любая другая возвращает его в очередь. Чтение прекращается при отмене ctx.
// Возвращаемый канал закрывается, когда чтение остановлено и все начатые обработчики завершились.
func ConsumeMessages(ctx context.Context, ch *amqp.Channel, queueName string, workers int, handler Handler, log *slog.Logger) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumeMessages"
	if workers < 1 {
		workers = 1
	}
	if err := ch.Qos(workers, 0, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return dispatch(ctx, delivery, workers, handler, log.With(slog.String("queue", queueName))), nil
}

func dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, workers int, handler Handler, log *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	go func() {
		defer close(done)
		defer wg.Wait()
		for {
			select {
			case d, ok := <-deliveries:
				if !ok || ctx.Err() != nil {
					return
				}
				// Без свободного обработчика ждём его или отмены, сообщение вернёт брокер.
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					handle(ctx, d.Body, d, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

// Acknowledger подтверждение и отказ для доставки, реализуется amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handle(ctx context.Context, body []byte, ack Acknowledger, handler Handler, log *slog.Logger) {
	err := handler(ctx, body)
	if err == nil {
		if ackErr := ack.Ack(false); ackErr != nil {
			log.Warn("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	requeue := !errors.Is(err, ErrReject)
	log.Warn("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
	if nackErr := ack.Nack(false, requeue); nackErr != nil {
		log.Warn("failed to nack message", sl.Err(nackErr))
	}
}
