package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/leshachaplin/tracklog/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/producer"
)

var ErrQueueFull = errors.New("queue is full")

type Queue[T any] interface {
	Publish(ctx context.Context, key string, payload T) error
	Consume(ctx context.Context, taskPayload chan<- T, done <-chan struct{})
}

// ChanQueue is a bounded in-process queue. Publish never blocks: when the
// buffer is full the payload is rejected with ErrQueueFull.
type ChanQueue[T any] struct {
	items chan T
}

func NewChanQueue[T any](size int) *ChanQueue[T] {
	if size <= 0 {
		size = 1
	}
	return &ChanQueue[T]{
		items: make(chan T, size),
	}
}

func (q *ChanQueue[T]) Publish(_ context.Context, _ string, payload T) error {
	select {
	case q.items <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *ChanQueue[T]) Consume(ctx context.Context, taskPayload chan<- T, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case item := <-q.items:
			select {
			case taskPayload <- item:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}
}

type RedpandaQueue[T any] struct {
	producer *producer.Producer
	consumer *consumer.Consumer
}

func NewRedpandaQueue[T any](producer *producer.Producer, consumer *consumer.Consumer) *RedpandaQueue[T] {
	return &RedpandaQueue[T]{
		producer: producer,
		consumer: consumer,
	}
}

func (r *RedpandaQueue[T]) Publish(ctx context.Context, key string, payload T) error {
	return r.producer.Publish(ctx, key, payload)
}

func (r *RedpandaQueue[T]) Consume(ctx context.Context, taskPayload chan<- T, done <-chan struct{}) {
	r.consumer.Consume(ctx, done, func(value []byte) error {
		var item T
		if err := json.Unmarshal(value, &item); err != nil {
			log.Error().Str("record", string(value)).Err(err).Msg("Consume: Unmarshal record value.")
			return err
		}

		select {
		case taskPayload <- item:
			return nil
		case <-done:
			return context.Canceled
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
