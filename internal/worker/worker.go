package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type WorkerPool[T any] interface {
	Start(executeFn func(ctx context.Context, payload T) error)
	GracefulStop()
	Shutdown(ctx context.Context)
	Process(key string, payload T)
}

// Pool runs executeFn for every payload consumed from its queue on a fixed
// number of goroutines. Failures are logged and the payload is dropped.
type Pool[T any] struct {
	numWorkers  int
	taskPayload chan T
	queue       Queue[T]
	start       sync.Once
	stop        sync.Once
	doneChan    chan struct{}
	ctx         context.Context
	cancelFn    context.CancelFunc
	wg          *sync.WaitGroup
	logger      zerolog.Logger
}

func New[T any](ctx context.Context, cfg Config, queue Queue[T], logger zerolog.Logger) *Pool[T] {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	c, cancelFn := context.WithCancel(ctx)
	return &Pool[T]{
		numWorkers:  numWorkers,
		taskPayload: make(chan T, numWorkers),
		doneChan:    make(chan struct{}),
		queue:       queue,
		ctx:         c,
		cancelFn:    cancelFn,
		wg:          &sync.WaitGroup{},
		logger:      logger,
	}
}

func (w *Pool[T]) Start(executeFn func(ctx context.Context, payload T) error) {
	w.start.Do(func() {
		for i := 0; i < w.numWorkers; i++ {
			w.wg.Add(1)
			l := w.logger.With().Int("worker", i).Logger()
			go w.work(w.ctx, l, executeFn)
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.queue.Consume(w.ctx, w.taskPayload, w.doneChan)
		}()
	})
}

// GracefulStop stops the pool and cancels tasks that are still running.
func (w *Pool[T]) GracefulStop() {
	w.stop.Do(func() {
		close(w.doneChan)
		w.cancelFn()
		w.wg.Wait()
	})
}

// Shutdown stops the pool, letting running tasks finish until ctx is done.
// Payloads still queued are dropped.
func (w *Pool[T]) Shutdown(ctx context.Context) {
	w.stop.Do(func() {
		close(w.doneChan)

		finished := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			w.logger.Warn().Msg("shutdown deadline exceeded, cancelling running tasks")
		}
		w.cancelFn()
		<-finished
	})
}

func (w *Pool[T]) Process(key string, payload T) {
	if err := w.queue.Publish(w.ctx, key, payload); err != nil {
		w.onFailure(key, err)
	}
}

func (w *Pool[T]) onFailure(key string, err error) {
	w.logger.Error().Err(err).Str("KEY", key).Msg("failed to process payload")
}

func (w *Pool[T]) work(
	ctx context.Context,
	logger zerolog.Logger,
	executeFn func(ctx context.Context, payload T) error,
) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.doneChan:
			return
		case pld, ok := <-w.taskPayload:
			if !ok {
				return
			}

			logger.Trace().Msg("start processing payload")
			if err := executeFn(ctx, pld); err != nil {
				logger.Warn().Err(err).Msg("payload dropped")
			}
			logger.Trace().Msg("end processing payload")
		}
	}
}
