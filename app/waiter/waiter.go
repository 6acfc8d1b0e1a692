package waiter

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// WaitFunc runs until ctx is cancelled or it fails.
type WaitFunc func(ctx context.Context) error

// Waiter runs a set of WaitFuncs and stops all of them when one fails, the
// parent context is cancelled or a stop signal arrives.
type Waiter interface {
	Add(fns ...WaitFunc)
	Wait() error
	Context() context.Context
	CancelFunc() context.CancelFunc
}

type waiterCfg struct {
	signals []os.Signal
}

type waiter struct {
	ctx      context.Context
	fns      []WaitFunc
	cancelFn context.CancelFunc
}

func NewWaiter(ctx context.Context, cancelFn context.CancelFunc, options ...Option) Waiter {
	cfg := &waiterCfg{
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, option := range options {
		option(cfg)
	}

	sigCtx, stop := signal.NotifyContext(ctx, cfg.signals...)
	wCtx, cancel := context.WithCancel(sigCtx)

	return &waiter{
		ctx: wCtx,
		fns: []WaitFunc{},
		cancelFn: func() {
			cancel()
			stop()
			if cancelFn != nil {
				cancelFn()
			}
		},
	}
}

func (w *waiter) Add(fns ...WaitFunc) {
	w.fns = append(w.fns, fns...)
}

func (w *waiter) Wait() error {
	group, ctx := errgroup.WithContext(w.ctx)

	group.Go(func() error {
		<-ctx.Done()
		w.cancelFn()
		return nil
	})

	for _, fn := range w.fns {
		fn := fn
		group.Go(func() error { return fn(ctx) })
	}

	return group.Wait()
}

func (w *waiter) Context() context.Context {
	return w.ctx
}

func (w *waiter) CancelFunc() context.CancelFunc {
	return w.cancelFn
}
