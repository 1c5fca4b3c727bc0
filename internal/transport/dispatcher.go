package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/execcoach/coach/internal/model"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// HandlerFunc answers one event.
type HandlerFunc func(ctx context.Context, ev model.InboundEvent) model.OutboundReply

// Dispatcher runs events in arrival order per user and concurrently across
// users. A user's worker exists only while it has queued events.
type Dispatcher struct {
	handle HandlerFunc
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[string][]job
	closed bool
	wg     sync.WaitGroup
}

type job struct {
	ev   model.InboundEvent
	done func(model.OutboundReply)
}

func NewDispatcher(handle HandlerFunc) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handle: handle,
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[string][]job),
	}
}

// Dispatch queues the event behind the user's earlier events. done, if not
// nil, receives the reply.
func (d *Dispatcher) Dispatch(ev model.InboundEvent, done func(model.OutboundReply)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	queue, running := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(queue, job{ev: ev, done: done})
	if !running {
		d.wg.Add(1)
		go d.work(ev.UserID)
	}
	return nil
}

func (d *Dispatcher) work(userID string) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		queue := d.queues[userID]
		if len(queue) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		next := queue[0]
		d.queues[userID] = queue[1:]
		d.mu.Unlock()

		reply := d.handle(d.ctx, next.ev)
		if next.done != nil {
			next.done(reply)
		}
	}
}

// Close stops accepting events and waits for queued ones to finish. When ctx
// ends first, in-flight handlers are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-drained
		return ctx.Err()
	}
}
