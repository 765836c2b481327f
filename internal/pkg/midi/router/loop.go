package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi"
	"go.uber.org/zap"
)

var ErrStopped = errors.New("router loop stopped")

// Loop owns a Router and runs every request on a single goroutine. Midi
// drivers deliver input on their own goroutines, Loop handlers only enqueue.
type Loop struct {
	router    *Router
	requests  chan func()
	states    chan State
	done      chan struct{}
	connected bool
}

func NewLoop(r *Router, queueSize int) *Loop {
	return &Loop{
		router:   r,
		requests: make(chan func(), queueSize),
		states:   make(chan State, 1),
		done:     make(chan struct{}),
	}
}

func (l *Loop) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(l.done)

	l.publish()
root:
	for {
		select {
		case <-ctx.Done():
			break root
		case f := <-l.requests:
			f()
			l.publish()
		}
	}
	log.Info("Router loop stopped", logger.Debug)
}

// States delivers the most recent router state, older unread states are dropped.
func (l *Loop) States() <-chan State {
	return l.states
}

func (l *Loop) publish() {
	s := l.router.State()
	s.Connected = l.connected

	select {
	case <-l.states:
	default:
	}
	select {
	case l.states <- s:
	default:
	}
}

func (l *Loop) enqueue(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.requests <- f:
		return true
	case <-l.done:
		return false
	}
}

// Do runs f on the loop goroutine and waits for its completion.
func (l *Loop) Do(f func(r *Router)) error {
	finished := make(chan struct{})
	ok := l.enqueue(func() {
		defer close(finished)
		f(l.router)
	})
	if !ok {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// offer never waits for a free slot, driver callbacks must not block
// while the loop closes their ports.
func (l *Loop) offer(f func(), source string) {
	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.requests <- f:
	default:
		log.Info("router queue full, midi message dropped", zap.String("group", source), logger.Warning)
	}
}

// KeyboardHandler queues keyboard input, the message is dropped when the queue is full.
func (l *Loop) KeyboardHandler(ev midi.Event) {
	l.offer(func() {
		l.router.OnKeyboardMessage(ev)
	}, keyboardsName)
}

// CircuitHandler queues groovebox input, the message is dropped when the queue is full.
func (l *Loop) CircuitHandler(ev midi.Event) {
	l.offer(func() {
		l.router.OnCircuitMessage(ev)
	}, circuitName)
}

func (l *Loop) SetMode(m Mode) {
	l.enqueue(func() {
		l.router.SetMode(m)
	})
}

// Connect runs connect on the loop goroutine, so no message is processed
// while device groups are being rebuilt.
func (l *Loop) Connect(connect func() error) error {
	var err error
	doErr := l.Do(func(r *Router) {
		err = connect()
		l.connected = err == nil
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	return nil
}
