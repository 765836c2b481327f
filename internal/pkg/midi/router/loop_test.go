package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/stretchr/testify/assert"
)

type lockedSender struct {
	mutex sync.Mutex
	sent  []midi.Event
}

func (s *lockedSender) Send(ev midi.Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sent = append(s.sent, ev.Copy())
	return nil
}

func startLoop(t *testing.T, r *Router, queueSize int) (*Loop, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	loop := NewLoop(r, queueSize)
	wg.Add(1)
	go loop.Run(ctx, &wg)

	return loop, func() {
		cancel()
		wg.Wait()
	}
}

// latest waits until every queued request is processed and returns the published state
func latest(t *testing.T, loop *Loop) State {
	assert.Nil(t, loop.Do(func(r *Router) {}))
	return <-loop.States()
}

func TestLoopSerializesConcurrentInput(t *testing.T) {
	kb, circuit := &lockedSender{}, &lockedSender{}
	loop, stop := startLoop(t, New(kb, circuit, ExternalChannel1, true), 1024)
	defer stop()

	const producers = 8
	const perProducer = 50

	wg := sync.WaitGroup{}
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				note := uint8(i*perProducer + j)
				loop.KeyboardHandler(midi.Event{0x90, note % 128, 100})
				loop.CircuitHandler(midi.Event{0xF8})
			}
		}(i)
	}
	wg.Wait()

	s := latest(t, loop)
	assert.Equal(t, uint(2*producers*perProducer), s.Received)
	assert.Len(t, circuit.sent, producers*perProducer)
	assert.Len(t, kb.sent, producers*perProducer)
}

func TestLoopSetMode(t *testing.T) {
	kb, circuit := &lockedSender{}, &lockedSender{}
	loop, stop := startLoop(t, New(kb, circuit, Internal, true), 32)
	defer stop()

	loop.SetMode(ExternalChannel2)
	s := latest(t, loop)
	assert.Equal(t, ExternalChannel2, s.Mode)
	assert.Len(t, kb.sent, 1)
	assert.Len(t, circuit.sent, 3)
}

func TestLoopConnect(t *testing.T) {
	loop, stop := startLoop(t, New(&lockedSender{}, &lockedSender{}, Internal, true), 32)
	defer stop()

	assert.Nil(t, loop.Connect(func() error { return nil }))
	assert.True(t, latest(t, loop).Connected)

	failure := errors.New("no driver")
	err := loop.Connect(func() error { return failure })
	assert.True(t, errors.Is(err, failure))
	assert.False(t, latest(t, loop).Connected)
}

func TestLoopStopped(t *testing.T) {
	loop, stop := startLoop(t, New(&lockedSender{}, &lockedSender{}, Internal, true), 32)
	stop()

	assert.Equal(t, ErrStopped, loop.Do(func(r *Router) {}))
	assert.Equal(t, ErrStopped, loop.Connect(func() error { return nil }))

	// handlers must not block once the loop is gone
	loop.KeyboardHandler(midi.Event{0x90, 60, 100})
	loop.SetMode(ExternalChannel10)
}

func TestLoopDropsInputWhenQueueFull(t *testing.T) {
	logs := observeLogs(t)
	kb, circuit := &lockedSender{}, &lockedSender{}
	loop, stop := startLoop(t, New(kb, circuit, Internal, true), 1)
	defer stop()

	busy, release := make(chan struct{}), make(chan struct{})
	go loop.Do(func(r *Router) {
		close(busy)
		<-release
	})
	<-busy

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		loop.KeyboardHandler(midi.Event{0x90, 60, 100}) // fills the queue
		loop.KeyboardHandler(midi.Event{0x90, 62, 100})
		loop.CircuitHandler(midi.Event{0xF8})
	}()

	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on full queue")
	}
	close(release)

	s := latest(t, loop)
	assert.Equal(t, uint(1), s.Received)
	assert.Equal(t, []byte{60}, s.Notes)

	dropped := withLevel(logs, logger.WarningLvl).FilterMessage("router queue full, midi message dropped").All()
	if assert.Len(t, dropped, 2) {
		assert.Equal(t, keyboardsName, dropped[0].ContextMap()["group"])
		assert.Equal(t, circuitName, dropped[1].ContextMap()["group"])
	}
}
