package utils

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var ErrInputClosed = errors.New("input channel is closed")

// DynamicFanOut copies every value of input channel into all spawned outputs.
// Outputs are closed once the input is closed.
type DynamicFanOut[T any] struct {
	input    <-chan T
	inputCap int
	latest   bool

	closed  bool
	mutex   sync.Mutex
	outputs map[int64]chan T
}

func NewDynamicFanOut[T any](input <-chan T) *DynamicFanOut[T] {
	return newFanOut(input, false)
}

// NewLatestFanOut never blocks on slow outputs, unread values are replaced by
// newer ones.
func NewLatestFanOut[T any](input <-chan T) *DynamicFanOut[T] {
	return newFanOut(input, true)
}

func newFanOut[T any](input <-chan T, latest bool) *DynamicFanOut[T] {
	f := DynamicFanOut[T]{
		input:    input,
		inputCap: cap(input),
		latest:   latest,
		outputs:  make(map[int64]chan T),
	}
	go f.run()
	return &f
}

func (f *DynamicFanOut[T]) run() {
	for e := range f.input {
		f.mutex.Lock()
		for _, o := range f.outputs {
			if !f.latest {
				o <- e
				continue
			}
			select {
			case <-o:
			default:
			}
			select {
			case o <- e:
			default:
			}
		}
		f.mutex.Unlock()
	}

	f.mutex.Lock()
	f.closed = true
	for id, o := range f.outputs {
		close(o)
		delete(f.outputs, id)
	}
	f.mutex.Unlock()
}

// SpawnOutput creates new output channel and its ID for later despawning.
// Output channel has size of input channel, at least 1. Latest outputs always have size 1.
func (f *DynamicFanOut[T]) SpawnOutput() (int64, <-chan T, error) {
	ocap := f.inputCap
	if ocap == 0 || f.latest {
		ocap = 1
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return 0, nil, ErrInputClosed
	}

	var id int64
	var found bool
	for id = 0; id < math.MaxInt64; id++ {
		_, ok := f.outputs[id]
		if !ok {
			found = true
			break
		}
	}
	if !found {
		return 0, nil, fmt.Errorf("no space available")
	}

	newChan := make(chan T, ocap)
	f.outputs[id] = newChan
	return id, newChan, nil
}

// DespawnOutput removes output channel with given ID
func (f *DynamicFanOut[T]) DespawnOutput(id int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	c, ok := f.outputs[id]
	if !ok {
		return fmt.Errorf("output id %d not found", id)
	}
	close(c)
	delete(f.outputs, id)

	return nil
}
