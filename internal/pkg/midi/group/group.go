package group

import (
	"fmt"
	"sync"

	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/gethiox/refrouter/internal/pkg/midi/driver"
	"go.uber.org/multierr"
)

// Group is a named set of midi endpoints treated as one logical device.
type Group struct {
	Name string

	mutex   sync.RWMutex
	inputs  []driver.MIDIIn
	outputs []driver.MIDIOut
}

func New(name string) *Group {
	return &Group{Name: name}
}

func (g *Group) AddInput(in driver.MIDIIn) {
	g.mutex.Lock()
	g.inputs = append(g.inputs, in)
	g.mutex.Unlock()
}

func (g *Group) AddOutput(out driver.MIDIOut) {
	g.mutex.Lock()
	g.outputs = append(g.outputs, out)
	g.mutex.Unlock()
}

// SetCallback attaches callback as the only handler of every input, nil detaches.
func (g *Group) SetCallback(callback func(ev midi.Event)) {
	var h driver.Handler
	if callback != nil {
		h = func(data []byte) {
			callback(data)
		}
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()
	for _, in := range g.inputs {
		in.SetHandler(h)
	}
}

// Send delivers ev to every output in member order. A failing output does not
// stop delivery to the remaining ones, all failures are returned combined.
func (g *Group) Send(ev midi.Event) error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var err error
	for _, out := range g.outputs {
		if sendErr := out.Send(ev); sendErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", g.Name, sendErr))
		}
	}
	return err
}

// Clear detaches callbacks, closes and forgets all members.
func (g *Group) Clear() error {
	g.SetCallback(nil)

	g.mutex.Lock()
	defer g.mutex.Unlock()

	var err error
	for _, in := range g.inputs {
		err = multierr.Append(err, in.Close())
	}
	for _, out := range g.outputs {
		err = multierr.Append(err, out.Close())
	}
	g.inputs = nil
	g.outputs = nil
	return err
}

func (g *Group) Empty() bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.inputs) == 0 && len(g.outputs) == 0
}

// Ports pairs inputs and outputs sharing the same name, for display purposes.
func (g *Group) Ports() []driver.Port {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var ports = make([]driver.Port, 0, len(g.inputs)+len(g.outputs))
	var paired = make(map[int]bool)

	for _, in := range g.inputs {
		port := driver.Port{Input: in}
		for i, out := range g.outputs {
			if !paired[i] && out.Name() == in.Name() {
				port.Output = out
				paired[i] = true
				break
			}
		}
		ports = append(ports, port)
	}

	for i, out := range g.outputs {
		if !paired[i] {
			ports = append(ports, driver.Port{Output: out})
		}
	}
	return ports
}
