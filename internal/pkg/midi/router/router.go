package router

import (
	"fmt"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	keyboardsName = "keyboards"
	circuitName   = "circuit"

	// velocity of a note replayed after releasing the top of the stack
	replayVelocity uint8 = 100
	// all notes routed to channel 10 are folded into this octave (c3-b3)
	drumOctaveBase uint8 = 60
)

// Sender is a destination of routed messages, usually a device group.
type Sender interface {
	Send(ev midi.Event) error
}

type State struct {
	Mode               Mode
	PortamentoDisabled bool
	Notes              []byte // held keys, most recent last
	Received           uint
	Emitted            uint
	Connected          bool
}

// Router is not safe for concurrent use, see Loop.
type Router struct {
	// disables logging of every routed message, actions are logged regardless
	noLogs    bool
	keyboards Sender
	circuit   Sender

	mode Mode
	// reface CS portamento blocker, engaged by portamento CC set to 1
	portamentoDisabled bool
	// currently held keys on keyboard input, most recent last
	keysDown []byte

	received, emitted uint
}

func New(keyboards, circuit Sender, mode Mode, noLogs bool) *Router {
	return &Router{
		noLogs:    noLogs,
		keyboards: keyboards,
		circuit:   circuit,
		mode:      mode,
		keysDown:  make([]byte, 0, 16),
	}
}

// OnKeyboardMessage handles a message coming from keyboard-class inputs.
func (r *Router) OnKeyboardMessage(ev midi.Event) {
	r.received++

	// system messages are not forwarded from the controller
	if ev.IsSystem() {
		return
	}

	if ev.Type() == midi.ControlChange && len(ev) >= 2 && ev[1] == midi.Portamento {
		disabled := ev.Data2() == 1
		if disabled != r.portamentoDisabled {
			log.Info(fmt.Sprintf("portamento blocking: %t", disabled), logger.Action)
		}
		r.portamentoDisabled = disabled
	}

	r.trackKeys(ev)

	if r.portamentoDisabled && r.mode == Internal {
		r.portamentoBlock(ev)
	} else {
		r.route(ev)
	}
}

// OnCircuitMessage forwards timing clock of the groovebox to keyboards, nothing else.
func (r *Router) OnCircuitMessage(ev midi.Event) {
	r.received++

	if !ev.IsClock() {
		return
	}
	r.send(r.keyboards, keyboardsName, ev)
}

// SetMode switches destination and releases notes on every destination.
func (r *Router) SetMode(m Mode) {
	r.mode = m
	log.Info(fmt.Sprintf("output: %s", m), logger.Action)
	r.ReleaseNotes()
}

func (r *Router) Mode() Mode {
	return r.mode
}

// ReleaseNotes sends all-notes-off to every possible destination.
// Held keys and portamento state are kept, they reflect the physical keyboard.
func (r *Router) ReleaseNotes() {
	r.send(r.keyboards, keyboardsName, midi.ControlChangeEvent(0, midi.AllNotesOff, 0))
	for _, channel := range []uint8{
		ExternalChannel1.Channel(),
		ExternalChannel2.Channel(),
		ExternalChannel10.Channel(),
	} {
		r.send(r.circuit, circuitName, midi.ControlChangeEvent(channel, midi.AllNotesOff, 0))
	}
}

func (r *Router) State() State {
	notes := make([]byte, len(r.keysDown))
	copy(notes, r.keysDown)
	return State{
		Mode:               r.mode,
		PortamentoDisabled: r.portamentoDisabled,
		Notes:              notes,
		Received:           r.received,
		Emitted:            r.emitted,
	}
}

func (r *Router) trackKeys(ev midi.Event) {
	switch {
	case ev.IsNoteOn():
		key := ev[1]
		for _, k := range r.keysDown {
			if k == key {
				return
			}
		}
		r.keysDown = append(r.keysDown, key)
	case ev.IsNoteOff():
		key := ev[1]
		for i, k := range r.keysDown {
			if k == key {
				r.keysDown = append(r.keysDown[:i], r.keysDown[i+1:]...)
				return
			}
		}
	}
}

// portamentoBlock emulates retrigger on a legato synth: previous key is
// released before a new one is played, and the remaining top key is played
// again when the current one is released.
func (r *Router) portamentoBlock(ev midi.Event) {
	switch {
	case ev.IsNoteOn():
		if len(r.keysDown) > 1 {
			release := ev.Copy()
			release[1] = r.keysDown[len(r.keysDown)-2]
			release[2] = 0
			r.route(release)
		}
		r.route(ev)
	case ev.IsNoteOff():
		r.route(ev)
		if len(r.keysDown) > 0 {
			play := ev.Copy()
			play[0] |= 0b00010000 // note off -> note on
			play[1] = r.keysDown[len(r.keysDown)-1]
			// TODO: replay with the velocity the key was originally pressed with
			play[2] = replayVelocity
			r.route(play)
		}
	default:
		r.route(ev)
	}
}

func (r *Router) route(ev midi.Event) {
	var output Sender
	var name string
	var channel uint8

	switch r.mode {
	case Internal:
		output, name = r.keyboards, keyboardsName
	case ExternalChannel1, ExternalChannel2, ExternalChannel10:
		output, name = r.circuit, circuitName
	default:
		return
	}
	channel = r.mode.Channel()

	// sliders and knobs always reach the keyboard synth
	if ev.Type() == midi.ControlChange {
		output, name = r.keyboards, keyboardsName
		channel = 0
	}

	out := ev
	if !ev.IsSystem() {
		out = ev.WithChannel(channel)

		// drum kit on channel 10 uses a single octave
		if r.mode == ExternalChannel10 && len(out) >= 2 && out[0]&0b11100000 == 0b10000000 {
			out[1] = out[1]%12 + drumOctaveBase
		}
	}

	r.send(output, name, out)
}

func (r *Router) send(output Sender, name string, ev midi.Event) {
	r.emitted++
	if !r.noLogs {
		log.Info(ev.String(), zap.String("destination", name), logger.Midi)
	}
	err := output.Send(ev)
	if err != nil {
		log.Info(fmt.Sprintf("failed to send midi event: %v", err), zap.String("destination", name), logger.Warning)
	}
}
