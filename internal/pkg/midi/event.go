package midi

import (
	"fmt"
)

const (
	// message types
	NoteOff               uint8 = 0b1000 << 4
	NoteOn                uint8 = 0b1001 << 4
	PolyphonicKeyPressure uint8 = 0b1010 << 4 // After-touch
	ControlChange         uint8 = 0b1011 << 4
	ProgramChange         uint8 = 0b1100 << 4
	ChannelPressure       uint8 = 0b1101 << 4 // After-touch
	PitchWheelChange      uint8 = 0b1110 << 4
	System                uint8 = 0b1111 << 4

	// system messages
	SysExStart  uint8 = 0xF0
	SysExEnd    uint8 = 0xF7
	TimingClock uint8 = 0xF8
	Start       uint8 = 0xFA
	Continue    uint8 = 0xFB
	Stop        uint8 = 0xFC
	ActiveSense uint8 = 0xFE

	// ControlChange
	Portamento          uint8 = 0b00010100 // reface CS portamento switch
	AllNotesOff         uint8 = 0b01111011
	AllSoundOff         uint8 = 0b01111000
	ResetAllControllers uint8 = 0b01111001
)

const (
	typeMask    uint8 = 0b11110000
	channelMask uint8 = 0b00001111
)

// Event is a single raw midi message, status byte first.
type Event []byte

// Type returns the high nibble of the status byte, zero for empty events.
func (e Event) Type() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0] & typeMask
}

// Channel returns 0-based channel of a channel-voice message.
func (e Event) Channel() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0] & channelMask
}

// Data1 returns the first data byte or 0 when missing.
func (e Event) Data1() uint8 {
	if len(e) < 2 {
		return 0
	}
	return e[1]
}

// Data2 returns the second data byte or 0 when missing.
func (e Event) Data2() uint8 {
	if len(e) < 3 {
		return 0
	}
	return e[2]
}

// IsNoteOn reports note-on messages with non-zero velocity.
func (e Event) IsNoteOn() bool {
	return len(e) >= 3 && e.Type() == NoteOn && e[2] != 0
}

// IsNoteOff reports note-off messages, note-on with velocity 0 included.
func (e Event) IsNoteOff() bool {
	if len(e) < 3 {
		return false
	}
	switch e.Type() {
	case NoteOff:
		return true
	case NoteOn:
		return e[2] == 0
	}
	return false
}

func (e Event) IsControlChange() bool {
	return len(e) >= 2 && e.Type() == ControlChange
}

// IsSystem reports system common, real-time and sysex messages.
func (e Event) IsSystem() bool {
	return e.Type() == System
}

func (e Event) IsClock() bool {
	return len(e) >= 1 && e[0] == TimingClock
}

// Copy returns an independent copy of the event.
func (e Event) Copy() Event {
	c := make(Event, len(e))
	copy(c, e)
	return c
}

// WithChannel returns a copy with the status low nibble replaced by channel.
// System messages are copied untouched.
func (e Event) WithChannel(channel uint8) Event {
	c := e.Copy()
	if len(c) == 0 || c.IsSystem() {
		return c
	}
	c[0] = c[0]&typeMask | channel&channelMask
	return c
}

func noteToString(note byte) string {
	return fmt.Sprintf("%-2s%2d", NoteToPitch(note), NoteToOctave(note))
}

func (e Event) String() string {
	if len(e) == 0 {
		return "Warning: empty Midi event, it should be not emitted"
	}

	channel := e.Channel() + 1
	switch x := e.Type(); x {
	case NoteOff:
		return fmt.Sprintf("Note Off: %s (channel: %2d, velocity: %3d)", noteToString(e.Data1()), channel, e.Data2())
	case NoteOn:
		return fmt.Sprintf("Note On : %s (channel: %2d, velocity: %3d)", noteToString(e.Data1()), channel, e.Data2())
	case PolyphonicKeyPressure:
		return fmt.Sprintf("Polyphonic Key Pressure: %s (channel: %2d, pressure: %3d)", noteToString(e.Data1()), channel, e.Data2())
	case ControlChange:
		var value string
		if len(e) == 3 {
			value = fmt.Sprintf("%3d", e[2])
		} else {
			value = "---"
		}
		return fmt.Sprintf("Control Change: %3d, value: %s (channel: %2d)", e.Data1(), value, channel)
	case ProgramChange:
		return fmt.Sprintf("Program Change: %3d (channel: %2d)", e.Data1(), channel)
	case ChannelPressure:
		return fmt.Sprintf("Channel Pressure: %3d (channel: %2d)", e.Data1(), channel)
	case PitchWheelChange:
		val := float64((int(e.Data2())<<7)+int(e.Data1())-8192) / 8192 // max value: 16383, middle value (no pitch change): 8192
		return fmt.Sprintf("Pitch Bend: %4.0f%% (channel: %2d)", val*100, channel)
	case System:
		switch e[0] {
		case SysExStart:
			return fmt.Sprintf("SysEx: %d bytes", len(e))
		case TimingClock:
			return "Timing Clock"
		case Start:
			return "Start"
		case Continue:
			return "Continue"
		case Stop:
			return "Stop"
		case ActiveSense:
			return "Active Sensing"
		}
	}

	msg := "Oof, unexpected event format: "
	for _, v := range e {
		msg += fmt.Sprintf("0x%02x ", v)
	}
	return msg
}

func NoteEvent(messageType, channel, note, velocity uint8) Event {
	return Event{messageType | channel, note, velocity}
}

func ControlChangeEvent(channel, function, value uint8) Event {
	return Event{ControlChange | channel, function, value}
}
