package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gethiox/refrouter/internal/pkg/midi"
	mmidi "github.com/moutend/go-midi"
	mmidiev "github.com/moutend/go-midi/event"
)

// Player feeds notes of a standard midi file into the keyboard path of the router.
type Player struct {
	data []byte

	enabledNotes map[uint8]uint8
}

func NewPlayer(data []byte) Player {
	return Player{
		data:         data,
		enabledNotes: make(map[uint8]uint8),
	}
}

func LoadPlayer(path string) (Player, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Player{}, fmt.Errorf("reading midi file failed: %w", err)
	}
	return NewPlayer(data), nil
}

// Play sends note events to handler in file order, tracks are played one after another.
// Notes still held when playback ends or gets cancelled are released.
func (p *Player) Play(ctx context.Context, handler func(ev midi.Event), bpm int) error {
	if bpm <= 0 {
		return fmt.Errorf("invalid tempo: %d", bpm)
	}

	parser := mmidi.NewParser(p.data)
	mevents, err := parser.Parse()
	if err != nil {
		return fmt.Errorf("parsing midi file failed: %w", err)
	}

root:
	for _, track := range mevents.Tracks {
		for _, event := range track.Events {
			dt := time.Duration(event.DeltaTime().Quantity().Uint32()) * time.Second / time.Duration(bpm) / 2
			select {
			case <-time.After(dt):
			case <-ctx.Done():
				break root
			}

			switch v := event.(type) {
			case *mmidiev.NoteOnEvent:
				ev := midi.Event(v.Serialize())
				if ev.IsNoteOn() {
					p.enabledNotes[uint8(v.Note())] = v.Channel()
				} else {
					delete(p.enabledNotes, uint8(v.Note()))
				}
				handler(ev)
			case *mmidiev.NoteOffEvent:
				delete(p.enabledNotes, uint8(v.Note()))
				handler(v.Serialize())
			}
		}
	}

	for n, ch := range p.enabledNotes {
		handler(midi.NoteEvent(midi.NoteOff, ch, n, 0))
		delete(p.enabledNotes, n)
	}
	return nil
}
