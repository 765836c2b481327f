package main

import (
	"context"
	"testing"

	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/stretchr/testify/assert"
)

func TestPlayFail(t *testing.T) {
	for name, tc := range map[string]struct {
		data []byte
		bpm  int
	}{
		"zero tempo":      {data: []byte("MThd"), bpm: 0},
		"negative tempo":  {data: []byte("MThd"), bpm: -120},
		"not a midi file": {data: []byte("definitely not a standard midi file"), bpm: 120},
	} {
		t.Run(name, func(t *testing.T) {
			var played []midi.Event
			p := NewPlayer(tc.data)
			err := p.Play(context.Background(), func(ev midi.Event) {
				played = append(played, ev)
			}, tc.bpm)
			assert.NotNil(t, err)
			assert.Empty(t, played)
		})
	}
}
