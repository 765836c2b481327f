package indicator

import (
	"testing"

	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/realbucksavage/openrgb-go"
	"github.com/stretchr/testify/assert"
)

func TestModeColor(t *testing.T) {
	for _, tc := range []struct {
		mode     router.Mode
		expected openrgb.Color
	}{
		{router.Internal, openrgb.Color{Red: 255, Green: 255, Blue: 255}},
		{router.ExternalChannel1, openrgb.Color{Red: 255, Green: 127, Blue: 0}},
		{router.ExternalChannel2, openrgb.Color{Red: 0, Green: 255, Blue: 0}},
		{router.ExternalChannel10, openrgb.Color{Red: 0, Green: 127, Blue: 255}},
	} {
		t.Run(tc.mode.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, ModeColor(tc.mode, 1))
		})
	}
}

func TestModeColorsAreDistinct(t *testing.T) {
	seen := map[openrgb.Color]router.Mode{}
	for _, m := range router.Modes {
		c := ModeColor(m, 1)
		prev, ok := seen[c]
		assert.False(t, ok, "%s shares color with %s", m, prev)
		seen[c] = m
	}
}

func TestStateColor(t *testing.T) {
	engaged := router.State{Mode: router.Internal, PortamentoDisabled: true, Connected: true}
	idle := router.State{Mode: router.Internal, Connected: true}
	external := router.State{Mode: router.ExternalChannel2, PortamentoDisabled: true, Connected: true}

	assert.Equal(t, ModeColor(router.Internal, 1), StateColor(engaged, 0.2))
	assert.Equal(t, ModeColor(router.Internal, 0.2), StateColor(idle, 0.2))
	assert.Equal(t, ModeColor(router.ExternalChannel2, 0.2), StateColor(external, 0.2))
	assert.Equal(t, Unavailable, StateColor(router.State{}, 0.2))

	bright, dimmed := StateColor(engaged, 0.2), StateColor(idle, 0.2)
	assert.Greater(t, bright.Red, dimmed.Red)
}
