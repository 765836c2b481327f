package indicator

import (
	"errors"
	"testing"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/realbucksavage/openrgb-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeLEDs struct {
	failing map[int]error
	painted map[int][]openrgb.Color
}

func (f *fakeLEDs) UpdateLEDs(index int, colors []openrgb.Color) error {
	if err, ok := f.failing[index]; ok {
		return err
	}
	f.painted[index] = colors
	return nil
}

func newFakeLEDs(failing map[int]error) *fakeLEDs {
	return &fakeLEDs{failing: failing, painted: map[int][]openrgb.Color{}}
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	previous := log
	log = zap.New(core)
	t.Cleanup(func() {
		log = previous
	})
	return logs
}

var controllers = []Controller{
	{Index: 0, Name: "keyboard", LEDs: 2},
	{Index: 3, Name: "strip", LEDs: 3},
}

func TestPaint(t *testing.T) {
	leds := newFakeLEDs(nil)
	color := openrgb.Color{Red: 1, Green: 2, Blue: 3}

	fails, err := Paint(leds, controllers, color)
	assert.Nil(t, err)
	assert.Equal(t, 0, fails)
	assert.Equal(t, []openrgb.Color{color, color}, leds.painted[0])
	assert.Equal(t, []openrgb.Color{color, color, color}, leds.painted[3])
}

func TestPaintPartialFailure(t *testing.T) {
	broken := errors.New("connection reset")
	leds := newFakeLEDs(map[int]error{0: broken})

	fails, err := Paint(leds, controllers, Unavailable)
	assert.True(t, errors.Is(err, broken))
	assert.Equal(t, 1, fails)
	assert.Len(t, leds.painted[3], 3)
}

func TestTurnOff(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		logs := observeLogs(t)
		leds := newFakeLEDs(nil)

		turnOff(leds, controllers)
		assert.Equal(t, []openrgb.Color{{}, {}}, leds.painted[0])
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("failure is logged", func(t *testing.T) {
		logs := observeLogs(t)
		leds := newFakeLEDs(map[int]error{3: errors.New("broken pipe")})

		turnOff(leds, controllers)
		warnings := logs.Filter(func(e observer.LoggedEntry) bool {
			return e.ContextMap()["level"] == int64(logger.WarningLvl)
		}).All()
		if assert.Len(t, warnings, 1) {
			assert.Contains(t, warnings[0].Message, "broken pipe")
		}
	})
}
