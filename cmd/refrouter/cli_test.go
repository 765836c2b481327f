package main

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi/group"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	go func() {
		for range logger.Messages {
		}
	}()
	os.Exit(m.Run())
}

func TestRawStringLen(t *testing.T) {
	for i, tc := range []struct {
		input    string
		expected int
	}{
		{input: "", expected: 0},
		{input: "a", expected: 1},
		{input: "a\033", expected: 2},
		{input: "a\033[", expected: 3},
		{input: "a\033[2", expected: 4},
		{input: "a\033[2A", expected: 1},
		{input: "a\033[2Aa", expected: 2},
		{input: aurora.NewAurora(true).Red("abc").String(), expected: 3},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			l := rawStringLen(tc.input)
			assert.Equal(t, tc.expected, l)
		})
	}
}

func entry(level int, msg string) Entry {
	return Entry{
		Ts:    TimeNanosecond(time.Date(2022, 3, 4, 13, 14, 15, 16000000, time.Local)),
		Msg:   msg,
		Level: level,
	}
}

func TestPrepareString(t *testing.T) {
	au := aurora.NewAurora(false)

	t.Run("filtered by level", func(t *testing.T) {
		assert.Equal(t, "", prepareString(entry(logger.MessagesLvl, "9x 3c 64"), au, -1, logger.ActionLvl))
	})

	t.Run("unlimited width", func(t *testing.T) {
		e := entry(logger.InfoLvl, "connected")
		e.Destination = "keyboards"
		assert.Equal(t, "[13:14:15.016] connected [dst=keyboards]", prepareString(e, au, -1, logger.InfoLvl))
	})

	t.Run("padded to width", func(t *testing.T) {
		e := entry(logger.WarningLvl, "busy")
		e.Port = "reface CS"
		s := prepareString(e, au, 60, logger.InfoLvl)
		assert.Equal(t, 60, rawStringLen(s))
		assert.True(t, strings.HasPrefix(s, "[13:14:15.016] busy "))
		assert.True(t, strings.HasSuffix(s, " [port=reface CS]"))
	})

	t.Run("truncated message", func(t *testing.T) {
		e := entry(logger.ErrorLvl, strings.Repeat("x", 100))
		s := prepareString(e, au, 60, logger.InfoLvl)
		assert.Contains(t, s, strings.Repeat("x", 41)+"(…)")
		assert.NotContains(t, s, strings.Repeat("x", 42))
		assert.Less(t, len(s), 70)
	})

	t.Run("fields hidden", func(t *testing.T) {
		e := entry(logger.InfoLvl, strings.Repeat("x", 30))
		e.Group = strings.Repeat("g", 30)
		s := prepareString(e, au, 40, logger.InfoLvl)
		assert.True(t, strings.HasSuffix(s, "(fields hidden)"))
	})
}

func TestUnpack(t *testing.T) {
	e, err := unpack([]byte(`{"level":3,"ts":1646399655000000000,"msg":"output: CHANNEL 2","destination":"circuit"}`))
	require.Nil(t, err)
	assert.Equal(t, 3, e.Level)
	assert.Equal(t, "output: CHANNEL 2", e.Msg)
	assert.Equal(t, "circuit", e.Destination)
	assert.Equal(t, int64(1646399655), time.Time(e.Ts).Unix())

	_, err = unpack([]byte("not json"))
	assert.NotNil(t, err)
}

func TestLogBuffer(t *testing.T) {
	buf := newLogBuffer(3)
	assert.Nil(t, buf.ReadLastMessages(5))

	buf.WriteMessage([]byte("a"))
	buf.WriteMessage([]byte("b"))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, buf.ReadLastMessages(5))
	assert.Equal(t, [][]byte{[]byte("b")}, buf.ReadLastMessages(1))

	buf.WriteMessage([]byte("c"))
	buf.WriteMessage([]byte("d"))
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("d")}, buf.ReadLastMessages(3))
	assert.Equal(t, [][]byte{[]byte("c"), []byte("d")}, buf.ReadLastMessages(2))
	assert.Nil(t, buf.ReadLastMessages(0))
}

func TestOverviewLines(t *testing.T) {
	au := aurora.NewAurora(false)
	keyboards, circuit := group.New("keyboards"), group.New("circuit")

	state := router.State{
		Mode:               router.ExternalChannel2,
		PortamentoDisabled: true,
		Notes:              []byte{60, 64},
		Received:           10,
		Emitted:            12,
	}

	lines := overviewLines(au, state, false, keyboards, circuit)
	require.Len(t, lines, 5)
	assert.Equal(t, "status: waiting for start (s), received: 10, emitted: 12", lines[0])
	assert.Contains(t, lines[1], " 3: CHANNEL 2 ")
	assert.Equal(t, "portamento: blocking, held keys: C3 E3", lines[2])
	assert.Equal(t, "keyboards: no devices", lines[3])
	assert.Equal(t, "  circuit: no devices", lines[4])

	lines = overviewLines(au, state, true)
	assert.True(t, strings.HasPrefix(lines[0], "status: not connected"))

	state.Connected = true
	lines = overviewLines(au, state, true)
	assert.True(t, strings.HasPrefix(lines[0], "status: connected"))
}
