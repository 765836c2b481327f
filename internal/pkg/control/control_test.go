package control

import (
	"context"
	"strings"
	"testing"

	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected Action
	}{
		{"start", Action{Kind: Start}},
		{" START ", Action{Kind: Start}},
		{"reconnect", Action{Kind: Reconnect}},
		{"internal", SelectMode(router.Internal)},
		{"channel1", SelectMode(router.ExternalChannel1)},
		{"Channel 2", SelectMode(router.ExternalChannel2)},
		{"channel10", SelectMode(router.ExternalChannel10)},
	} {
		t.Run(tc.input, func(t *testing.T) {
			a, err := Parse(tc.input)
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, a)
		})
	}
}

func TestParseFail(t *testing.T) {
	for _, input := range []string{"", "channel3", "stop", "channel 1 0 0"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.NotNil(t, err)
		})
	}
}

func TestReadActions(t *testing.T) {
	input := strings.NewReader("start\n\nchannel10\nbogus\nreconnect\n")
	actions := make(chan Action, 10)
	var errs []error

	ReadActions(context.Background(), input, actions, func(err error) {
		errs = append(errs, err)
	})
	close(actions)

	var got []Action
	for a := range actions {
		got = append(got, a)
	}
	assert.Equal(t, []Action{
		{Kind: Start},
		SelectMode(router.ExternalChannel10),
		{Kind: Reconnect},
	}, got)
	assert.Len(t, errs, 1)
}

func TestReadActionsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// nobody reads actions, cancelled context must unblock
	ReadActions(ctx, strings.NewReader("start\nstart\n"), make(chan Action), nil)
}

func TestGate(t *testing.T) {
	g := Gate{}

	assert.False(t, g.Accept(SelectMode(router.ExternalChannel1)))
	assert.False(t, g.Accept(Action{Kind: Reconnect}))
	assert.False(t, g.Started())

	assert.True(t, g.Accept(Action{Kind: Start}))
	assert.True(t, g.Started())
	assert.False(t, g.Accept(Action{Kind: Start}))

	assert.True(t, g.Accept(SelectMode(router.ExternalChannel1)))
	assert.True(t, g.Accept(Action{Kind: Reconnect}))
}
