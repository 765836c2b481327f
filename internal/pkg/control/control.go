package control

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gethiox/refrouter/internal/pkg/midi/router"
)

type Kind int

const (
	Start Kind = iota
	Select
	Reconnect
)

// Action is a single user request coming from any control surface.
type Action struct {
	Kind Kind
	Mode router.Mode // Select only
}

func (a Action) String() string {
	switch a.Kind {
	case Start:
		return "start"
	case Select:
		return fmt.Sprintf("select %s", a.Mode)
	case Reconnect:
		return "reconnect"
	default:
		return fmt.Sprintf("unknown(%d)", int(a.Kind))
	}
}

func SelectMode(m router.Mode) Action {
	return Action{Kind: Select, Mode: m}
}

// Parse accepts "start", "reconnect" or a mode name like "channel10".
func Parse(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "s":
		return Action{Kind: Start}, nil
	case "reconnect", "r":
		return Action{Kind: Reconnect}, nil
	}

	m, err := router.ParseMode(s)
	if err != nil {
		return Action{}, fmt.Errorf("unsupported action: \"%s\"", s)
	}
	return SelectMode(m), nil
}

// ReadActions parses one action per line of r until EOF or ctx cancellation.
// Unparsable lines are reported through onError and skipped.
func ReadActions(ctx context.Context, r io.Reader, actions chan<- Action, onError func(err error)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		a, err := Parse(line)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}

		select {
		case actions <- a:
		case <-ctx.Done():
			return
		}
	}
}

// Gate drops Select and Reconnect until Start was accepted, repeated Start
// is dropped as well.
type Gate struct {
	started bool
}

func (g *Gate) Started() bool {
	return g.started
}

func (g *Gate) Accept(a Action) bool {
	if a.Kind == Start {
		if g.started {
			return false
		}
		g.started = true
		return true
	}
	return g.started
}
