package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/refrouter/internal/pkg/display"
	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/gethiox/refrouter/internal/pkg/midi/group"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/logrusorgru/aurora"
)

func modeButtons(au aurora.Aurora, active router.Mode) string {
	var buttons []string
	for i, m := range router.Modes {
		label := fmt.Sprintf(" %d: %s ", i+1, m)
		if m == active {
			buttons = append(buttons, au.BgIndex(16+36*2+6*4+5, label).Black().String())
			continue
		}
		buttons = append(buttons, au.Reset(label).Colorize(gray(12)).String())
	}
	return strings.Join(buttons, " ")
}

func overviewLines(au aurora.Aurora, s router.State, started bool, groups ...*group.Group) []string {
	var lines []string

	status := au.Red("not connected").String()
	switch {
	case !started:
		status = au.Yellow("waiting for start (s)").String()
	case s.Connected:
		status = au.Green("connected").String()
	}
	lines = append(lines, fmt.Sprintf("status: %s, received: %d, emitted: %d", status, s.Received, s.Emitted))
	lines = append(lines, modeButtons(au, s.Mode))

	porta := "off"
	if s.PortamentoDisabled {
		porta = au.Yellow("blocking").String()
	}
	var notes []string
	for _, n := range s.Notes {
		notes = append(notes, fmt.Sprintf("%s%d", midi.NoteToPitch(n), midi.NoteToOctave(n)))
	}
	lines = append(lines, fmt.Sprintf("portamento: %s, held keys: %s", porta, strings.Join(notes, " ")))

	for _, g := range groups {
		ports := g.Ports()
		if len(ports) == 0 {
			lines = append(lines, fmt.Sprintf("%9s: %s", g.Name, au.Gray(12, "no devices").String()))
			continue
		}
		for i, p := range ports {
			name := ""
			if i == 0 {
				name = g.Name
			}
			lines = append(lines, fmt.Sprintf("%9s: %s", name, colorForString(au, p.String()).String()))
		}
	}
	return lines
}

func overviewView(ctx context.Context, g *gocui.Gui, colors bool, states <-chan router.State, started func() bool, groups ...*group.Group) {
	view, err := g.View(ViewOverview)
	if err != nil {
		log.Info(fmt.Sprintf("overview view unavailable: %v", err), logger.Error)
		return
	}

	au := aurora.NewAurora(colors)
	var state router.State
	ticker := time.NewTicker(time.Millisecond * 500)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			state = s
		case <-ticker.C:
		}

		lines := overviewLines(au, state, started(), groups...)
		x, y := view.Size()

		g.Update(func(g *gocui.Gui) error {
			view.Rewind()
			for i := 0; i < y; i++ {
				line := ""
				if i < len(lines) {
					line = lines[i]
				}
				free := x - rawStringLen(line)
				if free < 0 {
					free = 0
				}
				view.Write([]byte(line + strings.Repeat(" ", free) + "\n"))
			}
			return nil
		})
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int, refresh time.Duration) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		for range logger.Messages {
		}
		return
	}

	buf := newLogBuffer(bufSize)
	var newMessage = make(chan bool, 1)

	go func() {
		defer close(newMessage)
		for msg := range logger.Messages {
			buf.WriteMessage(msg)
			select {
			case newMessage <- true:
			default:
			}
		}
	}()

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	var dirty bool
	var lastX, lastY int
	for {
		select {
		case _, ok := <-newMessage:
			if !ok {
				return
			}
			dirty = true
			continue
		case <-ticker.C:
		}

		x, y := feeder.view.Size()
		if !dirty && x == lastX && y == lastY {
			continue
		}
		dirty, lastX, lastY = false, x, y

		lastMessages := buf.ReadLastMessages(y)
		g.Update(func(g *gocui.Gui) error {
			feeder.view.Clear()
			for _, msg := range lastMessages {
				feeder.Write(msg)
			}
			return nil
		})
	}
}

func lcdView(g *gocui.Gui, dd <-chan display.DisplayData) {
	view, err := g.View(ViewLCD)
	if err != nil {
		for range dd {
		}
		return
	}

	for data := range dd {
		lines := data.Lines
		g.Update(func(g *gocui.Gui) error {
			view.Rewind()
			for _, s := range lines {
				view.Write([]byte(s))
				view.Write([]byte{'\n'})
			}
			return nil
		})
	}
}
