package main

import (
	"context"
	"sync"
	"time"

	"github.com/gethiox/refrouter/internal/pkg/display"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
)

// GenerateDisplayData renders the most recent router state on every screen refresh.
func GenerateDisplayData(
	ctx context.Context, wg *sync.WaitGroup, cfg display.ScreenConfig, states <-chan router.State,
) <-chan display.DisplayData {
	data := make(chan display.DisplayData)
	width, _ := cfg.Size()

	go func() {
		defer wg.Done()
		defer close(data)

		var state router.State
		var lastEmitted uint
		graph := display.NewGraph(width)
		last := time.Now()

		ticker := time.NewTicker(cfg.UpdateRate)
		defer ticker.Stop()

	root:
		for {
			select {
			case <-ctx.Done():
				break root
			case s, ok := <-states:
				if !ok {
					break root
				}
				state = s
				continue
			case <-ticker.C:
			}

			now := time.Now()
			var eventsPerSecond uint
			if elapsed := now.Sub(last).Seconds(); elapsed > 0 && state.Emitted >= lastEmitted {
				eventsPerSecond = uint(float64(state.Emitted-lastEmitted) / elapsed)
			}
			lastEmitted, last = state.Emitted, now
			graph.Push(eventsPerSecond)

			select {
			case data <- display.DisplayData{Lines: display.Lines(state, eventsPerSecond, graph, width)}:
			case <-ctx.Done():
				break root
			}
		}

		var buffer [4]string
		if cfg.HaveExitMessage() {
			buffer = cfg.ExitMessage
		} else {
			buffer[0] = "refrouter stopped"
		}
		for i := range buffer {
			buffer[i] = fitLine(buffer[i], width)
		}
		data <- display.DisplayData{Lines: buffer}
	}()

	return data
}

func fitLine(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	for len(r) < width {
		r = append(r, ' ')
	}
	return string(r)
}
