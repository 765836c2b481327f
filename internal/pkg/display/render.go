package display

import (
	"fmt"
	"strings"

	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Graph keeps event rate history rendered as a bar chart.
type Graph struct {
	values  []uint
	pointer int
}

func NewGraph(width int) *Graph {
	return &Graph{values: make([]uint, width)}
}

func (g *Graph) Push(v uint) {
	g.values[g.pointer] = v
	g.pointer = (g.pointer + 1) % len(g.values)
}

func (g *Graph) String() string {
	var maxVal uint = 8
	for _, v := range g.values {
		if v > maxVal {
			maxVal = v
		}
	}

	var sb strings.Builder
	for i := range g.values {
		v := g.values[(g.pointer+i)%len(g.values)]
		if v == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(blocks[int(float64(v)/(float64(maxVal)+1)*float64(len(blocks)))])
	}
	return sb.String()
}

// fit pads or truncates s to exactly width runes.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func notesLine(notes []byte) string {
	if len(notes) == 0 {
		return "-"
	}
	var names []string
	for _, n := range notes {
		names = append(names, fmt.Sprintf("%s%d", midi.NoteToPitch(n), midi.NoteToOctave(n)))
	}
	return strings.Join(names, " ")
}

// Lines renders router state for a screen of given width, lines not fitting
// on two-line screens come last.
func Lines(s router.State, eventsPerSecond uint, graph *Graph, width int) [4]string {
	var lines [4]string

	mode := s.Mode.String()
	if !s.Connected {
		mode = "not connected"
	}
	lines[0] = fit(mode, width)

	porta := "porta: on"
	if s.PortamentoDisabled {
		porta = "porta: blocked"
	}
	rate := fmt.Sprintf("%d/s", eventsPerSecond)
	lines[1] = fit(fmt.Sprintf("%s%*s", porta, width-len(porta), rate), width)

	lines[2] = fit(notesLine(s.Notes), width)
	if graph != nil {
		lines[3] = fit(graph.String(), width)
	} else {
		lines[3] = fit("", width)
	}
	return lines
}
