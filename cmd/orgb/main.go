// orgb lists OpenRGB controllers and previews refrouter mode colors on them,
// helpful for choosing [indicator] controller setting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gethiox/refrouter/internal/pkg/indicator"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
)

func ouu(err error) {
	if err != nil {
		fmt.Printf("ou error: %s\n", err)
		os.Exit(1)
	}
}

var (
	host       = flag.String("host", "localhost", "OpenRGB server host")
	port       = flag.Int("port", 6742, "OpenRGB server port")
	controller = flag.String("controller", "", "controller name substring, empty selects all")
	preview    = flag.Bool("preview", false, "cycle through mode colors on selected controllers")
	dim        = flag.Float64("dim", 0.3, "brightness of dimmed colors (0-1)")
	interval   = flag.Duration("interval", time.Second, "preview interval")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := indicator.Connect(ctx, *host, *port)
	ouu(err)
	defer c.Close()

	controllers, err := indicator.FindControllers(c, *controller)
	ouu(err)

	fmt.Printf("controllers: %d\n", len(controllers))
	for _, ctrl := range controllers {
		fmt.Printf("%d: name: \"%s\", leds: %d\n", ctrl.Index, ctrl.Name, ctrl.LEDs)
	}

	if !*preview {
		return
	}

	for {
		for _, m := range router.Modes {
			for _, state := range []router.State{
				{Mode: m, Connected: true},
				{Mode: m, Connected: true, PortamentoDisabled: true},
			} {
				color := indicator.StateColor(state, *dim)
				fmt.Printf("%-10s portamento blocking: %-5t -> #%02x%02x%02x\n",
					m, state.PortamentoDisabled, color.Red, color.Green, color.Blue)

				_, err := indicator.Paint(c, controllers, color)
				ouu(err)

				select {
				case <-ctx.Done():
					_, _ = indicator.Paint(c, controllers, indicator.Unavailable)
					return
				case <-time.After(*interval):
				}
			}
		}
	}
}
