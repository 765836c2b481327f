package indicator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/realbucksavage/openrgb-go"
)

var log = logger.GetLogger()

type Config struct {
	Enabled bool
	Host    string
	Port    int
	// Controller selects OpenRGB controllers by name substring, empty selects all
	Controller string
	// Dim is brightness (0-1) used while portamento blocking is not engaged
	Dim float64
}

var Unavailable = openrgb.Color{Red: 0x40}

func hsvToColor(h, s, v float64) openrgb.Color {
	c := colorful.Hsv(h, s, v)
	return openrgb.Color{
		Red:   byte(c.R * 255),
		Green: byte(c.G * 255),
		Blue:  byte(c.B * 255),
	}
}

var modeHues = map[router.Mode]float64{
	router.ExternalChannel1:  30,
	router.ExternalChannel2:  120,
	router.ExternalChannel10: 210,
}

// ModeColor returns white for internal mode and a hue per external channel.
func ModeColor(m router.Mode, value float64) openrgb.Color {
	h, ok := modeHues[m]
	if !ok {
		return hsvToColor(0, 0, value)
	}
	return hsvToColor(h, 1, value)
}

// StateColor is bright while portamento blocking is engaged, dimmed otherwise.
func StateColor(s router.State, dim float64) openrgb.Color {
	if !s.Connected {
		return Unavailable
	}
	if s.PortamentoDisabled && s.Mode == router.Internal {
		return ModeColor(s.Mode, 1)
	}
	return ModeColor(s.Mode, dim)
}

type Controller struct {
	Index int
	Name  string
	LEDs  int
}

// FindControllers returns OpenRGB controllers with name containing pattern.
func FindControllers(c *openrgb.Client, pattern string) ([]Controller, error) {
	count, err := c.GetControllerCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get controller count: %w", err)
	}

	var controllers []Controller
	for i := 0; i < count; i++ {
		dev, err := c.GetDeviceController(i)
		if err != nil {
			return nil, fmt.Errorf("getting controller information failed (%d/%d): %w", i, count, err)
		}
		if !strings.Contains(dev.Name, pattern) {
			continue
		}
		controllers = append(controllers, Controller{Index: i, Name: dev.Name, LEDs: len(dev.Colors)})
	}

	if len(controllers) == 0 {
		return nil, fmt.Errorf("controller not found")
	}
	return controllers, nil
}

// LEDUpdater is satisfied by *openrgb.Client.
type LEDUpdater interface {
	UpdateLEDs(index int, colors []openrgb.Color) error
}

// Paint sets every led of given controllers to color, number of failed updates is returned.
func Paint(c LEDUpdater, controllers []Controller, color openrgb.Color) (int, error) {
	var fails int
	var lastErr error
	for _, ctrl := range controllers {
		leds := make([]openrgb.Color, ctrl.LEDs)
		for i := range leds {
			leds[i] = color
		}
		err := c.UpdateLEDs(ctrl.Index, leds)
		if err != nil {
			fails++
			lastErr = err
		}
	}
	return fails, lastErr
}

func turnOff(c LEDUpdater, controllers []Controller) {
	_, err := Paint(c, controllers, openrgb.Color{})
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Turning leds off failed: %s", err), logger.Warning)
	}
}

// Connect retries for a few seconds, OpenRGB server may start along with refrouter.
func Connect(ctx context.Context, host string, port int) (*openrgb.Client, error) {
	var c *openrgb.Client
	var err error

	timeout := time.Now().Add(time.Second * 5)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond * 250):
		}

		c, err = openrgb.Connect(host, port)
		if err == nil {
			return c, nil
		}
		if time.Now().After(timeout) {
			return nil, err
		}
	}
}

// Run colors selected OpenRGB controllers after router state until states is
// closed or ctx is done.
func Run(ctx context.Context, wg *sync.WaitGroup, cfg Config, states <-chan router.State) {
	defer wg.Done()

	log.Info(fmt.Sprintf("[OpenRGB] Connecting: %s:%d...", cfg.Host, cfg.Port), logger.Debug)
	c, err := Connect(ctx, cfg.Host, cfg.Port)
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Cannot connect to server: %s", err), logger.Warning)
		for range states {
		}
		return
	}
	defer c.Close()

	controllers, err := FindControllers(c, cfg.Controller)
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Cannot find controller: %s", err), logger.Warning)
		for range states {
		}
		return
	}
	for _, ctrl := range controllers {
		log.Info(fmt.Sprintf("[OpenRGB] Controller found: %s, index: %d", ctrl.Name, ctrl.Index), logger.Debug)
	}

	var last openrgb.Color
	var first = true
	updateFails := 0

root:
	for {
		var s router.State
		var ok bool

		select {
		case <-ctx.Done():
			break root
		case s, ok = <-states:
			if !ok {
				break root
			}
		}

		color := StateColor(s, cfg.Dim)
		if !first && color == last {
			continue
		}
		first, last = false, color

		fails, err := Paint(c, controllers, color)
		if err != nil {
			updateFails += fails
			log.Info(fmt.Sprintf("[OpenRGB] Led update fails %d times, last err: %s", updateFails, err), logger.Debug)
		}
	}

	turnOff(c, controllers)
	log.Info("[OpenRGB] LED update loop finished", logger.Debug)
}
