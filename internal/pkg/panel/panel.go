package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gethiox/refrouter/internal/pkg/control"
	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const keyPressed = 1

// Config of a keypad (or any evdev key device) used as hardware control panel.
type Config struct {
	Enabled bool
	Path    string
	Grab    bool
	Keys    map[evdev.EvCode]control.Action
}

// ParseKeys builds key mapping from action words ("start", "channel10"...)
// and evdev key names ("KEY_ENTER").
func ParseKeys(raw map[string]string) (map[evdev.EvCode]control.Action, error) {
	var keys = make(map[evdev.EvCode]control.Action, len(raw))

	for actionRaw, keyRaw := range raw {
		action, err := control.Parse(actionRaw)
		if err != nil {
			return nil, err
		}

		code, ok := evdev.KEYFromString[strings.ToUpper(strings.TrimSpace(keyRaw))]
		if !ok {
			return nil, fmt.Errorf("key \"%s\" not found / not supported", keyRaw)
		}

		if prev, ok := keys[code]; ok {
			return nil, fmt.Errorf("key \"%s\" assigned to both \"%s\" and \"%s\"", keyRaw, prev, action)
		}
		keys[code] = action
	}
	return keys, nil
}

// Translate returns action bound to a key press, releases and repeats are ignored.
func Translate(keys map[evdev.EvCode]control.Action, ev evdev.InputEvent) (control.Action, bool) {
	if ev.Type != evdev.EV_KEY || ev.Value != keyPressed {
		return control.Action{}, false
	}
	a, ok := keys[ev.Code]
	return a, ok
}

// Run reads key events of the panel device until ctx is done or the device disappears.
func Run(ctx context.Context, wg *sync.WaitGroup, cfg Config, actions chan<- control.Action) error {
	dev, err := evdev.Open(cfg.Path)
	if err != nil {
		return fmt.Errorf("opening panel device failed: %w", err)
	}

	name, _ := dev.Name()
	name = strings.Trim(name, "\x00")

	if cfg.Grab {
		err = dev.Grab()
		if err != nil {
			log.Info(fmt.Sprintf("grabbing panel device failed: %v", err), zap.String("handler_name", name), logger.Warning)
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		err := dev.Close()
		if err != nil {
			log.Info(fmt.Sprintf("panel close failed: %v", err), logger.Debug)
		}
	}()

	go func() {
		defer wg.Done()
		log.Info("Reading panel events", zap.String("handler_name", name), logger.Info)

		for {
			ev, err := dev.ReadOne()
			if err != nil {
				break
			}

			a, ok := Translate(cfg.Keys, *ev)
			if !ok {
				continue
			}
			log.Info(fmt.Sprintf("panel: %s", a), logger.Debug)

			select {
			case actions <- a:
			case <-ctx.Done():
				return
			}
		}
		log.Info("Reading panel events finished", zap.String("handler_name", name), logger.Debug)
	}()

	return nil
}
