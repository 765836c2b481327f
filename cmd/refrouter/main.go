package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/refrouter/internal/pkg/control"
	"github.com/gethiox/refrouter/internal/pkg/display"
	"github.com/gethiox/refrouter/internal/pkg/indicator"
	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi/config"
	"github.com/gethiox/refrouter/internal/pkg/midi/connection"
	"github.com/gethiox/refrouter/internal/pkg/midi/driver/alsa"
	"github.com/gethiox/refrouter/internal/pkg/midi/group"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/gethiox/refrouter/internal/pkg/panel"
	"github.com/gethiox/refrouter/internal/pkg/utils"
	"github.com/logrusorgru/aurora"
)

var log = logger.GetLogger()

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func(), server *http.Server, g *gocui.Gui) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		if server != nil {
			err := server.Close()
			if err != nil {
				log.Info(fmt.Sprintf("failed to close server: %v", err), logger.Warning)
			}
		}
		if g != nil {
			g.Close()
		}
		counter++
	}
}

func runUI(ui bool, sigs chan os.Signal, actions chan<- control.Action) *gocui.Gui {
	if !ui {
		return nil
	}

	g, err := GetCli(actions)
	if err != nil {
		fmt.Printf("failed to initialize ui: %v\n", err)
		os.Exit(1)
	}

	go func() {
		if err := g.MainLoop(); err != nil {
			if err != gocui.ErrQuit {
				panic(err)
			}
			g.Close()
			sigs <- syscall.SIGINT // pretend that we received signal when exited from gui
		}
	}()

	// views are created by the first layout pass
	for i := 0; i < 50; i++ {
		if _, err := g.View(ViewLogs); err == nil {
			break
		}
		time.Sleep(time.Millisecond * 10)
	}
	return g
}

func runProfileServer(wg *sync.WaitGroup) *http.Server {
	var server *http.Server
	if *profile {
		addr := "0.0.0.0:8080"
		log.Info(fmt.Sprintf("profiling enabled and hosted on %s", addr), logger.Info)
		server = &http.Server{Addr: addr, Handler: nil}
		wg.Add(1)
		go func() {
			log.Info(fmt.Sprintf("profiling server exited: %v", server.ListenAndServe()), logger.Info)
			wg.Done()
		}()
	}
	return server
}

// stateStream forwards loop states until ctx is done, then closes the output.
func stateStream(ctx context.Context, loop *router.Loop) <-chan router.State {
	out := make(chan router.State)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-loop.States():
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func spawn[T any](f *utils.DynamicFanOut[T]) <-chan T {
	_, c, err := f.SpawnOutput()
	if err != nil {
		// input closed already, consumer gets nothing
		closed := make(chan T)
		close(closed)
		return closed
	}
	return c
}

var (
	profile  = flag.Bool("profile", false, "runs web server for performance profiling (go tool pprof)")
	ui       = flag.Bool("ui", false, "engage terminal ui")
	force256 = flag.Bool("256", false, "force 256 color mode")
	nocolor  = flag.Bool("nocolor", false, "disable color")
	logLevel = flag.Int("loglevel", 1,
		"logging level, each level enables additional information class (0-2, default: 1)\n"+
			"\navailable options:\n"+
			"0: general info (eg. connected devices)\n"+
			"1: actions (destination changes, portamento blocking)\n"+
			"2: every routed midi message",
	)
	silent    = flag.Bool("silent", false, "no output logging, best performance")
	configDir = flag.String("config", "refrouter-config", "config directory")
	play      = flag.String("play", "", "play notes of standard midi file through keyboard input after start")
	bpm       = flag.Int("bpm", 120, "playback tempo for -play")
)

func main() {
	flag.Parse()
	*logLevel += 2

	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}

	err := createConfigDirectoryIfNeeded(*configDir)
	if err != nil {
		fmt.Printf("config generation failed: %v\n", err)
		os.Exit(1)
	}
	cfg, err := LoadRefRouterConfig(*configDir)
	if err != nil {
		fmt.Printf("config load failed: %v\n", err)
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("refrouter config: %+v", cfg), logger.Debug)

	var player *Player
	if *play != "" {
		p, err := LoadPlayer(filepath.Clean(*play))
		if err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		player = &p
	}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	var actions = make(chan control.Action, 8)
	useUI := *ui && !*silent
	g := runUI(useUI, sigs, actions)

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	server := runProfileServer(&wg)

	wg.Add(1)
	go handleSigs(&wg, sigs, cancel, server, g)

	keyboards, circuit := group.New("keyboards"), group.New("circuit")
	// actions (mode, portamento blocking) are logged regardless
	noMessageLogs := *silent || *logLevel < logger.MessagesLvl

	loop := router.NewLoop(router.New(keyboards, circuit, cfg.RefRouter.DefaultMode, noMessageLogs), cfg.RefRouter.QueueSize)
	wg.Add(1)
	go loop.Run(ctx, &wg)

	provider := alsa.Provider{}
	connector := connection.NewManager(provider, keyboards, circuit, loop.KeyboardHandler, loop.CircuitHandler)

	devicesConfig, err := config.Load(cfg.RefRouter.DevicesConfig)
	if err != nil {
		log.Info(fmt.Sprintf("device config load failed, using defaults: %v", err), logger.Error)
		devicesConfig = config.Default()
	}
	connector.Reconfigure(devicesConfig.Classifier, devicesConfig.Init)

	manager := NewManager(loop, connector)

	states := utils.NewLatestFanOut(stateStream(ctx, loop))

	if cfg.Screen.Enabled || useUI {
		wg.Add(1)
		dd := utils.NewDynamicFanOut(GenerateDisplayData(ctx, &wg, cfg.Screen, spawn(states)))

		if cfg.Screen.Enabled {
			wg.Add(1)
			go display.HandleDisplay(&wg, cfg.Screen, spawn(dd))
		}
		if useUI {
			go lcdView(g, spawn(dd))
		}
	}

	if cfg.Indicator.Enabled {
		wg.Add(1)
		go indicator.Run(ctx, &wg, cfg.Indicator, spawn(states))
	}

	if cfg.Panel.Enabled {
		err := panel.Run(ctx, &wg, cfg.Panel, actions)
		if err != nil {
			log.Info(fmt.Sprintf("control panel unavailable: %v", err), logger.Warning)
		}
	}

	if useUI {
		go logView(g, !*nocolor, *logLevel, cfg.RefRouter.LogBufferSize, cfg.RefRouter.LogViewRate)
		go overviewView(ctx, g, !*nocolor, spawn(states), manager.IsStarted, keyboards, circuit)
	} else {
		go func() {
			if *silent {
				for range logger.Messages {
				}
				return
			}
			fmt.Printf("for nicer output use -ui flag\n")
			au := aurora.NewAurora(!*nocolor)
			for data := range logger.Messages {
				msg, err := unpack(data)
				if err != nil {
					fmt.Printf("%s\n", string(data))
					continue
				}
				m := prepareString(msg, au, -1, *logLevel)
				if m != "" {
					fmt.Printf("%s\n", m)
				}
			}
		}()

		// stdin never unblocks on its own, not part of the wait-group
		go control.ReadActions(ctx, os.Stdin, actions, func(err error) {
			log.Info(err.Error(), logger.Warning)
		})
		log.Info("type \"start\", \"internal\", \"channel1\", \"channel2\", \"channel10\" or \"reconnect\"", logger.Info)
	}

	if player != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-manager.Started():
			case <-ctx.Done():
				return
			}
			log.Info(fmt.Sprintf("playing %s", *play), logger.Info)
			err := player.Play(ctx, loop.KeyboardHandler, *bpm)
			if err != nil {
				log.Info(fmt.Sprintf("playback failed: %v", err), logger.Error)
			}
		}()
	}

	if cfg.RefRouter.Autostart {
		actions <- control.Action{Kind: control.Start}
	}

	runManager(ctx, manager, actions, config.DetectDeviceConfigChanges(ctx, cfg.RefRouter.DevicesConfig), cfg.RefRouter.DevicesConfig)

	connector.Disconnect()
	provider.Close()
	log.Info("waiting...", logger.Debug)
	signal.Stop(sigs)
	close(sigs)

	// closing logger can be safely invoked only when all internally running goroutines (that may emit logs) are done
	wg.Wait()
	close(logger.Messages)
}
