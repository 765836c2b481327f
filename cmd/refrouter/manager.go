package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gethiox/refrouter/internal/pkg/control"
	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi/config"
	"github.com/gethiox/refrouter/internal/pkg/midi/connection"
	"github.com/gethiox/refrouter/internal/pkg/midi/driver"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
)

// Connector rebuilds device groups, see connection.Manager.
type Connector interface {
	Connect() error
	Reconfigure(classifier connection.Classifier, init []connection.InitSequence)
}

type Manager struct {
	loop      *router.Loop
	connector Connector
	gate      control.Gate
	started   chan struct{}

	mutex      sync.Mutex
	startedSet bool
}

func NewManager(loop *router.Loop, connector Connector) *Manager {
	return &Manager{
		loop:      loop,
		connector: connector,
		started:   make(chan struct{}),
	}
}

// Started is closed once start action was accepted.
func (m *Manager) Started() <-chan struct{} {
	return m.started
}

func (m *Manager) IsStarted() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.startedSet
}

func (m *Manager) connect() {
	err := m.loop.Connect(m.connector.Connect)
	switch {
	case err == nil:
		log.Info("connected", logger.Info)
	case errors.Is(err, driver.ErrAccessDenied):
		log.Info("not connected: midi access denied", logger.Error)
	case errors.Is(err, router.ErrStopped):
	default:
		log.Info(fmt.Sprintf("not connected: %v", err), logger.Error)
	}
}

// Handle applies a single action, actions other than start are ignored until started.
func (m *Manager) Handle(a control.Action) {
	if !m.gate.Accept(a) {
		log.Info(fmt.Sprintf("action ignored: %s", a), logger.Debug)
		return
	}

	switch a.Kind {
	case control.Start:
		m.mutex.Lock()
		m.startedSet = true
		m.mutex.Unlock()
		close(m.started)
		log.Info("starting", logger.Action)
		m.connect()
	case control.Select:
		log.Info(fmt.Sprintf("destination: %s", a.Mode), logger.Action)
		m.loop.SetMode(a.Mode)
	case control.Reconnect:
		log.Info("reconnecting", logger.Action)
		m.connect()
	}
}

// Reload applies new device configuration, reconnecting when already started.
func (m *Manager) Reload(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Info(fmt.Sprintf("device config reload failed: %v", err), logger.Error)
		return
	}
	m.connector.Reconfigure(cfg.Classifier, cfg.Init)
	log.Info("device config reloaded", logger.Info)

	if m.gate.Started() {
		m.connect()
	}
}

// runManager consumes control actions and config changes until ctx is done.
func runManager(ctx context.Context, m *Manager, actions <-chan control.Action, configChanges <-chan bool, devicesConfig string) {
	log.Info("Run manager", logger.Debug)
root:
	for {
		select {
		case <-ctx.Done():
			break root
		case a := <-actions:
			m.Handle(a)
		case _, ok := <-configChanges:
			if !ok {
				configChanges = nil
				continue
			}
			m.Reload(devicesConfig)
		}
	}
	log.Info("Exit manager", logger.Debug)
}
