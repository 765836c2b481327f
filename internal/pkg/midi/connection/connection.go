package connection

import (
	"fmt"
	"sync"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/gethiox/refrouter/internal/pkg/midi/driver"
	"github.com/gethiox/refrouter/internal/pkg/midi/group"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Provider lists midi endpoints available on the platform.
type Provider interface {
	Inputs() ([]driver.MIDIIn, error)
	Outputs() ([]driver.MIDIOut, error)
}

// InitSequence is sent once to keyboard-class outputs after every connect.
type InitSequence struct {
	Name string
	Data midi.Event
}

type Manager struct {
	provider  Provider
	keyboards *group.Group
	circuit   *group.Group

	onKeyboard func(ev midi.Event)
	onCircuit  func(ev midi.Event)

	mutex      sync.Mutex
	classifier Classifier
	init       []InitSequence
	connected  bool
}

// NewManager creates Manager populating keyboards and circuit groups, onKeyboard
// and onCircuit are attached as group callbacks on every connect.
func NewManager(
	provider Provider, keyboards, circuit *group.Group,
	onKeyboard, onCircuit func(ev midi.Event),
) *Manager {
	return &Manager{
		provider:   provider,
		keyboards:  keyboards,
		circuit:    circuit,
		onKeyboard: onKeyboard,
		onCircuit:  onCircuit,
		classifier: DefaultClassifier,
	}
}

// Reconfigure replaces classification and init sequences, applied on next Connect.
func (m *Manager) Reconfigure(classifier Classifier, init []InitSequence) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.classifier = classifier
	m.init = init
}

func (m *Manager) Connected() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.connected
}

// Disconnect detaches callbacks and closes every endpoint of both groups.
func (m *Manager) Disconnect() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.disconnect()
}

func (m *Manager) disconnect() {
	for _, g := range []*group.Group{m.keyboards, m.circuit} {
		if err := g.Clear(); err != nil {
			log.Info(fmt.Sprintf("closing ports failed: %v", err), zap.String("group", g.Name), logger.Warning)
		}
	}
	m.connected = false
}

// Connect rebuilds both groups from scratch. Endpoints failing to open are
// skipped, error is returned only when the endpoint list is not available.
func (m *Manager) Connect() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.disconnect()

	inputs, err := m.provider.Inputs()
	if err != nil {
		return fmt.Errorf("listing inputs failed: %w", err)
	}
	outputs, err := m.provider.Outputs()
	if err != nil {
		return fmt.Errorf("listing outputs failed: %w", err)
	}

	for _, in := range inputs {
		g := m.groupFor(in.Name())
		if g == nil {
			continue
		}
		if err := in.Open(); err != nil {
			log.Info(fmt.Sprintf("failed to open input: %v", err), zap.String("port", in.Name()), logger.Warning)
			continue
		}
		g.AddInput(in)
	}

	for _, out := range outputs {
		g := m.groupFor(out.Name())
		if g == nil {
			continue
		}
		if err := out.Open(); err != nil {
			log.Info(fmt.Sprintf("failed to open output: %v", err), zap.String("port", out.Name()), logger.Warning)
			continue
		}
		g.AddOutput(out)
	}

	m.keyboards.SetCallback(m.onKeyboard)
	m.circuit.SetCallback(m.onCircuit)

	for _, seq := range m.init {
		if err := m.keyboards.Send(seq.Data); err != nil {
			log.Info(fmt.Sprintf("init sequence failed: %v", err), zap.String("sequence", seq.Name), logger.Warning)
			continue
		}
		log.Info("init sequence sent", zap.String("sequence", seq.Name), logger.Debug)
	}

	for _, g := range []*group.Group{m.keyboards, m.circuit} {
		ports := g.Ports()
		if len(ports) == 0 {
			log.Info("no devices", zap.String("group", g.Name), logger.Warning)
		}
		for _, p := range ports {
			log.Info(p.String(), zap.String("group", g.Name), logger.Info)
		}
	}

	m.connected = true
	return nil
}

func (m *Manager) groupFor(name string) *group.Group {
	switch class := m.classifier.Classify(name); class {
	case Keyboard:
		return m.keyboards
	case Groovebox:
		return m.circuit
	default:
		log.Info("port skipped", zap.String("port", name), zap.String("class", class.String()), logger.Debug)
		return nil
	}
}
