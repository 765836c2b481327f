package alsa

import (
	"fmt"
	"sync"

	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const outputBufferSize = 64

type MIDIInPortFromDriver struct {
	port     drivers.In
	mutex    sync.Mutex
	handler  driver.Handler
	stopFunc func()
}

func (in *MIDIInPortFromDriver) Name() string {
	return in.port.String()
}

func (in *MIDIInPortFromDriver) Open() error {
	err := in.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	stopFn, err := in.port.Listen(in.receive, drivers.ListenConfig{
		TimeCode:        true, // timing clock is filtered out by rtmidi otherwise
		ActiveSense:     false,
		SysEx:           true,
		SysExBufferSize: 0,
		OnErr: func(err error) {
			log.Info(fmt.Sprintf("input error: %v", err), zap.String("port", in.Name()), logger.Warning)
		},
	})
	if err != nil {
		_ = in.port.Close()
		return fmt.Errorf("failed to listen on device: %w", err)
	}
	in.stopFunc = stopFn
	return nil
}

func (in *MIDIInPortFromDriver) receive(msg []byte, milliseconds int32) {
	in.mutex.Lock()
	h := in.handler
	in.mutex.Unlock()
	if h == nil {
		return
	}

	var data = make([]byte, len(msg))
	copy(data, msg)
	h(data)
}

func (in *MIDIInPortFromDriver) SetHandler(h driver.Handler) {
	in.mutex.Lock()
	in.handler = h
	in.mutex.Unlock()
}

func (in *MIDIInPortFromDriver) Close() error {
	in.SetHandler(nil)
	if in.stopFunc != nil {
		in.stopFunc()
		in.stopFunc = nil
	}
	return in.port.Close()
}

func NewMIDIInPortFromDriver(in drivers.In) driver.MIDIIn {
	return &MIDIInPortFromDriver{port: in}
}

type MIDIOutPortFromDriver struct {
	c      chan []byte
	done   chan struct{}
	mutex  sync.RWMutex
	closed bool
	port   drivers.Out
}

func (out *MIDIOutPortFromDriver) Name() string {
	return out.port.String()
}

func (out *MIDIOutPortFromDriver) Open() error {
	err := out.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	out.c = make(chan []byte, outputBufferSize)
	out.done = make(chan struct{})
	out.closed = false

	go func() {
		defer close(out.done)
		for event := range out.c {
			err := out.port.Send(event)
			if err != nil {
				log.Info(fmt.Sprintf("failed to write midi event: %v", err), zap.String("port", out.Name()), logger.Warning)
			}
		}
	}()
	return nil
}

// Send queues data for the writer goroutine, it never blocks.
func (out *MIDIOutPortFromDriver) Send(data []byte) error {
	out.mutex.RLock()
	defer out.mutex.RUnlock()
	if out.closed || out.c == nil {
		return fmt.Errorf("%s: %w", out.Name(), driver.ErrClosed)
	}

	var event = make([]byte, len(data))
	copy(event, data)

	select {
	case out.c <- event:
		return nil
	default:
		return fmt.Errorf("%s: %w", out.Name(), driver.ErrBusy)
	}
}

func (out *MIDIOutPortFromDriver) Close() error {
	out.mutex.Lock()
	if out.closed || out.c == nil {
		out.mutex.Unlock()
		return nil
	}
	out.closed = true
	close(out.c)
	out.mutex.Unlock()

	<-out.done
	return out.port.Close()
}

func NewMIDIOutPortFromDriver(out drivers.Out) driver.MIDIOut {
	return &MIDIOutPortFromDriver{port: out}
}

// Provider lists endpoints of the registered (rtmidi) driver.
type Provider struct{}

func checkAccess() error {
	if drivers.Get() == nil {
		return fmt.Errorf("no midi driver registered: %w", driver.ErrAccessDenied)
	}
	return nil
}

func (Provider) Inputs() ([]driver.MIDIIn, error) {
	if err := checkAccess(); err != nil {
		return nil, err
	}

	var ports = make([]driver.MIDIIn, 0)
	for _, p := range gomidi.GetInPorts() {
		ports = append(ports, NewMIDIInPortFromDriver(p))
	}
	return ports, nil
}

func (Provider) Outputs() ([]driver.MIDIOut, error) {
	if err := checkAccess(); err != nil {
		return nil, err
	}

	var ports = make([]driver.MIDIOut, 0)
	for _, p := range gomidi.GetOutPorts() {
		ports = append(ports, NewMIDIOutPortFromDriver(p))
	}
	return ports, nil
}

// Close releases the underlying driver, provider is unusable afterwards.
func (Provider) Close() {
	gomidi.CloseDriver()
}
