package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gethiox/refrouter/internal/pkg/midi"
	"github.com/gethiox/refrouter/internal/pkg/midi/connection"
	"gopkg.in/yaml.v3"
)

var ErrInvalidMessage = errors.New("invalid midi message")

// ParseMessage decodes hex encoded midi message, whitespace between bytes is allowed.
func ParseMessage(s string) (midi.Event, error) {
	data, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, fmt.Errorf("decoding hex failed: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidMessage)
	}
	if data[0] < 0x80 {
		return nil, fmt.Errorf("%w: 0x%02x is not a status byte", ErrInvalidMessage, data[0])
	}

	payload := data[1:]
	if data[0] == midi.SysExStart {
		if len(data) < 2 || data[len(data)-1] != midi.SysExEnd {
			return nil, fmt.Errorf("%w: system exclusive message not terminated", ErrInvalidMessage)
		}
		payload = data[1 : len(data)-1]
	}

	for i, b := range payload {
		if b >= 0x80 {
			return nil, fmt.Errorf("%w: unexpected status byte 0x%02x at position %d", ErrInvalidMessage, b, i+1)
		}
	}

	return data, nil
}

func ParseData(data []byte) (Config, error) {
	cfg := YamlDevicesConfig{}

	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)

	err := d.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing yaml failed: %w", err)
	}

	var c = Config{
		Classifier: connection.SubstringClassifier{
			Exclude:   cfg.Classification.Exclude,
			Groovebox: cfg.Classification.Groovebox,
			Keyboard:  cfg.Classification.Keyboard,
		},
		Init: make([]connection.InitSequence, 0, len(cfg.Init)),
	}

	for i, seq := range cfg.Init {
		name := seq.Name
		if name == "" {
			name = fmt.Sprintf("init %d", i+1)
		}

		ev, err := ParseMessage(seq.Data)
		if err != nil {
			return Config{}, fmt.Errorf("init sequence \"%s\": %w", name, err)
		}
		c.Init = append(c.Init, connection.InitSequence{Name: name, Data: ev})
	}

	return c, nil
}
