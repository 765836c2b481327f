package router

import (
	"fmt"
	"strings"
)

// Mode selects destination of played notes.
type Mode int

const (
	Internal Mode = iota
	ExternalChannel1
	ExternalChannel2
	ExternalChannel10
)

var Modes = []Mode{Internal, ExternalChannel1, ExternalChannel2, ExternalChannel10}

func (m Mode) String() string {
	switch m {
	case Internal:
		return "INTERNAL"
	case ExternalChannel1:
		return "CHANNEL 1"
	case ExternalChannel2:
		return "CHANNEL 2"
	case ExternalChannel10:
		return "CHANNEL 10"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(m))
	}
}

// Channel returns 0-based destination channel of the mode.
func (m Mode) Channel() uint8 {
	switch m {
	case ExternalChannel2:
		return 1
	case ExternalChannel10:
		return 9
	default:
		return 0
	}
}

var nameToMode = map[string]Mode{
	"internal":  Internal,
	"intern":    Internal,
	"channel1":  ExternalChannel1,
	"extern1":   ExternalChannel1,
	"channel2":  ExternalChannel2,
	"extern2":   ExternalChannel2,
	"channel10": ExternalChannel10,
	"extern10":  ExternalChannel10,
}

// ParseMode accepts names like "internal", "channel10" or "CHANNEL 2".
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	m, ok := nameToMode[key]
	if !ok {
		return Internal, fmt.Errorf("unsupported mode: \"%s\"", s)
	}
	return m, nil
}
