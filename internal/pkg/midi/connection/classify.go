package connection

import (
	"fmt"
	"strings"
)

// Class tells which device group an endpoint belongs to.
type Class int

const (
	Excluded Class = iota
	Keyboard
	Groovebox
)

func (c Class) String() string {
	switch c {
	case Excluded:
		return "excluded"
	case Keyboard:
		return "keyboard"
	case Groovebox:
		return "groovebox"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

type Classifier interface {
	Classify(name string) Class
}

// SubstringClassifier matches endpoint names against substrings, checked in
// order: Exclude, Groovebox, Keyboard. Empty Keyboard list accepts every
// remaining endpoint as keyboard-class.
type SubstringClassifier struct {
	Exclude   []string
	Groovebox []string
	Keyboard  []string
}

var DefaultClassifier = SubstringClassifier{
	Exclude:   []string{"Midi Through Port"},
	Groovebox: []string{"Circuit"},
}

func containsAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func (c SubstringClassifier) Classify(name string) Class {
	switch {
	case containsAny(name, c.Exclude):
		return Excluded
	case containsAny(name, c.Groovebox):
		return Groovebox
	case len(c.Keyboard) == 0 || containsAny(name, c.Keyboard):
		return Keyboard
	default:
		return Excluded
	}
}
