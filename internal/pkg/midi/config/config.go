package config

import (
	_ "embed"

	"github.com/gethiox/refrouter/internal/pkg/midi/connection"
)

// DefaultData is the device configuration used when no file is present.
//
//go:embed default.yaml
var DefaultData []byte

type YamlDevicesConfig struct {
	Classification struct {
		Exclude   []string `yaml:"exclude"`
		Groovebox []string `yaml:"groovebox"`
		Keyboard  []string `yaml:"keyboard"`
	} `yaml:"classification"`

	Init []struct {
		Name string `yaml:"name"`
		Data string `yaml:"data"`
	} `yaml:"init"`
}

type Config struct {
	Classifier connection.SubstringClassifier
	Init       []connection.InitSequence
}

func Default() Config {
	cfg, err := ParseData(DefaultData)
	if err != nil {
		panic(err)
	}
	return cfg
}
