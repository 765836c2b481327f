package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gethiox/refrouter/internal/pkg/logger"
)

var log = logger.GetLogger()

// Load reads device configuration from path, default configuration is used
// when file does not exist.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info(fmt.Sprintf("device config \"%s\" not found, using defaults", path), logger.Warning)
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading file data failed: %w", err)
	}

	cfg, err := ParseData(data)
	if err != nil {
		return Config{}, fmt.Errorf("device config \"%s\": %w", path, err)
	}

	log.Info(fmt.Sprintf("device config loaded: %d init sequences", len(cfg.Init)), logger.Debug)
	return cfg, nil
}
