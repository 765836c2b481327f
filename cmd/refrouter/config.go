package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/refrouter/internal/pkg/display"
	"github.com/gethiox/refrouter/internal/pkg/indicator"
	"github.com/gethiox/refrouter/internal/pkg/logger"
	"github.com/gethiox/refrouter/internal/pkg/midi/config"
	"github.com/gethiox/refrouter/internal/pkg/midi/router"
	"github.com/gethiox/refrouter/internal/pkg/panel"
	"github.com/go-ini/ini"
)

type RefRouter struct {
	DefaultMode   router.Mode
	Autostart     bool
	QueueSize     int
	LogViewRate   time.Duration
	LogBufferSize int
	DevicesConfig string
}

type RefRouterConfig struct {
	RefRouter RefRouter
	Screen    display.ScreenConfig
	Indicator indicator.Config
	Panel     panel.Config
}

func positiveInt(section *ini.Section, name string) (int, error) {
	i, err := section.Key(name).Int()
	if err != nil {
		return 0, fmt.Errorf("[%s] %s: %w", section.Name(), name, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("[%s] %s: positive value expected, got %d", section.Name(), name, i)
	}
	return i, nil
}

func boolean(section *ini.Section, name string) (bool, error) {
	b, err := section.Key(name).Bool()
	if err != nil {
		return false, fmt.Errorf("[%s] %s: %w", section.Name(), name, err)
	}
	return b, nil
}

// ParseRefRouterConfig reads application config, configDir is used to resolve relative paths.
func ParseRefRouterConfig(data []byte, configDir string) (RefRouterConfig, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return RefRouterConfig{}, fmt.Errorf("parsing ini failed: %w", err)
	}

	var c RefRouterConfig

	// [refrouter]
	refrouter, err := cfg.GetSection("refrouter")
	if err != nil {
		return c, err
	}
	c.RefRouter.DefaultMode, err = router.ParseMode(refrouter.Key("default_mode").String())
	if err != nil {
		return c, fmt.Errorf("[refrouter] default_mode: %w", err)
	}
	if c.RefRouter.Autostart, err = boolean(refrouter, "autostart"); err != nil {
		return c, err
	}
	if c.RefRouter.QueueSize, err = positiveInt(refrouter, "queue_size"); err != nil {
		return c, err
	}
	i, err := positiveInt(refrouter, "log_view_rate")
	if err != nil {
		return c, err
	}
	c.RefRouter.LogViewRate = time.Second / time.Duration(i)
	if c.RefRouter.LogBufferSize, err = positiveInt(refrouter, "log_buffer_size"); err != nil {
		return c, err
	}
	devices := refrouter.Key("devices_config").String()
	if !filepath.IsAbs(devices) {
		devices = filepath.Join(configDir, devices)
	}
	c.RefRouter.DevicesConfig = devices

	// [screen]
	screen, err := cfg.GetSection("screen")
	if err != nil {
		return c, err
	}
	if c.Screen.Enabled, err = boolean(screen, "enabled"); err != nil {
		return c, err
	}
	switch t := screen.Key("type").Value(); t {
	case "16x2":
		c.Screen.LcdType = hd44780.LCD_16x2
	case "20x4":
		c.Screen.LcdType = hd44780.LCD_20x4
	default:
		return c, fmt.Errorf("[screen] type: unsupported screen type \"%s\"", t)
	}
	if c.Screen.Bus, err = screen.Key("bus").Int(); err != nil {
		return c, fmt.Errorf("[screen] bus: %w", err)
	}
	address, err := screen.Key("address").Uint()
	if err != nil || address > 0x7f {
		return c, fmt.Errorf("[screen] address: invalid i2c address \"%s\"", screen.Key("address").String())
	}
	c.Screen.Address = uint8(address)
	if i, err = positiveInt(screen, "update_rate"); err != nil {
		return c, err
	}
	c.Screen.UpdateRate = time.Second / time.Duration(i)
	for n := range c.Screen.ExitMessage {
		c.Screen.ExitMessage[n] = screen.Key(fmt.Sprintf("exit_message%d", n+1)).String()
	}

	// [indicator]
	ind, err := cfg.GetSection("indicator")
	if err != nil {
		return c, err
	}
	if c.Indicator.Enabled, err = boolean(ind, "enabled"); err != nil {
		return c, err
	}
	c.Indicator.Host = ind.Key("host").String()
	if c.Indicator.Port, err = positiveInt(ind, "port"); err != nil {
		return c, err
	}
	c.Indicator.Controller = ind.Key("controller").String()
	dim, err := ind.Key("dim").Int()
	if err != nil || dim < 0 || dim > 100 {
		return c, fmt.Errorf("[indicator] dim: value 0-100 expected, got \"%s\"", ind.Key("dim").String())
	}
	c.Indicator.Dim = float64(dim) / 100

	// [panel]
	p, err := cfg.GetSection("panel")
	if err != nil {
		return c, err
	}
	if c.Panel.Enabled, err = boolean(p, "enabled"); err != nil {
		return c, err
	}
	c.Panel.Path = p.Key("device").String()
	if c.Panel.Grab, err = boolean(p, "grab"); err != nil {
		return c, err
	}
	keys, err := cfg.GetSection("panel_keys")
	if err != nil {
		return c, err
	}
	c.Panel.Keys, err = panel.ParseKeys(keys.KeysHash())
	if err != nil {
		return c, fmt.Errorf("[panel_keys]: %w", err)
	}

	return c, nil
}

func LoadRefRouterConfig(configDir string) (RefRouterConfig, error) {
	data, err := os.ReadFile(filepath.Join(configDir, configFile))
	if err != nil {
		return RefRouterConfig{}, fmt.Errorf("reading config failed: %w", err)
	}
	return ParseRefRouterConfig(data, configDir)
}

//go:embed refrouter-config/refrouter.config
var templateConfig embed.FS

const (
	templateDir = "refrouter-config"
	configFile  = "refrouter.config"
	devicesFile = "devices.yaml"
)

// createConfigDirectoryIfNeeded generates config tree in configDir if necessary.
// Existing files stay intact.
func createConfigDirectoryIfNeeded(configDir string) error {
	err := os.MkdirAll(configDir, 0o777)
	if err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	appConfig, err := fs.ReadFile(templateConfig, templateDir+"/"+configFile)
	if err != nil {
		return fmt.Errorf("cannot read \"%s\" template file: %w", configFile, err)
	}

	for name, data := range map[string][]byte{
		configFile:  appConfig,
		devicesFile: config.DefaultData,
	} {
		path := filepath.Join(configDir, name)

		current, err := os.ReadFile(path)
		if err == nil {
			if !bytes.Equal(current, data) {
				log.Info(fmt.Sprintf("File \"%s\" customized, keeping", path), logger.Debug)
			}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot read \"%s\" file: %w", path, err)
		}

		err = os.WriteFile(path, data, 0o666)
		if err != nil {
			return fmt.Errorf("cannot write data into \"%s\" file: %w", path, err)
		}
		log.Info(fmt.Sprintf("Created \"%s\" file", path), logger.Info)
	}
	return nil
}
