package display

import (
	"sync"

	device "github.com/d2r2/go-hd44780"
	"github.com/d2r2/go-i2c"
	i2cLogger "github.com/d2r2/go-logger"
	"github.com/gethiox/refrouter/internal/pkg/logger"
)

var log = logger.GetLogger()

func getDisplay(addr uint8, bus int, lcdType device.LcdType) (*device.Lcd, *i2c.I2C, error) {
	i2cLogger.ChangePackageLogLevel("i2c", i2cLogger.InfoLevel)

	lcdRaw, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, nil, err
	}

	lcd, err := device.NewLcd(lcdRaw, lcdType)
	if err != nil {
		return nil, lcdRaw, err
	}

	return lcd, lcdRaw, nil
}

func loadCustomCharacters(lcd *device.Lcd, characters [][]byte) {
	for i, char := range characters {
		var location = uint8(i) & 0x7

		lcd.Command(device.CMD_CGRAM_Set | (location << 3))
		lcd.Write(char)
	}
}

// bar characters live in CGRAM slots 0-7
var conversionMap = map[rune]byte{
	'▁': 0,
	'▂': 1,
	'▃': 2,
	'▄': 3,
	'▅': 4,
	'▆': 5,
	'▇': 6,
	'█': 7,
}

var barChars = [][]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F}, // "▁"
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F}, // "▂"
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F}, // "▃"
	{0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F}, // "▄"
	{0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▅"
	{0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▆"
	{0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▇"
	{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "█"
}

// toDisplayBytes maps bar runes into custom characters, other non-ascii runes become '?'.
func toDisplayBytes(s string) []byte {
	var out = make([]byte, 0, len(s))
	for _, r := range s {
		n, ok := conversionMap[r]
		switch {
		case ok:
			out = append(out, n)
		case r < 0x80:
			out = append(out, byte(r))
		default:
			out = append(out, '?')
		}
	}
	return out
}

type DisplayData struct {
	Lines [4]string
}

// HandleDisplay writes every DisplayData to the screen until dd is closed.
func HandleDisplay(wg *sync.WaitGroup, cfg ScreenConfig, dd <-chan DisplayData) {
	defer wg.Done()
	lcd, bus, err := getDisplay(cfg.Address, cfg.Bus, cfg.LcdType)
	if err != nil {
		log.Info("display unavailable: "+err.Error(), logger.Warning)
		if bus != nil {
			bus.Close()
		}
		for range dd {
		}
		return
	}

	_, rows := cfg.Size()

	loadCustomCharacters(lcd, barChars)
	lcd.BacklightOn()
	lcd.Clear()

	for data := range dd {
		for i := 0; i < rows; i++ {
			lcd.SetPosition(i, 0)
			lcd.Write(toDisplayBytes(data.Lines[i]))
		}
	}

	bus.Close()
	log.Info("display closed", logger.Debug)
}
