package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// board maps a device tree model substring to its LED directories.
type board struct {
	match string
	leds  map[string]string
}

var boards = []board{
	{"NanoPC-T6", map[string]string{"system": "sys_led", "user": "usr_led"}},
	{"Orange Pi", map[string]string{"system": "green_led", "user": "blue_led"}},
	{"Raspberry Pi", map[string]string{"system": "ACT"}},
	// Zynq UltraScale+ evaluation boards carry the SDI receiver.
	{"ZCU106", map[string]string{"system": "heartbeat"}},
	{"ZCU102", map[string]string{"system": "heartbeat"}},
}

// New returns a controller for the running board, or a no-op controller
// when the board has no known LEDs.
func New(logger *slog.Logger) Controller {
	return newForModel(detectBoard(deviceTreeModelPath), defaultSysfsRoot, logger)
}

func newForModel(model, root string, logger *slog.Logger) Controller {
	for _, b := range boards {
		if strings.Contains(model, b.match) {
			logger.Info("Using sysfs LED controller", "board_model", model, "board", b.match)
			return newSysfs(root, b.leds)
		}
	}
	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model, "unknown" if it is unavailable.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
