package led

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
)

const defaultSysfsRoot = "/sys/class/leds"

// blinkPeriod is the on and off time of PatternBlink.
const blinkPeriod = 500 * time.Millisecond

// sysfs drives LEDs through the Linux LED class interface.
type sysfs struct {
	root string
	leds map[string]string // LED name -> sysfs directory name
}

func newSysfs(root string, leds map[string]string) *sysfs {
	return &sysfs{root: root, leds: leds}
}

func (s *sysfs) Set(name string, pattern Pattern) error {
	dir, ok := s.leds[name]
	if !ok {
		return fmt.Errorf("LED %q not supported on this board", name)
	}

	path := filepath.Join(s.root, dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("LED %q not found at %s", name, path)
	}

	switch pattern {
	case PatternOff:
		return s.write(path, map[string]string{"trigger": "none", "brightness": "0"}, "trigger", "brightness")
	case PatternSolid:
		return s.write(path, map[string]string{"trigger": "none", "brightness": "1"}, "trigger", "brightness")
	case PatternBlink:
		ms := strconv.FormatInt(blinkPeriod.Milliseconds(), 10)
		// delay_on and delay_off only appear once the timer trigger is active.
		return s.write(path, map[string]string{"trigger": "timer", "delay_on": ms, "delay_off": ms},
			"trigger", "delay_on", "delay_off")
	case PatternHeartbeat:
		return s.write(path, map[string]string{"trigger": "heartbeat"}, "trigger")
	default:
		return fmt.Errorf("unsupported LED pattern %q", pattern)
	}
}

// write stores values into the LED attributes in the given order.
func (s *sysfs) write(path string, values map[string]string, order ...string) error {
	for _, attr := range order {
		if err := os.WriteFile(filepath.Join(path, attr), []byte(values[attr]), 0o644); err != nil {
			return fmt.Errorf("set LED %s: %w", attr, err)
		}
	}
	return nil
}

func (s *sysfs) Names() []string {
	names := make([]string, 0, len(s.leds))
	for name := range s.leds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *sysfs) Patterns() []Pattern {
	return []Pattern{PatternOff, PatternSolid, PatternBlink, PatternHeartbeat}
}
