// Package uio maps the register window of a UIO device and waits on its
// interrupt counter.
//
// The kernel uio driver exposes one character device per IP instance. Reads
// on it block until the next interrupt and return the running interrupt
// count. Writing 1 re-enables the interrupt line after it has been serviced.
package uio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupported is returned by Open on platforms without UIO.
var ErrUnsupported = errors.New("uio: not supported on this platform")

// ErrClosed is returned by operations on a closed Device.
var ErrClosed = errors.New("uio: device closed")

// sysfsRoot is replaced in tests.
var sysfsRoot = "/sys/class/uio"

// MapSize reports the size of map 0 of the UIO device at devPath as exported
// in sysfs.
func MapSize(devPath string) (int, error) {
	name := filepath.Base(devPath)
	data, err := os.ReadFile(filepath.Join(sysfsRoot, name, "maps", "map0", "size"))
	if err != nil {
		return 0, fmt.Errorf("read map size for %s: %w", name, err)
	}
	return parseMapSize(string(data))
}

func parseMapSize(s string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse map size %q: %w", strings.TrimSpace(s), err)
	}
	if v == 0 {
		return 0, fmt.Errorf("map size is zero")
	}
	return int(v), nil
}
