//go:build !(linux && (amd64 || arm64 || arm))

package uio

import "context"

// Device is unavailable on this platform.
type Device struct{}

// Open always fails with ErrUnsupported.
func Open(path string, mapSize int) (*Device, error) {
	return nil, ErrUnsupported
}

func (d *Device) Path() string { return "" }
func (d *Device) Read(offset uint32) uint32 { return 0 }
func (d *Device) Write(offset, value uint32) {}
func (d *Device) Wait(ctx context.Context) (uint32, error) { return 0, ErrUnsupported }
func (d *Device) Unmask() error { return ErrUnsupported }
func (d *Device) Close() error { return nil }
