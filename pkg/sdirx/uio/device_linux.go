//go:build linux && (amd64 || arm64 || arm)

package uio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"
)

// pollInterval bounds how long Wait blocks in select before checking the
// context again.
const pollInterval = 100

// Device is an open UIO device with its first memory map.
type Device struct {
	path string

	mu     sync.Mutex
	fd     int
	mem    []byte
	closed bool
}

// Open opens the UIO device at path and maps mapSize bytes of map 0. A
// mapSize of zero reads the size from sysfs.
func Open(path string, mapSize int) (*Device, error) {
	if mapSize <= 0 {
		size, err := MapSize(path)
		if err != nil {
			return nil, err
		}
		mapSize = size
	}

	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	mem, err := syscall.Mmap(fd, 0, mapSize, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("mmap %s (%d bytes): %w", path, mapSize, err)
	}

	return &Device{path: path, fd: fd, mem: mem}, nil
}

// Path returns the device node path.
func (d *Device) Path() string {
	return d.path
}

// Read returns the 32-bit register at offset. Offsets outside the map read
// as zero.
func (d *Device) Read(offset uint32) uint32 {
	p := d.word(offset)
	if p == nil {
		return 0
	}
	return atomic.LoadUint32(p)
}

// Write stores value in the 32-bit register at offset. Writes outside the
// map are dropped.
func (d *Device) Write(offset, value uint32) {
	p := d.word(offset)
	if p == nil {
		return
	}
	atomic.StoreUint32(p, value)
}

// word returns a pointer to an aligned register so each access is a single
// 32-bit bus cycle.
func (d *Device) word(offset uint32) *uint32 {
	if offset%4 != 0 || int(offset)+4 > len(d.mem) {
		return nil
	}
	return (*uint32)(unsafe.Pointer(&d.mem[offset]))
}

// Wait blocks until the next interrupt and returns the kernel's interrupt
// count. It returns ctx.Err() once ctx is done.
func (d *Device) Wait(ctx context.Context) (uint32, error) {
	d.mu.Lock()
	fd, closed := d.fd, d.closed
	d.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var readFds syscall.FdSet
		fdSet(&readFds, fd)
		n, err := syscall.Select(fd+1, &readFds, nil, nil, makeTimeval(pollInterval))
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return 0, fmt.Errorf("select %s: %w", d.path, err)
		}
		if n == 0 {
			continue
		}

		var buf [4]byte
		if _, err := syscall.Read(fd, buf[:]); err != nil {
			if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
				continue
			}
			return 0, fmt.Errorf("read %s: %w", d.path, err)
		}
		return binary.NativeEndian.Uint32(buf[:]), nil
	}
}

// Unmask re-enables the interrupt line.
func (d *Device) Unmask() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	if _, err := syscall.Write(d.fd, buf[:]); err != nil {
		return fmt.Errorf("unmask %s: %w", d.path, err)
	}
	return nil
}

// Close unmaps the register window and closes the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.mem != nil {
		if err := syscall.Munmap(d.mem); err != nil {
			errs = append(errs, fmt.Errorf("munmap %s: %w", d.path, err))
		}
		d.mem = nil
	}
	if err := syscall.Close(d.fd); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", d.path, err))
	}
	return errors.Join(errs...)
}
