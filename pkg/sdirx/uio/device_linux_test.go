//go:build linux && (amd64 || arm64 || arm)

package uio

import (
	"context"
	"encoding/binary"
	"errors"
	"syscall"
	"testing"
	"time"
)

func pipeDevice(t *testing.T) (*Device, int) {
	t.Helper()
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { syscall.Close(fds[1]) })
	return &Device{path: "pipe", fd: fds[0], mem: make([]byte, 0x100)}, fds[1]
}

func TestRegisterAccess(t *testing.T) {
	d, _ := pipeDevice(t)
	defer d.Close()

	d.Write(0x40, 0xDEADBEEF)
	if got := d.Read(0x40); got != 0xDEADBEEF {
		t.Errorf("Read(0x40) = %#x, want 0xdeadbeef", got)
	}

	d.Write(0x100, 1)
	if got := d.Read(0x100); got != 0 {
		t.Errorf("Read past the map = %#x, want 0", got)
	}
	if got := d.Read(0x41); got != 0 {
		t.Errorf("unaligned Read = %#x, want 0", got)
	}
}

func TestWaitReturnsCount(t *testing.T) {
	d, w := pipeDevice(t)
	defer d.Close()

	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 42)
	if _, err := syscall.Write(w, buf[:]); err != nil {
		t.Fatal(err)
	}

	count, err := d.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if count != 42 {
		t.Errorf("Wait() = %d, want 42", count)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	d, _ := pipeDevice(t)
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := d.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Wait() did not return promptly after the deadline")
	}
}

func TestClosedDevice(t *testing.T) {
	d, _ := pipeDevice(t)
	d.mem = nil
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := d.Wait(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Wait() after Close error = %v, want ErrClosed", err)
	}
	if err := d.Unmask(); !errors.Is(err, ErrClosed) {
		t.Errorf("Unmask() after Close error = %v, want ErrClosed", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	if _, err := Open("/dev/uio-does-not-exist", 0x1000); err == nil {
		t.Error("Open() of a missing device should fail")
	}
}
