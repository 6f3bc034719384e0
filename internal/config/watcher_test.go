package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type testConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadTestConfig(path string) (testConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testConfig{}, err
	}
	var cfg testConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startWatcher writes initial to a temp file and runs a watcher on it until
// the test ends.
func startWatcher(t *testing.T, initial string, load func(string) (testConfig, error), opts ...WatcherOption[testConfig]) (*Watcher[testConfig], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sdinode.toml")
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[testConfig]{WithDebounce[testConfig](50 * time.Millisecond)}, opts...)
	w := NewWatcher(path, load, newTestLogger(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	// Let fsnotify register the directory.
	time.Sleep(100 * time.Millisecond)
	return w, path
}

func TestWatcher_BasicReload(t *testing.T) {
	received := make(chan testConfig, 1)
	w, path := startWatcher(t, "name = \"initial\"\nvalue = 1\n", loadTestConfig)
	w.OnReload(func(cfg testConfig) { received <- cfg })

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "updated" || cfg.Value != 42 {
			t.Errorf("got %+v, want name=updated value=42", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcher_ReplaceByRename(t *testing.T) {
	received := make(chan testConfig, 1)
	w, path := startWatcher(t, "value = 1\n", loadTestConfig)
	w.OnReload(func(cfg testConfig) { received <- cfg })

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("value = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Value != 7 {
			t.Errorf("Value = %d, want 7", cfg.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	var loads atomic.Int32
	load := func(path string) (testConfig, error) {
		loads.Add(1)
		return loadTestConfig(path)
	}
	_, path := startWatcher(t, "value = 1\n", load)

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if n := loads.Load(); n != 0 {
		t.Errorf("loader called %d times for an unrelated file", n)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	var loads atomic.Int32
	load := func(path string) (testConfig, error) {
		loads.Add(1)
		return loadTestConfig(path)
	}
	received := make(chan testConfig, 10)
	w, path := startWatcher(t, "value = 0\n", load, WithDebounce[testConfig](200*time.Millisecond))
	w.OnReload(func(cfg testConfig) { received <- cfg })

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, []byte("value = "+string(rune('0'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case cfg := <-received:
		if cfg.Value != 5 {
			t.Errorf("Value = %d, want the last write (5)", cfg.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced reload")
	}

	time.Sleep(300 * time.Millisecond)
	if n := loads.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestWatcher_MultipleHandlersAndUnsubscribe(t *testing.T) {
	first := make(chan testConfig, 2)
	second := make(chan testConfig, 2)
	w, path := startWatcher(t, "value = 1\n", loadTestConfig)
	unsub := w.OnReload(func(cfg testConfig) { first <- cfg })
	w.OnReload(func(cfg testConfig) { second <- cfg })

	if err := os.WriteFile(path, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, ch := range []chan testConfig{first, second} {
		select {
		case cfg := <-ch:
			if cfg.Value != 2 {
				t.Errorf("Value = %d, want 2", cfg.Value)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for handlers")
		}
	}

	unsub()
	if err := os.WriteFile(path, []byte("value = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for remaining handler")
	}
	select {
	case cfg := <-first:
		t.Errorf("unsubscribed handler received %+v", cfg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_ErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	received := make(chan testConfig, 1)
	w, path := startWatcher(t, "value = 1\n", loadTestConfig,
		WithErrorHandler[testConfig](func(err error) { errs <- err }))
	w.OnReload(func(cfg testConfig) { received <- cfg })

	if err := os.WriteFile(path, []byte("value = [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		var decodeErr *toml.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("error = %v, want a TOML decode error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}

	select {
	case cfg := <-received:
		t.Errorf("handler called with %+v after a failed load", cfg)
	default:
	}
}

func TestWatcher_RunMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "sdinode.toml"), loadTestConfig, newTestLogger())
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() should fail when the directory does not exist")
	}
}
