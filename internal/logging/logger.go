package logging

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sort"
	"strings"
	"sync"
)

const defaultHistorySize = 500

// Logger is satisfied by *slog.Logger. Accept it where a component only
// needs to emit records.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config is the [logging] section of the configuration file.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu          sync.RWMutex
	config      Config
	initialized bool
	loggers     = make(map[string]*slog.Logger)
	levels      = make(map[string]*slog.LevelVar)
	rootLevel   = &slog.LevelVar{}
	history     = NewHistory(defaultHistorySize)
)

// Initialize installs the handler chain for every module logger and the
// slog default logger. Loggers obtained earlier are rebuilt.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	config = cloneConfig(cfg)
	initialized = true
	rootLevel.Set(levelFor(config, ""))

	for module, lv := range levels {
		lv.Set(levelFor(config, module))
		loggers[module] = slog.New(newHandler(config.Format, lv)).With("module", module)
	}

	slog.SetDefault(slog.New(newHandler(config.Format, rootLevel)))
}

// Reconfigure applies new levels without rebuilding handlers. A format change
// only takes effect after a restart.
func Reconfigure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	format := config.Format
	config = cloneConfig(cfg)
	config.Format = format

	rootLevel.Set(levelFor(config, ""))
	for module, lv := range levels {
		lv.Set(levelFor(config, module))
	}
}

// SetLevel changes the level of one module at runtime.
func SetLevel(module, level string) error {
	parsed, ok := ParseLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	GetLogger(module)

	mu.Lock()
	defer mu.Unlock()
	if config.Modules == nil {
		config.Modules = make(map[string]string)
	}
	config.Modules[module] = strings.ToLower(level)
	levels[module].Set(parsed)
	return nil
}

// Levels reports the effective level of every module logger created so far.
func Levels() map[string]string {
	mu.RLock()
	defer mu.RUnlock()

	out := make(map[string]string, len(levels))
	for module, lv := range levels {
		out[module] = levelName(lv.Level())
	}
	return out
}

// Modules returns the sorted names of all module loggers.
func Modules() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(levels))
	for module := range levels {
		names = append(names, module)
	}
	sort.Strings(names)
	return names
}

// GetHistory returns the in-memory record history.
func GetHistory() *History {
	return history
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	logger, ok := loggers[module]
	mu.RUnlock()
	if ok {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if logger, ok := loggers[module]; ok {
		return logger
	}

	lv := &slog.LevelVar{}
	format := "text"
	if initialized {
		lv.Set(levelFor(config, module))
		format = config.Format
	}

	logger = slog.New(newHandler(format, lv)).With("module", module)
	loggers[module] = logger
	levels[module] = lv
	return logger
}

// newHandler builds stdout, journal and history outputs for one level.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if stdoutAvailable() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewHistoryHandler(history, level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// stdoutAvailable is false when stdout is closed or points at /dev/null.
func stdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 || mode.IsRegular()
}

func levelFor(cfg Config, module string) slog.Level {
	level := slog.LevelInfo
	if parsed, ok := ParseLevel(cfg.Level); ok {
		level = parsed
	}
	if module == "" {
		return level
	}
	if s, ok := cfg.Modules[module]; ok {
		if parsed, ok := ParseLevel(s); ok {
			level = parsed
		}
	}
	return level
}

func cloneConfig(cfg Config) Config {
	cfg.Modules = maps.Clone(cfg.Modules)
	return cfg
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
