package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/sdinode/internal/events"
)

// StatusLED is the LED the manager drives.
const StatusLED = "system"

// Manager follows receiver stream events and shows the lock state on the
// status LED: solid while locked, blinking while there is no signal.
type Manager struct {
	controller Controller
	bus        *events.Bus
	logger     *slog.Logger

	mu     sync.Mutex
	locked bool
	unsubs []func()
}

// NewManager creates a Manager. Call Start to begin following events.
func NewManager(controller Controller, bus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		bus:        bus,
		logger:     logger,
	}
}

// Start shows the no-signal pattern and subscribes to stream events.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.apply(false)
	m.unsubs = append(m.unsubs,
		m.bus.Subscribe(func(e events.StreamStateEvent) { m.setLocked(e.Locked) }),
	)
	m.logger.Info("LED manager started", "led", StatusLED)
}

// Stop unsubscribes and switches the status LED off.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil

	if err := m.controller.Set(StatusLED, PatternOff); err != nil {
		m.logger.Warn("Failed to switch status LED off", "error", err)
	}
	m.logger.Info("LED manager stopped")
}

// Locked reports the lock state last shown on the LED.
func (m *Manager) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// Controller returns the underlying controller for direct API access.
func (m *Manager) Controller() Controller {
	return m.controller
}

func (m *Manager) setLocked(locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubs == nil {
		return
	}
	m.apply(locked)
}

func (m *Manager) apply(locked bool) {
	m.locked = locked
	pattern := PatternBlink
	if locked {
		pattern = PatternSolid
	}
	if err := m.controller.Set(StatusLED, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", string(pattern), "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "locked", locked, "pattern", string(pattern))
}
