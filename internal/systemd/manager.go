// Package systemd integrates sdinode with its service manager: readiness and
// watchdog notifications over sd_notify and unit control over D-Bus.
package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultUnit is the unit name sdinode is installed under.
const DefaultUnit = "sdinode.service"

// UnitStatus is the state systemd reports for a unit.
type UnitStatus struct {
	Unit        string `json:"unit"`
	ActiveState string `json:"active_state"`
	SubState    string `json:"sub_state"`
}

// Manager controls one systemd unit over D-Bus.
type Manager struct {
	conn *dbus.Conn
	unit string
}

// NewManager connects to the system bus, or the user bus when user is set.
func NewManager(ctx context.Context, unit string, user bool) (*Manager, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if user {
		conn, err = dbus.NewUserConnectionContext(ctx)
	} else {
		conn, err = dbus.NewSystemConnectionContext(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	if unit == "" {
		unit = DefaultUnit
	}
	return &Manager{conn: conn, unit: unit}, nil
}

// Unit returns the managed unit name.
func (m *Manager) Unit() string {
	return m.unit
}

// Status reads the active and sub state of the unit.
func (m *Manager) Status(ctx context.Context) (UnitStatus, error) {
	st := UnitStatus{Unit: m.unit}
	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"ActiveState", &st.ActiveState},
		{"SubState", &st.SubState},
	} {
		prop, err := m.conn.GetUnitPropertyContext(ctx, m.unit, p.name)
		if err != nil {
			return UnitStatus{}, fmt.Errorf("get %s of %s: %w", p.name, m.unit, err)
		}
		*p.dst = strings.Trim(prop.Value.String(), `"`)
	}
	return st, nil
}

// Restart queues a restart of the unit. It does not wait for the job since
// restarting sdinode's own unit stops the caller.
func (m *Manager) Restart(ctx context.Context) error {
	if _, err := m.conn.RestartUnitContext(ctx, m.unit, "replace", nil); err != nil {
		return fmt.Errorf("restart %s: %w", m.unit, err)
	}
	return nil
}

// Close closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
