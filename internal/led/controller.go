// Package led shows the receiver lock state on a board status LED.
package led

// Pattern is a named LED behaviour.
type Pattern string

// Patterns understood by every controller.
const (
	PatternOff       Pattern = "off"
	PatternSolid     Pattern = "solid"
	PatternBlink     Pattern = "blink"
	PatternHeartbeat Pattern = "heartbeat"
)

// Controller drives the LEDs of one board. LED names are board specific
// ("system", "user", "act", ...).
type Controller interface {
	// Set applies pattern to the named LED. PatternOff switches it off.
	Set(name string, pattern Pattern) error

	// Names lists the LEDs this controller can drive.
	Names() []string

	// Patterns lists the patterns Set accepts.
	Patterns() []Pattern
}
