// Package logging provides structured logging with per-module levels.
//
// Every component asks for its own logger:
//
//	logger := logging.GetLogger("receiver")
//	logger.Info("Video locked", "format", "1920x1080p60")
//
// Records go to stdout (text or JSON), to the systemd journal when journald
// is reachable, and to an in-memory History that backs the log endpoints of
// the HTTP API. Levels are held in a slog.LevelVar per module so they can be
// changed at runtime with SetLevel or Reconfigure.
//
// Configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	receiver = "debug"
//	api = "warn"
//
// Journal entries carry SYSLOG_IDENTIFIER=sdinode and one upper-case field
// per attribute:
//
//	journalctl -t sdinode MODULE=receiver -f
package logging
