// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/sdinode/internal/logging"
	"github.com/smazurov/sdinode/internal/receiver"
	"github.com/smazurov/sdinode/internal/version"
	"github.com/smazurov/sdinode/pkg/vidc"
)

// HealthData represents health check response data
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Message string `json:"message" example:"API is healthy" doc:"Health message"`
	Signal  string `json:"signal" example:"locked" enum:"locked,no_signal,unknown" doc:"Receiver signal state"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Body HealthData
}

// VersionResponse represents the version information response
type VersionResponse struct {
	Body version.Info
}

// ReceiverStatusResponse carries a receiver status snapshot.
type ReceiverStatusResponse struct {
	Body receiver.Status
}

// FormatInfo describes one catalog entry with its timing.
type FormatInfo struct {
	ID         vidc.FormatID `json:"id" example:"20" doc:"Catalog index"`
	Name       string        `json:"name" example:"1920x1080p60" doc:"Short format name"`
	Width      int           `json:"width" example:"1920" doc:"Active pixels per line"`
	Height     int           `json:"height" example:"1080" doc:"Active lines per frame"`
	FrameRate  int           `json:"frame_rate" example:"60" doc:"Frame-rate bucket in Hz"`
	Interlaced bool          `json:"interlaced" doc:"Interlaced scan"`
	Timing     vidc.Timing   `json:"timing" doc:"Pixel and line timing"`
}

// FormatsData lists the format catalog.
type FormatsData struct {
	Formats []FormatInfo `json:"formats" doc:"Supported formats"`
	Count   int          `json:"count" example:"48" doc:"Number of formats"`
}

// FormatsResponse represents the format catalog response
type FormatsResponse struct {
	Body FormatsData
}

// InterruptMaskData is the enable state of the receiver interrupts.
type InterruptMaskData struct {
	Lock   bool `json:"lock" doc:"Video lock interrupt enabled"`
	Unlock bool `json:"unlock" doc:"Video unlock interrupt enabled"`
}

// InterruptMaskRequest changes the receiver interrupt mask.
type InterruptMaskRequest struct {
	Body InterruptMaskData
}

// InterruptMaskResponse reports the interrupt mask after a change.
type InterruptMaskResponse struct {
	Body InterruptMaskData
}

// LogsRequest selects entries from the log history.
type LogsRequest struct {
	Since  uint64 `query:"since" doc:"Only return entries with a sequence number greater than this"`
	Module string `query:"module" example:"receiver" doc:"Only return entries from this module"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"200" doc:"Maximum number of entries, newest kept"`
}

// LogsData holds log history entries.
type LogsData struct {
	Entries []logging.Entry `json:"entries" doc:"Log entries, oldest first"`
	Count   int             `json:"count" doc:"Number of entries returned"`
}

// LogsResponse represents the log history response
type LogsResponse struct {
	Body LogsData
}

// LogLevelsData maps each module logger to its effective level.
type LogLevelsData struct {
	Levels map[string]string `json:"levels" doc:"Level per module"`
}

// LogLevelsResponse represents the log levels response
type LogLevelsResponse struct {
	Body LogLevelsData
}

// LogLevelRequest changes the level of one module.
type LogLevelRequest struct {
	Module string `path:"module" example:"receiver" doc:"Module name"`
	Body   struct {
		Level string `json:"level" example:"debug" enum:"debug,info,warn,error" doc:"New level"`
	}
}
