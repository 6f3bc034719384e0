package models

import "github.com/smazurov/sdinode/internal/systemd"

// ServiceStatusResponse wraps the systemd unit state.
type ServiceStatusResponse struct {
	Body systemd.UnitStatus
}

// ServiceAction contains the result of a systemd unit action.
type ServiceAction struct {
	Unit    string `json:"unit" example:"sdinode.service" doc:"Unit name"`
	Action  string `json:"action" example:"restart" doc:"Action performed"`
	Success bool   `json:"success" example:"true" doc:"Whether the action was queued"`
}

// ServiceActionResponse wraps ServiceAction for API responses.
type ServiceActionResponse struct {
	Body ServiceAction
}
