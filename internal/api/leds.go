package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sdinode/internal/led"
)

// LEDRequest represents a request to control an LED
type LEDRequest struct {
	Body struct {
		Name    string      `json:"name" example:"user" doc:"LED name (board specific)"`
		Pattern led.Pattern `json:"pattern" example:"heartbeat" enum:"off,solid,blink,heartbeat" doc:"LED pattern"`
	}
}

// LEDCapabilities lists what the board's LED controller can do.
type LEDCapabilities struct {
	Names     []string      `json:"names" doc:"LEDs available on this board"`
	Patterns  []led.Pattern `json:"patterns" doc:"Patterns the controller accepts"`
	StatusLED string        `json:"status_led" example:"system" doc:"LED driven by the receiver lock state"`
}

// LEDCapabilitiesResponse represents the LED capabilities of the current board
type LEDCapabilitiesResponse struct {
	Body LEDCapabilities
}

func (s *Server) registerLEDRoutes() {
	ctrl := s.options.LEDController
	if ctrl == nil {
		s.logger.Debug("LED controller not available, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Apply a pattern to an LED. The status LED is overwritten on the next lock change.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 500},
		Security:    withAuth(),
	}, func(_ context.Context, input *LEDRequest) (*struct{}, error) {
		if !slices.Contains(ctrl.Names(), input.Body.Name) {
			return nil, huma.Error400BadRequest("Unknown LED " + input.Body.Name)
		}
		if err := ctrl.Set(input.Body.Name, input.Body.Pattern); err != nil {
			return nil, huma.Error500InternalServerError("Failed to control LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Description: "List the LEDs and patterns available on this board",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*LEDCapabilitiesResponse, error) {
		return &LEDCapabilitiesResponse{
			Body: LEDCapabilities{
				Names:     ctrl.Names(),
				Patterns:  ctrl.Patterns(),
				StatusLED: led.StatusLED,
			},
		}, nil
	})
}
