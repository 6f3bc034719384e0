package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sdinode/internal/api/models"
)

func (s *Server) registerReceiverRoutes() {
	if s.options.Receiver == nil {
		s.logger.Warn("No receiver configured, skipping receiver routes")
		return
	}
	rx := s.options.Receiver

	huma.Register(s.api, huma.Operation{
		OperationID: "get-receiver",
		Method:      http.MethodGet,
		Path:        "/api/receiver",
		Summary:     "Receiver Status",
		Description: "Lock state, detected transport, classified video format and interrupt counters",
		Tags:        []string{"receiver"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ReceiverStatusResponse, error) {
		return &models.ReceiverStatusResponse{Body: rx.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-receiver-interrupts",
		Method:      http.MethodGet,
		Path:        "/api/receiver/interrupts",
		Summary:     "Interrupt Mask",
		Description: "Report which receiver interrupts are enabled",
		Tags:        []string{"receiver"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.InterruptMaskResponse, error) {
		lock, unlock := rx.InterruptMask()
		return &models.InterruptMaskResponse{
			Body: models.InterruptMaskData{Lock: lock, Unlock: unlock},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-receiver-interrupts",
		Method:      http.MethodPost,
		Path:        "/api/receiver/interrupts",
		Summary:     "Set Interrupt Mask",
		Description: "Enable or disable the video lock and unlock interrupts",
		Tags:        []string{"receiver"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *models.InterruptMaskRequest) (*models.InterruptMaskResponse, error) {
		rx.SetInterruptMask(input.Body.Lock, input.Body.Unlock)
		lock, unlock := rx.InterruptMask()
		return &models.InterruptMaskResponse{
			Body: models.InterruptMaskData{Lock: lock, Unlock: unlock},
		}, nil
	})
}
