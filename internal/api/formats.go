package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sdinode/internal/api/models"
	"github.com/smazurov/sdinode/pkg/vidc"
)

// formatCatalog builds the response body once; the catalog is static.
func formatCatalog() models.FormatsData {
	catalog := vidc.Catalog()
	data := models.FormatsData{
		Formats: make([]models.FormatInfo, 0, len(catalog)),
		Count:   len(catalog),
	}
	for _, f := range catalog {
		timing, _ := vidc.TimingFor(f.ID)
		data.Formats = append(data.Formats, models.FormatInfo{
			ID:         f.ID,
			Name:       f.Name(),
			Width:      f.Width,
			Height:     f.Height,
			FrameRate:  f.Rate.Hz(),
			Interlaced: f.Interlaced,
			Timing:     timing,
		})
	}
	return data
}

func (s *Server) registerFormatRoutes() {
	catalog := formatCatalog()

	huma.Register(s.api, huma.Operation{
		OperationID: "list-formats",
		Method:      http.MethodGet,
		Path:        "/api/formats",
		Summary:     "Format Catalog",
		Description: "List every video format the receiver can classify, with timing",
		Tags:        []string{"receiver"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.FormatsResponse, error) {
		return &models.FormatsResponse{Body: catalog}, nil
	})
}
