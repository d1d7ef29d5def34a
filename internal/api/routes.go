package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/scopecap/internal/api/handlers"
	"github.com/RMahshie/scopecap/internal/processing"
	"github.com/RMahshie/scopecap/internal/repository"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, captureRepo repository.CaptureRepository, processingSvc processing.ProcessingService) {
	captureHandler := handlers.NewCaptureHandler(captureRepo, processingSvc)

	huma.Register(api, huma.Operation{
		OperationID: "listCaptures",
		Method:      http.MethodGet,
		Path:        "/api/captures",
		Summary:     "List captures",
		Description: "Returns the most recent catalogued captures, newest first",
		Tags:        []string{"Captures"},
	}, captureHandler.ListCaptures)

	huma.Register(api, huma.Operation{
		OperationID: "getCapture",
		Method:      http.MethodGet,
		Path:        "/api/captures/{id}",
		Summary:     "Get capture",
		Description: "Returns one catalog entry including its plot status",
		Tags:        []string{"Captures"},
	}, captureHandler.GetCapture)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrum",
		Method:      http.MethodGet,
		Path:        "/api/captures/{id}/spectrum",
		Summary:     "Get channel spectrum",
		Description: "Computes the magnitude spectrum of one channel up to max_frequency",
		Tags:        []string{"Analysis"},
	}, captureHandler.GetSpectrum)

	huma.Register(api, huma.Operation{
		OperationID:   "renderPlots",
		Method:        http.MethodPost,
		Path:          "/api/captures/{id}/plots",
		Summary:       "Render plots",
		Description:   "Starts rendering the signal and spectrum plots of a capture",
		Tags:          []string{"Analysis"},
		DefaultStatus: http.StatusAccepted,
	}, captureHandler.RenderPlots)
}
