package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// ListCapturesRequest represents a request to list catalogued captures
type ListCapturesRequest struct {
	Limit int `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Maximum number of captures to return"`
}

// ListCapturesResponse represents the catalog listing
type ListCapturesResponse struct {
	Body struct {
		Captures []*CaptureRecord `json:"captures" doc:"Captures, newest first"`
	}
}

// GetCaptureRequest represents a request for one capture
type GetCaptureRequest struct {
	ID string `path:"id" doc:"Capture ID"`
}

// GetCaptureResponse wraps a single catalog entry
type GetCaptureResponse struct {
	Body *CaptureRecord
}

// GetSpectrumRequest represents a request for a computed spectrum
type GetSpectrumRequest struct {
	ID           string  `path:"id" doc:"Capture ID"`
	Channel      string  `query:"channel" enum:"A,B,C,D" default:"A" doc:"Scope channel"`
	MaxFrequency float64 `query:"max_frequency" minimum:"0" default:"1000" doc:"Upper frequency bound in Hz (0 = no bound)"`
}

// FrequencyPoint is one bin of a magnitude spectrum
type FrequencyPoint struct {
	Frequency float64 `json:"frequency" doc:"Bin frequency in Hz"`
	Magnitude float64 `json:"magnitude" doc:"Amplitude in mV (|X_k| * 2 / N)"`
}

// GetSpectrumResponseBody is the body of the spectrum response
type GetSpectrumResponseBody struct {
	ID            string           `json:"id" doc:"Capture ID"`
	Channel       string           `json:"channel" doc:"Scope channel"`
	SamplingRate  float64          `json:"sampling_rate" doc:"Samples per second"`
	Samples       int              `json:"samples" doc:"Number of time-domain samples (N)"`
	FrequencyData []FrequencyPoint `json:"frequency_data" doc:"Magnitude spectrum"`
}

// GetSpectrumResponse represents a channel's magnitude spectrum
type GetSpectrumResponse struct {
	Body GetSpectrumResponseBody
}

// RenderPlotsRequest represents a request to render a capture's plots
type RenderPlotsRequest struct {
	ID string `path:"id" doc:"Capture ID"`
}

// RenderPlotsResponse represents the response from starting plot rendering
type RenderPlotsResponse struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}
