// Package handlers provides HTTP handlers for forecast requests.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/forecast/internal/forecast"
	"github.com/aristath/forecast/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one forecast, covering the worst-case retry chain.
const DefaultTimeout = 60 * time.Second

// Forecaster answers forecast queries.
type Forecaster interface {
	Forecast(ctx context.Context, identifier, period string) forecast.Result
}

// forecastRequest is the validated query. An absent or "null" period is filled in by the service.
type forecastRequest struct {
	Identifier string `validate:"required,max=32,printascii"`
	Period     string `validate:"report_period"`
}

// Handler provides HTTP handlers for forecast endpoints
type Handler struct {
	service  Forecaster
	validate *validator.Validate
	timeout  time.Duration
	log      zerolog.Logger
}

// newValidator registers the report_period rule used by forecastRequest.
func newValidator() (*validator.Validate, error) {
	validate := validator.New()
	err := validate.RegisterValidation("report_period", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return p == "" || strings.EqualFold(p, "null") || utils.IsReportDate(p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register report_period validation: %w", err)
	}
	return validate, nil
}

// NewHandler creates a new forecast handler. It panics if the request validator cannot
// be built, which only happens on a broken rule definition.
func NewHandler(service Forecaster, log zerolog.Logger) *Handler {
	validate, err := newValidator()
	if err != nil {
		panic(err)
	}

	return &Handler{
		service:  service,
		validate: validate,
		timeout:  DefaultTimeout,
		log:      log.With().Str("handler", "forecast").Logger(),
	}
}

// RegisterRoutes mounts the forecast routes under the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast/{identifier}", h.HandleGetForecast)
}

// HandleGetForecast handles GET /api/forecast/{identifier}?period=YYYYMMDD
// Error records are returned with 200; they are part of the record contract.
func (h *Handler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	req := forecastRequest{
		Identifier: strings.TrimSpace(chi.URLParam(r, "identifier")),
		Period:     strings.TrimSpace(r.URL.Query().Get("period")),
	}
	if req.Identifier == "" {
		http.Error(w, "Identifier is required", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log.Debug().Err(err).Str("identifier", req.Identifier).Msg("Rejected forecast request")
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.service.Forecast(ctx, req.Identifier, req.Period)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.log.Error().Err(err).Str("identifier", req.Identifier).Msg("Failed to encode forecast response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
