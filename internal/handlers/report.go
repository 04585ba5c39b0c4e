package handlers

import (
	"errors"
	"net/http"

	"github.com/eduplatform/eduplatform-api/internal/reports"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type ReportHandler struct {
	service *reports.Service
	logger  zerolog.Logger
}

func NewReportHandler(service *reports.Service, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("handler", "report").Logger(),
	}
}

func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	reportType := mux.Vars(r)["reportType"]

	report, err := h.service.Generate(r.Context(), reportType)
	if err != nil {
		if errors.Is(err, reports.ErrUnknownReportType) {
			http.Error(w, "Unknown report type", http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Str("report_type", reportType).Msg("failed to generate report")
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_type": reportType,
		"report":      report,
	})
}
