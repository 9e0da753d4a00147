package handlers

import (
	"encoding/json"
	"net/http"

	"georegistry-backend/application/services"
	"georegistry-backend/pkg/auth"
	apperrors "georegistry-backend/pkg/errors"
	"georegistry-backend/pkg/utils"

	"go.uber.org/zap"
)

// ReportHandler handles report generation requests.
type ReportHandler struct {
	service *services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// GenerateReportRequest is the body of a report request.
type GenerateReportRequest struct {
	PropertyIDs []string `json:"propertyIds" validate:"required,min=1,max=100"`
}

// Generate handles POST /properties/report.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.Generate(r.Context(), userCtx.UserID, req.PropertyIDs)
	if err != nil {
		if appErr := apperrors.GetAppError(err); appErr != nil && appErr.HTTPStatus < http.StatusInternalServerError {
			h.respondError(w, appErr.HTTPStatus, appErr.Message)
			return
		}
		h.logger.Error("Report generation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report":        report.ContentBase64,
		"contentType":   report.ContentType,
		"propertyCount": report.PropertyCount,
	})
}

func (h *ReportHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ReportHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
