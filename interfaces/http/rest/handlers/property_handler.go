// Package handlers contains the HTTP handlers for the property API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"georegistry-backend/application/services"
	"georegistry-backend/domain/property"
	"georegistry-backend/pkg/auth"
	apperrors "georegistry-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PropertyHandler handles property-related HTTP requests.
type PropertyHandler struct {
	service *services.PropertyService
	logger  *zap.Logger
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(service *services.PropertyService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		logger:  logger,
	}
}

// ImportRequest is the body of a bulk import request.
type ImportRequest struct {
	Properties []property.Payload `json:"properties"`
}

// Create handles POST /properties.
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload property.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.service.Create(r.Context(), userCtx.UserID, payload)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Property created successfully",
		"property": created.FormatForResponse(),
	})
}

// ListResponse is the body of a list page.
type ListResponse struct {
	Properties []property.Response  `json:"properties"`
	Count      int                  `json:"count"`
	LastKey    string               `json:"lastKey,omitempty"`
	Statistics *property.Statistics `json:"statistics,omitempty"`
}

// List handles GET /properties.
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := services.ListQuery{
		Type:    r.URL.Query().Get("type"),
		LastKey: r.URL.Query().Get("lastKey"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		// non-numeric values fall through to the store's default limit
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}

	result, err := h.service.List(r.Context(), userCtx.UserID, query)
	if err != nil {
		h.handleError(w, err)
		return
	}

	responses := make([]property.Response, 0, len(result.Properties))
	for _, p := range result.Properties {
		responses = append(responses, p.FormatForResponse())
	}

	h.respondJSON(w, http.StatusOK, ListResponse{
		Properties: responses,
		Count:      len(responses),
		LastKey:    result.LastKey,
		Statistics: result.Statistics,
	})
}

// Update handles PUT /properties/{id}.
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	propertyID := chi.URLParam(r, "id")

	var payload property.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.service.Update(r.Context(), userCtx.UserID, propertyID, payload)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Property updated successfully",
		"property": updated.FormatForResponse(),
	})
}

// Delete handles DELETE /properties/{id}.
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	propertyID := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), userCtx.UserID, propertyID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Property deleted successfully",
		"deletedProperty": map[string]string{
			"id":   deleted.ID,
			"name": deleted.Name,
		},
	})
}

// GetAnalysis handles GET /properties/{id}/analysis.
func (h *PropertyHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	propertyID := chi.URLParam(r, "id")

	result, err := h.service.GetAnalysis(r.Context(), userCtx.UserID, propertyID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Import handles POST /properties/import.
func (h *PropertyHandler) Import(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Properties) == 0 {
		h.respondError(w, http.StatusBadRequest, "properties list is empty")
		return
	}

	result, err := h.service.Import(r.Context(), userCtx.UserID, req.Properties)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *PropertyHandler) handleError(w http.ResponseWriter, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Error("Request failed", zap.Error(err))
			h.respondError(w, appErr.HTTPStatus, "Internal server error")
			return
		}
		h.respondError(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	h.logger.Error("Unexpected error", zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *PropertyHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *PropertyHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
