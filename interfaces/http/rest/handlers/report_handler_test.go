package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"georegistry-backend/application/services"
	"georegistry-backend/domain/property"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reportTestRouter(repo *mockPropertyRepository, userID string) http.Handler {
	logger := zap.NewNop()
	handler := NewReportHandler(services.NewReportService(repo, logger), logger)

	router := chi.NewRouter()
	if userID != "" {
		router.Use(withUser(userID))
	}
	router.Post("/properties/report", handler.Generate)
	return router
}

func TestGenerateReport_Success(t *testing.T) {
	repo := new(mockPropertyRepository)
	p, err := property.New("user-1", property.Payload{
		Name:        strPtrT("North Field"),
		Area:        json.RawMessage("100"),
		Perimeter:   json.RawMessage("40"),
		Coordinates: json.RawMessage(`[[0,0],[1,0],[1,1],[0,0]]`),
	})
	require.NoError(t, err)
	repo.On("Get", mock.Anything, "user-1", p.ID).Return(p, nil)
	router := reportTestRouter(repo, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties/report",
		strings.NewReader(`{"propertyIds":["`+p.ID+`"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Report        string `json:"report"`
		ContentType   string `json:"contentType"`
		PropertyCount int    `json:"propertyCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "application/pdf", body.ContentType)
	assert.Equal(t, 1, body.PropertyCount)

	content, err := base64.StdEncoding.DecodeString(body.Report)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestGenerateReport_UnknownIDs(t *testing.T) {
	repo := new(mockPropertyRepository)
	repo.On("Get", mock.Anything, "user-1", "prop_missing00000").Return(nil, nil)
	router := reportTestRouter(repo, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties/report",
		strings.NewReader(`{"propertyIds":["prop_missing00000"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateReport_MissingIDs(t *testing.T) {
	router := reportTestRouter(new(mockPropertyRepository), "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties/report", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
