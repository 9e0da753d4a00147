package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"georegistry-backend/application/ports"
	"georegistry-backend/application/services"
	"georegistry-backend/domain/property"
	"georegistry-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPropertyRepository struct {
	mock.Mock
}

func (m *mockPropertyRepository) Put(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPropertyRepository) Get(ctx context.Context, ownerID, propertyID string) (*property.Property, error) {
	args := m.Called(ctx, ownerID, propertyID)
	if p := args.Get(0); p != nil {
		return p.(*property.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertyRepository) Query(ctx context.Context, q ports.PropertyQuery) (*ports.PropertyPage, error) {
	args := m.Called(ctx, q)
	if p := args.Get(0); p != nil {
		return p.(*ports.PropertyPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertyRepository) Update(ctx context.Context, ownerID, propertyID string, u property.Update) (*property.Property, error) {
	args := m.Called(ctx, ownerID, propertyID, u)
	if p := args.Get(0); p != nil {
		return p.(*property.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertyRepository) Delete(ctx context.Context, ownerID, propertyID string) error {
	args := m.Called(ctx, ownerID, propertyID)
	return args.Error(0)
}

func (m *mockPropertyRepository) BatchPut(ctx context.Context, properties []*property.Property) (ports.BatchResult, error) {
	args := m.Called(ctx, properties)
	return args.Get(0).(ports.BatchResult), args.Error(1)
}

type mockAnalysisRepository struct {
	mock.Mock
}

func (m *mockAnalysisRepository) Get(ctx context.Context, propertyID string) (*ports.AnalysisResult, error) {
	args := m.Called(ctx, propertyID)
	if r := args.Get(0); r != nil {
		return r.(*ports.AnalysisResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishPropertyCreated(ctx context.Context, event ports.PropertyCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// withUser injects a resolved identity the way the auth middleware
// would.
func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func testRouter(repo *mockPropertyRepository, analysisRepo *mockAnalysisRepository, publisher *mockEventPublisher, userID string) http.Handler {
	logger := zap.NewNop()
	service := services.NewPropertyService(repo, analysisRepo, publisher, logger)
	handler := NewPropertyHandler(service, logger)

	router := chi.NewRouter()
	if userID != "" {
		router.Use(withUser(userID))
	}
	router.Post("/properties", handler.Create)
	router.Get("/properties", handler.List)
	router.Put("/properties/{id}", handler.Update)
	router.Delete("/properties/{id}", handler.Delete)
	router.Get("/properties/{id}/analysis", handler.GetAnalysis)
	router.Post("/properties/import", handler.Import)
	return router
}

const validCreateBody = `{
	"name": "North Field",
	"area": 1250.75,
	"perimeter": 180.5,
	"coordinates": [[-47.1,-23.5],[-47.1,-23.4],[-47.0,-23.4],[-47.1,-23.5]]
}`

func TestCreateProperty_Success(t *testing.T) {
	repo := new(mockPropertyRepository)
	publisher := new(mockEventPublisher)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*property.Property")).Return(nil)
	publisher.On("PublishPropertyCreated", mock.Anything, mock.AnythingOfType("ports.PropertyCreatedEvent")).Return(nil)
	router := testRouter(repo, new(mockAnalysisRepository), publisher, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(validCreateBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Message  string            `json:"message"`
		Property property.Response `json:"property"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Property created successfully", body.Message)
	assert.Regexp(t, `^prop_[0-9a-f]{12}$`, body.Property.ID)
	assert.Equal(t, "North Field", body.Property.Name)
	assert.Equal(t, "farm", body.Property.Type)
	assert.Equal(t, "pending", body.Property.AnalysisStatus)
	repo.AssertExpectations(t)
}

func TestCreateProperty_ValidationError(t *testing.T) {
	repo := new(mockPropertyRepository)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(`{"name":"North Field"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing required field: area", body["error"])
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreateProperty_MalformedBody(t *testing.T) {
	router := testRouter(new(mockPropertyRepository), new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid JSON body", body["error"])
}

func TestCreateProperty_Unauthenticated(t *testing.T) {
	router := testRouter(new(mockPropertyRepository), new(mockAnalysisRepository), new(mockEventPublisher), "")

	req := httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(validCreateBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProperties(t *testing.T) {
	repo := new(mockPropertyRepository)
	p, err := property.New("user-1", property.Payload{
		Name:        strPtrT("North Field"),
		Area:        json.RawMessage("100"),
		Perimeter:   json.RawMessage("40"),
		Coordinates: json.RawMessage(`[[0,0],[1,0],[1,1],[0,0]]`),
	})
	require.NoError(t, err)

	repo.On("Query", mock.Anything, ports.PropertyQuery{
		OwnerID: "user-1",
		Type:    "farm",
		Limit:   25,
		LastKey: "token-0",
	}).Return(&ports.PropertyPage{
		Items:   []*property.Property{p},
		LastKey: "token-1",
	}, nil)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodGet, "/properties?type=farm&limit=25&lastKey=token-0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "token-1", body.LastKey)
	require.Len(t, body.Properties, 1)
	assert.Equal(t, p.ID, body.Properties[0].ID)
	require.NotNil(t, body.Statistics)
	assert.Equal(t, 100.0, body.Statistics.TotalArea)
	repo.AssertExpectations(t)
}

func TestListProperties_NonNumericLimitIgnored(t *testing.T) {
	repo := new(mockPropertyRepository)
	repo.On("Query", mock.Anything, ports.PropertyQuery{OwnerID: "user-1"}).
		Return(&ports.PropertyPage{}, nil)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodGet, "/properties?limit=lots", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdateProperty_EmptyBody(t *testing.T) {
	repo := new(mockPropertyRepository)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	// empty body is rejected before the record is even looked up
	req := httptest.NewRequest(http.MethodPut, "/properties/prop_missing00000", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "at least one field must be provided for update", body["error"])
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteProperty_Success(t *testing.T) {
	repo := new(mockPropertyRepository)
	p, err := property.New("user-1", property.Payload{
		Name:        strPtrT("North Field"),
		Area:        json.RawMessage("100"),
		Perimeter:   json.RawMessage("40"),
		Coordinates: json.RawMessage(`[[0,0],[1,0],[1,1],[0,0]]`),
	})
	require.NoError(t, err)
	repo.On("Get", mock.Anything, "user-1", p.ID).Return(p, nil)
	repo.On("Delete", mock.Anything, "user-1", p.ID).Return(nil)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodDelete, "/properties/"+p.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message         string            `json:"message"`
		DeletedProperty map[string]string `json:"deletedProperty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Property deleted successfully", body.Message)
	assert.Equal(t, p.ID, body.DeletedProperty["id"])
	assert.Equal(t, "North Field", body.DeletedProperty["name"])
	repo.AssertExpectations(t)
}

func TestDeleteProperty_NotFound(t *testing.T) {
	repo := new(mockPropertyRepository)
	repo.On("Get", mock.Anything, "user-1", "prop_missing00000").Return(nil, nil)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodDelete, "/properties/prop_missing00000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "property not found", body["error"])
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAnalysis(t *testing.T) {
	repo := new(mockPropertyRepository)
	analysisRepo := new(mockAnalysisRepository)
	p, err := property.New("user-1", property.Payload{
		Name:        strPtrT("North Field"),
		Area:        json.RawMessage("100"),
		Perimeter:   json.RawMessage("40"),
		Coordinates: json.RawMessage(`[[0,0],[1,0],[1,1],[0,0]]`),
	})
	require.NoError(t, err)
	repo.On("Get", mock.Anything, "user-1", p.ID).Return(p, nil)
	analysisRepo.On("Get", mock.Anything, p.ID).Return(&ports.AnalysisResult{
		PropertyID: p.ID,
		Status:     "pending",
	}, nil)
	router := testRouter(repo, analysisRepo, new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodGet, "/properties/"+p.ID+"/analysis", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body ports.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, p.ID, body.PropertyID)
	assert.Equal(t, "pending", body.Status)
}

func TestImport_TooManyItems(t *testing.T) {
	repo := new(mockPropertyRepository)
	router := testRouter(repo, new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	var buf bytes.Buffer
	buf.WriteString(`{"properties":[`)
	for i := 0; i < services.MaxImportItems+1; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"name":"Field %d","area":10,"perimeter":4,"coordinates":[[0,0],[1,0],[1,1],[0,0]]}`, i)
	}
	buf.WriteString(`]}`)

	req := httptest.NewRequest(http.MethodPost, "/properties/import", &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "BatchPut", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestImport_EmptyList(t *testing.T) {
	router := testRouter(new(mockPropertyRepository), new(mockAnalysisRepository), new(mockEventPublisher), "user-1")

	req := httptest.NewRequest(http.MethodPost, "/properties/import", strings.NewReader(`{"properties":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func strPtrT(s string) *string {
	return &s
}
