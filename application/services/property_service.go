// Package services orchestrates the validate → store → publish flow
// behind the HTTP handlers.
package services

import (
	"context"

	"georegistry-backend/application/ports"
	"georegistry-backend/domain/property"
	apperrors "georegistry-backend/pkg/errors"
	"georegistry-backend/pkg/utils"

	"go.uber.org/zap"
)

// MaxImportItems caps a single bulk import request.
const MaxImportItems = 100

// MaxImportFailuresReported caps the failure detail list in the
// import response; counts always cover the full batch.
const MaxImportFailuresReported = 10

// PropertyService implements the property operations on top of the
// persistence and event ports.
type PropertyService struct {
	repo         ports.PropertyRepository
	analysisRepo ports.AnalysisRepository
	publisher    ports.EventPublisher
	validator    *property.Validator
	logger       *zap.Logger
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(
	repo ports.PropertyRepository,
	analysisRepo ports.AnalysisRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		repo:         repo,
		analysisRepo: analysisRepo,
		publisher:    publisher,
		validator:    property.NewValidator(),
		logger:       logger,
	}
}

// Create validates the payload, persists a new property and emits the
// creation event. Event publication is best-effort: its failure is
// logged and swallowed, never rolled into the response.
func (s *PropertyService) Create(ctx context.Context, ownerID string, payload property.Payload) (*property.Property, error) {
	if err := s.validator.ValidateCreate(payload); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	p, err := property.New(ownerID, payload)
	if err != nil {
		// the payload already validated; a parse failure here is a bug
		return nil, apperrors.NewInternalError("failed to build property").WithCause(err)
	}

	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}

	s.publishCreated(ctx, p)

	s.logger.Info("Property created",
		zap.String("propertyId", p.ID),
		zap.String("ownerId", shortID(ownerID)),
	)
	return p, nil
}

func (s *PropertyService) publishCreated(ctx context.Context, p *property.Property) {
	coords := make([][]float64, 0, len(p.Coordinates))
	for _, c := range p.Coordinates {
		coords = append(coords, []float64{c.Lon().InexactFloat64(), c.Lat().InexactFloat64()})
	}
	event := ports.PropertyCreatedEvent{
		PropertyID:  p.ID,
		OwnerID:     p.OwnerID,
		Coordinates: coords,
		Status:      p.AnalysisStatus,
		Timestamp:   utils.FormatRFC3339(p.CreatedAt),
	}
	if err := s.publisher.PublishPropertyCreated(ctx, event); err != nil {
		s.logger.Warn("Failed to publish property created event",
			zap.String("propertyId", p.ID),
			zap.Error(err),
		)
	}
}

// ListQuery holds the list operation parameters.
type ListQuery struct {
	Type    string
	Limit   int
	LastKey string
}

// ListResult is one page of properties plus page-local statistics.
type ListResult struct {
	Properties []*property.Property
	LastKey    string
	Statistics *property.Statistics
}

// List returns one page of the owner's properties with statistics
// computed over that page only.
func (s *PropertyService) List(ctx context.Context, ownerID string, q ListQuery) (*ListResult, error) {
	page, err := s.repo.Query(ctx, ports.PropertyQuery{
		OwnerID: ownerID,
		Type:    q.Type,
		Limit:   q.Limit,
		LastKey: q.LastKey,
	})
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Properties: page.Items,
		LastKey:    page.LastKey,
	}
	if len(page.Items) > 0 {
		stats := property.Aggregate(page.Items)
		result.Statistics = &stats
	}
	return result, nil
}

// Get returns the owner's property or a not-found error. Records of
// other owners are indistinguishable from absent ones.
func (s *PropertyService) Get(ctx context.Context, ownerID, propertyID string) (*property.Property, error) {
	p, err := s.repo.Get(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("property")
	}
	return p, nil
}

// Update applies a partial update and returns the merged record. The
// payload is validated before the ownership lookup, so an empty or
// invalid body is a 400 even when the id does not resolve.
func (s *PropertyService) Update(ctx context.Context, ownerID, propertyID string, payload property.Payload) (*property.Property, error) {
	if err := s.validator.ValidateUpdate(payload); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if _, err := s.Get(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}

	update, err := payload.ToUpdate()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to parse update").WithCause(err)
	}

	merged, err := s.repo.Update(ctx, ownerID, propertyID, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Property updated",
		zap.String("propertyId", propertyID),
		zap.String("ownerId", shortID(ownerID)),
	)
	return merged, nil
}

// Delete removes the owner's property and returns the record it
// removed, for the response echo. The store performs the
// existence-conditioned delete; the prior Get only resolves the echo
// fields and ownership.
func (s *PropertyService) Delete(ctx context.Context, ownerID, propertyID string) (*property.Property, error) {
	existing, err := s.Get(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}

	s.logger.Info("Property deleted",
		zap.String("propertyId", propertyID),
		zap.String("ownerId", shortID(ownerID)),
	)
	return existing, nil
}

// GetAnalysis returns the asynchronous analysis state for an owned
// property, defaulting to pending when the pipeline has not reported.
func (s *PropertyService) GetAnalysis(ctx context.Context, ownerID, propertyID string) (*ports.AnalysisResult, error) {
	if _, err := s.Get(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	return s.analysisRepo.Get(ctx, propertyID)
}

// ImportFailure describes one rejected item of a bulk import.
type ImportFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportResult summarizes a bulk import. Failures lists at most
// MaxImportFailuresReported entries.
type ImportResult struct {
	Imported int             `json:"importedCount"`
	Failed   int             `json:"failedCount"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// Import validates each item independently and inserts the valid ones
// through the batch path. A single item's failure never aborts the
// batch; a batch over MaxImportItems is rejected before any insert.
func (s *PropertyService) Import(ctx context.Context, ownerID string, payloads []property.Payload) (*ImportResult, error) {
	if len(payloads) > MaxImportItems {
		return nil, apperrors.NewValidationError("import is limited to 100 properties per request")
	}

	var (
		valid    []*property.Property
		failures []ImportFailure
	)
	for i, payload := range payloads {
		if err := s.validator.ValidateCreate(payload); err != nil {
			failures = append(failures, ImportFailure{Index: i, Error: err.Error()})
			continue
		}
		p, err := property.New(ownerID, payload)
		if err != nil {
			failures = append(failures, ImportFailure{Index: i, Error: err.Error()})
			continue
		}
		valid = append(valid, p)
	}

	var batch ports.BatchResult
	if len(valid) > 0 {
		var err error
		batch, err = s.repo.BatchPut(ctx, valid)
		if err != nil {
			return nil, err
		}
	}

	result := &ImportResult{
		Imported: batch.Succeeded,
		Failed:   len(failures) + batch.Failed,
		Failures: failures,
	}
	if len(result.Failures) > MaxImportFailuresReported {
		result.Failures = result.Failures[:MaxImportFailuresReported]
	}

	s.logger.Info("Bulk import finished",
		zap.String("ownerId", shortID(ownerID)),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
