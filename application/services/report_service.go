package services

import (
	"context"
	"encoding/base64"
	"time"

	"georegistry-backend/application/ports"
	"georegistry-backend/domain/property"
	apperrors "georegistry-backend/pkg/errors"
	"georegistry-backend/pkg/pdf"

	"go.uber.org/zap"
)

// ReportService builds downloadable PDF summaries of owned
// properties.
type ReportService struct {
	repo   ports.PropertyRepository
	logger *zap.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(repo ports.PropertyRepository, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger}
}

// Report is a rendered PDF, base64-encoded for transport through a
// JSON response body.
type Report struct {
	ContentBase64 string
	ContentType   string
	PropertyCount int
}

// Generate renders a report over the requested ids. Ids that do not
// resolve to a property of the caller are skipped; an empty result
// set is a not-found error, not an empty document.
func (s *ReportService) Generate(ctx context.Context, ownerID string, propertyIDs []string) (*Report, error) {
	var properties []*property.Property
	for _, id := range propertyIDs {
		p, err := s.repo.Get(ctx, ownerID, id)
		if err != nil {
			s.logger.Warn("Skipping property in report",
				zap.String("propertyId", id),
				zap.Error(err),
			)
			continue
		}
		if p == nil {
			continue
		}
		properties = append(properties, p)
	}

	if len(properties) == 0 {
		return nil, apperrors.NewNotFoundError("properties for report")
	}

	content, err := pdf.RenderPropertyReport(properties, time.Now())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render report").WithCause(err)
	}

	s.logger.Info("Report generated",
		zap.String("ownerId", shortID(ownerID)),
		zap.Int("propertyCount", len(properties)),
	)
	return &Report{
		ContentBase64: base64.StdEncoding.EncodeToString(content),
		ContentType:   "application/pdf",
		PropertyCount: len(properties),
	}, nil
}
