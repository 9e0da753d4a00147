// Package ports defines the narrow interfaces through which the
// application reaches its external collaborators. The domain does not
// know about the implementations.
package ports

import (
	"context"

	"georegistry-backend/domain/property"
)

// PropertyQuery holds the parameters of a paginated owner query.
type PropertyQuery struct {
	OwnerID string
	// Type filters the returned page after retrieval; pagination
	// tokens track the underlying unfiltered scan position.
	Type    string
	Limit   int
	LastKey string
}

// PropertyPage is one page of an owner's properties, newest first.
type PropertyPage struct {
	Items   []*property.Property
	LastKey string
}

// BatchResult reports the outcome of a batch insert. Partial success
// is a normal outcome, not a failure.
type BatchResult struct {
	Succeeded int
	Failed    int
}

// PropertyRepository is the owner-scoped persistence port. Every
// operation is partitioned by owner; no implementation may observe or
// mutate another owner's records.
type PropertyRepository interface {
	// Put unconditionally upserts a property. Used only for freshly
	// generated ids.
	Put(ctx context.Context, p *property.Property) error

	// Get returns the property or nil when it does not exist.
	Get(ctx context.Context, ownerID, propertyID string) (*property.Property, error)

	// Query returns a page of the owner's properties in descending
	// creation order.
	Query(ctx context.Context, q PropertyQuery) (*PropertyPage, error)

	// Update applies the present fields, refreshes updatedAt and
	// returns the merged record. A missing key yields a not-found
	// error.
	Update(ctx context.Context, ownerID, propertyID string, u property.Update) (*property.Property, error)

	// Delete removes the property only if it currently exists,
	// atomically. A miss yields a not-found error distinct from
	// infrastructure failures.
	Delete(ctx context.Context, ownerID, propertyID string) error

	// BatchPut inserts many properties, falling back to per-item
	// writes when the batch call fails.
	BatchPut(ctx context.Context, properties []*property.Property) (BatchResult, error)
}

// AnalysisResult is the downstream geospatial analysis state for one
// property.
type AnalysisResult struct {
	PropertyID string                 `json:"propertyId"`
	Status     string                 `json:"analysisStatus"`
	Result     map[string]interface{} `json:"result,omitempty"`
	UpdatedAt  string                 `json:"updatedAt,omitempty"`
}

// AnalysisRepository reads results produced by the asynchronous
// analysis pipeline, keyed by property id alone.
type AnalysisRepository interface {
	// Get returns the stored result, or a pending default when the
	// pipeline has not reported yet.
	Get(ctx context.Context, propertyID string) (*AnalysisResult, error)
}

// PropertyCreatedEvent is emitted after a successful creation for
// downstream analysis.
type PropertyCreatedEvent struct {
	PropertyID  string      `json:"propertyId"`
	OwnerID     string      `json:"ownerId"`
	Coordinates [][]float64 `json:"coordinates"`
	Status      string      `json:"status"`
	Timestamp   string      `json:"timestamp"`
}

// EventPublisher is the best-effort event sink port. Publish failures
// must never surface to callers of the operations that emit them.
type EventPublisher interface {
	PublishPropertyCreated(ctx context.Context, event PropertyCreatedEvent) error
}
