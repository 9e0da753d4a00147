// Package property holds the rural-property entity and the validation
// rules that gate every write to it.
package property

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the closed enumeration of property types.
type Type string

const (
	TypeFarm         Type = "farm"
	TypeSmallholding Type = "smallholding"
	TypeRanchette    Type = "ranchette"
	TypeVacantLot    Type = "vacant_lot"
	TypeOther        Type = "other"
)

// DefaultType is assumed when a creation payload omits the type field.
const DefaultType = TypeFarm

// ValidTypes lists the accepted type values in declaration order.
var ValidTypes = []Type{TypeFarm, TypeSmallholding, TypeRanchette, TypeVacantLot, TypeOther}

// IsValidType reports whether s is a member of the type enumeration.
func IsValidType(s string) bool {
	for _, t := range ValidTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Analysis status values for the asynchronous geospatial pipeline.
const (
	AnalysisStatusPending = "pending"
)

// Coordinate is a (longitude, latitude) pair. Components are kept as
// exact decimals so stored rings survive read-modify-write cycles.
type Coordinate [2]decimal.Decimal

// Lon returns the longitude component.
func (c Coordinate) Lon() decimal.Decimal { return c[0] }

// Lat returns the latitude component.
func (c Coordinate) Lat() decimal.Decimal { return c[1] }

// Equal reports component-wise equality with other.
func (c Coordinate) Equal(other Coordinate) bool {
	return c[0].Equal(other[0]) && c[1].Equal(other[1])
}

// Property is the central entity, uniquely identified by
// (OwnerID, ID) and never visible across owners.
type Property struct {
	OwnerID        string
	ID             string
	Name           string
	Type           Type
	Description    string
	Area           decimal.Decimal
	Perimeter      decimal.Decimal
	Coordinates    []Coordinate
	AnalysisStatus string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewID generates a property identifier of the form prop_<12 hex>.
// Collisions from 12 hex characters of randomness are treated as
// negligible and not checked.
func NewID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "prop_" + hex[:12]
}

// New builds a Property from an already validated creation payload,
// applying defaults and stamping both timestamps with the same instant.
func New(ownerID string, p Payload) (*Property, error) {
	area, err := p.AreaDecimal()
	if err != nil {
		return nil, fmt.Errorf("parse area: %w", err)
	}
	perimeter, err := p.PerimeterDecimal()
	if err != nil {
		return nil, fmt.Errorf("parse perimeter: %w", err)
	}
	coords, err := ParseCoordinates(p.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("parse coordinates: %w", err)
	}

	typ := DefaultType
	if p.Type != nil {
		typ = Type(*p.Type)
	}
	description := ""
	if p.Description != nil {
		description = *p.Description
	}

	now := time.Now().UTC()
	return &Property{
		OwnerID:        ownerID,
		ID:             NewID(),
		Name:           strings.TrimSpace(*p.Name),
		Type:           typ,
		Description:    description,
		Area:           area,
		Perimeter:      perimeter,
		Coordinates:    coords,
		AnalysisStatus: AnalysisStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Payload is the loosely-typed body of a create or update request.
// Pointer and RawMessage fields distinguish absent from invalid;
// numeric fields stay raw so both JSON numbers and numeric strings
// parse to exact decimals.
type Payload struct {
	Name        *string         `json:"name"`
	Type        *string         `json:"type"`
	Description *string         `json:"description"`
	Area        json.RawMessage `json:"area"`
	Perimeter   json.RawMessage `json:"perimeter"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// HasAny reports whether at least one mutable field is present.
func (p Payload) HasAny() bool {
	return p.Name != nil || p.Type != nil || p.Description != nil ||
		p.Area != nil || p.Perimeter != nil || p.Coordinates != nil
}

// AreaDecimal parses the raw area field into an exact decimal.
func (p Payload) AreaDecimal() (decimal.Decimal, error) {
	return parseDecimal(p.Area)
}

// PerimeterDecimal parses the raw perimeter field into an exact decimal.
func (p Payload) PerimeterDecimal() (decimal.Decimal, error) {
	return parseDecimal(p.Perimeter)
}

// parseDecimal accepts a JSON number or a numeric string.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Decimal{}, fmt.Errorf("value is absent")
	}
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return decimal.Decimal{}, err
	}
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	default:
		return decimal.Decimal{}, fmt.Errorf("value is not numeric")
	}
}

// ParseCoordinates decodes a raw coordinates field into an ordered ring.
// It enforces structure only (sequence of 2-element numeric pairs);
// range and closure rules live in the validator.
func ParseCoordinates(raw json.RawMessage) ([]Coordinate, error) {
	if raw == nil {
		return nil, fmt.Errorf("coordinates are absent")
	}
	var points []json.RawMessage
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("coordinates are not a sequence")
	}
	coords := make([]Coordinate, 0, len(points))
	for i, pt := range points {
		var pair []json.RawMessage
		if err := json.Unmarshal(pt, &pair); err != nil {
			return nil, fmt.Errorf("point %d is not a pair", i)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("point %d has %d components", i, len(pair))
		}
		var c Coordinate
		for j, comp := range pair {
			d, err := parseDecimal(comp)
			if err != nil {
				return nil, fmt.Errorf("point %d component %d: %w", i, j, err)
			}
			c[j] = d
		}
		coords = append(coords, c)
	}
	return coords, nil
}

// Response is the API-facing shape of a property. Exact decimals are
// converted to floating point only here, at the formatting boundary.
type Response struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	Description    string      `json:"description"`
	Area           float64     `json:"area"`
	Perimeter      float64     `json:"perimeter"`
	Coordinates    [][]float64 `json:"coordinates"`
	AnalysisStatus string      `json:"analysisStatus"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
}

// FormatForResponse converts the stored representation to the response
// representation.
func (p *Property) FormatForResponse() Response {
	coords := make([][]float64, 0, len(p.Coordinates))
	for _, c := range p.Coordinates {
		coords = append(coords, []float64{c.Lon().InexactFloat64(), c.Lat().InexactFloat64()})
	}
	return Response{
		ID:             p.ID,
		Name:           p.Name,
		Type:           string(p.Type),
		Description:    p.Description,
		Area:           p.Area.InexactFloat64(),
		Perimeter:      p.Perimeter.InexactFloat64(),
		Coordinates:    coords,
		AnalysisStatus: p.AnalysisStatus,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Update carries the parsed mutable fields of a partial update.
// Nil fields are left untouched by the store.
type Update struct {
	Name        *string
	Type        *Type
	Description *string
	Area        *decimal.Decimal
	Perimeter   *decimal.Decimal
	Coordinates []Coordinate
}

// ToUpdate converts an already validated update payload into the
// store-facing partial update.
func (p Payload) ToUpdate() (Update, error) {
	var u Update
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		u.Name = &name
	}
	if p.Type != nil {
		t := Type(*p.Type)
		u.Type = &t
	}
	if p.Description != nil {
		u.Description = p.Description
	}
	if p.Area != nil {
		area, err := p.AreaDecimal()
		if err != nil {
			return Update{}, fmt.Errorf("parse area: %w", err)
		}
		u.Area = &area
	}
	if p.Perimeter != nil {
		perimeter, err := p.PerimeterDecimal()
		if err != nil {
			return Update{}, fmt.Errorf("parse perimeter: %w", err)
		}
		u.Perimeter = &perimeter
	}
	if p.Coordinates != nil {
		coords, err := ParseCoordinates(p.Coordinates)
		if err != nil {
			return Update{}, fmt.Errorf("parse coordinates: %w", err)
		}
		u.Coordinates = coords
	}
	return u, nil
}
