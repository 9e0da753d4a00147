package property

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation limits.
const (
	nameMinLength        = 2
	nameMaxLength        = 100
	descriptionMaxLength = 500
	minRingPoints        = 4 // closed triangle: 3 vertices + closing point
)

var maxArea = decimal.NewFromInt(1_000_000)

// Validator checks creation and update payloads against the domain
// rules. Checks run in a fixed order and the first failure is
// returned; failures are never aggregated.
type Validator struct{}

// NewValidator creates a validator with the default rules.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreate checks a creation payload. Order: required fields,
// name, area, perimeter, coordinates, type, description.
func (v *Validator) ValidateCreate(p Payload) error {
	if p.Name == nil {
		return missingField("name")
	}
	if p.Area == nil {
		return missingField("area")
	}
	if p.Perimeter == nil {
		return missingField("perimeter")
	}
	if p.Coordinates == nil {
		return missingField("coordinates")
	}
	if err := v.validateName(*p.Name); err != nil {
		return err
	}
	if err := v.validateArea(p.Area); err != nil {
		return err
	}
	if err := v.validatePerimeter(p.Perimeter); err != nil {
		return err
	}
	if !v.ValidateCoordinates(p.Coordinates) {
		return invalidGeometry()
	}
	if p.Type != nil && !IsValidType(*p.Type) {
		return invalidType()
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > descriptionMaxLength {
		return descriptionTooLong()
	}
	return nil
}

// ValidateUpdate checks a partial-update payload. Absent fields are
// not an error; present fields obey the creation rules in the same
// order.
func (v *Validator) ValidateUpdate(p Payload) error {
	if !p.HasAny() {
		return emptyUpdate()
	}
	if p.Name != nil {
		if err := v.validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Area != nil {
		if err := v.validateArea(p.Area); err != nil {
			return err
		}
	}
	if p.Perimeter != nil {
		if err := v.validatePerimeter(p.Perimeter); err != nil {
			return err
		}
	}
	if p.Coordinates != nil && !v.ValidateCoordinates(p.Coordinates) {
		return invalidGeometry()
	}
	if p.Type != nil && !IsValidType(*p.Type) {
		return invalidType()
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > descriptionMaxLength {
		return descriptionTooLong()
	}
	return nil
}

func (v *Validator) validateName(name string) error {
	// limits count characters, not bytes; names are routinely accented
	length := utf8.RuneCountInString(strings.TrimSpace(name))
	if length < nameMinLength || length > nameMaxLength {
		return invalidName()
	}
	return nil
}

func (v *Validator) validateArea(raw json.RawMessage) error {
	area, err := parseDecimal(raw)
	if err != nil {
		return invalidNumber("area")
	}
	if area.Sign() <= 0 {
		return outOfRange("area", "area must be greater than zero")
	}
	if area.GreaterThan(maxArea) {
		return outOfRange("area", "area is too large (maximum 1000000)")
	}
	return nil
}

func (v *Validator) validatePerimeter(raw json.RawMessage) error {
	perimeter, err := parseDecimal(raw)
	if err != nil {
		return invalidNumber("perimeter")
	}
	if perimeter.Sign() <= 0 {
		return outOfRange("perimeter", "perimeter must be greater than zero")
	}
	return nil
}

// ValidateCoordinates reports whether raw is a closed polygon ring:
// a sequence of at least four 2-element numeric pairs, longitude in
// [-180, 180], latitude in [-90, 90], first point equal to the last.
// All failure modes collapse into a single boolean; callers report
// one generic invalid-coordinates message.
func (v *Validator) ValidateCoordinates(raw json.RawMessage) bool {
	coords, err := ParseCoordinates(raw)
	if err != nil {
		return false
	}
	if len(coords) < minRingPoints {
		return false
	}
	for _, c := range coords {
		lon := c.Lon().InexactFloat64()
		lat := c.Lat().InexactFloat64()
		if lon < -180 || lon > 180 {
			return false
		}
		if lat < -90 || lat > 90 {
			return false
		}
	}
	return coords[0].Equal(coords[len(coords)-1])
}
