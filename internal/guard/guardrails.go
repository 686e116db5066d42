package guard

import (
	"fmt"
	"strings"

	"github.com/ccastromar/cso-chat-orchestrator/internal/predict"
)

// ValidationError names the feature field that failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ---- allowed categorical values ----

var genders = map[string]bool{
	"Male":   true,
	"Female": true,
}

var travelCategories = map[string]bool{
	"Business": true,
	"Personal": true,
}

var travelClasses = map[string]bool{
	"Economy":      true,
	"Economy Plus": true,
	"Business":     true,
}

func enumKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}

// ValidateFeatures enforces the range and enum constraints on a feature
// payload before it reaches the predictor.
func ValidateFeatures(f predict.Features) error {
	if !genders[f.Gender] {
		return &ValidationError{Field: "Gender", Reason: "must be Male or Female"}
	}
	if !travelCategories[f.TravelCategory] {
		return &ValidationError{Field: "TravelCategory", Reason: "must be one of: " + enumKeys(travelCategories)}
	}
	if !travelClasses[f.TravelClass] {
		return &ValidationError{Field: "TravelClass", Reason: "must be one of: " + enumKeys(travelClasses)}
	}
	if f.Age < 0 || f.Age > 120 {
		return &ValidationError{Field: "Age", Reason: fmt.Sprintf("out of range: %d", f.Age)}
	}
	if f.Distance < 0 {
		return &ValidationError{Field: "Distance", Reason: "must not be negative"}
	}
	if f.DepDelay < 0 {
		return &ValidationError{Field: "DepDelay", Reason: "must not be negative"}
	}
	if f.ArrDelay < 0 {
		return &ValidationError{Field: "ArrDelay", Reason: "must not be negative"}
	}
	if strings.TrimSpace(f.BoardingPoint) == "" {
		return &ValidationError{Field: "BoardingPoint", Reason: "must not be empty"}
	}

	ratings := map[string]int{
		"SeatComfort":   f.SeatComfort,
		"Food":          f.Food,
		"Entertainment": f.Entertainment,
		"LegRoom":       f.LegRoom,
		"Cleanliness":   f.Cleanliness,
		"Luggage":       f.Luggage,
	}
	for field, v := range ratings {
		if v < 0 || v > 5 {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("rating must be between 0 and 5, got %d", v)}
		}
	}

	return nil
}
