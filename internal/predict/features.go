package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Features is one customer's feature payload for a satisfaction prediction.
// Immutable once parsed; built per request and discarded after use.
type Features struct {
	Age            int     `json:"Age"`
	Gender         string  `json:"Gender"`
	TravelCategory string  `json:"TravelCategory"`
	TravelClass    string  `json:"TravelClass"`
	Distance       float64 `json:"Distance"`
	DepDelay       float64 `json:"DepDelay"`
	ArrDelay       float64 `json:"ArrDelay"`
	SeatComfort    int     `json:"SeatComfort"`
	Food           int     `json:"Food"`
	Entertainment  int     `json:"Entertainment"`
	LegRoom        int     `json:"LegRoom"`
	Cleanliness    int     `json:"Cleanliness"`
	Luggage        int     `json:"Luggage"`
	BoardingPoint  string  `json:"BoardingPoint"`
}

// featureColumns fixes the column order used by the tabular request shapes.
var featureColumns = []string{
	"Age", "Gender", "TravelCategory", "TravelClass", "Distance",
	"DepDelay", "ArrDelay", "SeatComfort", "Food", "Entertainment",
	"LegRoom", "Cleanliness", "Luggage", "BoardingPoint",
}

// Columns returns the feature names in their fixed tabular order.
func Columns() []string {
	out := make([]string, len(featureColumns))
	copy(out, featureColumns)
	return out
}

// Row returns the feature values in the same order as Columns.
func (f Features) Row() []any {
	return []any{
		f.Age, f.Gender, f.TravelCategory, f.TravelClass, f.Distance,
		f.DepDelay, f.ArrDelay, f.SeatComfort, f.Food, f.Entertainment,
		f.LegRoom, f.Cleanliness, f.Luggage, f.BoardingPoint,
	}
}

// Map returns the payload as a feature-name keyed map, used by the raw
// list-of-rows request shape.
func (f Features) Map() map[string]any {
	m := make(map[string]any, len(featureColumns))
	for i, c := range featureColumns {
		m[c] = f.Row()[i]
	}
	return m
}

// ParseFeatures decodes a tool-call arguments object into a Features record,
// rejecting unknown fields and reporting any missing required field.
func ParseFeatures(raw json.RawMessage) (Features, error) {
	var f Features

	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		return f, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	for _, c := range featureColumns {
		if _, ok := present[c]; !ok {
			return f, fmt.Errorf("missing required field %s", c)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("decoding payload: %w", err)
	}
	return f, nil
}
