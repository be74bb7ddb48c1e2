package utils

import (
	"errors"
	"testing"
)

const squareGeoJSON = `{"type":"Polygon","coordinates":[[[35.0,40.0],[36.0,40.0],[36.0,41.0],[35.0,41.0],[35.0,40.0]]]}`

func TestParseBoundaryAndContains(t *testing.T) {
	b, err := ParseBoundary([]byte(squareGeoJSON))
	if err != nil {
		t.Fatalf("ParseBoundary: %v", err)
	}

	tests := []struct {
		name     string
		lat, lon float64
		expected bool
	}{
		{"center", 40.5, 35.5, true},
		{"outside west", 40.5, 34.0, false},
		{"outside north", 42.0, 35.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.lat, tt.lon); got != tt.expected {
				t.Errorf("Contains(%v, %v) = %v, expected %v", tt.lat, tt.lon, got, tt.expected)
			}
		})
	}
}

func TestParseBoundaryRejectsNonPolygons(t *testing.T) {
	if _, err := ParseBoundary([]byte(`{"type":"Point","coordinates":[35.0,40.0]}`)); !errors.Is(err, ErrNoBoundary) {
		t.Errorf("err = %v, expected ErrNoBoundary", err)
	}
	if _, err := ParseBoundary(nil); !errors.Is(err, ErrNoBoundary) {
		t.Errorf("err = %v, expected ErrNoBoundary", err)
	}
}
