package models

import (
	"testing"
	"time"
)

func TestGrantIsActiveAt(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		grant    IrrigationGrant
		expected bool
	}{
		{"active with no expiry", IrrigationGrant{Active: true}, true},
		{"active with future expiry", IrrigationGrant{Active: true, ExpiresAt: &future}, true},
		{"active but expired", IrrigationGrant{Active: true, ExpiresAt: &past}, false},
		{"inactive with no expiry", IrrigationGrant{Active: false}, false},
		{"inactive with future expiry", IrrigationGrant{Active: false, ExpiresAt: &future}, false},
		{"expiring exactly now still counts", IrrigationGrant{Active: true, ExpiresAt: &now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grant.IsActiveAt(now); got != tt.expected {
				t.Errorf("IsActiveAt = %v, expected %v", got, tt.expected)
			}
		})
	}
}
