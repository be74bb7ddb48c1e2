package models

import (
	"errors"
	"testing"
)

func TestDailyCanalIntakeValidate(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{"ordered interval", "08:00", "12:30", false},
		{"reversed interval", "14:00", "09:00", true},
		{"zero-length interval", "10:00", "10:00", true},
		{"adjacent minutes", "10:00", "10:01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DailyCanalIntake{StartTime: tt.start, EndTime: tt.end}
			err := d.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidInterval) {
				t.Errorf("Validate() = %v, expected ErrInvalidInterval", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, expected nil", err)
			}
		})
	}
}

// The height is optional: with none given there is nothing to look up and the
// derived volume is zero.
func TestDailyCanalIntakeNoHeightStoresZero(t *testing.T) {
	db, mock := newMockDB(t)

	d := DailyCanalIntake{CanalID: 4, StartTime: "08:00", EndTime: "12:00", Volume: 999}
	if err := d.BeforeSave(db); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if d.Volume != 0 {
		t.Errorf("volume = %v, expected 0", d.Volume)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query expected: %v", err)
	}
}
