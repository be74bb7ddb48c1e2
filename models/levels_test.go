package models

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock
}

func TestLookupReservoirVolumeExactMatch(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservoir_levels" WHERE reservoir_id = $1 AND elevation = $2 ORDER BY "reservoir_levels"."id" LIMIT $3`)).
		WithArgs(7, 812.45, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservoir_id", "elevation", "volume"}).
			AddRow(1, 7, 812.45, 14250.0))

	got, err := LookupReservoirVolume(db, 7, 812.45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 14250.0 {
		t.Errorf("volume = %v, expected 14250.0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A reading between two table rows must fail, never interpolate.
func TestLookupReservoirVolumeNoMatch(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservoir_levels"`)).
		WithArgs(7, 812.37, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservoir_id", "elevation", "volume"}))

	_, err := LookupReservoirVolume(db, 7, 812.37)
	if !errors.Is(err, ErrNoLevelMatch) {
		t.Errorf("err = %v, expected ErrNoLevelMatch", err)
	}
}

func TestLookupReservoirVolumeRoundsInput(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservoir_levels"`)).
		WithArgs(3, 800.12, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservoir_id", "elevation", "volume"}).
			AddRow(9, 3, 800.12, 520.0))

	got, err := LookupReservoirVolume(db, 3, 800.1199999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 520.0 {
		t.Errorf("volume = %v, expected 520.0", got)
	}
}

func TestLookupCanalVolumeNoMatch(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "canal_levels"`)).
		WithArgs(4, 1.55, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "canal_id", "height", "volume"}))

	_, err := LookupCanalVolume(db, 4, 1.55)
	if !errors.Is(err, ErrNoLevelMatch) {
		t.Errorf("err = %v, expected ErrNoLevelMatch", err)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{3.14159, 3.14},
		{812.4499, 812.45},
		{0.1, 0.1},
		{-2.346, -2.35},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.expected {
			t.Errorf("Round2(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}
