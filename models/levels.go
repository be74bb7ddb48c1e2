package models

import (
	"errors"
	"math"

	"gorm.io/gorm"
)

// ErrNoLevelMatch is returned when a level table has no row for the exact
// elevation or height asked for. The tables are abacus-style lookup grids:
// values between rows are deliberately never interpolated.
var ErrNoLevelMatch = errors.New("no exact level-table match")

// ReservoirLevel is one (elevation, volume) row of a reservoir's abacus.
type ReservoirLevel struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReservoirID uint       `gorm:"index;not null;uniqueIndex:idx_reservoir_levels_elevation" json:"reservoirId"`
	Reservoir   *Reservoir `gorm:"foreignKey:ReservoirID" json:"reservoir,omitempty"`
	Elevation   float64    `gorm:"not null;uniqueIndex:idx_reservoir_levels_elevation" json:"elevation"`
	Volume      float64    `gorm:"not null" json:"volume"`
}

// CanalLevel is one (height, volume) row of a canal's abacus.
type CanalLevel struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	CanalID uint    `gorm:"index;not null;uniqueIndex:idx_canal_levels_height" json:"canalId"`
	Canal   *Canal  `gorm:"foreignKey:CanalID" json:"canal,omitempty"`
	Height  float64 `gorm:"not null;uniqueIndex:idx_canal_levels_height" json:"height"`
	Volume  float64 `gorm:"not null" json:"volume"`
}

// Round2 rounds a level reading to the 2-decimal precision the tables store.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LookupReservoirVolume finds the volume for the exact elevation.
func LookupReservoirVolume(db *gorm.DB, reservoirID uint, elevation float64) (float64, error) {
	var row ReservoirLevel
	err := db.Where("reservoir_id = ? AND elevation = ?", reservoirID, Round2(elevation)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNoLevelMatch
	}
	if err != nil {
		return 0, err
	}
	return row.Volume, nil
}

// LookupCanalVolume finds the volume for the exact height.
func LookupCanalVolume(db *gorm.DB, canalID uint, height float64) (float64, error) {
	var row CanalLevel
	err := db.Where("canal_id = ? AND height = ?", canalID, Round2(height)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNoLevelMatch
	}
	if err != nil {
		return 0, err
	}
	return row.Volume, nil
}
