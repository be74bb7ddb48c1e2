package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidInterval is returned when a reading interval does not satisfy
// start < end.
var ErrInvalidInterval = errors.New("interval start must be before end")

// DailyCanalIntake is a metered intake interval on one canal. Volume is either
// entered by hand (ManualVolume true) or derived from the canal's height table
// on save.
type DailyCanalIntake struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CanalID      uint       `gorm:"index;not null;uniqueIndex:idx_intakes_canal_date_start" json:"canalId"`
	Canal        *Canal     `gorm:"foreignKey:CanalID" json:"canal,omitempty"`
	Date         time.Time  `gorm:"type:date;not null;uniqueIndex:idx_intakes_canal_date_start" json:"date"`
	StartTime    string     `gorm:"size:5;not null;uniqueIndex:idx_intakes_canal_date_start" json:"startTime"`
	EndTime      string     `gorm:"size:5;not null" json:"endTime"`
	Height       *float64   `json:"height,omitempty"`
	Volume       float64    `json:"volume"`
	ManualVolume bool       `gorm:"default:false" json:"manualVolume"`
	Note         *string    `json:"note,omitempty"`
	CreatedByID  *string    `gorm:"type:uuid" json:"createdById,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (DailyCanalIntake) ScopeColumn() string { return "reservoirs.irrigation_system_id" }

func (DailyCanalIntake) ScopeJoins() []string {
	return []string{
		"JOIN canals ON canals.id = daily_canal_intakes.canal_id",
		"JOIN reservoirs ON reservoirs.id = canals.reservoir_id",
	}
}

// Validate checks the interval ordering. Times are HH:MM strings, so string
// comparison is chronological.
func (d *DailyCanalIntake) Validate() error {
	if d.StartTime >= d.EndTime {
		return ErrInvalidInterval
	}
	return nil
}

// BeforeSave validates the interval and, unless the volume was entered by
// hand, derives it from the canal's height table. A missing height or a
// height with no table row stores zero.
func (d *DailyCanalIntake) BeforeSave(tx *gorm.DB) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.ManualVolume {
		return nil
	}
	if d.Height == nil {
		d.Volume = 0
		return nil
	}
	volume, err := LookupCanalVolume(tx, d.CanalID, *d.Height)
	if errors.Is(err, ErrNoLevelMatch) {
		d.Volume = 0
		return nil
	}
	if err != nil {
		return err
	}
	d.Volume = volume
	return nil
}

// DailyReservoirVolume is one reservoir stock observation per day, in m3.
type DailyReservoirVolume struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReservoirID uint       `gorm:"index;not null;uniqueIndex:idx_reservoir_volumes_date" json:"reservoirId"`
	Reservoir   *Reservoir `gorm:"foreignKey:ReservoirID" json:"reservoir,omitempty"`
	Date        time.Time  `gorm:"type:date;not null;uniqueIndex:idx_reservoir_volumes_date" json:"date"`
	Elevation   *float64   `json:"elevation,omitempty"`
	Volume      float64    `gorm:"not null" json:"volume"`
	Note        *string    `json:"note,omitempty"`
	CreatedByID *string    `gorm:"type:uuid" json:"createdById,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (DailyReservoirVolume) ScopeColumn() string { return "reservoirs.irrigation_system_id" }

func (DailyReservoirVolume) ScopeJoins() []string {
	return []string{"JOIN reservoirs ON reservoirs.id = daily_reservoir_volumes.reservoir_id"}
}
