package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservoir is a storage facility with an elevation-volume curve.
type Reservoir struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	IrrigationSystemID uint              `gorm:"index;not null;uniqueIndex:idx_reservoirs_system_name" json:"irrigationSystemId"`
	IrrigationSystem   *IrrigationSystem `gorm:"foreignKey:IrrigationSystemID" json:"irrigationSystem,omitempty"`
	Name               string            `gorm:"size:100;not null;uniqueIndex:idx_reservoirs_system_name" json:"name"`
	Description        *string           `json:"description,omitempty"`
	Geometry           datatypes.JSON    `gorm:"type:jsonb" json:"geometry,omitempty"`
	CrestElevation     *float64          `json:"crestElevation,omitempty"`
	MaxWaterElevation  *float64          `json:"maxWaterElevation,omitempty"`
	MinWaterElevation  *float64          `json:"minWaterElevation,omitempty"`
	MaxVolume          *float64          `json:"maxVolume,omitempty"`
	MinVolume          *float64          `json:"minVolume,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"createdAt"`
}

func (Reservoir) ScopeColumn() string { return "reservoirs.irrigation_system_id" }

func (Reservoir) ScopeJoins() []string { return nil }

// Canal is a conveyance channel under a reservoir, with a height-volume curve.
type Canal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReservoirID uint       `gorm:"index;not null;uniqueIndex:idx_canals_reservoir_name" json:"reservoirId"`
	Reservoir   *Reservoir `gorm:"foreignKey:ReservoirID" json:"reservoir,omitempty"`
	Name        string     `gorm:"size:100;not null;uniqueIndex:idx_canals_reservoir_name" json:"name"`
	Description *string    `json:"description,omitempty"`
	Code        string     `gorm:"size:20" json:"code"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Canal) ScopeColumn() string { return "reservoirs.irrigation_system_id" }

func (Canal) ScopeJoins() []string {
	return []string{"JOIN reservoirs ON reservoirs.id = canals.reservoir_id"}
}

// CanalCode builds the generated code for a canal id.
func CanalCode(id uint) string {
	return fmt.Sprintf("S-%d", id)
}

// AfterCreate assigns the generated code on first save when none was given.
func (c *Canal) AfterCreate(tx *gorm.DB) error {
	if c.Code != "" {
		return nil
	}
	c.Code = CanalCode(c.ID)
	return tx.Model(&Canal{}).Where("id = ?", c.ID).Update("code", c.Code).Error
}
