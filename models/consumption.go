package models

import "time"

// AnnualConsumption is the planning header for one irrigation system and year.
// Efficiency percentages default to the values used across the basin.
type AnnualConsumption struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	IrrigationSystemID   uint              `gorm:"index;not null;uniqueIndex:idx_consumptions_system_year" json:"irrigationSystemId"`
	IrrigationSystem     *IrrigationSystem `gorm:"foreignKey:IrrigationSystemID" json:"irrigationSystem,omitempty"`
	Year                 int               `gorm:"not null;uniqueIndex:idx_consumptions_system_year" json:"year"`
	FarmEfficiency       float64           `gorm:"default:80" json:"farmEfficiency"`
	ConveyanceEfficiency float64           `gorm:"default:85" json:"conveyanceEfficiency"`
	Note                 *string           `json:"note,omitempty"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"createdAt"`

	CropDetails []AnnualCropDetail `gorm:"foreignKey:ConsumptionID" json:"cropDetails,omitempty"`
}

func (AnnualConsumption) ScopeColumn() string { return "annual_consumptions.irrigation_system_id" }

func (AnnualConsumption) ScopeJoins() []string { return nil }

// TotalEfficiency is the combined farm and conveyance efficiency percentage.
func (a *AnnualConsumption) TotalEfficiency() float64 {
	return a.FarmEfficiency * a.ConveyanceEfficiency / 100
}

// AnnualCropDetail is one crop line under a planning header: the planted area
// in decares and its observed water use.
type AnnualCropDetail struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	ConsumptionID uint               `gorm:"index;not null;uniqueIndex:idx_crop_details_consumption_crop" json:"consumptionId"`
	Consumption   *AnnualConsumption `gorm:"foreignKey:ConsumptionID" json:"consumption,omitempty"`
	CropID        uint               `gorm:"not null;uniqueIndex:idx_crop_details_consumption_crop" json:"cropId"`
	Crop          *Crop              `gorm:"foreignKey:CropID" json:"crop,omitempty"`
	Area          float64            `gorm:"not null" json:"area"`
	SowingRatio   float64            `gorm:"default:100" json:"sowingRatio"`
	WaterVolume   *float64           `json:"waterVolume,omitempty"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"createdAt"`
}

func (AnnualCropDetail) ScopeColumn() string { return "annual_consumptions.irrigation_system_id" }

func (AnnualCropDetail) ScopeJoins() []string {
	return []string{"JOIN annual_consumptions ON annual_consumptions.id = annual_crop_details.consumption_id"}
}
