package models

import "time"

// CropCategory groups crops for reporting. Categories are shared reference
// data across all systems.
type CropCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Crops []Crop `gorm:"foreignKey:CategoryID" json:"crops,omitempty"`
}

// Crop carries the agronomic parameters of one crop grown in one irrigation
// system: a water-need coefficient per calendar month plus season and
// profitability data. A nil coefficient means the crop takes no water that
// month.
type Crop struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	IrrigationSystemID uint              `gorm:"index;not null;uniqueIndex:idx_crops_system_name" json:"irrigationSystemId"`
	IrrigationSystem   *IrrigationSystem `gorm:"foreignKey:IrrigationSystemID" json:"irrigationSystem,omitempty"`
	CategoryID         uint              `gorm:"index;not null" json:"categoryId"`
	Category           *CropCategory     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name               string            `gorm:"size:100;not null;uniqueIndex:idx_crops_system_name" json:"name"`

	CoefJan *float64 `json:"coefJan,omitempty"`
	CoefFeb *float64 `json:"coefFeb,omitempty"`
	CoefMar *float64 `json:"coefMar,omitempty"`
	CoefApr *float64 `json:"coefApr,omitempty"`
	CoefMay *float64 `json:"coefMay,omitempty"`
	CoefJun *float64 `json:"coefJun,omitempty"`
	CoefJul *float64 `json:"coefJul,omitempty"`
	CoefAug *float64 `json:"coefAug,omitempty"`
	CoefSep *float64 `json:"coefSep,omitempty"`
	CoefOct *float64 `json:"coefOct,omitempty"`
	CoefNov *float64 `json:"coefNov,omitempty"`
	CoefDec *float64 `json:"coefDec,omitempty"`

	SowingStart  *time.Time `gorm:"type:date" json:"sowingStart,omitempty"`
	HarvestStart *time.Time `gorm:"type:date" json:"harvestStart,omitempty"`
	ProfitRatio  *float64   `json:"profitRatio,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Crop) ScopeColumn() string { return "crops.irrigation_system_id" }

func (Crop) ScopeJoins() []string { return nil }

// Coefficients returns the monthly coefficients January through December,
// nil months as zero.
func (c *Crop) Coefficients() [12]float64 {
	ptrs := [12]*float64{
		c.CoefJan, c.CoefFeb, c.CoefMar, c.CoefApr, c.CoefMay, c.CoefJun,
		c.CoefJul, c.CoefAug, c.CoefSep, c.CoefOct, c.CoefNov, c.CoefDec,
	}
	var out [12]float64
	for i, p := range ptrs {
		if p != nil {
			out[i] = *p
		}
	}
	return out
}

// CoefficientSum is the crop's annual water-need coefficient.
func (c *Crop) CoefficientSum() float64 {
	var sum float64
	for _, v := range c.Coefficients() {
		sum += v
	}
	return sum
}
