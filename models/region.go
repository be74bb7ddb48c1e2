package models

import "time"

// Region is a top-level irrigation union; it owns irrigation systems.
type Region struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description *string   `json:"description,omitempty"`
	Contact     *string   `gorm:"size:100" json:"contact,omitempty"`
	Manager     *string   `gorm:"size:100" json:"manager,omitempty"`
	Address     *string   `gorm:"size:255" json:"address,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`

	IrrigationSystems []IrrigationSystem `gorm:"foreignKey:RegionID" json:"irrigationSystems,omitempty"`
}

// IrrigationSystem is the tenancy unit: every scoped record resolves to one,
// and user grants are issued against it.
type IrrigationSystem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RegionID    uint      `gorm:"index;not null;uniqueIndex:idx_systems_region_name" json:"regionId"`
	Region      *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_systems_region_name" json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// ScopeColumn implements Scoped: the system itself is scoped by its own id.
func (IrrigationSystem) ScopeColumn() string { return "irrigation_systems.id" }

// ScopeJoins implements Scoped.
func (IrrigationSystem) ScopeJoins() []string { return nil }
