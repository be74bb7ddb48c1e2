package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account holder. Superusers bypass all scope checks.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"size:100" json:"name"`
	Email        *string   `gorm:"size:255" json:"email,omitempty"`
	Phone        *string   `gorm:"size:20" json:"phone,omitempty"`
	IsSuperuser  bool      `gorm:"default:false" json:"isSuperuser"`
	IsActive     bool      `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Grants []IrrigationGrant `gorm:"foreignKey:UserID" json:"grants,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// IrrigationGrant gives one user one role on one irrigation system. A grant
// counts only while Active is set and the expiry, if any, has not passed.
type IrrigationGrant struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	UserID             string            `gorm:"type:uuid;index;not null;uniqueIndex:idx_grants_user_system" json:"userId"`
	User               *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	IrrigationSystemID uint              `gorm:"not null;uniqueIndex:idx_grants_user_system" json:"irrigationSystemId"`
	IrrigationSystem   *IrrigationSystem `gorm:"foreignKey:IrrigationSystemID" json:"irrigationSystem,omitempty"`
	Role               Role              `gorm:"size:20;not null;default:READ_ONLY" json:"role"`
	Active             bool              `gorm:"default:true" json:"active"`
	ExpiresAt          *time.Time        `json:"expiresAt,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"createdAt"`
}

// IsActiveAt reports whether the grant is in force at the given instant.
func (g *IrrigationGrant) IsActiveAt(t time.Time) bool {
	if !g.Active {
		return false
	}
	if g.ExpiresAt != nil && g.ExpiresAt.Before(t) {
		return false
	}
	return true
}

// LoginRecord is an append-only audit row, written on every login attempt.
type LoginRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        *string   `gorm:"type:uuid;index" json:"userId,omitempty"`
	Username      string    `gorm:"size:150;not null" json:"username"`
	Success       bool      `gorm:"not null" json:"success"`
	FailureReason *string   `gorm:"size:100" json:"failureReason,omitempty"`
	IPAddress     string    `gorm:"size:45" json:"ipAddress"`
	UserAgent     string    `gorm:"size:255" json:"userAgent"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}
