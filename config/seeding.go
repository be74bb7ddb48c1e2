package config

import (
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gsp-water/backend/models"
)

// SeedDemoData creates a first superuser and a demo hierarchy on an empty
// database. Safe to call on every boot.
func SeedDemoData() {
	var count int64
	DB.Model(&models.User{}).Where("is_superuser = ?", true).Count(&count)
	if count == 0 {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			password = "changeme"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("seed: hash admin password: %v", err)
			return
		}
		admin := models.User{
			Username:     "admin",
			Name:         "Administrator",
			PasswordHash: string(hash),
			IsSuperuser:  true,
			IsActive:     true,
		}
		if err := DB.Create(&admin).Error; err != nil {
			log.Printf("seed: create admin: %v", err)
		} else {
			log.Println("seed: created initial superuser 'admin'")
		}
	}

	region := models.Region{Name: "Demo Region"}
	err := DB.Where("name = ?", region.Name).First(&region).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := DB.Create(&region).Error; err != nil {
			log.Printf("seed: create region: %v", err)
			return
		}
		system := models.IrrigationSystem{RegionID: region.ID, Name: "Demo System"}
		if err := DB.Create(&system).Error; err != nil {
			log.Printf("seed: create system: %v", err)
		}
	}
}
