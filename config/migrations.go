package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/gsp-water/backend/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01032025_create_hierarchy_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Region{}, &models.IrrigationSystem{},
					&models.Reservoir{}, &models.Canal{},
					&models.ReservoirLevel{}, &models.CanalLevel{})
			},
		},
		{
			ID: "01032025_create_account_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.IrrigationGrant{}, &models.LoginRecord{})
			},
		},
		{
			ID: "08032025_create_reading_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.DailyCanalIntake{}, &models.DailyReservoirVolume{})
			},
		},
		{
			ID: "15032025_create_planning_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.CropCategory{}, &models.Crop{},
					&models.AnnualConsumption{}, &models.AnnualCropDetail{})
			},
		},
		{
			ID: "22032025_create_machine_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Machine{}, &models.MachinePosition{}, &models.MachineJob{})
			},
		},
		{
			ID: "05042025_backfill_canal_codes",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`UPDATE canals SET code = 'S-' || id WHERE code = '' OR code IS NULL`).Error
			},
		},
		{
			ID: "12042025_index_positions_by_time",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_machine_positions_machine_time
					ON machine_positions (machine_id, recorded_at DESC)`).Error
			},
		},
	})

	return m.Migrate()
}
