package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
	"github.com/gsp-water/backend/pkg/waterbalance"
)

func GetAllConsumptions(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.AnnualConsumption{}), models.AnnualConsumption{}, scope)
	if systemID := r.URL.Query().Get("system_id"); systemID != "" {
		query = query.Where("annual_consumptions.irrigation_system_id = ?", systemID)
	}
	if year := r.URL.Query().Get("year"); year != "" {
		query = query.Where("annual_consumptions.year = ?", year)
	}

	var total int64
	query.Count(&total)

	var headers []models.AnnualConsumption
	query = params.Apply(query, map[string]string{
		"id":   "annual_consumptions.id",
		"year": "annual_consumptions.year",
	})
	if err := query.Preload("IrrigationSystem").Find(&headers).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  headers,
	})
}

func GetConsumption(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var header models.AnnualConsumption
	if err := config.DB.
		Preload("IrrigationSystem").
		Preload("CropDetails.Crop").
		First(&header, id).Error; err != nil {
		http.Error(w, "plan not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, header.IrrigationSystemID) {
		return
	}
	writeJSON(w, http.StatusOK, header)
}

func CreateConsumption(w http.ResponseWriter, r *http.Request) {
	var header models.AnnualConsumption
	if err := json.NewDecoder(r.Body).Decode(&header); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if header.IrrigationSystemID == 0 || header.Year == 0 {
		http.Error(w, "irrigationSystemId and year are required", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpCreate, header.IrrigationSystemID) {
		return
	}
	if header.FarmEfficiency == 0 {
		header.FarmEfficiency = 80
	}
	if header.ConveyanceEfficiency == 0 {
		header.ConveyanceEfficiency = 85
	}
	if err := config.DB.Create(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "plan already exists for this system and year", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, header)
}

func UpdateConsumption(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var header models.AnnualConsumption
	if err := config.DB.First(&header, id).Error; err != nil {
		http.Error(w, "plan not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, header.IrrigationSystemID) {
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&header); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	header.ID = id
	// The body may move the plan to another system.
	if !requireOp(w, r, models.OpUpdate, header.IrrigationSystemID) {
		return
	}
	if err := config.DB.Save(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "plan already exists for this system and year", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, header)
}

func DeleteConsumption(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForConsumption(id)
	if err != nil {
		http.Error(w, "plan not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, systemID) {
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("consumption_id = ?", id).Delete(&models.AnnualCropDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AnnualConsumption{}, id).Error
	})
	if err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cropDetailIn struct {
	CropID      uint     `json:"cropId"`
	Area        float64  `json:"area"`
	SowingRatio float64  `json:"sowingRatio"`
	WaterVolume *float64 `json:"waterVolume"`
}

// ReplaceCropDetails swaps the plan's crop lines for the posted set in one
// transaction.
func ReplaceCropDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForConsumption(id)
	if err != nil {
		http.Error(w, "plan not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}

	var lines []cropDetailIn
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	details := make([]models.AnnualCropDetail, 0, len(lines))
	for _, line := range lines {
		if line.CropID == 0 {
			http.Error(w, "cropId is required on every line", http.StatusBadRequest)
			return
		}
		ratio := line.SowingRatio
		if ratio == 0 {
			ratio = 100
		}
		details = append(details, models.AnnualCropDetail{
			ConsumptionID: id,
			CropID:        line.CropID,
			Area:          line.Area,
			SowingRatio:   ratio,
			WaterVolume:   line.WaterVolume,
		})
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("consumption_id = ?", id).Delete(&models.AnnualCropDetail{}).Error; err != nil {
			return err
		}
		if len(details) == 0 {
			return nil
		}
		return tx.Create(&details).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "duplicate crop in plan", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": details})
}

// planUsages flattens a plan's crop lines for the balance computations.
func planUsages(header *models.AnnualConsumption) []waterbalance.CropUsage {
	usages := make([]waterbalance.CropUsage, 0, len(header.CropDetails))
	for _, d := range header.CropDetails {
		u := waterbalance.CropUsage{
			Area:        d.Area,
			SowingRatio: d.SowingRatio,
		}
		if d.Crop != nil {
			u.CropName = d.Crop.Name
			u.Coefficients = d.Crop.Coefficients()
		}
		if d.WaterVolume != nil {
			u.WaterVolume = *d.WaterVolume
		}
		usages = append(usages, u)
	}
	return usages
}

// GetConsumptionSummary computes the plan's water balance.
func GetConsumptionSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var header models.AnnualConsumption
	if err := config.DB.Preload("CropDetails.Crop").First(&header, id).Error; err != nil {
		http.Error(w, "plan not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, header.IrrigationSystemID) {
		return
	}

	usages := planUsages(&header)
	net := waterbalance.NetWaterNeed(waterbalance.TotalConsumption(usages))
	farm := waterbalance.FarmNeed(net, header.FarmEfficiency)
	gross := waterbalance.GrossNeed(farm, header.ConveyanceEfficiency)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":             header.Year,
		"systemId":         header.IrrigationSystemID,
		"totalArea":        waterbalance.TotalArea(usages),
		"totalConsumption": waterbalance.TotalConsumption(usages),
		"unitConsumption":  waterbalance.UnitConsumption(usages),
		"totalEfficiency":  header.TotalEfficiency(),
		"netWaterNeed":     net,
		"farmWaterNeed":    farm,
		"grossWaterNeed":   gross,
	})
}

// CompareConsumptions puts two years of one system side by side.
func CompareConsumptions(w http.ResponseWriter, r *http.Request) {
	systemID, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	yearA := r.URL.Query().Get("year_a")
	yearB := r.URL.Query().Get("year_b")
	if yearA == "" || yearB == "" {
		http.Error(w, "year_a and year_b parameters required", http.StatusBadRequest)
		return
	}

	summarize := func(year string) (map[string]interface{}, error) {
		var header models.AnnualConsumption
		err := config.DB.
			Preload("CropDetails.Crop").
			Where("irrigation_system_id = ? AND year = ?", systemID, year).
			First(&header).Error
		if err != nil {
			return nil, err
		}
		usages := planUsages(&header)
		return map[string]interface{}{
			"year":             header.Year,
			"totalArea":        waterbalance.TotalArea(usages),
			"totalConsumption": waterbalance.TotalConsumption(usages),
			"unitConsumption":  waterbalance.UnitConsumption(usages),
		}, nil
	}

	a, errA := summarize(yearA)
	b, errB := summarize(yearB)
	if errA != nil && errB != nil {
		http.Error(w, "no plans found for either year", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"systemId": systemID,
		"yearA":    a,
		"yearB":    b,
	})
}
