package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
)

func GetAllSystems(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.IrrigationSystem{}), models.IrrigationSystem{}, scope)
	if regionID := r.URL.Query().Get("region_id"); regionID != "" {
		query = query.Where("irrigation_systems.region_id = ?", regionID)
	}

	var total int64
	query.Count(&total)

	var systems []models.IrrigationSystem
	query = params.Apply(query, map[string]string{
		"id":   "irrigation_systems.id",
		"name": "irrigation_systems.name",
	})
	if err := query.Preload("Region").Find(&systems).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  systems,
	})
}

func GetSystem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpRead, id) {
		return
	}

	var system models.IrrigationSystem
	if err := config.DB.Preload("Region").First(&system, id).Error; err != nil {
		http.Error(w, "system not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, system)
}

func CreateSystem(w http.ResponseWriter, r *http.Request) {
	var system models.IrrigationSystem
	if err := json.NewDecoder(r.Body).Decode(&system); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if system.Name == "" || system.RegionID == 0 {
		http.Error(w, "name and regionId are required", http.StatusBadRequest)
		return
	}
	if err := config.DB.Create(&system).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "system name already exists in region", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, system)
}

func UpdateSystem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpUpdate, id) {
		return
	}

	var system models.IrrigationSystem
	if err := config.DB.First(&system, id).Error; err != nil {
		http.Error(w, "system not found", http.StatusNotFound)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&system); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	system.ID = id
	if err := config.DB.Save(&system).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "system name already exists in region", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, system)
}

func DeleteSystem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpDelete, id) {
		return
	}
	if err := config.DB.Delete(&models.IrrigationSystem{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSystemStats summarizes a system's facilities and latest stock.
func GetSystemStats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpRead, id) {
		return
	}

	var reservoirCount int64
	config.DB.Model(&models.Reservoir{}).Where("irrigation_system_id = ?", id).Count(&reservoirCount)

	var canalCount int64
	config.DB.Model(&models.Canal{}).
		Joins("JOIN reservoirs ON reservoirs.id = canals.reservoir_id").
		Where("reservoirs.irrigation_system_id = ?", id).
		Count(&canalCount)

	var machineCount int64
	config.DB.Model(&models.Machine{}).Where("irrigation_system_id = ?", id).Count(&machineCount)

	totalStock := latestSystemStock(id)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"systemId":   id,
		"reservoirs": reservoirCount,
		"canals":     canalCount,
		"machines":   machineCount,
		"totalStock": totalStock,
	})
}
