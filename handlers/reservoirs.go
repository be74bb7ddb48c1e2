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

func GetAllReservoirs(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.Reservoir{}), models.Reservoir{}, scope)
	if systemID := r.URL.Query().Get("system_id"); systemID != "" {
		query = query.Where("reservoirs.irrigation_system_id = ?", systemID)
	}

	var total int64
	query.Count(&total)

	var reservoirs []models.Reservoir
	query = params.Apply(query, map[string]string{
		"id":   "reservoirs.id",
		"name": "reservoirs.name",
	})
	if err := query.Preload("IrrigationSystem").Find(&reservoirs).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  reservoirs,
	})
}

func GetReservoir(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var reservoir models.Reservoir
	if err := config.DB.Preload("IrrigationSystem").First(&reservoir, id).Error; err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, reservoir.IrrigationSystemID) {
		return
	}
	writeJSON(w, http.StatusOK, reservoir)
}

func CreateReservoir(w http.ResponseWriter, r *http.Request) {
	var reservoir models.Reservoir
	if err := json.NewDecoder(r.Body).Decode(&reservoir); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if reservoir.Name == "" || reservoir.IrrigationSystemID == 0 {
		http.Error(w, "name and irrigationSystemId are required", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpCreate, reservoir.IrrigationSystemID) {
		return
	}
	if err := config.DB.Create(&reservoir).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "reservoir name already exists in system", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, reservoir)
}

func UpdateReservoir(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var reservoir models.Reservoir
	if err := config.DB.First(&reservoir, id).Error; err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, reservoir.IrrigationSystemID) {
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&reservoir); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	reservoir.ID = id
	if !requireOp(w, r, models.OpUpdate, reservoir.IrrigationSystemID) {
		return
	}
	if err := config.DB.Save(&reservoir).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "reservoir name already exists in system", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reservoir)
}

func DeleteReservoir(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	systemID, err := systemIDForReservoir(id)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, systemID) {
		return
	}
	if err := config.DB.Delete(&models.Reservoir{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ComputeReservoirVolume resolves an elevation reading against the
// reservoir's level table. Readings off the table answer 400 with volume 0.
func ComputeReservoirVolume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	elevation, ok := parseFloatQuery(r, "elevation")
	if !ok {
		http.Error(w, "elevation parameter required", http.StatusBadRequest)
		return
	}

	systemID, err := systemIDForReservoir(id)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	volume, err := models.LookupReservoirVolume(config.DB, id, elevation)
	if errors.Is(err, models.ErrNoLevelMatch) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "no level-table entry for this elevation",
			"volume": 0,
		})
		return
	}
	if err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservoirId": id,
		"elevation":   models.Round2(elevation),
		"volume":      volume,
	})
}

// GetReservoirLevels lists a reservoir's elevation-volume table.
func GetReservoirLevels(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForReservoir(id)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	var levels []models.ReservoirLevel
	if err := config.DB.
		Where("reservoir_id = ?", id).
		Order("elevation asc").
		Find(&levels).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": levels})
}

// AddReservoirLevel appends one row to a reservoir's level table.
func AddReservoirLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForReservoir(id)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpCreate, systemID) {
		return
	}

	var level models.ReservoirLevel
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	level.ReservoirID = id
	level.Elevation = models.Round2(level.Elevation)
	if err := config.DB.Create(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "elevation already present", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, level)
}
