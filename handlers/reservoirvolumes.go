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

func GetAllReservoirVolumes(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.DailyReservoirVolume{}), models.DailyReservoirVolume{}, scope)
	if reservoirID := r.URL.Query().Get("reservoir_id"); reservoirID != "" {
		query = query.Where("daily_reservoir_volumes.reservoir_id = ?", reservoirID)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		query = query.Where("daily_reservoir_volumes.date >= ?", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		query = query.Where("daily_reservoir_volumes.date <= ?", to)
	}

	var total int64
	query.Count(&total)

	var volumes []models.DailyReservoirVolume
	query = params.Apply(query, map[string]string{
		"id":   "daily_reservoir_volumes.id",
		"date": "daily_reservoir_volumes.date",
	})
	if err := query.Preload("Reservoir").Find(&volumes).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  volumes,
	})
}

func GetReservoirVolume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var volume models.DailyReservoirVolume
	if err := config.DB.Preload("Reservoir").First(&volume, id).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForReservoir(volume.ReservoirID)
	if err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}
	writeJSON(w, http.StatusOK, volume)
}

func CreateReservoirVolume(w http.ResponseWriter, r *http.Request) {
	var volume models.DailyReservoirVolume
	if err := json.NewDecoder(r.Body).Decode(&volume); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if volume.ReservoirID == 0 {
		http.Error(w, "reservoirId is required", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForReservoir(volume.ReservoirID)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpCreate, systemID) {
		return
	}

	// An elevation reading without an explicit volume resolves through the
	// level table.
	if volume.Volume == 0 && volume.Elevation != nil {
		v, err := models.LookupReservoirVolume(config.DB, volume.ReservoirID, *volume.Elevation)
		if err != nil && !errors.Is(err, models.ErrNoLevelMatch) {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		volume.Volume = v
	}

	if userID := middleware.GetUserID(r); userID != "" {
		volume.CreatedByID = &userID
	}

	if err := config.DB.Create(&volume).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "volume already recorded for this day", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, volume)
}

func UpdateReservoirVolume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var volume models.DailyReservoirVolume
	if err := config.DB.First(&volume, id).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForReservoir(volume.ReservoirID)
	if err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&volume); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	volume.ID = id
	// The body may point the record at another reservoir; re-check its
	// system.
	systemID, err = systemIDForReservoir(volume.ReservoirID)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}
	if err := config.DB.Save(&volume).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "volume already recorded for this day", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, volume)
}

func DeleteReservoirVolume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var volume models.DailyReservoirVolume
	if err := config.DB.First(&volume, id).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForReservoir(volume.ReservoirID)
	if err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, systemID) {
		return
	}
	if err := config.DB.Delete(&models.DailyReservoirVolume{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLatestReservoirVolume returns the most recent stock observation.
func GetLatestReservoirVolume(w http.ResponseWriter, r *http.Request) {
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

	var volume models.DailyReservoirVolume
	if err := config.DB.
		Where("reservoir_id = ?", id).
		Order("date desc").
		First(&volume).Error; err != nil {
		http.Error(w, "no volume records", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, volume)
}

// GetReservoirVolumeStats summarizes a reservoir's stock over a window.
func GetReservoirVolumeStats(w http.ResponseWriter, r *http.Request) {
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

	query := config.DB.Model(&models.DailyReservoirVolume{}).Where("reservoir_id = ?", id)
	if from := r.URL.Query().Get("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	type stats struct {
		Count int64    `json:"count"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
		Avg   *float64 `json:"avg"`
	}
	var out stats
	if err := query.
		Select("COUNT(*) AS count, MIN(volume) AS min, MAX(volume) AS max, AVG(volume) AS avg").
		Scan(&out).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
