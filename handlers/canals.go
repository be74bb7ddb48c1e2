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

func GetAllCanals(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.Canal{}), models.Canal{}, scope)
	if reservoirID := r.URL.Query().Get("reservoir_id"); reservoirID != "" {
		query = query.Where("canals.reservoir_id = ?", reservoirID)
	}

	var total int64
	query.Count(&total)

	var canals []models.Canal
	query = params.Apply(query, map[string]string{
		"id":   "canals.id",
		"name": "canals.name",
		"code": "canals.code",
	})
	if err := query.Preload("Reservoir").Find(&canals).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  canals,
	})
}

func GetCanal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var canal models.Canal
	if err := config.DB.Preload("Reservoir.IrrigationSystem").First(&canal, id).Error; err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForReservoir(canal.ReservoirID)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}
	writeJSON(w, http.StatusOK, canal)
}

func CreateCanal(w http.ResponseWriter, r *http.Request) {
	var canal models.Canal
	if err := json.NewDecoder(r.Body).Decode(&canal); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if canal.Name == "" || canal.ReservoirID == 0 {
		http.Error(w, "name and reservoirId are required", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForReservoir(canal.ReservoirID)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpCreate, systemID) {
		return
	}
	if err := config.DB.Create(&canal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "canal name already exists under reservoir", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, canal)
}

func UpdateCanal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var canal models.Canal
	if err := config.DB.First(&canal, id).Error; err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForReservoir(canal.ReservoirID)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&canal); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	canal.ID = id
	// The body may rehome the canal under another reservoir; re-check
	// its system.
	systemID, err = systemIDForReservoir(canal.ReservoirID)
	if err != nil {
		http.Error(w, "reservoir not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}
	if err := config.DB.Save(&canal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "canal name already exists under reservoir", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, canal)
}

func DeleteCanal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForCanal(id)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, systemID) {
		return
	}
	if err := config.DB.Delete(&models.Canal{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ComputeCanalVolume resolves a gauge height against the canal's level table.
func ComputeCanalVolume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	height, ok := parseFloatQuery(r, "height")
	if !ok {
		http.Error(w, "height parameter required", http.StatusBadRequest)
		return
	}

	systemID, err := systemIDForCanal(id)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	volume, err := models.LookupCanalVolume(config.DB, id, height)
	if errors.Is(err, models.ErrNoLevelMatch) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "no level-table entry for this height",
			"volume": 0,
		})
		return
	}
	if err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"canalId": id,
		"height":  models.Round2(height),
		"volume":  volume,
	})
}

// GetCanalLevels lists a canal's height-volume table.
func GetCanalLevels(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForCanal(id)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	var levels []models.CanalLevel
	if err := config.DB.
		Where("canal_id = ?", id).
		Order("height asc").
		Find(&levels).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": levels})
}

// AddCanalLevel appends one row to a canal's height-volume table.
func AddCanalLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForCanal(id)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpCreate, systemID) {
		return
	}

	var level models.CanalLevel
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	level.CanalID = id
	level.Height = models.Round2(level.Height)
	if err := config.DB.Create(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "height already present", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, level)
}

// GetCanalRecentIntakes returns the canal's last ten intake records.
func GetCanalRecentIntakes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForCanal(id)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	var intakes []models.DailyCanalIntake
	if err := config.DB.
		Where("canal_id = ?", id).
		Order("date desc, start_time desc").
		Limit(10).
		Find(&intakes).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": intakes})
}
