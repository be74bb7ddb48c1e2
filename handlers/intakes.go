package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
)

// intakeWindow resolves the date filters of an intake listing. Without
// explicit bounds the window is the current month.
func intakeWindow(r *http.Request) (from, to time.Time) {
	q := r.URL.Query()
	now := time.Now()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0).AddDate(0, 0, -1)

	if v, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		from = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		to = v
	}
	return from, to
}

func GetAllIntakes(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)
	from, to := intakeWindow(r)

	query := middleware.Narrow(config.DB.Model(&models.DailyCanalIntake{}), models.DailyCanalIntake{}, scope).
		Where("daily_canal_intakes.date BETWEEN ? AND ?", from, to)
	if canalID := r.URL.Query().Get("canal_id"); canalID != "" {
		query = query.Where("daily_canal_intakes.canal_id = ?", canalID)
	}

	var total int64
	query.Count(&total)

	var intakes []models.DailyCanalIntake
	query = params.Apply(query, map[string]string{
		"id":   "daily_canal_intakes.id",
		"date": "daily_canal_intakes.date",
	})
	if err := query.Preload("Canal").Find(&intakes).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"data":  intakes,
	})
}

func GetIntake(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var intake models.DailyCanalIntake
	if err := config.DB.Preload("Canal").First(&intake, id).Error; err != nil {
		http.Error(w, "intake not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForCanal(intake.CanalID)
	if err != nil {
		http.Error(w, "intake not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}
	writeJSON(w, http.StatusOK, intake)
}

func CreateIntake(w http.ResponseWriter, r *http.Request) {
	var intake models.DailyCanalIntake
	if err := json.NewDecoder(r.Body).Decode(&intake); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if intake.CanalID == 0 {
		http.Error(w, "canalId is required", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForCanal(intake.CanalID)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpCreate, systemID) {
		return
	}

	if userID := middleware.GetUserID(r); userID != "" {
		intake.CreatedByID = &userID
	}

	if err := config.DB.Create(&intake).Error; err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInterval):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			http.Error(w, "intake already recorded for this interval", http.StatusConflict)
		default:
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, intake)
}

func UpdateIntake(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var intake models.DailyCanalIntake
	if err := config.DB.First(&intake, id).Error; err != nil {
		http.Error(w, "intake not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForCanal(intake.CanalID)
	if err != nil {
		http.Error(w, "intake not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&intake); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	intake.ID = id
	// The body may point the record at another canal; re-check its system.
	systemID, err = systemIDForCanal(intake.CanalID)
	if err != nil {
		http.Error(w, "canal not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}
	if err := config.DB.Save(&intake).Error; err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInterval):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			http.Error(w, "intake already recorded for this interval", http.StatusConflict)
		default:
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, intake)
}

func DeleteIntake(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var intake models.DailyCanalIntake
	if err := config.DB.First(&intake, id).Error; err != nil {
		http.Error(w, "intake not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForCanal(intake.CanalID)
	if err != nil {
		http.Error(w, "intake not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, systemID) {
		return
	}
	if err := config.DB.Delete(&models.DailyCanalIntake{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetIntakeSummary totals intake volumes over the window, grouped by canal.
func GetIntakeSummary(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	from, to := intakeWindow(r)

	type canalTotal struct {
		CanalID   uint    `json:"canalId"`
		CanalName string  `json:"canalName"`
		Total     float64 `json:"total"`
	}
	var totals []canalTotal

	query := middleware.Narrow(config.DB.Model(&models.DailyCanalIntake{}), models.DailyCanalIntake{}, scope).
		Select("daily_canal_intakes.canal_id AS canal_id, canals.name AS canal_name, COALESCE(SUM(daily_canal_intakes.volume), 0) AS total").
		Where("daily_canal_intakes.date BETWEEN ? AND ?", from, to).
		Group("daily_canal_intakes.canal_id, canals.name")
	if err := query.Scan(&totals).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var grand float64
	for _, t := range totals {
		grand += t.Total
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"total":  grand,
		"canals": totals,
	})
}
