package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/models"
)

// Regions are the top of the hierarchy and visible to every authenticated
// user; only superusers change them (enforced at the router).

func GetAllRegions(w http.ResponseWriter, r *http.Request) {
	params := models.ParseListParams(r)

	var regions []models.Region
	query := params.Apply(config.DB.Model(&models.Region{}), map[string]string{
		"id":   "id",
		"name": "name",
	})
	if err := query.Find(&regions).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var total int64
	config.DB.Model(&models.Region{}).Count(&total)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  regions,
	})
}

func GetRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var region models.Region
	if err := config.DB.Preload("IrrigationSystems").First(&region, id).Error; err != nil {
		http.Error(w, "region not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, region)
}

func CreateRegion(w http.ResponseWriter, r *http.Request) {
	var region models.Region
	if err := json.NewDecoder(r.Body).Decode(&region); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if region.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := config.DB.Create(&region).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "region name already exists", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, region)
}

func UpdateRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var region models.Region
	if err := config.DB.First(&region, id).Error; err != nil {
		http.Error(w, "region not found", http.StatusNotFound)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&region); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	region.ID = id
	if err := config.DB.Save(&region).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "region name already exists", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, region)
}

func DeleteRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := config.DB.Delete(&models.Region{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
