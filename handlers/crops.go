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

// Crop categories are shared reference data: reads are open to every
// authenticated user, writes go through the manager guard at the router.
// Crops themselves belong to one irrigation system and are scoped like any
// other tenant data.

func GetAllCropCategories(w http.ResponseWriter, r *http.Request) {
	var categories []models.CropCategory
	if err := config.DB.Order("name asc").Find(&categories).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": categories})
}

func CreateCropCategory(w http.ResponseWriter, r *http.Request) {
	var category models.CropCategory
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if category.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := config.DB.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "category name already exists", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func UpdateCropCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var category models.CropCategory
	if err := config.DB.First(&category, id).Error; err != nil {
		http.Error(w, "category not found", http.StatusNotFound)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	category.ID = id
	if err := config.DB.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "category name already exists", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func DeleteCropCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := config.DB.Delete(&models.CropCategory{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func GetAllCrops(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.Crop{}), models.Crop{}, scope)
	if systemID := r.URL.Query().Get("system_id"); systemID != "" {
		query = query.Where("crops.irrigation_system_id = ?", systemID)
	}
	if categoryID := r.URL.Query().Get("category_id"); categoryID != "" {
		query = query.Where("crops.category_id = ?", categoryID)
	}

	var total int64
	query.Count(&total)

	var crops []models.Crop
	query = params.Apply(query, map[string]string{
		"id":   "crops.id",
		"name": "crops.name",
	})
	if err := query.Preload("Category").Find(&crops).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  crops,
	})
}

func GetCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var crop models.Crop
	if err := config.DB.Preload("Category").First(&crop, id).Error; err != nil {
		http.Error(w, "crop not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, crop.IrrigationSystemID) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":           crop,
		"coefficientSum": crop.CoefficientSum(),
	})
}

func CreateCrop(w http.ResponseWriter, r *http.Request) {
	var crop models.Crop
	if err := json.NewDecoder(r.Body).Decode(&crop); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if crop.Name == "" || crop.CategoryID == 0 || crop.IrrigationSystemID == 0 {
		http.Error(w, "name, categoryId and irrigationSystemId are required", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpCreate, crop.IrrigationSystemID) {
		return
	}
	if err := config.DB.Create(&crop).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "crop name already exists in system", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, crop)
}

func UpdateCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var crop models.Crop
	if err := config.DB.First(&crop, id).Error; err != nil {
		http.Error(w, "crop not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, crop.IrrigationSystemID) {
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&crop); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	crop.ID = id
	// The body may move the crop to another system.
	if !requireOp(w, r, models.OpUpdate, crop.IrrigationSystemID) {
		return
	}
	if err := config.DB.Save(&crop).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "crop name already exists in system", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

func DeleteCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var crop models.Crop
	if err := config.DB.First(&crop, id).Error; err != nil {
		http.Error(w, "crop not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, crop.IrrigationSystemID) {
		return
	}
	if err := config.DB.Delete(&models.Crop{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
