package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/models"
	"github.com/gsp-water/backend/utils"
)

// Admin endpoints: mounted behind the superuser guard.

func GetAllUsers(w http.ResponseWriter, r *http.Request) {
	params := models.ParseListParams(r)

	query := config.DB.Model(&models.User{})
	if active := r.URL.Query().Get("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	query = params.Apply(query, map[string]string{
		"id":       "id",
		"username": "username",
		"name":     "name",
	})
	if err := query.Preload("Grants.IrrigationSystem").Find(&users).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  users,
	})
}

type grantIn struct {
	IrrigationSystemID uint        `json:"irrigationSystemId"`
	Role               models.Role `json:"role"`
	ExpiresAt          *time.Time  `json:"expiresAt"`
}

type createUserReq struct {
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Password    string    `json:"password"`
	IsSuperuser bool      `json:"isSuperuser"`
	Grants      []grantIn `json:"grants"`
}

// CreateUser provisions an account together with its grants, atomically.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}
	for _, g := range req.Grants {
		if !g.Role.Valid() {
			http.Error(w, "unknown role: "+string(g.Role), http.StatusBadRequest)
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "error hashing password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hash),
		IsSuperuser:  req.IsSuperuser,
		IsActive:     true,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		for _, g := range req.Grants {
			grant := models.IrrigationGrant{
				UserID:             user.ID,
				IrrigationSystemID: g.IrrigationSystemID,
				Role:               g.Role,
				Active:             true,
				ExpiresAt:          g.ExpiresAt,
			}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type updateUserReq struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	IsSuperuser *bool   `json:"isSuperuser"`
	IsActive    *bool   `json:"isActive"`
	Password    *string `json:"password"`
}

func UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	var req updateUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsSuperuser != nil {
		updates["is_superuser"] = *req.IsSuperuser
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "error hashing password", http.StatusInternalServerError)
			return
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) == 0 {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeactivateUser disables login without destroying the audit trail.
func DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	result := config.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", false)
	if result.Error != nil {
		http.Error(w, "db error: "+result.Error.Error(), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func GetUserGrants(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var grants []models.IrrigationGrant
	if err := config.DB.
		Preload("IrrigationSystem").
		Where("user_id = ?", userID).
		Find(&grants).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": grants})
}

// UpsertGrant creates or replaces a user's grant on a system.
func UpsertGrant(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var req grantIn
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.IrrigationSystemID == 0 {
		http.Error(w, "irrigationSystemId is required", http.StatusBadRequest)
		return
	}
	if !req.Role.Valid() {
		http.Error(w, "unknown role: "+string(req.Role), http.StatusBadRequest)
		return
	}

	var grant models.IrrigationGrant
	err := config.DB.
		Where("user_id = ? AND irrigation_system_id = ?", userID, req.IrrigationSystemID).
		First(&grant).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		grant = models.IrrigationGrant{
			UserID:             userID,
			IrrigationSystemID: req.IrrigationSystemID,
			Role:               req.Role,
			Active:             true,
			ExpiresAt:          req.ExpiresAt,
		}
		if err := config.DB.Create(&grant).Error; err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, grant)
	case err != nil:
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
	default:
		grant.Role = req.Role
		grant.Active = true
		grant.ExpiresAt = req.ExpiresAt
		if err := config.DB.Save(&grant).Error; err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, grant)
	}
}

// RevokeGrant deactivates a grant; history stays in place.
func RevokeGrant(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	grantID, ok := parseID(r, "grantId")
	if !ok {
		http.Error(w, "invalid grant id", http.StatusBadRequest)
		return
	}

	result := config.DB.Model(&models.IrrigationGrant{}).
		Where("id = ? AND user_id = ?", grantID, userID).
		Update("active", false)
	if result.Error != nil {
		http.Error(w, "db error: "+result.Error.Error(), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "grant not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLoginRecords lists recent login attempts across all accounts.
func GetLoginRecords(w http.ResponseWriter, r *http.Request) {
	params := models.ParseListParams(r)

	query := config.DB.Model(&models.LoginRecord{})
	if username := r.URL.Query().Get("username"); username != "" {
		query = query.Where("username = ?", username)
	}
	if success := r.URL.Query().Get("success"); success != "" {
		query = query.Where("success = ?", success == "true")
	}

	var total int64
	query.Count(&total)

	var records []models.LoginRecord
	if err := query.
		Order("created_at desc").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&records).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  records,
	})
}

// ImportLevels ingests an abacus workbook: one sheet per reservoir, named
// after it.
func ImportLevels(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		http.Error(w, "not a valid xlsx file", http.StatusBadRequest)
		return
	}
	defer workbook.Close()

	summary, err := utils.ImportReservoirLevels(config.DB, workbook)
	if err != nil {
		http.Error(w, "import failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
