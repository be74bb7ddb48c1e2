package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
	"github.com/gsp-water/backend/pkg/waterbalance"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// latestSystemStock sums each reservoir's most recent daily volume within the
// current month. Reservoirs without a reading this month contribute nothing.
func latestSystemStock(systemID uint) float64 {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var stock float64
	config.DB.Raw(`
		SELECT COALESCE(SUM(v.volume), 0)
		FROM daily_reservoir_volumes v
		JOIN reservoirs res ON res.id = v.reservoir_id
		WHERE res.irrigation_system_id = ?
		  AND v.date = (
			SELECT MAX(v2.date) FROM daily_reservoir_volumes v2
			WHERE v2.reservoir_id = v.reservoir_id
			  AND v2.date >= ? AND v2.date < ?
		  )`, systemID, monthStart, monthEnd).Scan(&stock)
	return stock
}

// GetMonthlyUsage projects the system's plan over the year, crop by crop, and
// judges whether the current stock covers what remains of the season.
func GetMonthlyUsage(w http.ResponseWriter, r *http.Request) {
	systemID, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	year := time.Now().Year()
	if v, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && v > 0 {
		year = v
	}

	var header models.AnnualConsumption
	if err := config.DB.
		Preload("CropDetails.Crop").
		Where("irrigation_system_id = ? AND year = ?", systemID, year).
		First(&header).Error; err != nil {
		http.Error(w, "no plan for this system and year", http.StatusNotFound)
		return
	}

	usages := planUsages(&header)

	var systemTotal [12]float64
	type cropRow struct {
		Crop    string             `json:"crop"`
		Area    float64            `json:"area"`
		NetNeed float64            `json:"netNeed"`
		Monthly map[string]float64 `json:"monthly"`
	}
	rows := make([]cropRow, 0, len(usages))

	for _, u := range usages {
		monthly := waterbalance.MonthlyProjection(u)
		byName := make(map[string]float64, 12)
		for i, v := range monthly {
			systemTotal[i] += v
			byName[monthNames[i]] = v
		}
		rows = append(rows, cropRow{
			Crop:    u.CropName,
			Area:    u.Area,
			NetNeed: waterbalance.CropNetNeed(u),
			Monthly: byName,
		})
	}

	totalByName := make(map[string]float64, 12)
	for i, v := range systemTotal {
		totalByName[monthNames[i]] = v
	}

	stock := latestSystemStock(systemID)
	currentMonth := int(time.Now().Month())
	status, ratio := waterbalance.Sufficiency(stock, systemTotal, currentMonth)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"systemId":     systemID,
		"year":         year,
		"crops":        rows,
		"monthlyTotal": totalByName,
		"currentStock": stock,
		"status":       status,
		"ratio":        ratio,
	})
}

// GetDashboard summarizes everything the caller can see in one response.
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)

	var systems []models.IrrigationSystem
	if err := middleware.Narrow(config.DB.Model(&models.IrrigationSystem{}), models.IrrigationSystem{}, scope).
		Preload("Region").
		Find(&systems).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type systemCard struct {
		System       models.IrrigationSystem `json:"system"`
		Reservoirs   int64                   `json:"reservoirs"`
		Canals       int64                   `json:"canals"`
		CurrentStock float64                 `json:"currentStock"`
	}
	cards := make([]systemCard, 0, len(systems))

	for _, system := range systems {
		var reservoirCount int64
		config.DB.Model(&models.Reservoir{}).
			Where("irrigation_system_id = ?", system.ID).
			Count(&reservoirCount)

		var canalCount int64
		config.DB.Model(&models.Canal{}).
			Joins("JOIN reservoirs ON reservoirs.id = canals.reservoir_id").
			Where("reservoirs.irrigation_system_id = ?", system.ID).
			Count(&canalCount)

		cards = append(cards, systemCard{
			System:       system,
			Reservoirs:   reservoirCount,
			Canals:       canalCount,
			CurrentStock: latestSystemStock(system.ID),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"systems": cards})
}
