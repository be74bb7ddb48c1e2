package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseID(r *http.Request, name string) (uint, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func parseFloatQuery(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// requireOp checks that the caller may run the operation against the system.
// Writes the 403 itself and reports whether the handler may continue.
func requireOp(w http.ResponseWriter, r *http.Request, op models.Operation, systemID uint) bool {
	scope := middleware.GetScope(r)
	if scope == nil {
		http.Error(w, "missing access context", http.StatusUnauthorized)
		return false
	}
	if !scope.CanPerform(op, systemID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// System-id resolvers for records addressed through their parents.

func systemIDForReservoir(reservoirID uint) (uint, error) {
	var reservoir models.Reservoir
	if err := config.DB.Select("irrigation_system_id").First(&reservoir, reservoirID).Error; err != nil {
		return 0, err
	}
	return reservoir.IrrigationSystemID, nil
}

func systemIDForCanal(canalID uint) (uint, error) {
	var canal models.Canal
	if err := config.DB.Select("reservoir_id").First(&canal, canalID).Error; err != nil {
		return 0, err
	}
	return systemIDForReservoir(canal.ReservoirID)
}

func systemIDForMachine(machineID uint) (uint, error) {
	var machine models.Machine
	if err := config.DB.Select("irrigation_system_id").First(&machine, machineID).Error; err != nil {
		return 0, err
	}
	return machine.IrrigationSystemID, nil
}

func systemIDForConsumption(consumptionID uint) (uint, error) {
	var header models.AnnualConsumption
	if err := config.DB.Select("irrigation_system_id").First(&header, consumptionID).Error; err != nil {
		return 0, err
	}
	return header.IrrigationSystemID, nil
}
