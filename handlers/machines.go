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
	"github.com/gsp-water/backend/utils"
)

func GetAllMachines(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.Machine{}), models.Machine{}, scope)
	if systemID := r.URL.Query().Get("system_id"); systemID != "" {
		query = query.Where("machines.irrigation_system_id = ?", systemID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("machines.status = ?", status)
	}

	var total int64
	query.Count(&total)

	var machines []models.Machine
	query = params.Apply(query, map[string]string{
		"id":    "machines.id",
		"name":  "machines.name",
		"fleet": "machines.fleet_number",
	})
	if err := query.Preload("IrrigationSystem").Find(&machines).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  machines,
	})
}

func GetMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var machine models.Machine
	if err := config.DB.Preload("IrrigationSystem").First(&machine, id).Error; err != nil {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, machine.IrrigationSystemID) {
		return
	}
	writeJSON(w, http.StatusOK, machine)
}

func CreateMachine(w http.ResponseWriter, r *http.Request) {
	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if machine.FleetNumber == "" || machine.IrrigationSystemID == 0 {
		http.Error(w, "fleetNumber and irrigationSystemId are required", http.StatusBadRequest)
		return
	}
	if !requireOp(w, r, models.OpCreate, machine.IrrigationSystemID) {
		return
	}
	if machine.Type == "" {
		machine.Type = models.MachineTypeOther
	}
	if machine.Status == "" {
		machine.Status = models.MachineStatusActive
	}
	if err := config.DB.Create(&machine).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "fleet number already registered", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, machine)
}

func UpdateMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var machine models.Machine
	if err := config.DB.First(&machine, id).Error; err != nil {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, machine.IrrigationSystemID) {
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	machine.ID = id
	// The body may reassign the machine to another system.
	if !requireOp(w, r, models.OpUpdate, machine.IrrigationSystemID) {
		return
	}
	if err := config.DB.Save(&machine).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "fleet number already registered", http.StatusConflict)
			return
		}
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, machine)
}

func DeleteMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForMachine(id)
	if err != nil {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpDelete, systemID) {
		return
	}
	if err := config.DB.Delete(&models.Machine{}, id).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type positionIn struct {
	MachineID  uint       `json:"machineId"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	RecordedAt *time.Time `json:"recordedAt"`
}

// BatchPositions ingests GPS fixes for any number of machines in one call.
// Entries missing the machine id or either coordinate are dropped, as are
// entries naming an unknown machine; the response reports the counts.
// Writing a fix needs a data-entry grant on every referenced system.
func BatchPositions(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	if scope == nil {
		http.Error(w, "no access scope", http.StatusUnauthorized)
		return
	}

	var batch []positionIn
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	now := time.Now()
	systems := make(map[uint]uint)
	positions := make([]models.MachinePosition, 0, len(batch))
	for _, p := range batch {
		if p.MachineID == 0 || p.Latitude == nil || p.Longitude == nil {
			continue
		}
		systemID, ok := systems[p.MachineID]
		if !ok {
			resolved, err := systemIDForMachine(p.MachineID)
			if err != nil {
				continue
			}
			systemID = resolved
			systems[p.MachineID] = systemID
		}
		if !scope.CanPerform(models.OpCreate, systemID) {
			http.Error(w, "insufficient role for this system", http.StatusForbidden)
			return
		}
		recorded := now
		if p.RecordedAt != nil {
			recorded = *p.RecordedAt
		}
		positions = append(positions, models.MachinePosition{
			MachineID:  p.MachineID,
			Latitude:   *p.Latitude,
			Longitude:  *p.Longitude,
			RecordedAt: recorded,
		})
	}

	if len(positions) > 0 {
		if err := config.DB.Create(&positions).Error; err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"received": len(batch),
		"created":  len(positions),
		"skipped":  len(batch) - len(positions),
	})
}

func GetMachinePositions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForMachine(id)
	if err != nil {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpRead, systemID) {
		return
	}

	var positions []models.MachinePosition
	if err := config.DB.
		Where("machine_id = ?", id).
		Order("recorded_at desc").
		Limit(100).
		Find(&positions).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": positions})
}

// GetMachineMap returns each visible machine's latest fix, flagged with
// whether it lies inside its reservoir work area when a job ties it to one.
func GetMachineMap(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)

	var machines []models.Machine
	if err := middleware.Narrow(config.DB.Model(&models.Machine{}), models.Machine{}, scope).
		Find(&machines).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type marker struct {
		Machine    models.Machine          `json:"machine"`
		Position   *models.MachinePosition `json:"position"`
		InWorkArea *bool                   `json:"inWorkArea,omitempty"`
	}
	markers := make([]marker, 0, len(machines))

	for _, machine := range machines {
		m := marker{Machine: machine}

		var pos models.MachinePosition
		err := config.DB.
			Where("machine_id = ?", machine.ID).
			Order("recorded_at desc").
			First(&pos).Error
		if err == nil {
			m.Position = &pos

			// Check the active job's reservoir boundary, if both exist.
			var job models.MachineJob
			jobErr := config.DB.
				Where("machine_id = ? AND status = ? AND reservoir_id IS NOT NULL", machine.ID, models.JobStatusInProgress).
				Order("started_at desc").
				First(&job).Error
			if jobErr == nil && job.ReservoirID != nil {
				var reservoir models.Reservoir
				if config.DB.First(&reservoir, *job.ReservoirID).Error == nil {
					if boundary, err := utils.ParseBoundary(reservoir.Geometry); err == nil {
						inside := boundary.Contains(pos.Latitude, pos.Longitude)
						m.InWorkArea = &inside
					}
				}
			}
		}
		markers = append(markers, m)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": markers})
}

func GetAllJobs(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	params := models.ParseListParams(r)

	query := middleware.Narrow(config.DB.Model(&models.MachineJob{}), models.MachineJob{}, scope)
	if machineID := r.URL.Query().Get("machine_id"); machineID != "" {
		query = query.Where("machine_jobs.machine_id = ?", machineID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("machine_jobs.status = ?", status)
	}

	var total int64
	query.Count(&total)

	var jobs []models.MachineJob
	query = params.Apply(query, map[string]string{
		"id":     "machine_jobs.id",
		"status": "machine_jobs.status",
	})
	if err := query.Preload("Machine").Preload("Reservoir").Find(&jobs).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
		"data":  jobs,
	})
}

func CreateJob(w http.ResponseWriter, r *http.Request) {
	var job models.MachineJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if job.MachineID == 0 || job.Title == "" {
		http.Error(w, "machineId and title are required", http.StatusBadRequest)
		return
	}
	systemID, err := systemIDForMachine(job.MachineID)
	if err != nil {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpCreate, systemID) {
		return
	}
	job.Status = models.JobStatusPlanned
	job.StartedAt = nil
	job.FinishedAt = nil
	if err := config.DB.Create(&job).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// transitionJob loads a job, authorizes the caller and applies the move.
func transitionJob(w http.ResponseWriter, r *http.Request, move func(*models.MachineJob, time.Time) error) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var job models.MachineJob
	if err := config.DB.First(&job, id).Error; err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	systemID, err := systemIDForMachine(job.MachineID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if !requireOp(w, r, models.OpUpdate, systemID) {
		return
	}

	if err := move(&job, time.Now()); err != nil {
		if errors.Is(err, models.ErrJobTransition) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := config.DB.Save(&job).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func StartJob(w http.ResponseWriter, r *http.Request) {
	transitionJob(w, r, (*models.MachineJob).Start)
}

func CompleteJob(w http.ResponseWriter, r *http.Request) {
	transitionJob(w, r, (*models.MachineJob).Complete)
}

func CancelJob(w http.ResponseWriter, r *http.Request) {
	transitionJob(w, r, (*models.MachineJob).Cancel)
}
