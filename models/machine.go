package models

import (
	"errors"
	"fmt"
	"time"
)

// Machine types and statuses.
const (
	MachineTypeExcavator = "EXCAVATOR"
	MachineTypeDredger   = "DREDGER"
	MachineTypeTruck     = "TRUCK"
	MachineTypeOther     = "OTHER"

	MachineStatusActive      = "ACTIVE"
	MachineStatusMaintenance = "MAINTENANCE"
	MachineStatusRetired     = "RETIRED"
)

// MachineJob statuses.
const (
	JobStatusPlanned    = "planned"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// ErrJobTransition is returned when a job is moved to a state its current
// state does not allow.
var ErrJobTransition = errors.New("job state transition not allowed")

// Machine is a field machine assigned to one irrigation system.
type Machine struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	IrrigationSystemID uint              `gorm:"index;not null" json:"irrigationSystemId"`
	IrrigationSystem   *IrrigationSystem `gorm:"foreignKey:IrrigationSystemID" json:"irrigationSystem,omitempty"`
	FleetNumber        string            `gorm:"size:50;uniqueIndex;not null" json:"fleetNumber"`
	Name               string            `gorm:"size:100;not null" json:"name"`
	Type               string            `gorm:"size:20;not null;default:OTHER" json:"type"`
	Status             string            `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	Plate              *string           `gorm:"size:20" json:"plate,omitempty"`
	ModelName          *string           `gorm:"size:100" json:"modelName,omitempty"`
	Year               *int              `json:"year,omitempty"`
	Note               *string           `json:"note,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"createdAt"`
}

func (Machine) ScopeColumn() string { return "machines.irrigation_system_id" }

func (Machine) ScopeJoins() []string { return nil }

// MachinePosition is one GPS fix for a machine.
type MachinePosition struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MachineID  uint      `gorm:"index;not null" json:"machineId"`
	Machine    *Machine  `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	RecordedAt time.Time `gorm:"index;not null" json:"recordedAt"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (MachinePosition) ScopeColumn() string { return "machines.irrigation_system_id" }

func (MachinePosition) ScopeJoins() []string {
	return []string{"JOIN machines ON machines.id = machine_positions.machine_id"}
}

// MachineJob is a unit of field work on a facility, tracked through a small
// state machine: planned, in_progress, then completed or cancelled.
type MachineJob struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MachineID   uint       `gorm:"index;not null" json:"machineId"`
	Machine     *Machine   `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
	ReservoirID *uint      `gorm:"index" json:"reservoirId,omitempty"`
	Reservoir   *Reservoir `gorm:"foreignKey:ReservoirID" json:"reservoir,omitempty"`
	Title       string     `gorm:"size:150;not null" json:"title"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `gorm:"size:255" json:"location,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Status      string     `gorm:"size:20;not null;default:planned" json:"status"`
	PlannedFor  *time.Time `gorm:"type:date" json:"plannedFor,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (MachineJob) ScopeColumn() string { return "machines.irrigation_system_id" }

func (MachineJob) ScopeJoins() []string {
	return []string{"JOIN machines ON machines.id = machine_jobs.machine_id"}
}

// Start moves a planned job into progress and stamps the start time.
func (j *MachineJob) Start(now time.Time) error {
	if j.Status != JobStatusPlanned {
		return fmt.Errorf("%w: cannot start a %s job", ErrJobTransition, j.Status)
	}
	j.Status = JobStatusInProgress
	j.StartedAt = &now
	return nil
}

// Complete finishes a job in progress and stamps the finish time.
func (j *MachineJob) Complete(now time.Time) error {
	if j.Status != JobStatusInProgress {
		return fmt.Errorf("%w: cannot complete a %s job", ErrJobTransition, j.Status)
	}
	j.Status = JobStatusCompleted
	j.FinishedAt = &now
	return nil
}

// Cancel aborts a job that has not finished and stamps the finish time.
func (j *MachineJob) Cancel(now time.Time) error {
	if j.Status != JobStatusPlanned && j.Status != JobStatusInProgress {
		return fmt.Errorf("%w: cannot cancel a %s job", ErrJobTransition, j.Status)
	}
	j.Status = JobStatusCancelled
	j.FinishedAt = &now
	return nil
}
