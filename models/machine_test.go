package models

import (
	"errors"
	"testing"
	"time"
)

func TestMachineJobLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	later := now.Add(3 * time.Hour)

	job := MachineJob{Status: JobStatusPlanned}

	if err := job.Start(now); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.Status != JobStatusInProgress {
		t.Errorf("status = %s, expected in_progress", job.Status)
	}
	if job.StartedAt == nil || !job.StartedAt.Equal(now) {
		t.Errorf("startedAt = %v, expected %v", job.StartedAt, now)
	}

	if err := job.Complete(later); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if job.Status != JobStatusCompleted {
		t.Errorf("status = %s, expected completed", job.Status)
	}
	if job.FinishedAt == nil || !job.FinishedAt.Equal(later) {
		t.Errorf("finishedAt = %v, expected %v", job.FinishedAt, later)
	}
}

func TestMachineJobInvalidTransitions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		from string
		move func(j *MachineJob) error
	}{
		{"complete a planned job", JobStatusPlanned, func(j *MachineJob) error { return j.Complete(now) }},
		{"start a completed job", JobStatusCompleted, func(j *MachineJob) error { return j.Start(now) }},
		{"start a cancelled job", JobStatusCancelled, func(j *MachineJob) error { return j.Start(now) }},
		{"start a job twice", JobStatusInProgress, func(j *MachineJob) error { return j.Start(now) }},
		{"cancel a completed job", JobStatusCompleted, func(j *MachineJob) error { return j.Cancel(now) }},
		{"complete a cancelled job", JobStatusCancelled, func(j *MachineJob) error { return j.Complete(now) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := MachineJob{Status: tt.from}
			if err := tt.move(&job); !errors.Is(err, ErrJobTransition) {
				t.Errorf("err = %v, expected ErrJobTransition", err)
			}
			if job.Status != tt.from {
				t.Errorf("status mutated to %s on failed transition", job.Status)
			}
		})
	}
}

func TestMachineJobCancel(t *testing.T) {
	now := time.Now()

	for _, from := range []string{JobStatusPlanned, JobStatusInProgress} {
		job := MachineJob{Status: from}
		if err := job.Cancel(now); err != nil {
			t.Errorf("Cancel from %s: %v", from, err)
		}
		if job.Status != JobStatusCancelled {
			t.Errorf("status = %s, expected cancelled", job.Status)
		}
	}
}
