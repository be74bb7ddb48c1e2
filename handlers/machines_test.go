package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gsp-water/backend/config"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
)

func useMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	prev := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = prev })
	return mock
}

// Incomplete fixes are dropped, not rejected: the response reports how many
// of the posted entries actually landed. The machine's system is resolved
// once and cached across the batch.
func TestBatchPositionsSkipsIncompleteEntries(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "irrigation_system_id" FROM "machines" WHERE "machines"."id" = $1 ORDER BY "machines"."id" LIMIT $2`)).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"irrigation_system_id"}).AddRow(7))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "machine_positions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	body := []byte(`[
		{"machineId": 3, "latitude": 40.5, "longitude": 35.5, "recordedAt": "2025-06-01T10:00:00Z"},
		{"machineId": 3, "latitude": 40.6, "longitude": 35.6},
		{"latitude": 40.7, "longitude": 35.7},
		{"machineId": 3, "latitude": 40.8}
	]`)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/machine-positions/bulk", bytes.NewReader(body))
	r = middleware.WithScope(r, &middleware.ScopeContext{
		SystemRoles: map[uint]models.Role{7: models.RoleDataEntry},
	})

	w := httptest.NewRecorder()
	BatchPositions(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Received int `json:"received"`
		Created  int `json:"created"`
		Skipped  int `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Received != 4 || resp.Created != 2 || resp.Skipped != 2 {
		t.Errorf("counts = %+v, expected received 4, created 2, skipped 2", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBatchPositionsDeniedWithoutWriteRole(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "irrigation_system_id" FROM "machines"`)).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"irrigation_system_id"}).AddRow(7))

	body := []byte(`[{"machineId": 3, "latitude": 40.5, "longitude": 35.5}]`)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/machine-positions/bulk", bytes.NewReader(body))
	r = middleware.WithScope(r, &middleware.ScopeContext{
		SystemRoles: map[uint]models.Role{7: models.RoleReadOnly},
	})

	w := httptest.NewRecorder()
	BatchPositions(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected 403", w.Code)
	}
}

// An update body must not be able to move a record into a system the caller
// holds no write grant on.
func TestUpdateMachineCannotMoveToUngrantedSystem(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machines" WHERE "machines"."id" = $1 ORDER BY "machines"."id" LIMIT $2`)).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "irrigation_system_id", "fleet_number", "name", "type", "status"}).
			AddRow(3, 7, "M-3", "Dredger three", "DREDGER", "ACTIVE"))

	body := []byte(`{"irrigationSystemId": 8}`)

	r := httptest.NewRequest(http.MethodPut, "/api/v1/machines/3", bytes.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"id": "3"})
	r = middleware.WithScope(r, &middleware.ScopeContext{
		SystemRoles: map[uint]models.Role{7: models.RoleDataEntry},
	})

	w := httptest.NewRecorder()
	UpdateMachine(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected 403", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// Fixes for machines that do not exist are skipped rather than failing the
// whole batch.
func TestBatchPositionsSkipsUnknownMachine(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "irrigation_system_id" FROM "machines"`)).
		WithArgs(99, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	body := []byte(`[{"machineId": 99, "latitude": 40.5, "longitude": 35.5}]`)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/machine-positions/bulk", bytes.NewReader(body))
	r = middleware.WithScope(r, &middleware.ScopeContext{IsSuperuser: true})

	w := httptest.NewRecorder()
	BatchPositions(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Created != 0 || resp.Skipped != 1 {
		t.Errorf("counts = %+v, expected created 0, skipped 1", resp)
	}
}
