package middleware

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gsp-water/backend/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
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
	return db, mock
}

func TestScopeContextHasSystemRole(t *testing.T) {
	scope := &ScopeContext{
		SystemRoles: map[uint]models.Role{
			1: models.RoleManager,
			2: models.RoleReadOnly,
		},
	}

	tests := []struct {
		name     string
		systemID uint
		required models.Role
		expected bool
	}{
		{"manager grant covers read", 1, models.RoleReadOnly, true},
		{"manager grant covers delete role", 1, models.RoleManager, true},
		{"manager grant does not cover super", 1, models.RoleSuperManager, false},
		{"read-only grant blocks writes", 2, models.RoleDataEntry, false},
		{"no grant on system", 3, models.RoleReadOnly, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scope.HasSystemRole(tt.systemID, tt.required); got != tt.expected {
				t.Errorf("HasSystemRole(%d, %s) = %v, expected %v", tt.systemID, tt.required, got, tt.expected)
			}
		})
	}
}

func TestScopeContextSuperuserBypass(t *testing.T) {
	scope := &ScopeContext{IsSuperuser: true, SystemRoles: map[uint]models.Role{}}

	for _, op := range []models.Operation{models.OpRead, models.OpCreate, models.OpUpdate, models.OpDelete} {
		if !scope.CanPerform(op, 42) {
			t.Errorf("superuser denied operation %d", op)
		}
	}
}

func TestScopeContextCanPerform(t *testing.T) {
	scope := &ScopeContext{
		SystemRoles: map[uint]models.Role{
			1: models.RoleDataEntry,
		},
	}

	tests := []struct {
		name     string
		op       models.Operation
		expected bool
	}{
		{"data-entry can read", models.OpRead, true},
		{"data-entry can create", models.OpCreate, true},
		{"data-entry can update", models.OpUpdate, true},
		{"data-entry cannot delete", models.OpDelete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scope.CanPerform(tt.op, 1); got != tt.expected {
				t.Errorf("CanPerform = %v, expected %v", got, tt.expected)
			}
		})
	}
}

// Expired and disabled grants must not appear in the resolved scope.
func TestResolveScopeFiltersGrants(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "irrigation_system_id", "role", "active", "expires_at"}).
		AddRow(1, "u1", 10, "MANAGER", true, nil).
		AddRow(2, "u1", 11, "DATA_ENTRY", false, nil).
		AddRow(3, "u1", 12, "READ_ONLY", true, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "irrigation_grants" WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(rows)

	scope, err := ResolveScope(db, "u1", false)
	if err != nil {
		t.Fatalf("ResolveScope: %v", err)
	}

	if len(scope.SystemRoles) != 1 {
		t.Fatalf("resolved %d systems, expected 1", len(scope.SystemRoles))
	}
	if scope.SystemRoles[10] != models.RoleManager {
		t.Errorf("system 10 role = %s, expected MANAGER", scope.SystemRoles[10])
	}
}

func TestResolveScopeSuperuserSkipsGrants(t *testing.T) {
	db, mock := newMockDB(t)

	scope, err := ResolveScope(db, "admin", true)
	if err != nil {
		t.Fatalf("ResolveScope: %v", err)
	}
	if !scope.IsSuperuser {
		t.Error("expected superuser scope")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected queries: %v", err)
	}
}

func TestNarrowEmptyScopeMatchesNothing(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservoirs" WHERE 1 = 0`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	scope := &ScopeContext{SystemRoles: map[uint]models.Role{}}
	var out []models.Reservoir
	if err := Narrow(db.Model(&models.Reservoir{}), models.Reservoir{}, scope).Find(&out).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no rows, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNarrowFiltersBySystem(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservoirs" WHERE reservoirs.irrigation_system_id IN ($1,$2)`)).
		WithArgs(1, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "irrigation_system_id", "name"}).
			AddRow(5, 1, "North Dam"))

	scope := &ScopeContext{
		SystemRoles: map[uint]models.Role{3: models.RoleReadOnly, 1: models.RoleManager},
	}
	var out []models.Reservoir
	if err := Narrow(db.Model(&models.Reservoir{}), models.Reservoir{}, scope).Find(&out).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].Name != "North Dam" {
		t.Errorf("unexpected rows: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNarrowJoinsThroughParentTables(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "canals"."id","canals"."reservoir_id","canals"."name","canals"."description","canals"."code","canals"."created_at" FROM "canals" JOIN reservoirs ON reservoirs.id = canals.reservoir_id WHERE reservoirs.irrigation_system_id IN ($1)`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservoir_id", "name"}))

	scope := &ScopeContext{SystemRoles: map[uint]models.Role{7: models.RoleDataEntry}}
	var out []models.Canal
	if err := Narrow(db.Model(&models.Canal{}), models.Canal{}, scope).Find(&out).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
