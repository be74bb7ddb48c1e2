package models

import (
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/gorm"
)

func TestParseListParamsDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/canals", nil)
	p := ParseListParams(r)

	if p.Page != 1 || p.Limit != 50 || p.SortBy != "id" || p.SortOrder != "asc" {
		t.Errorf("defaults = %+v", p)
	}
}

func TestParseListParamsCapsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/canals?limit=9999&page=3", nil)
	p := ParseListParams(r)

	if p.Limit != 50 {
		t.Errorf("limit = %d, expected default 50 when over the cap", p.Limit)
	}
	if p.Page != 3 {
		t.Errorf("page = %d, expected 3", p.Page)
	}
	if p.Offset() != 100 {
		t.Errorf("offset = %d, expected 100", p.Offset())
	}
}

// An unknown sort column must fall back to the resource's qualified id so
// joined queries stay unambiguous.
func TestApplyFallsBackToQualifiedID(t *testing.T) {
	db, _ := newMockDB(t)

	p := ListParams{Page: 1, Limit: 10, SortBy: "evil; DROP TABLE", SortOrder: "asc"}
	stmt := p.Apply(db.Session(&gorm.Session{DryRun: true}).Model(&Canal{}), map[string]string{
		"id":   "canals.id",
		"name": "canals.name",
	}).Find(&[]Canal{}).Statement

	if !strings.Contains(stmt.SQL.String(), "ORDER BY canals.id asc") {
		t.Errorf("sql = %q, expected order by canals.id", stmt.SQL.String())
	}
	if strings.Contains(stmt.SQL.String(), "DROP TABLE") {
		t.Errorf("user input leaked into the query: %q", stmt.SQL.String())
	}
}

func TestApplyUsesAllowListedColumn(t *testing.T) {
	db, _ := newMockDB(t)

	p := ListParams{Page: 1, Limit: 10, SortBy: "name", SortOrder: "desc"}
	stmt := p.Apply(db.Session(&gorm.Session{DryRun: true}).Model(&Canal{}), map[string]string{
		"id":   "canals.id",
		"name": "canals.name",
	}).Find(&[]Canal{}).Statement

	if !strings.Contains(stmt.SQL.String(), "ORDER BY canals.name desc") {
		t.Errorf("sql = %q, expected order by canals.name desc", stmt.SQL.String())
	}
}
