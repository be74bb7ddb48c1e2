package models

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ListParams are the common query parameters of every list endpoint.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ParseListParams reads paging and sorting from the request query, applying
// defaults for anything absent.
func ParseListParams(r *http.Request) ListParams {
	q := r.URL.Query()

	p := ListParams{Page: 1, Limit: 50, SortBy: "id", SortOrder: "asc"}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		p.Limit = v
	}
	if v := q.Get("sort_by"); v != "" {
		p.SortBy = v
	}
	if v := strings.ToLower(q.Get("sort_order")); v == "asc" || v == "desc" {
		p.SortOrder = v
	}
	return p
}

// Offset is the row offset implied by the page and limit.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Apply adds ordering and paging to a query. The sort column is checked
// against the caller's allow-list so user input never reaches the ORDER BY
// clause directly; unknown columns fall back to the resource's id column,
// which must stay unambiguous in joined queries.
func (p ListParams) Apply(query *gorm.DB, sortable map[string]string) *gorm.DB {
	column, ok := sortable[p.SortBy]
	if !ok {
		column, ok = sortable["id"]
		if !ok {
			column = "id"
		}
	}
	query = query.Order(fmt.Sprintf("%s %s", column, p.SortOrder))
	return query.Offset(p.Offset()).Limit(p.Limit)
}
