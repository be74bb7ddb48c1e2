package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/gsp-water/backend/models"
)

// LevelEntry is one parsed (elevation, volume) pair from an abacus workbook.
type LevelEntry struct {
	Elevation float64
	Volume    float64
}

// ImportSummary reports what an abacus import did.
type ImportSummary struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// parseCell normalizes a spreadsheet number: decimal commas become dots and a
// leading survey "+" is dropped.
func parseCell(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, errors.New("empty cell")
	}
	return strconv.ParseFloat(s, 64)
}

func cell(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// ParseAbacusSheet reads one reservoir's elevation-volume grid.
//
// The layout comes from the survey office: the second row carries elevation
// offsets from the third column on, with an implicit 0.00 offset for the
// second column. Below it, blocks of ten rows follow: a base row whose first
// cell is the whole elevation, then intermediate rows whose first cell is a
// centimeter count. Each volume cell pairs the row elevation plus the column
// offset, in thousands of m3. Unparseable cells are skipped, as in the
// source sheets.
func ParseAbacusSheet(rows [][]string) []LevelEntry {
	const offsetRow = 1

	offsets := []*float64{new(float64)} // implicit 0.00 for column two
	if offsetRow < len(rows) {
		for c := 2; c < len(rows[offsetRow]); c++ {
			v, err := parseCell(cell(rows, offsetRow, c))
			if err != nil {
				offsets = append(offsets, nil)
				continue
			}
			offsets = append(offsets, &v)
		}
	}

	var entries []LevelEntry
	appendEntry := func(elevation, volume float64) {
		entries = append(entries, LevelEntry{
			Elevation: models.Round2(elevation),
			Volume:    models.Round2(volume * 1000),
		})
	}

	r := offsetRow + 1
	for r < len(rows) {
		base, err := parseCell(cell(rows, r, 0))
		if err != nil {
			r++
			continue
		}
		base = models.Round2(base)

		for idx, offset := range offsets {
			if offset == nil {
				continue
			}
			volume, err := parseCell(cell(rows, r, idx+1))
			if err != nil {
				continue
			}
			appendEntry(base+*offset, volume)
		}

		// Intermediate rows: first cell holds centimeters above the base.
		for rr := r + 1; rr < r+10 && rr < len(rows); rr++ {
			raw, err := parseCell(cell(rows, rr, 0))
			if err != nil {
				continue
			}
			sub := float64(int(raw)) / 100

			for idx, offset := range offsets {
				if offset == nil {
					continue
				}
				volume, err := parseCell(cell(rows, rr, idx+1))
				if err != nil {
					continue
				}
				appendEntry(base+sub+*offset, volume)
			}
		}
		r += 10
	}
	return entries
}

// ImportReservoirLevels loads every sheet of an abacus workbook. Each sheet
// name must match a reservoir name; rows already present are counted as
// skipped rather than failing the import.
func ImportReservoirLevels(db *gorm.DB, f *excelize.File) (ImportSummary, error) {
	var summary ImportSummary

	for _, sheet := range f.GetSheetList() {
		var reservoir models.Reservoir
		if err := db.Where("name = ?", sheet).First(&reservoir).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				summary.Errors = append(summary.Errors, fmt.Sprintf("no reservoir named %q", sheet))
				continue
			}
			return summary, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return summary, err
		}

		for _, entry := range ParseAbacusSheet(rows) {
			level := models.ReservoirLevel{
				ReservoirID: reservoir.ID,
				Elevation:   entry.Elevation,
				Volume:      entry.Volume,
			}
			err := db.Create(&level).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				summary.Skipped++
				continue
			}
			if err != nil {
				return summary, err
			}
			summary.Created++
		}
	}
	return summary, nil
}
