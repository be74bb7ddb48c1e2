package utils

import (
	"math"
	"testing"
)

func findEntry(entries []LevelEntry, elevation float64) (LevelEntry, bool) {
	for _, e := range entries {
		if math.Abs(e.Elevation-elevation) < 1e-9 {
			return e, true
		}
	}
	return LevelEntry{}, false
}

func TestParseAbacusSheetBaseRows(t *testing.T) {
	rows := [][]string{
		{"Yedikır Barajı"},
		{"", "", "0,01", "0,02"},
		{"861,00", "12,5", "12,6", "12,7"},
	}

	entries := ParseAbacusSheet(rows)

	e, ok := findEntry(entries, 861.00)
	if !ok {
		t.Fatal("missing base elevation 861.00")
	}
	if e.Volume != 12500 {
		t.Errorf("volume = %v, expected 12500", e.Volume)
	}

	if e, ok = findEntry(entries, 861.01); !ok || e.Volume != 12600 {
		t.Errorf("861.01 = %+v, ok=%v, expected volume 12600", e, ok)
	}
	if e, ok = findEntry(entries, 861.02); !ok || e.Volume != 12700 {
		t.Errorf("861.02 = %+v, ok=%v, expected volume 12700", e, ok)
	}
}

func TestParseAbacusSheetIntermediateRows(t *testing.T) {
	rows := [][]string{
		{""},
		{"", "", "0,01"},
		{"861,00", "12,5", "12,6"},
		{"10", "13,0", "13,1"},
		{"20", "13,5", ""},
	}

	entries := ParseAbacusSheet(rows)

	// Intermediate cell 10 reads as 0.10 above the base.
	if e, ok := findEntry(entries, 861.10); !ok || e.Volume != 13000 {
		t.Errorf("861.10 = %+v, ok=%v, expected volume 13000", e, ok)
	}
	if e, ok := findEntry(entries, 861.11); !ok || e.Volume != 13100 {
		t.Errorf("861.11 = %+v, ok=%v, expected volume 13100", e, ok)
	}
	if e, ok := findEntry(entries, 861.20); !ok || e.Volume != 13500 {
		t.Errorf("861.20 = %+v, ok=%v, expected volume 13500", e, ok)
	}
	// Blank volume cell yields no entry.
	if _, ok := findEntry(entries, 861.21); ok {
		t.Error("861.21 should be absent for a blank cell")
	}
}

func TestParseAbacusSheetSurveyNotation(t *testing.T) {
	rows := [][]string{
		{""},
		{"", ""},
		{"+862,00", "40"},
	}

	entries := ParseAbacusSheet(rows)
	if e, ok := findEntry(entries, 862.00); !ok || e.Volume != 40000 {
		t.Errorf("survey-notation base = %+v, ok=%v, expected volume 40000", e, ok)
	}
}

func TestParseAbacusSheetSkipsJunkRows(t *testing.T) {
	rows := [][]string{
		{"header"},
		{"", ""},
		{"not-a-number", "1"},
		{"863,00", "5"},
	}

	entries := ParseAbacusSheet(rows)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, expected 1", len(entries))
	}
	if entries[0].Elevation != 863.00 || entries[0].Volume != 5000 {
		t.Errorf("entry = %+v", entries[0])
	}
}
