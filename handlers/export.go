package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gsp-water/backend/pkg/waterbalance"
)

type exportFormData struct {
	SystemName           string  `json:"systemName"`
	Year                 int     `json:"year"`
	FarmEfficiency       float64 `json:"farmEfficiency"`
	ConveyanceEfficiency float64 `json:"conveyanceEfficiency"`
}

type exportTableRow struct {
	Crop         string      `json:"crop"`
	Area         float64     `json:"area"`
	SowingRatio  float64     `json:"sowingRatio"`
	Coefficients [12]float64 `json:"coefficients"`
	WaterVolume  float64     `json:"waterVolume"`
}

type exportPlanReq struct {
	FormData  exportFormData   `json:"formData"`
	TableData []exportTableRow `json:"tableData"`
}

// ExportPlan renders a consumption plan as a spreadsheet in the layout the
// planning office files: a title row, one row per crop with its monthly
// coefficients, then the need totals.
func ExportPlan(w http.ResponseWriter, r *http.Request) {
	var req exportPlanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.TableData) == 0 {
		http.Error(w, "tableData is empty", http.StatusBadRequest)
		return
	}

	excelFile, err := createPlanFile(&req)
	if err != nil {
		http.Error(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	buffer, err := excelFile.WriteToBuffer()
	if err != nil {
		http.Error(w, "Failed to write Excel file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_%d_%s.xlsx",
		sanitizeFilename(req.FormData.SystemName), req.FormData.Year,
		time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// createPlanFile generates the plan workbook.
func createPlanFile(req *exportPlanReq) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Plan"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})

	title := fmt.Sprintf("%s Water Consumption Plan %d", req.FormData.SystemName, req.FormData.Year)
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.MergeCell(sheetName, "A1", "Q1")

	headers := []string{"Crop", "Area (da)", "Sowing %"}
	headers = append(headers, monthNames[:]...)
	headers = append(headers, "Coef. Total", "Volume (m3)")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	usages := make([]waterbalance.CropUsage, 0, len(req.TableData))
	row := 4
	for _, line := range req.TableData {
		ratio := line.SowingRatio
		if ratio == 0 {
			ratio = 100
		}
		u := waterbalance.CropUsage{
			CropName:     line.Crop,
			Area:         line.Area,
			SowingRatio:  ratio,
			Coefficients: line.Coefficients,
			WaterVolume:  line.WaterVolume,
		}
		usages = append(usages, u)

		values := []interface{}{line.Crop, line.Area, ratio}
		for _, coef := range line.Coefficients {
			values = append(values, coef)
		}
		values = append(values, u.CoefficientSum(), line.WaterVolume)

		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	net := waterbalance.NetWaterNeed(waterbalance.TotalConsumption(usages))
	farm := waterbalance.FarmNeed(net, req.FormData.FarmEfficiency)
	gross := waterbalance.GrossNeed(farm, req.FormData.ConveyanceEfficiency)

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Total Area (da)", waterbalance.TotalArea(usages)},
		{"NET Water Need (hm3)", net},
		{"FARM Water Need (hm3)", farm},
		{"GROSS Water Need (hm3)", gross},
	}
	for _, t := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheetName, labelCell, t.label)
		f.SetCellStyle(sheetName, labelCell, labelCell, headerStyle)
		f.SetCellValue(sheetName, valueCell, t.value)
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 24)
	return f, nil
}

// sanitizeFilename strips characters that break Content-Disposition
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_", "/", "-", "\\", "-", ":", "-", "*", "", "?", "",
		"\"", "", "<", "", ">", "", "|", "",
	)
	out := replacer.Replace(name)
	if out == "" {
		out = "plan"
	}
	return out
}
