package waterbalance

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTotals(t *testing.T) {
	crops := []CropUsage{
		{CropName: "Wheat", Area: 1000, SowingRatio: 100, WaterVolume: 250000},
		{CropName: "Maize", Area: 500, SowingRatio: 80, WaterVolume: 180000},
	}

	// The sowing ratio never scales the area totals.
	if got := TotalArea(crops); !almostEqual(got, 1500) {
		t.Errorf("TotalArea = %v, expected 1500", got)
	}
	if got := TotalConsumption(crops); !almostEqual(got, 430000) {
		t.Errorf("TotalConsumption = %v, expected 430000", got)
	}
	if got := UnitConsumption(crops); !almostEqual(got, 430000.0/1500) {
		t.Errorf("UnitConsumption = %v", got)
	}
}

func TestUnitConsumptionEmptyPlan(t *testing.T) {
	if got := UnitConsumption(nil); got != 0 {
		t.Errorf("UnitConsumption(nil) = %v, expected 0", got)
	}
}

func TestTotalEfficiency(t *testing.T) {
	if got := TotalEfficiency(80, 85); !almostEqual(got, 68) {
		t.Errorf("TotalEfficiency(80, 85) = %v, expected 68", got)
	}
	if got := TotalEfficiency(100, 100); !almostEqual(got, 100) {
		t.Errorf("TotalEfficiency(100, 100) = %v, expected 100", got)
	}
}

func TestNetWaterNeed(t *testing.T) {
	if got := NetWaterNeed(430000); !almostEqual(got, 430) {
		t.Errorf("NetWaterNeed = %v, expected 430", got)
	}
}

func TestCropNetNeed(t *testing.T) {
	c := CropUsage{
		Area:        1000,
		SowingRatio: 100,
		Coefficients: [12]float64{
			0, 0, 0, 30, 60, 120, 150, 130, 50, 0, 0, 0,
		},
	}
	// 1000 da * 540 mm / 100000 = 5.4 hm3
	if got := CropNetNeed(c); !almostEqual(got, 5.4) {
		t.Errorf("CropNetNeed = %v, expected 5.4", got)
	}
}

func TestCropNetNeedIgnoresSowingRatio(t *testing.T) {
	c := CropUsage{
		Area:         10,
		SowingRatio:  50,
		Coefficients: [12]float64{0, 0, 0, 0, 0, 25, 25, 0, 0, 0, 0, 0},
	}
	// 10 da * 50 mm / 100000 = 0.005 hm3, regardless of the ratio
	if got := CropNetNeed(c); !almostEqual(got, 0.005) {
		t.Errorf("CropNetNeed = %v, expected 0.005", got)
	}
}

func TestMonthlyProjectionFromCoefficients(t *testing.T) {
	c := CropUsage{
		Area:         200,
		SowingRatio:  60,
		Coefficients: [12]float64{0, 0, 0, 0, 50, 100, 0, 0, 0, 0, 0, 0},
	}
	monthly := MonthlyProjection(c)

	// May: 200 * 50 / 100000 * 1e6 = 100000 m3
	if !almostEqual(monthly[4], 100000) {
		t.Errorf("May = %v, expected 100000", monthly[4])
	}
	if !almostEqual(monthly[5], 200000) {
		t.Errorf("June = %v, expected 200000", monthly[5])
	}
	if monthly[0] != 0 || monthly[11] != 0 {
		t.Errorf("off-season months must be zero: %v", monthly)
	}
}

func TestMonthlyProjectionFallsBackToEvenSplit(t *testing.T) {
	c := CropUsage{Area: 100, SowingRatio: 100, WaterVolume: 120000}
	monthly := MonthlyProjection(c)

	for i, v := range monthly {
		if !almostEqual(v, 10000) {
			t.Errorf("month %d = %v, expected 10000", i+1, v)
		}
	}
}

func TestFarmAndGrossNeed(t *testing.T) {
	net := 68.0
	farm := FarmNeed(net, 80)
	if !almostEqual(farm, 85) {
		t.Errorf("FarmNeed = %v, expected 85", farm)
	}
	gross := GrossNeed(farm, 85)
	if !almostEqual(gross, 100) {
		t.Errorf("GrossNeed = %v, expected 100", gross)
	}
}

func TestFarmNeedZeroEfficiency(t *testing.T) {
	if got := FarmNeed(10, 0); got != 0 {
		t.Errorf("FarmNeed with zero efficiency = %v, expected 0", got)
	}
}

func TestSufficiency(t *testing.T) {
	monthly := [12]float64{0, 0, 0, 0, 100000, 200000, 300000, 200000, 100000, 0, 0, 0}

	// Only the months after the current one count as remaining need.
	tests := []struct {
		name   string
		stock  float64
		month  int
		status string
		ratio  float64
	}{
		{"full season ahead", 900000, 1, StatusSufficient, 100},
		{"midseason short", 300000, 6, StatusInsufficient, 50},
		{"current month excluded", 150000, 8, StatusSufficient, 150},
		{"late season covered", 400000, 8, StatusSufficient, 400},
		{"nothing remaining", 0, 11, StatusSufficient, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ratio := Sufficiency(tt.stock, monthly, tt.month)
			if status != tt.status {
				t.Errorf("status = %s, expected %s", status, tt.status)
			}
			if !almostEqual(ratio, tt.ratio) {
				t.Errorf("ratio = %v, expected %v", ratio, tt.ratio)
			}
		})
	}
}
