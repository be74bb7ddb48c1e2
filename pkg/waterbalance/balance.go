// Package waterbalance computes the seasonal water budget of one irrigation
// system from its crop plan: net and gross needs, monthly projections and the
// sufficiency of the current reservoir stock.
//
// Units follow the planning sheets: areas in decares, crop coefficients in
// mm/month, plan volumes in m3 and aggregate needs in hm3.
package waterbalance

import "math"

// CropUsage is one crop line of a yearly plan, flattened for computation.
type CropUsage struct {
	CropName     string
	Area         float64
	SowingRatio  float64
	Coefficients [12]float64
	WaterVolume  float64
}

// CoefficientSum is the line's annual coefficient.
func (c CropUsage) CoefficientSum() float64 {
	var sum float64
	for _, v := range c.Coefficients {
		sum += v
	}
	return sum
}

// TotalArea sums the planted area across all lines, in decares. The sowing
// ratio is descriptive and does not scale the area.
func TotalArea(crops []CropUsage) float64 {
	var total float64
	for _, c := range crops {
		total += c.Area
	}
	return total
}

// TotalConsumption sums the observed water volumes across all lines, in m3.
func TotalConsumption(crops []CropUsage) float64 {
	var total float64
	for _, c := range crops {
		total += c.WaterVolume
	}
	return total
}

// TotalEfficiency combines farm and conveyance efficiency percentages into
// one percentage.
func TotalEfficiency(farmPct, conveyancePct float64) float64 {
	return farmPct * conveyancePct / 100
}

// NetWaterNeed converts a consumption volume in m3 to hm3.
func NetWaterNeed(volumeM3 float64) float64 {
	return volumeM3 / 1000
}

// UnitConsumption is the observed water use per decare, zero when nothing
// is planted.
func UnitConsumption(crops []CropUsage) float64 {
	area := TotalArea(crops)
	if area == 0 {
		return 0
	}
	return TotalConsumption(crops) / area
}

// CropNetNeed is one line's theoretical net need in hm3, from its area and
// annual coefficient.
func CropNetNeed(c CropUsage) float64 {
	return c.Area * c.CoefficientSum() / 100000
}

// MonthlyProjection spreads a line's need over the year in m3 per month. When
// the line has no coefficients the observed volume is split evenly.
func MonthlyProjection(c CropUsage) [12]float64 {
	var out [12]float64
	if c.CoefficientSum() == 0 {
		for i := range out {
			out[i] = c.WaterVolume / 12
		}
		return out
	}
	for i, coef := range c.Coefficients {
		out[i] = c.Area * coef / 100000 * 1e6
	}
	return out
}

// FarmNeed grosses a net need up by the farm efficiency percentage.
func FarmNeed(net, farmPct float64) float64 {
	if farmPct == 0 {
		return 0
	}
	return net / (farmPct / 100)
}

// GrossNeed grosses a farm need up by the conveyance efficiency percentage.
func GrossNeed(farm, conveyancePct float64) float64 {
	if conveyancePct == 0 {
		return 0
	}
	return farm / (conveyancePct / 100)
}

// Sufficiency statuses.
const (
	StatusSufficient   = "Sufficient"
	StatusInsufficient = "Insufficient"
)

// Sufficiency compares the current reservoir stock against the need projected
// for the months after the current one. The ratio is the stock as a
// percentage of that remaining need; when nothing remains the stock is
// sufficient by definition and the ratio reads 100.
func Sufficiency(stockM3 float64, monthly [12]float64, currentMonth int) (status string, ratio float64) {
	if currentMonth < 1 {
		currentMonth = 1
	}
	if currentMonth > 12 {
		currentMonth = 12
	}

	var remaining float64
	for i := currentMonth; i < 12; i++ {
		remaining += monthly[i]
	}
	if remaining == 0 {
		return StatusSufficient, 100
	}

	ratio = math.Round(stockM3/remaining*100*100) / 100
	if stockM3 >= remaining {
		return StatusSufficient, ratio
	}
	return StatusInsufficient, ratio
}
