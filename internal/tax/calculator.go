// Package tax holds the pure per-year tax formulas. The calculators never
// touch persistence: repositories resolve the rate/valuation/wage inputs and
// surface the package's sentinel errors when a required input is absent; a
// missing rate is never interpreted as "tax-free".
package tax

import (
	"errors"
	"math"
)

// Calculation input errors.
var (
	ErrMissingRate      = errors.New("no tax rate defined for this property type and year")
	ErrMissingWage      = errors.New("no minimum salary defined for this year")
	ErrMissingValuation = errors.New("no normative monetary value defined for this parcel and year")
)

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Land computes the yearly land tax:
//
//	tax = round(normativeValue × ratePercent/100 × area, 2)
//
// A privileged parcel is taxed at zero regardless of inputs.
func Land(normativeValue, ratePercent, area float64, privileged bool) float64 {
	if privileged {
		return 0
	}
	return Round2(normativeValue * (ratePercent / 100) * area)
}

// RealEstate computes the yearly real-estate tax over the taxable area,
// which is the unit's area minus the type's exemption limit, floored at zero:
//
//	tax = round(minimumSalary × ratePercent/100 × max(0, area − areaLimit), 2)
func RealEstate(minimumSalary, ratePercent, area, areaLimit float64) float64 {
	taxableArea := math.Max(0, area-areaLimit)
	return Round2(minimumSalary * (ratePercent / 100) * taxableArea)
}

// Paid derives the stored paid flag: a tax of exactly zero is trivially
// paid, otherwise the caller-supplied flag stands.
func Paid(callerPaid bool, tax float64) bool {
	return callerPaid || tax == 0
}
