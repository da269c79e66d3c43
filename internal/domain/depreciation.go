package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationMethod selects how a fixed asset's cost is spread over its life.
type DepreciationMethod string

const (
	DepreciationStraightLine      DepreciationMethod = "STRAIGHT_LINE"
	DepreciationDecliningBalance  DepreciationMethod = "DECLINING_BALANCE"
	DepreciationUnitsOfProduction DepreciationMethod = "UNITS_OF_PRODUCTION"
)

// IsValid checks if the method is known.
func (m DepreciationMethod) IsValid() bool {
	switch m {
	case DepreciationStraightLine, DepreciationDecliningBalance, DepreciationUnitsOfProduction:
		return true
	}
	return false
}

// DefaultDecliningRate is the declining-balance rate used when none is given.
var DefaultDecliningRate = decimal.New(20, -2)

// maxDepreciationPeriods bounds declining-balance schedules, which approach
// the residual value without reaching it.
const maxDepreciationPeriods = 100

// FixedAsset is the input to the depreciation calculators. Periods are years
// from AcquisitionDate.
type FixedAsset struct {
	Name                    string
	AcquisitionDate         time.Time
	Cost                    decimal.Decimal
	ResidualValue           decimal.Decimal
	Method                  DepreciationMethod
	UsefulLifeYears         int
	UsefulLifeUnits         decimal.Decimal
	DecliningRate           decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
}

// Validate checks the fields the asset's method needs.
func (a FixedAsset) Validate() error {
	if err := ValidateAmount(a.Cost); err != nil {
		return err
	}
	if a.ResidualValue.IsNegative() || a.ResidualValue.GreaterThan(a.Cost) {
		return ErrInvalidResidualValue
	}
	if a.AccumulatedDepreciation.IsNegative() {
		return ErrInvalidAmount
	}
	switch a.Method {
	case DepreciationStraightLine:
		if a.UsefulLifeYears < 1 {
			return ErrUsefulLifeRequired
		}
	case DepreciationDecliningBalance:
		if a.DecliningRate.IsNegative() || a.DecliningRate.GreaterThan(decimal.NewFromInt(1)) {
			return ErrInvalidDepreciationRate
		}
	case DepreciationUnitsOfProduction:
		if !a.UsefulLifeUnits.IsPositive() {
			return ErrUsefulLifeRequired
		}
	default:
		return ErrInvalidDepreciationMethod
	}
	return nil
}

// DepreciableAmount is cost less residual value.
func (a FixedAsset) DepreciableAmount() decimal.Decimal {
	return a.Cost.Sub(a.ResidualValue)
}

// CarryingAmount is cost less accumulated depreciation.
func (a FixedAsset) CarryingAmount() decimal.Decimal {
	return a.Cost.Sub(a.AccumulatedDepreciation)
}

// StraightLineDepreciation is the annual charge (cost - residual) / years.
func StraightLineDepreciation(cost, residual decimal.Decimal, years int) decimal.Decimal {
	return cost.Sub(residual).Div(decimal.NewFromInt(int64(years)))
}

// DecliningBalanceDepreciation charges rate on the carrying amount, never
// taking the carrying amount below residual.
func DecliningBalanceDepreciation(cost, accumulated, residual, rate decimal.Decimal) decimal.Decimal {
	carrying := cost.Sub(accumulated)
	charge := carrying.Mul(rate)
	if carrying.Sub(charge).LessThan(residual) {
		return decimal.Max(decimal.Zero, carrying.Sub(residual))
	}
	return charge
}

// UnitsOfProductionDepreciation charges the per-unit rate for the units
// produced in the period.
func UnitsOfProductionDepreciation(cost, residual, totalUnits, periodUnits decimal.Decimal) decimal.Decimal {
	return cost.Sub(residual).Div(totalUnits).Mul(periodUnits)
}

// DepreciationResult is one period's charge and the balances after it.
type DepreciationResult struct {
	Depreciation            decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	CarryingAmount          decimal.Decimal
	FullyDepreciated        bool
}

// Depreciate computes the next period's charge, rounded to cents and capped
// so accumulated depreciation never exceeds the depreciable amount.
// periodUnits is only read for units-of-production.
func (a FixedAsset) Depreciate(periodUnits decimal.Decimal) (DepreciationResult, error) {
	if err := a.Validate(); err != nil {
		return DepreciationResult{}, err
	}

	var charge decimal.Decimal
	switch a.Method {
	case DepreciationStraightLine:
		charge = StraightLineDepreciation(a.Cost, a.ResidualValue, a.UsefulLifeYears)
	case DepreciationDecliningBalance:
		rate := a.DecliningRate
		if rate.IsZero() {
			rate = DefaultDecliningRate
		}
		charge = DecliningBalanceDepreciation(a.Cost, a.AccumulatedDepreciation, a.ResidualValue, rate)
	case DepreciationUnitsOfProduction:
		if !periodUnits.IsPositive() {
			return DepreciationResult{}, ErrUnitsRequired
		}
		charge = UnitsOfProductionDepreciation(a.Cost, a.ResidualValue, a.UsefulLifeUnits, periodUnits)
	}

	return a.apply(Round2(charge)), nil
}

func (a FixedAsset) apply(charge decimal.Decimal) DepreciationResult {
	remaining := decimal.Max(decimal.Zero, a.DepreciableAmount().Sub(a.AccumulatedDepreciation))
	charge = decimal.Min(decimal.Max(charge, decimal.Zero), remaining)
	accumulated := a.AccumulatedDepreciation.Add(charge)
	carrying := a.Cost.Sub(accumulated)
	return DepreciationResult{
		Depreciation:            charge,
		AccumulatedDepreciation: accumulated,
		CarryingAmount:          carrying,
		FullyDepreciated:        carrying.LessThanOrEqual(a.ResidualValue),
	}
}

// DepreciationPeriod is one row of a depreciation schedule.
type DepreciationPeriod struct {
	Period                  int
	PeriodEnd               time.Time
	OpeningCarryingAmount   decimal.Decimal
	Depreciation            decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	ClosingCarryingAmount   decimal.Decimal
}

// DepreciationSchedule projects the asset's charges period by period until it
// is fully depreciated or periods run out. periods <= 0 means the useful life
// for straight-line and a bounded run for declining balance. Units-of-
// production takes one entry of units per period.
//
// The last straight-line year takes whatever rounding left over, so a full
// schedule always depreciates exactly cost - residual.
func DepreciationSchedule(asset FixedAsset, periods int, units []decimal.Decimal) ([]DepreciationPeriod, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	switch {
	case asset.Method == DepreciationUnitsOfProduction:
		if len(units) == 0 {
			return nil, ErrUnitsRequired
		}
		if periods <= 0 || periods > len(units) {
			periods = len(units)
		}
	case periods <= 0 && asset.Method == DepreciationStraightLine:
		periods = asset.UsefulLifeYears
	case periods <= 0:
		periods = maxDepreciationPeriods
	}

	schedule := make([]DepreciationPeriod, 0, periods)
	current := asset
	for i := 1; i <= periods; i++ {
		var periodUnits decimal.Decimal
		if asset.Method == DepreciationUnitsOfProduction {
			periodUnits = units[i-1]
		}

		result, err := current.Depreciate(periodUnits)
		if err != nil {
			return nil, err
		}
		if asset.Method == DepreciationStraightLine && i == asset.UsefulLifeYears {
			result = current.apply(current.DepreciableAmount().Sub(current.AccumulatedDepreciation))
		}
		if result.Depreciation.IsZero() {
			break
		}

		schedule = append(schedule, DepreciationPeriod{
			Period:                  i,
			PeriodEnd:               asset.AcquisitionDate.AddDate(i, 0, -1),
			OpeningCarryingAmount:   current.CarryingAmount(),
			Depreciation:            result.Depreciation,
			AccumulatedDepreciation: result.AccumulatedDepreciation,
			ClosingCarryingAmount:   result.CarryingAmount,
		})

		current.AccumulatedDepreciation = result.AccumulatedDepreciation
		if result.FullyDepreciated {
			break
		}
	}
	return schedule, nil
}

// Impairment is the outcome of comparing carrying and recoverable amounts.
type Impairment struct {
	Impaired            bool
	Loss                decimal.Decimal
	CarryingAmountAfter decimal.Decimal
}

// AssessImpairment writes the asset down to its recoverable amount when that
// is lower than the carrying amount.
func AssessImpairment(carrying, recoverable decimal.Decimal) Impairment {
	if carrying.GreaterThan(recoverable) {
		return Impairment{
			Impaired:            true,
			Loss:                Round2(carrying.Sub(recoverable)),
			CarryingAmountAfter: recoverable,
		}
	}
	return Impairment{Loss: decimal.Zero, CarryingAmountAfter: carrying}
}

// DepreciationLines books a charge: Dr depreciation expense, Cr accumulated
// depreciation.
func DepreciationLines(expenseID, accumulatedID, assetName string, amount decimal.Decimal) ([]JournalLine, error) {
	if expenseID == "" || accumulatedID == "" {
		return nil, ErrPostingAccountMissing
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	return []JournalLine{
		{AccountID: expenseID, Debit: amount, Credit: decimal.Zero, Description: "Depreciation expense: " + assetName},
		{AccountID: accumulatedID, Debit: decimal.Zero, Credit: amount, Description: "Accumulated depreciation: " + assetName},
	}, nil
}
