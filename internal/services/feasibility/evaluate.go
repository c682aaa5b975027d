package feasibility

import (
	"github.com/shopspring/decimal"
	"github.com/stratplan/stratplan/internal/models"
)

// ResourceVerdict is the satisfiability of one resource requirement.
type ResourceVerdict struct {
	Required    decimal.Decimal
	Available   decimal.Decimal
	Satisfiable bool

	// Deficit is present exactly when Satisfiable is false, and is then
	// strictly positive.
	Deficit decimal.NullDecimal
}

// EvaluateResource compares required against available. The comparison is
// non-strict: available == required is satisfiable.
func EvaluateResource(required, available decimal.Decimal) ResourceVerdict {
	v := ResourceVerdict{
		Required:    required,
		Available:   available,
		Satisfiable: available.GreaterThanOrEqual(required),
	}
	if !v.Satisfiable {
		v.Deficit = decimal.NewNullDecimal(required.Sub(available))
	}
	return v
}

// RollupProduct is the AND of the resource verdicts; true for none.
func RollupProduct(verdicts []ResourceVerdict) bool {
	for _, v := range verdicts {
		if !v.Satisfiable {
			return false
		}
	}
	return true
}

// RollupStrategy folds product verdicts into the tri-state result. "All" is
// checked before "none", so an empty list is satisfiable.
func RollupStrategy(products []bool) models.CalculationResult {
	satisfied := 0
	for _, ok := range products {
		if ok {
			satisfied++
		}
	}

	switch {
	case satisfied == len(products):
		return models.CalculationResultSatisfiable
	case satisfied == 0:
		return models.CalculationResultUnsatisfiable
	default:
		return models.CalculationResultPartial
	}
}
