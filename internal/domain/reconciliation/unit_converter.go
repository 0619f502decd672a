package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/shared"
)

// ConversionError reports why a sold quantity could not be expressed in the
// ledger unit.
type ConversionError struct {
	Reason        string
	UnitAdmin     string
	UnitBranch    string
	AverageWeight decimal.NullDecimal
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	switch e.Reason {
	case shared.CodeInvalidWeightFactor:
		w := "missing"
		if e.AverageWeight.Valid {
			w = e.AverageWeight.Decimal.String()
		}
		return fmt.Sprintf("average weight is %s, cannot convert %s to %s", w, e.UnitBranch, e.UnitAdmin)
	default:
		return fmt.Sprintf("unsupported unit conversion (%s -> %s)", e.UnitAdmin, e.UnitBranch)
	}
}

// Code returns the error reason code
func (e *ConversionError) Code() string {
	return e.Reason
}

// UnitConverter expresses quantities sold at the branch in the ledger unit.
//
// Supported cases:
//   - same unit on both sides: quantity passes through unchanged
//   - ledger counts pieces, branch sells by weight: quantity / average weight
//
// Everything else is an UNSUPPORTED_CONVERSION.
type UnitConverter struct {
	catalog *UnitCatalog
}

// NewUnitConverter creates a converter. A nil catalog uses the default tags.
func NewUnitConverter(catalog *UnitCatalog) *UnitConverter {
	if catalog == nil {
		catalog = DefaultUnitCatalog()
	}
	return &UnitConverter{catalog: catalog}
}

// Convert returns quantity, given in unitBranch, expressed in unitAdmin
func (c *UnitConverter) Convert(
	unitAdmin, unitBranch string,
	quantity decimal.Decimal,
	averageWeight decimal.NullDecimal,
) (decimal.Decimal, error) {
	if c.catalog.Same(unitAdmin, unitBranch) {
		return quantity, nil
	}

	if c.catalog.Classify(unitAdmin) == UnitCount && c.catalog.Classify(unitBranch) == UnitWeight {
		if !averageWeight.Valid || !averageWeight.Decimal.IsPositive() {
			return decimal.Zero, &ConversionError{
				Reason:        shared.CodeInvalidWeightFactor,
				UnitAdmin:     unitAdmin,
				UnitBranch:    unitBranch,
				AverageWeight: averageWeight,
			}
		}
		return quantity.Div(averageWeight.Decimal), nil
	}

	return decimal.Zero, &ConversionError{
		Reason:        shared.CodeUnsupportedConvert,
		UnitAdmin:     unitAdmin,
		UnitBranch:    unitBranch,
		AverageWeight: averageWeight,
	}
}
