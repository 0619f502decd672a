package reconciliation

import (
	"fmt"
	"strings"

	"github.com/stockrecon/backend/internal/domain/shared"
)

// UnitClass groups unit tags that measure the same thing
type UnitClass int

const (
	UnitUnknown UnitClass = iota
	UnitCount
	UnitWeight
)

// String returns the class name
func (c UnitClass) String() string {
	switch c {
	case UnitCount:
		return "count"
	case UnitWeight:
		return "weight"
	default:
		return "unknown"
	}
}

// Default unit tags as they appear in the ledger
var (
	DefaultCountUnits  = []string{"Unidad", "Unidades", "Un", "U"}
	DefaultWeightUnits = []string{"Kilos", "Kilo", "Kg"}
)

// UnitCatalog knows which unit tags mean "discrete count" and which mean "weight".
// Tags are matched case-insensitively after trimming.
//
// Each class holds spellings of exactly one unit: the weight list is the
// spellings of kilograms, not every mass unit. Two tags of the same class
// convert one to one, so listing "Gramos" next to "Kilos" would be wrong.
type UnitCatalog struct {
	classes map[string]UnitClass
}

// NewUnitCatalog builds a catalog from alias lists. A tag listed in both classes
// is rejected.
func NewUnitCatalog(countUnits, weightUnits []string) (*UnitCatalog, error) {
	c := &UnitCatalog{classes: make(map[string]UnitClass)}
	for _, u := range countUnits {
		if err := c.add(u, UnitCount); err != nil {
			return nil, err
		}
	}
	for _, u := range weightUnits {
		if err := c.add(u, UnitWeight); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultUnitCatalog returns the catalog for the default tags
func DefaultUnitCatalog() *UnitCatalog {
	c, _ := NewUnitCatalog(DefaultCountUnits, DefaultWeightUnits)
	return c
}

func (c *UnitCatalog) add(tag string, class UnitClass) error {
	key := normalizeUnit(tag)
	if key == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "unit tag cannot be empty")
	}
	if existing, ok := c.classes[key]; ok && existing != class {
		return shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("unit tag '%s' is listed as both %s and %s", tag, existing, class))
	}
	c.classes[key] = class
	return nil
}

// Classify returns the class of a unit tag
func (c *UnitCatalog) Classify(tag string) UnitClass {
	if c == nil {
		return UnitUnknown
	}
	return c.classes[normalizeUnit(tag)]
}

// Same reports whether two tags are spellings of the same unit. Unknown tags
// are only the same when spelled identically.
func (c *UnitCatalog) Same(a, b string) bool {
	if a == b {
		return true
	}
	ca := c.Classify(a)
	return ca != UnitUnknown && ca == c.Classify(b)
}

func normalizeUnit(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
