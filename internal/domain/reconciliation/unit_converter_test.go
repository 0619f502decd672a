package reconciliation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func weight(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func TestUnitConverter_Identity(t *testing.T) {
	c := NewUnitConverter(nil)
	quantities := []string{"0", "1", "12", "2.345678", "-4", "1000000.0001"}
	units := []string{"Unidad", "Kilos", "Caja", ""}

	for _, u := range units {
		for _, q := range quantities {
			got, err := c.Convert(u, u, dec(q), decimal.NullDecimal{})

			require.NoError(t, err, "unit %q quantity %s", u, q)
			assert.True(t, dec(q).Equal(got), "unit %q quantity %s got %s", u, q, got)
		}
	}
}

func TestUnitConverter_AliasesOfSameClassAreIdentity(t *testing.T) {
	c := NewUnitConverter(nil)

	got, err := c.Convert("Kilo", "kilos", dec("3.5"), decimal.NullDecimal{})

	require.NoError(t, err)
	assert.True(t, dec("3.5").Equal(got))
}

func TestUnitConverter_CountFromWeight(t *testing.T) {
	c := NewUnitConverter(nil)

	t.Run("divides by average weight", func(t *testing.T) {
		got, err := c.Convert("Unidad", "Kilos", dec("2.0"), weight("0.4"))

		require.NoError(t, err)
		assert.True(t, dec("5").Equal(got), "got %s", got)
	})

	t.Run("accepts configured weight spelling", func(t *testing.T) {
		got, err := c.Convert("Unidad", "Kilo", dec("3"), weight("1.5"))

		require.NoError(t, err)
		assert.True(t, dec("2").Equal(got), "got %s", got)
	})

	invalid := map[string]decimal.NullDecimal{
		"missing":  {},
		"zero":     weight("0"),
		"negative": weight("-0.4"),
	}
	for name, w := range invalid {
		t.Run("fails with "+name+" weight", func(t *testing.T) {
			_, err := c.Convert("Unidad", "Kilos", dec("2"), w)

			require.Error(t, err)
			var convErr *ConversionError
			require.True(t, errors.As(err, &convErr))
			assert.Equal(t, shared.CodeInvalidWeightFactor, convErr.Code())
		})
	}
}

func TestUnitConverter_UnsupportedPairs(t *testing.T) {
	c := NewUnitConverter(nil)
	pairs := [][2]string{
		{"Kilos", "Unidad"},
		{"Unidad", "Caja"},
		{"Caja", "Kilos"},
		{"Litros", "Kilos"},
		{"Kilos", "Gramos"},
	}

	for _, p := range pairs {
		t.Run(p[0]+"->"+p[1], func(t *testing.T) {
			_, err := c.Convert(p[0], p[1], dec("1"), weight("0.5"))

			require.Error(t, err)
			var convErr *ConversionError
			require.True(t, errors.As(err, &convErr))
			assert.Equal(t, shared.CodeUnsupportedConvert, convErr.Code())
			assert.Contains(t, err.Error(), p[0])
			assert.Contains(t, err.Error(), p[1])
		})
	}
}

func TestNewUnitCatalog(t *testing.T) {
	t.Run("custom aliases", func(t *testing.T) {
		catalog, err := NewUnitCatalog([]string{"pieza"}, []string{"kg"})
		require.NoError(t, err)

		assert.Equal(t, UnitCount, catalog.Classify(" Pieza "))
		assert.Equal(t, UnitWeight, catalog.Classify("KG"))
		assert.Equal(t, UnitUnknown, catalog.Classify("Unidad"))
	})

	t.Run("rejects tag in both classes", func(t *testing.T) {
		_, err := NewUnitCatalog([]string{"U"}, []string{"u"})

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
