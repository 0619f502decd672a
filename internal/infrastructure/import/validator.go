package csvimport

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stockrecon/backend/internal/domain/tabular"
)

// FieldRule describes what a column must contain
type FieldRule struct {
	Column   string
	Required bool
	Decimal  bool
	MinValue *decimal.Decimal
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column}}
}

// Required marks the field as mandatory
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal requires a number, with '.' or ',' as decimal mark
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Decimal = true
	return b
}

// MinValue sets the smallest accepted number
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks rows against a rule set and collects the failures
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a validator keeping at most maxErrors errors
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateRow returns false if any rule failed for row
func (v *FieldValidator) ValidateRow(row *Row) bool {
	valid := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				v.errors.Add(RowError{
					Row:     row.LineNumber,
					Column:  rule.Column,
					Code:    ErrCodeRequiredField,
					Message: fmt.Sprintf("field '%s' is required", rule.Column),
				})
				valid = false
			}
			continue
		}
		if !rule.Decimal {
			continue
		}

		n := tabular.ParseDecimal(value)
		if !n.Valid {
			v.errors.Add(RowError{
				Row:     row.LineNumber,
				Column:  rule.Column,
				Code:    ErrCodeInvalidType,
				Message: "expected a number",
				Value:   value,
			})
			valid = false
			continue
		}
		if rule.MinValue != nil && n.Decimal.LessThan(*rule.MinValue) {
			v.errors.Add(RowError{
				Row:     row.LineNumber,
				Column:  rule.Column,
				Code:    ErrCodeInvalidRange,
				Message: fmt.Sprintf("value must be at least %s", rule.MinValue.String()),
				Value:   value,
			})
			valid = false
		}
	}
	return valid
}

// Errors returns the collected errors
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}
