package reconciliation

import (
	"fmt"
	"strings"

	"github.com/stockrecon/backend/internal/domain/shared"
)

// UnmappedProductsError rejects a whole batch because some sale labels have no mapping
type UnmappedProductsError struct {
	Labels []string
}

// Error implements the error interface
func (e *UnmappedProductsError) Error() string {
	quoted := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		quoted[i] = "'" + l + "'"
	}
	return fmt.Sprintf("%d sale product(s) have no entry in the product mapping: %s",
		len(e.Labels), strings.Join(quoted, ", "))
}

// Code returns the error code
func (e *UnmappedProductsError) Code() string {
	return shared.CodeUnmappedProducts
}

// ProductMapper resolves sale labels to admin codes by exact, case-sensitive match
type ProductMapper struct {
	codes     map[string]int64
	conflicts map[string][]int64
}

// NewProductMapper indexes the mapping table. Identical duplicate rows collapse.
// A label mapped to two different codes is kept as a conflict and only fails
// a batch that sells it.
func NewProductMapper(mappings []ProductMapping) *ProductMapper {
	m := &ProductMapper{
		codes:     make(map[string]int64, len(mappings)),
		conflicts: make(map[string][]int64),
	}
	for _, pm := range mappings {
		if codes, ok := m.conflicts[pm.SaleLabel]; ok {
			if !containsCode(codes, pm.AdminCode) {
				m.conflicts[pm.SaleLabel] = append(codes, pm.AdminCode)
			}
			continue
		}
		existing, ok := m.codes[pm.SaleLabel]
		if ok && existing != pm.AdminCode {
			m.conflicts[pm.SaleLabel] = []int64{existing, pm.AdminCode}
			delete(m.codes, pm.SaleLabel)
			continue
		}
		m.codes[pm.SaleLabel] = pm.AdminCode
	}
	return m
}

func containsCode(codes []int64, code int64) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// Resolve returns the admin code for a sale label. A label with conflicting
// mappings does not resolve.
func (m *ProductMapper) Resolve(label string) (int64, bool) {
	code, ok := m.codes[label]
	return code, ok
}

// Unmapped returns the distinct labels without any mapping, in order of first appearance
func (m *ProductMapper) Unmapped(sales []SaleLine) []string {
	return m.distinct(sales, func(label string) bool {
		_, mapped := m.codes[label]
		_, conflict := m.conflicts[label]
		return !mapped && !conflict
	})
}

// Ambiguous returns the distinct sold labels mapped to more than one admin
// code, in order of first appearance
func (m *ProductMapper) Ambiguous(sales []SaleLine) []string {
	return m.distinct(sales, func(label string) bool {
		_, conflict := m.conflicts[label]
		return conflict
	})
}

func (m *ProductMapper) distinct(sales []SaleLine, keep func(string) bool) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, s := range sales {
		if _, dup := seen[s.ProductLabel]; dup {
			continue
		}
		seen[s.ProductLabel] = struct{}{}
		if keep(s.ProductLabel) {
			labels = append(labels, s.ProductLabel)
		}
	}
	return labels
}

// ResolveAll maps every sale line. It fails with the full list of unmapped
// labels, or else with the sold labels whose mapping is ambiguous.
func (m *ProductMapper) ResolveAll(sales []SaleLine) ([]ResolvedSale, error) {
	if unmapped := m.Unmapped(sales); len(unmapped) > 0 {
		return nil, &UnmappedProductsError{Labels: unmapped}
	}
	if ambiguous := m.Ambiguous(sales); len(ambiguous) > 0 {
		details := make([]string, len(ambiguous))
		for i, label := range ambiguous {
			codes := make([]string, len(m.conflicts[label]))
			for j, c := range m.conflicts[label] {
				codes[j] = fmt.Sprint(c)
			}
			details[i] = fmt.Sprintf("'%s' (admin codes %s)", label, strings.Join(codes, ", "))
		}
		return nil, shared.NewDomainError(shared.CodeAmbiguousMapping,
			fmt.Sprintf("sale product(s) mapped to more than one admin code: %s", strings.Join(details, "; ")))
	}

	resolved := make([]ResolvedSale, 0, len(sales))
	for _, s := range sales {
		resolved = append(resolved, ResolvedSale{
			AdminCode:    m.codes[s.ProductLabel],
			QuantitySold: s.QuantitySold,
		})
	}
	return resolved, nil
}
