package tariff

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mediclaim/mediclaim/internal/domain/insurance"
)

var (
	quarter = decimal.NewFromInt(25).Div(decimal.NewFromInt(100))
	fifth   = decimal.NewFromInt(20).Div(decimal.NewFromInt(100))
	two     = decimal.NewFromInt(2)
)

// Facility-service categories billed at full price whatever the insurance
// category. Matched case-insensitively.
var fullPriceCategories = []string{"MEDICAMENTS", "CONSOMMABLES", "AUTRES"}

// MaximaToPay derives the maximum payable amount for a facility service under
// an insurance category:
//
//	BASE      full price
//	MUTUELLE  half the full price
//	PRIVATE   full price plus a 25% markup
//	NONE      the PRIVATE amount plus a further 20% markup
//
// MEDICAMENTS, CONSOMMABLES and AUTRES facility services always pay the full
// price, and so does any insurance category outside the four known ones.
func MaximaToPay(serviceCategory string, fullPrice decimal.Decimal, insuranceCategory string) decimal.Decimal {
	for _, exempt := range fullPriceCategories {
		if strings.EqualFold(serviceCategory, exempt) {
			return fullPrice
		}
	}
	switch {
	case strings.EqualFold(insuranceCategory, insurance.CategoryBase):
		return fullPrice
	case strings.EqualFold(insuranceCategory, insurance.CategoryMutuelle):
		return fullPrice.Div(two)
	case strings.EqualFold(insuranceCategory, insurance.CategoryPrivate):
		return fullPrice.Add(fullPrice.Mul(quarter))
	case strings.EqualFold(insuranceCategory, insurance.CategoryNone):
		initial := fullPrice.Add(fullPrice.Mul(quarter))
		return initial.Add(initial.Mul(fifth))
	}
	return fullPrice
}
