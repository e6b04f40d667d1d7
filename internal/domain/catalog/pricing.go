package catalog

import "github.com/shopspring/decimal"

// EffectivePrice resolves the unit price charged for a product.
// The promotional price wins only when it is present and strictly lower than the list price.
func EffectivePrice(listPrice decimal.Decimal, promotionalPrice *decimal.Decimal) decimal.Decimal {
	if promotionalPrice != nil && promotionalPrice.LessThan(listPrice) {
		return *promotionalPrice
	}
	return listPrice
}
