package catalog

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(s)
}

// ---------------------------------------------------------------------------
// Membership resolution
// ---------------------------------------------------------------------------

// Matches reports whether the cached product satisfies the catalog's filter
// predicate. Filter fields combine with AND; values inside a field combine
// with OR. Tag and vendor comparison is case-insensitive. An empty filter
// matches everything.
func (f Filters) Matches(p *SourceProduct) bool {
	if len(f.Collections) > 0 && !anyFoldMatch(f.Collections, p.Collections) {
		return false
	}
	if len(f.Tags) > 0 && !anyFoldMatch(f.Tags, p.Tags) {
		return false
	}
	if f.Vendor != "" && fold(f.Vendor) != fold(p.Vendor) {
		return false
	}
	return true
}

func anyFoldMatch(wanted, have []string) bool {
	for _, w := range wanted {
		fw := fold(w)
		for _, h := range have {
			if fw == fold(h) {
				return true
			}
		}
	}
	return false
}

// ResolveMembers returns the subset of products matching the catalog's
// filters, preserving input order.
func (c *Catalog) ResolveMembers(products []SourceProduct) []SourceProduct {
	members := make([]SourceProduct, 0, len(products))
	for i := range products {
		if c.Filters.Matches(&products[i]) {
			members = append(members, products[i])
		}
	}
	return members
}

// ---------------------------------------------------------------------------
// Price computation
// ---------------------------------------------------------------------------

var (
	oneHundred = decimal.NewFromInt(100)
	oneCent    = decimal.New(1, -2)
)

// ComputePrice applies the strategy to a source price: markup first, then
// the rounding rule. A negative result clamps to zero and reports
// ErrNegativeComputedPrice. The function is pure, the same inputs always
// yield the same output.
func (s PricingStrategy) ComputePrice(sourcePrice decimal.Decimal) (decimal.Decimal, error) {
	price := sourcePrice
	switch s.MarkupType {
	case MarkupTypePercentage:
		price = price.Add(price.Mul(s.MarkupValue).Div(oneHundred))
	case MarkupTypeFixed:
		price = price.Add(s.MarkupValue)
	default:
		return decimal.Zero, ErrInvalidMarkupType
	}

	switch s.RoundingRule {
	case RoundingRuleNone:
		// no change
	case RoundingRuleTo99:
		// round down to the nearest whole number, then subtract one cent
		price = price.Floor().Sub(oneCent)
	case RoundingRuleToDollar:
		price = price.Round(0)
	default:
		return decimal.Zero, ErrInvalidRoundingRule
	}

	if price.IsNegative() {
		return decimal.Zero, ErrNegativeComputedPrice
	}
	return price, nil
}
