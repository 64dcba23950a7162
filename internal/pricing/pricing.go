package pricing

import "github.com/shopspring/decimal"

// DefaultTaxRate is applied when a contract carries no tax rate.
var DefaultTaxRate = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

type Inputs struct {
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         *decimal.Decimal
}

type Breakdown struct {
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// Compute derives discount, tax and total from the pricing inputs. A positive
// percentage wins over an absolute discount. Every amount is rounded to cents,
// so feeding the same inputs twice always yields the same totals.
func Compute(in Inputs) Breakdown {
	rate := DefaultTaxRate
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}

	var discount decimal.Decimal
	if in.DiscountPercent.IsPositive() {
		discount = in.BasePrice.Mul(in.DiscountPercent).Div(hundred)
	} else {
		discount = in.DiscountAmount
	}
	discount = Round(discount)

	subtotal := Round(in.BasePrice.Sub(discount))
	tax := Round(subtotal.Mul(rate).Div(hundred))

	return Breakdown{
		Discount:    discount,
		Subtotal:    subtotal,
		TaxRate:     rate,
		TaxAmount:   tax,
		TotalAmount: subtotal.Add(tax),
	}
}

func Remaining(total, paid decimal.Decimal) decimal.Decimal {
	return Round(total.Sub(paid))
}

func FullyPaid(total, paid decimal.Decimal) bool {
	return !Remaining(total, paid).IsPositive()
}

// Round rounds to two decimals, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
