// Package pricing holds the cart money math. The summary quote (delivery fee
// plus display tax) and the stored order total are computed by different
// formulas on purpose: the quote is the customer-facing estimate, the stored
// total is what the order keeps. See DESIGN.md.
package pricing

import (
	"github.com/shopspring/decimal"
)

const Currency = "INR"

var (
	// DeliveryFee is the flat fee applied to every order.
	DeliveryFee = decimal.NewFromInt(80)

	// taxRate is display-only and never persisted.
	taxRate = decimal.NewFromFloat(0.01)
)

// Item is one priced cart line.
type Item struct {
	UnitPrice float64
	Quantity  int
}

// Quote is the customer-facing summary breakdown.
type Quote struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

// Subtotal sums unit price times quantity over all items. It reads only its
// input, so repeated calls on an unchanged cart return the same value.
func Subtotal(items []Item) float64 {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// Summarize builds the checkout summary quote: subtotal, flat delivery fee
// and the display tax, rounded to two decimal places.
func Summarize(items []Item) Quote {
	subtotal := decimal.NewFromFloat(Subtotal(items))
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(DeliveryFee).Add(tax).Round(2)

	sub, _ := subtotal.Float64()
	fee, _ := DeliveryFee.Float64()
	tx, _ := tax.Float64()
	tot, _ := total.Float64()

	return Quote{
		Subtotal:    sub,
		DeliveryFee: fee,
		Tax:         tx,
		Total:       tot,
		Currency:    Currency,
	}
}

// OrderTotal is what gets persisted with an order: item subtotal plus the
// delivery fee. The display tax is excluded.
func OrderTotal(items []Item) (subtotal, deliveryFee, total float64) {
	sub := decimal.NewFromFloat(Subtotal(items))
	fee := DeliveryFee
	tot := sub.Add(fee).Round(2)

	subtotal, _ = sub.Float64()
	deliveryFee, _ = fee.Float64()
	total, _ = tot.Float64()
	return subtotal, deliveryFee, total
}
