package handlers

// Checkout money rules. The 18% GST rate and the flat shipping fee are fixed
// business constants, not per-region configuration.
const (
	taxRate               = 0.18
	freeShippingThreshold = 1000.0
	standardShippingFee   = 50.0
	deliveryLeadDays      = 7
)

func computeTaxPrice(itemsPrice float64) float64 {
	return itemsPrice * taxRate
}

// computeShippingPrice waives the fee from the threshold upward, so an order
// of exactly 1000 ships free.
func computeShippingPrice(itemsPrice float64) float64 {
	if itemsPrice >= freeShippingThreshold {
		return 0
	}
	return standardShippingFee
}

func computeOrderTotals(itemsPrice float64) (taxPrice, shippingPrice, totalPrice float64) {
	taxPrice = computeTaxPrice(itemsPrice)
	shippingPrice = computeShippingPrice(itemsPrice)
	totalPrice = itemsPrice + taxPrice + shippingPrice
	return taxPrice, shippingPrice, totalPrice
}
