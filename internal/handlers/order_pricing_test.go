package handlers

import (
	"math"
	"testing"
)

func TestComputeTaxPriceIsEighteenPercent(t *testing.T) {
	if got := computeTaxPrice(100); math.Abs(got-18) > 1e-9 {
		t.Fatalf("tax on 100 = %v, want 18", got)
	}
	if got := computeTaxPrice(0); got != 0 {
		t.Fatalf("tax on 0 = %v, want 0", got)
	}
}

func TestComputeShippingPriceBoundary(t *testing.T) {
	tests := []struct {
		itemsPrice float64
		want       float64
	}{
		{999.99, standardShippingFee},
		{1000.00, 0},
		{1000.01, 0},
		{0, standardShippingFee},
		{50, standardShippingFee},
	}
	for _, tt := range tests {
		if got := computeShippingPrice(tt.itemsPrice); got != tt.want {
			t.Fatalf("shipping for %v = %v, want %v", tt.itemsPrice, got, tt.want)
		}
	}
}

func TestComputeOrderTotalsAtThreshold(t *testing.T) {
	tax, shipping, total := computeOrderTotals(1000)

	if math.Abs(tax-180) > 1e-9 {
		t.Fatalf("tax = %v, want 180", tax)
	}
	if shipping != 0 {
		t.Fatalf("shipping = %v, want 0", shipping)
	}
	if math.Abs(total-1180) > 1e-9 {
		t.Fatalf("total = %v, want 1180", total)
	}
}

func TestComputeOrderTotalsSumInvariant(t *testing.T) {
	for _, itemsPrice := range []float64{0, 12.34, 500, 999.99, 1000, 2500.5} {
		tax, shipping, total := computeOrderTotals(itemsPrice)
		if math.Abs(total-(itemsPrice+tax+shipping)) > 1e-9 {
			t.Fatalf("total %v != items %v + tax %v + shipping %v", total, itemsPrice, tax, shipping)
		}
		if math.Abs(tax-itemsPrice*0.18) > 1e-9 {
			t.Fatalf("tax %v is not 18%% of %v", tax, itemsPrice)
		}
	}
}
