package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestOrderedProductIDsDeduplicates(t *testing.T) {
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()

	ids := orderedProductIDs([]models.OrderItem{
		{Product: first, Qty: 1},
		{Product: second, Qty: 2},
		{Product: first, Qty: 3},
	})

	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct ids, got %v", ids)
	}
	if ids[0] != first.Hex() || ids[1] != second.Hex() {
		t.Fatalf("ids out of order or wrong: %v", ids)
	}
}

func TestOrderedProductIDsEmptyOrder(t *testing.T) {
	if ids := orderedProductIDs(nil); len(ids) != 0 {
		t.Fatalf("expected no ids for empty order, got %v", ids)
	}
}
