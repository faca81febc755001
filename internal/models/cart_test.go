package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cartTotalsMatch(t *testing.T, c *Cart) {
	t.Helper()
	wantItems := 0
	wantPrice := 0.0
	for _, item := range c.Items {
		wantItems += item.Quantity
		wantPrice += item.Price * float64(item.Quantity)
	}
	if c.TotalItems != wantItems {
		t.Fatalf("totalItems=%d, want %d", c.TotalItems, wantItems)
	}
	if c.TotalPrice != wantPrice {
		t.Fatalf("totalPrice=%v, want %v", c.TotalPrice, wantPrice)
	}
}

func TestCartAddUpdateRemoveScenario(t *testing.T) {
	productID := primitive.NewObjectID()
	cart := &Cart{}

	cart.AddItem(CartItem{ID: "item-1", Product: productID, Name: "P", Price: 100, Quantity: 2})
	if cart.TotalItems != 2 || cart.TotalPrice != 200 {
		t.Fatalf("after add: totals (%d, %v), want (2, 200)", cart.TotalItems, cart.TotalPrice)
	}
	cartTotalsMatch(t, cart)

	if !cart.UpdateItem("item-1", 5) {
		t.Fatal("UpdateItem did not find item-1")
	}
	if cart.TotalItems != 5 || cart.TotalPrice != 500 {
		t.Fatalf("after update: totals (%d, %v), want (5, 500)", cart.TotalItems, cart.TotalPrice)
	}

	if !cart.RemoveItem("item-1") {
		t.Fatal("RemoveItem did not find item-1")
	}
	if cart.TotalItems != 0 || cart.TotalPrice != 0 {
		t.Fatalf("after remove: totals (%d, %v), want (0, 0)", cart.TotalItems, cart.TotalPrice)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty item list, got %d items", len(cart.Items))
	}
}

func TestCartAddSameProductMergesQuantity(t *testing.T) {
	productID := primitive.NewObjectID()
	cart := &Cart{}

	cart.AddItem(CartItem{ID: "item-1", Product: productID, Name: "P", Price: 10, Quantity: 1})
	cart.AddItem(CartItem{ID: "item-2", Product: productID, Name: "P", Price: 10, Quantity: 3})

	if len(cart.Items) != 1 {
		t.Fatalf("expected single merged row, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("merged quantity=%d, want 4", cart.Items[0].Quantity)
	}
	cartTotalsMatch(t, cart)
}

func TestCartAddDifferentProductsAppends(t *testing.T) {
	cart := &Cart{}
	cart.AddItem(CartItem{ID: "a", Product: primitive.NewObjectID(), Price: 5, Quantity: 2})
	cart.AddItem(CartItem{ID: "b", Product: primitive.NewObjectID(), Price: 7.5, Quantity: 1})

	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(cart.Items))
	}
	if cart.TotalItems != 3 || cart.TotalPrice != 17.5 {
		t.Fatalf("totals (%d, %v), want (3, 17.5)", cart.TotalItems, cart.TotalPrice)
	}
}

func TestCartRemoveUnknownItemKeepsList(t *testing.T) {
	cart := &Cart{}
	cart.AddItem(CartItem{ID: "a", Product: primitive.NewObjectID(), Price: 5, Quantity: 2})

	if cart.RemoveItem("missing") {
		t.Fatal("RemoveItem reported a hit for an unknown id")
	}
	if len(cart.Items) != 1 || cart.TotalItems != 2 {
		t.Fatalf("cart changed by no-op remove: %+v", cart)
	}
}

func TestCartClear(t *testing.T) {
	cart := &Cart{}
	cart.AddItem(CartItem{ID: "a", Product: primitive.NewObjectID(), Price: 5, Quantity: 2})
	cart.Clear()

	if len(cart.Items) != 0 || cart.TotalItems != 0 || cart.TotalPrice != 0 {
		t.Fatalf("clear left state behind: %+v", cart)
	}
}

func TestCartRecalculateFixesDriftedTotals(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{ID: "a", Product: primitive.NewObjectID(), Price: 3, Quantity: 4},
		},
		TotalItems: 99,
		TotalPrice: 999,
	}
	cart.Recalculate()
	if cart.TotalItems != 4 || cart.TotalPrice != 12 {
		t.Fatalf("recalculate kept stale totals: %+v", cart)
	}
}
