package models

import (
	"testing"
	"time"
)

func TestCanBeCancelledFreshOrder(t *testing.T) {
	now := time.Now()
	order := Order{DeliveryDate: now.Add(7 * 24 * time.Hour)}

	if !order.CanBeCancelled(now) {
		t.Fatal("fresh order should be cancellable")
	}
}

func TestCanBeCancelledAfterDelivery(t *testing.T) {
	now := time.Now()
	order := Order{IsDelivered: true, DeliveryDate: now.Add(7 * 24 * time.Hour)}

	if order.CanBeCancelled(now) {
		t.Fatal("delivered order must not be cancellable")
	}
}

func TestCanBeCancelledAfterCancellation(t *testing.T) {
	now := time.Now()
	order := Order{IsCancelled: true, DeliveryDate: now.Add(7 * 24 * time.Hour)}

	if order.CanBeCancelled(now) {
		t.Fatal("cancelled order must not be cancellable again")
	}
}

func TestCanBeCancelledExpiresWithDeliveryDate(t *testing.T) {
	created := time.Now()
	order := Order{DeliveryDate: created.Add(7 * 24 * time.Hour)}

	// 8 days later, with no delivery and no cancellation, time alone
	// closes the window.
	if order.CanBeCancelled(created.Add(8 * 24 * time.Hour)) {
		t.Fatal("window should be closed once deliveryDate has passed")
	}
	if !order.CanBeCancelled(created.Add(6 * 24 * time.Hour)) {
		t.Fatal("window should still be open before deliveryDate")
	}
}

func TestCanBeCancelledAtExactDeliveryDate(t *testing.T) {
	deadline := time.Now()
	order := Order{DeliveryDate: deadline}

	if order.CanBeCancelled(deadline) {
		t.Fatal("guard is strict: now < deliveryDate")
	}
}
