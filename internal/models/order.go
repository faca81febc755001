package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is a snapshot of a product line taken at checkout. It is never
// updated after the order is created, so historical orders stay accurate
// when the catalog changes.
type OrderItem struct {
	Name    string             `bson:"name" json:"name"`
	Qty     int                `bson:"qty" json:"qty"`
	Image   string             `bson:"image,omitempty" json:"image,omitempty"`
	Price   float64            `bson:"price" json:"price"`
	Product primitive.ObjectID `bson:"product" json:"product"`
}

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// PaymentResult echoes what the payment gateway reported.
type PaymentResult struct {
	ID           string `bson:"id,omitempty" json:"id,omitempty"`
	Status       string `bson:"status,omitempty" json:"status,omitempty"`
	UpdateTime   string `bson:"update_time,omitempty" json:"update_time,omitempty"`
	EmailAddress string `bson:"email_address,omitempty" json:"email_address,omitempty"`
}

// Order defines the persisted order document. The paid/delivered/cancelled
// flags only ever go from false to true.
type Order struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User               primitive.ObjectID `bson:"user" json:"user"`
	OrderItems         []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress    ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod      string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult      PaymentResult      `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	ItemsPrice         float64            `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice           float64            `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice      float64            `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice         float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid             bool               `bson:"isPaid" json:"isPaid"`
	PaidAt             *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered        bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt        *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	IsCancelled        bool               `bson:"isCancelled" json:"isCancelled"`
	CancelledAt        *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string             `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	DeliveryDate       time.Time          `bson:"deliveryDate" json:"deliveryDate"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CanBeCancelled reports whether the order may still be cancelled at the
// given moment. The guard must be re-checked at write time, not only when
// the UI rendered the cancel button.
func (o *Order) CanBeCancelled(now time.Time) bool {
	return !o.IsDelivered && !o.IsCancelled && now.Before(o.DeliveryDate)
}
