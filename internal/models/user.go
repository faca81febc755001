package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one product entry in a user's cart. Name, price and image are
// snapshots taken when the item was added.
type CartItem struct {
	ID       string             `bson:"id" json:"id"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Cart is embedded on the User document. TotalItems and TotalPrice are
// always recomputed from Items after a mutation, never adjusted in place.
type Cart struct {
	Items      []CartItem `bson:"items" json:"items"`
	TotalItems int        `bson:"totalItems" json:"totalItems"`
	TotalPrice float64    `bson:"totalPrice" json:"totalPrice"`
}

// User represents the application user account.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Cart         Cart               `bson:"cart" json:"cart"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Recalculate derives both totals from the item list.
func (c *Cart) Recalculate() {
	totalItems := 0
	totalPrice := 0.0
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalPrice += item.Price * float64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
}

// AddItem merges by product reference: an existing entry gets its quantity
// incremented, otherwise the item is appended as-is.
func (c *Cart) AddItem(item CartItem) {
	for i := range c.Items {
		if c.Items[i].Product == item.Product {
			c.Items[i].Quantity += item.Quantity
			c.Recalculate()
			return
		}
	}
	c.Items = append(c.Items, item)
	c.Recalculate()
}

// UpdateItem sets the quantity of the item with the given id. The quantity
// is taken as supplied; validating it is the caller's responsibility.
func (c *Cart) UpdateItem(itemID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.Recalculate()
			return true
		}
	}
	return false
}

// RemoveItem filters out the item with the given id.
func (c *Cart) RemoveItem(itemID string) bool {
	kept := make([]CartItem, 0, len(c.Items))
	found := false
	for _, item := range c.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	c.Recalculate()
	return found
}

// Clear resets the cart to an empty list with zero totals.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalItems = 0
	c.TotalPrice = 0
}
