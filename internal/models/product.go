package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a single customer review embedded on a product.
type Review struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Dimensions struct {
	Length float64 `bson:"length,omitempty" json:"length,omitempty"`
	Width  float64 `bson:"width,omitempty" json:"width,omitempty"`
	Height float64 `bson:"height,omitempty" json:"height,omitempty"`
}

// Product is a catalog entry. Rating and NumReviews are derived from the
// embedded review list and recomputed whenever it changes.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description" json:"description"`
	Price          float64            `bson:"price" json:"price"`
	Category       string             `bson:"category" json:"category"`
	Brand          string             `bson:"brand" json:"brand"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`
	Images         []string           `bson:"images,omitempty" json:"images,omitempty"`
	CountInStock   int                `bson:"countInStock" json:"countInStock"`
	Rating         float64            `bson:"rating" json:"rating"`
	NumReviews     int                `bson:"numReviews" json:"numReviews"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	Reviews        []Review           `bson:"reviews" json:"reviews"`
	Tags           []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Specifications map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Weight         float64            `bson:"weight,omitempty" json:"weight,omitempty"`
	Dimensions     *Dimensions        `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecalculateRating derives Rating and NumReviews from the review list.
func (p *Product) RecalculateRating() {
	if len(p.Reviews) == 0 {
		p.Rating = 0
		p.NumReviews = 0
		return
	}
	sum := 0
	for _, review := range p.Reviews {
		sum += review.Rating
	}
	p.Rating = float64(sum) / float64(len(p.Reviews))
	p.NumReviews = len(p.Reviews)
}

// HasReviewFrom reports whether the user already reviewed this product.
func (p *Product) HasReviewFrom(userID primitive.ObjectID) bool {
	for _, review := range p.Reviews {
		if review.User == userID {
			return true
		}
	}
	return false
}
