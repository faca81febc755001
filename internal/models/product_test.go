package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecalculateRatingEmpty(t *testing.T) {
	p := Product{Rating: 4.5, NumReviews: 3}
	p.RecalculateRating()

	if p.Rating != 0 || p.NumReviews != 0 {
		t.Fatalf("empty review list should zero derived fields, got rating=%v numReviews=%d", p.Rating, p.NumReviews)
	}
}

func TestRecalculateRatingAverages(t *testing.T) {
	p := Product{Reviews: []Review{
		{User: primitive.NewObjectID(), Rating: 5},
		{User: primitive.NewObjectID(), Rating: 4},
		{User: primitive.NewObjectID(), Rating: 3},
	}}
	p.RecalculateRating()

	if p.NumReviews != 3 {
		t.Fatalf("numReviews=%d, want 3", p.NumReviews)
	}
	if p.Rating != 4 {
		t.Fatalf("rating=%v, want 4", p.Rating)
	}
}

func TestRecalculateRatingTracksReviewChanges(t *testing.T) {
	p := Product{Reviews: []Review{{User: primitive.NewObjectID(), Rating: 2}}}
	p.RecalculateRating()
	if p.Rating != 2 || p.NumReviews != 1 {
		t.Fatalf("after first review: rating=%v numReviews=%d", p.Rating, p.NumReviews)
	}

	p.Reviews = append(p.Reviews, Review{User: primitive.NewObjectID(), Rating: 5})
	p.RecalculateRating()
	if p.Rating != 3.5 || p.NumReviews != 2 {
		t.Fatalf("after second review: rating=%v numReviews=%d", p.Rating, p.NumReviews)
	}
}

func TestHasReviewFrom(t *testing.T) {
	reviewer := primitive.NewObjectID()
	p := Product{Reviews: []Review{{User: reviewer, Rating: 4}}}

	if !p.HasReviewFrom(reviewer) {
		t.Fatal("expected existing reviewer to be found")
	}
	if p.HasReviewFrom(primitive.NewObjectID()) {
		t.Fatal("unknown user should not have a review")
	}
}
