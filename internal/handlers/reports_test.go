package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestOrderStatusLabelPriority(t *testing.T) {
	tests := []struct {
		cancelled, delivered, paid bool
		want                       string
	}{
		{false, false, false, "Pending"},
		{false, false, true, "Paid"},
		{false, true, true, "Delivered"},
		{true, true, true, "Cancelled"},
		{true, false, false, "Cancelled"},
		{false, true, false, "Delivered"},
	}
	for _, tt := range tests {
		got := orderStatusLabel(tt.cancelled, tt.delivered, tt.paid)
		if got != tt.want {
			t.Fatalf("label(cancelled=%v delivered=%v paid=%v) = %q, want %q",
				tt.cancelled, tt.delivered, tt.paid, got, tt.want)
		}
	}
}

func TestGrowthPercent(t *testing.T) {
	if got := growthPercent(150, 100); got != 50 {
		t.Fatalf("growth 100→150 = %v, want 50", got)
	}
	if got := growthPercent(50, 100); got != -50 {
		t.Fatalf("growth 100→50 = %v, want -50", got)
	}
	if got := growthPercent(0, 0); got != 0 {
		t.Fatalf("growth 0→0 = %v, want 0", got)
	}
	if got := growthPercent(10, 0); got != 100 {
		t.Fatalf("growth 0→10 = %v, want 100", got)
	}
}

func findStage(t *testing.T, pipeline mongo.Pipeline, name string) interface{} {
	t.Helper()
	for _, stage := range pipeline {
		if stage[0].Key == name {
			return stage[0].Value
		}
	}
	t.Fatalf("pipeline has no %s stage", name)
	return nil
}

func TestTopProductsPipelineRanksByRevenue(t *testing.T) {
	pipeline := topProductsPipeline(time.Now().AddDate(0, 0, -30), 10)

	sort, ok := findStage(t, pipeline, "$sort").(bson.D)
	if !ok {
		t.Fatal("$sort stage is not a bson.D")
	}
	if len(sort) != 1 || sort[0].Key != "revenue" || sort[0].Value != -1 {
		t.Fatalf("top products must sort by revenue descending, got %v", sort)
	}
}

func TestTopProductsPipelineProjectsImage(t *testing.T) {
	pipeline := topProductsPipeline(time.Now(), 5)

	project, ok := findStage(t, pipeline, "$project").(bson.M)
	if !ok {
		t.Fatal("$project stage is not a bson.M")
	}
	if _, ok := project["image"]; !ok {
		t.Fatalf("projection is missing the product image, got %v", project)
	}
}

func TestSalesBucketingKeysAreOrdered(t *testing.T) {
	tests := []struct {
		groupBy  string
		wantKeys []string
		wantSort []string
	}{
		{"daily", []string{"year", "month", "day"}, []string{"_id.year", "_id.month", "_id.day"}},
		{"weekly", []string{"year", "week"}, []string{"_id.year", "_id.week"}},
		{"monthly", []string{"year", "month"}, []string{"_id.year", "_id.month"}},
	}
	for _, tt := range tests {
		groupID, sortOrder, ok := salesBucketing(tt.groupBy)
		if !ok {
			t.Fatalf("salesBucketing(%q) rejected a valid bucket size", tt.groupBy)
		}
		if len(groupID) != len(tt.wantKeys) {
			t.Fatalf("%s: got %d group keys, want %d", tt.groupBy, len(groupID), len(tt.wantKeys))
		}
		for i, key := range tt.wantKeys {
			if groupID[i].Key != key {
				t.Fatalf("%s: group key %d = %q, want %q", tt.groupBy, i, groupID[i].Key, key)
			}
		}
		if len(sortOrder) != len(tt.wantSort) {
			t.Fatalf("%s: got %d sort keys, want %d", tt.groupBy, len(sortOrder), len(tt.wantSort))
		}
		for i, key := range tt.wantSort {
			if sortOrder[i].Key != key || sortOrder[i].Value != 1 {
				t.Fatalf("%s: sort key %d = %v, want {%s 1}", tt.groupBy, i, sortOrder[i], key)
			}
		}
	}
}

func TestSalesBucketingRejectsUnknownSize(t *testing.T) {
	if _, _, ok := salesBucketing("hourly"); ok {
		t.Fatal("unknown bucket size should be rejected")
	}
}
