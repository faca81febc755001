package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func catalogContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/products?"+query, nil)
	return c
}

func TestBuildProductFilterDefaultsToActiveOnly(t *testing.T) {
	filter, err := buildProductFilter(catalogContext(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filter) != 1 || filter["isActive"] != true {
		t.Fatalf("expected bare isActive filter, got %v", filter)
	}
}

func TestBuildProductFilterAllMeansNoRestriction(t *testing.T) {
	filter, err := buildProductFilter(catalogContext(t, "category=all&brand=all"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := filter["category"]; ok {
		t.Fatal("category=all should not restrict")
	}
	if _, ok := filter["brand"]; ok {
		t.Fatal("brand=all should not restrict")
	}
}

func TestBuildProductFilterPriceRange(t *testing.T) {
	filter, err := buildProductFilter(catalogContext(t, "minPrice=10&maxPrice=99.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	price, ok := filter["price"].(bson.M)
	if !ok {
		t.Fatalf("expected price filter, got %v", filter)
	}
	if price["$gte"] != 10.0 || price["$lte"] != 99.5 {
		t.Fatalf("price bounds wrong: %v", price)
	}
}

func TestBuildProductFilterKeywordSearchesFourFields(t *testing.T) {
	filter, err := buildProductFilter(catalogContext(t, "keyword=phone"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	or, ok := filter["$or"].([]bson.M)
	if !ok || len(or) != 4 {
		t.Fatalf("expected $or over 4 fields, got %v", filter["$or"])
	}
}

func TestBuildProductFilterRejectsBadNumbers(t *testing.T) {
	if _, err := buildProductFilter(catalogContext(t, "minPrice=abc")); err == nil {
		t.Fatal("expected error for non-numeric minPrice")
	}
	if _, err := buildProductFilter(catalogContext(t, "rating=high")); err == nil {
		t.Fatal("expected error for non-numeric rating")
	}
}

func TestProductSortFallsBackToNewest(t *testing.T) {
	def := productSort("")
	if def[0].Key != "createdAt" || def[0].Value != -1 {
		t.Fatalf("default sort should be newest first, got %v", def)
	}
	unknown := productSort("bogus")
	if unknown[0].Key != "createdAt" {
		t.Fatalf("unknown sortBy should fall back to newest, got %v", unknown)
	}
	if priceLow := productSort("price-low"); priceLow[0].Key != "price" || priceLow[0].Value != 1 {
		t.Fatalf("price-low sort wrong: %v", priceLow)
	}
}

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "", 12)
	if err != nil || page != 1 || limit != 12 {
		t.Fatalf("defaults wrong: page=%d limit=%d err=%v", page, limit, err)
	}

	page, limit, err = parsePaginationParams("3", "20", 12)
	if err != nil || page != 3 || limit != 20 {
		t.Fatalf("explicit values wrong: page=%d limit=%d err=%v", page, limit, err)
	}

	if _, _, err := parsePaginationParams("0", "10", 12); err == nil {
		t.Fatal("page 0 should be rejected")
	}
	if _, _, err := parsePaginationParams("1", "-5", 12); err == nil {
		t.Fatal("negative limit should be rejected")
	}
}
