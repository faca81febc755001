package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/cache"
	"storefront/internal/models"
)

const defaultProductPageSize = 12

var productSortOrders = map[string]bson.D{
	"newest":     {{Key: "createdAt", Value: -1}},
	"oldest":     {{Key: "createdAt", Value: 1}},
	"price-low":  {{Key: "price", Value: 1}},
	"price-high": {{Key: "price", Value: -1}},
	"rating":     {{Key: "rating", Value: -1}},
	"name":       {{Key: "name", Value: 1}},
}

// buildProductFilter translates catalog query params into a bson filter.
// "all" for category or brand means no restriction.
func buildProductFilter(c *gin.Context) (bson.M, error) {
	filter := bson.M{"isActive": true}

	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		regex := bson.M{"$regex": keyword, "$options": "i"}
		filter["$or"] = []bson.M{
			{"name": regex},
			{"description": regex},
			{"category": regex},
			{"brand": regex},
		}
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" && category != "all" {
		filter["category"] = category
	}
	if brand := strings.TrimSpace(c.Query("brand")); brand != "" && brand != "all" {
		filter["brand"] = brand
	}

	priceFilter := bson.M{}
	if raw := strings.TrimSpace(c.Query("minPrice")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		priceFilter["$gte"] = value
	}
	if raw := strings.TrimSpace(c.Query("maxPrice")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		priceFilter["$lte"] = value
	}
	if len(priceFilter) > 0 {
		filter["price"] = priceFilter
	}

	if raw := strings.TrimSpace(c.Query("rating")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		filter["rating"] = bson.M{"$gte": value}
	}

	return filter, nil
}

func productSort(sortBy string) bson.D {
	if order, ok := productSortOrders[sortBy]; ok {
		return order
	}
	return productSortOrders["newest"]
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProducts lists the active catalog with keyword search, filters, sorting
// and pagination metadata.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		log.Printf(
			"[%s] hit page=%s limit=%s keyword=%s category=%s brand=%s sortBy=%s",
			route,
			c.Query("page"),
			c.Query("limit"),
			c.Query("keyword"),
			c.Query("category"),
			c.Query("brand"),
			c.Query("sortBy"),
		)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		filter, err := buildProductFilter(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid filter params")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), defaultProductPageSize)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		findOptions := options.Find().
			SetSort(productSort(c.Query("sortBy"))).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		totalCount, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		totalPages := (totalCount + limit - 1) / limit

		log.Printf("[%s] returning %d of %d products", route, len(products), totalCount)
		c.JSON(http.StatusOK, gin.H{
			"products":    products,
			"totalCount":  totalCount,
			"currentPage": page,
			"totalPages":  totalPages,
			"hasNextPage": page < totalPages,
			"hasPrevPage": page > 1,
		})
	}
}

// GetProduct returns one active product, served from cache when possible.
func GetProduct(db *mongo.Database, productCache *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		idParam := c.Param("id")
		productID, err := primitive.ObjectIDFromHex(idParam)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if cached, ok := productCache.GetProduct(ctx, idParam); ok {
			c.JSON(http.StatusOK, cached)
			return
		}

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":      productID,
			"isActive": true,
		}).Decode(&product)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		productCache.SetProduct(ctx, &product)
		c.JSON(http.StatusOK, product)
	}
}

// GetFilterOptions returns the distinct categories and brands of the active
// catalog plus its price range, for building filter UIs.
func GetFilterOptions(db *mongo.Database, productCache *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/filters/options"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if cached, ok := productCache.GetFilterOptions(ctx); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			return
		}

		activeOnly := bson.M{"isActive": true}

		categories, err := db.Collection("products").Distinct(ctx, "category", activeOnly)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		brands, err := db.Collection("products").Distinct(ctx, "brand", activeOnly)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: activeOnly}},
			{{Key: "$group", Value: bson.M{
				"_id":      nil,
				"minPrice": bson.M{"$min": "$price"},
				"maxPrice": bson.M{"$max": "$price"},
			}}},
		}
		cursor, err := db.Collection("products").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		priceRange := gin.H{"minPrice": 0, "maxPrice": 0}
		var grouped []struct {
			MinPrice float64 `bson:"minPrice"`
			MaxPrice float64 `bson:"maxPrice"`
		}
		if err := cursor.All(ctx, &grouped); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(grouped) > 0 {
			priceRange = gin.H{"minPrice": grouped[0].MinPrice, "maxPrice": grouped[0].MaxPrice}
		}

		response := gin.H{
			"categories": categories,
			"brands":     brands,
			"priceRange": priceRange,
		}
		if payload, err := json.Marshal(response); err == nil {
			productCache.SetFilterOptions(ctx, payload)
		}
		c.JSON(http.StatusOK, response)
	}
}
