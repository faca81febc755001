package handlers

import (
	"context"
	"log"
	"net/http"
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

// GetAdminProducts lists the catalog for the admin panel. Unlike the public
// listing it can see inactive products; isActive=true|false narrows it.
func GetAdminProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/admin"
		defer handlePanic(c, route)

		filter, err := buildProductFilter(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid filter params")
			return
		}
		delete(filter, "isActive")
		switch strings.TrimSpace(c.Query("isActive")) {
		case "true":
			filter["isActive"] = true
		case "false":
			filter["isActive"] = false
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), defaultProductPageSize)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		totalCount, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(productSort(c.Query("sortBy"))).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

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

// CreateProduct inserts a catalog entry from a multipart form. The image
// file is optional; every descriptive field is required.
func CreateProduct(db *mongo.Database, productCache *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products"
		defer handlePanic(c, route)

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondMultipartError(c, err)
			return
		}

		switch {
		case !input.NameSet || input.Name == "":
			respondWithError(c, http.StatusBadRequest, route, "name is required")
			return
		case !input.DescriptionSet || input.Description == "":
			respondWithError(c, http.StatusBadRequest, route, "description is required")
			return
		case !input.PriceSet || input.Price <= 0:
			respondWithError(c, http.StatusBadRequest, route, "price must be greater than zero")
			return
		case !input.CategorySet || input.Category == "":
			respondWithError(c, http.StatusBadRequest, route, "category is required")
			return
		case !input.BrandSet || input.Brand == "":
			respondWithError(c, http.StatusBadRequest, route, "brand is required")
			return
		case !input.CountInStockSet || input.CountInStock < 0:
			respondWithError(c, http.StatusBadRequest, route, "countInStock must be zero or more")
			return
		}

		now := time.Now()
		product := models.Product{
			Name:         input.Name,
			Description:  input.Description,
			Price:        input.Price,
			Category:     input.Category,
			Brand:        input.Brand,
			CountInStock: input.CountInStock,
			IsActive:     true,
			Reviews:      []models.Review{},
			Tags:         input.Tags,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if input.IsActiveSet {
			product.IsActive = input.IsActive
		}
		if input.ImageSet {
			product.Image = input.ImagePath
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to create product")
			return
		}
		product.ID = result.InsertedID.(primitive.ObjectID)
		productCache.Invalidate(ctx, product.ID.Hex())

		log.Printf("[%s] created product %s", route, product.ID.Hex())
		c.JSON(http.StatusCreated, product)
	}
}

// UpdateProduct applies a partial multipart update. A new image replaces and
// deletes the old file, and the cache entry is dropped.
func UpdateProduct(db *mongo.Database, productCache *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondMultipartError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if input.NameSet {
			update["name"] = input.Name
		}
		if input.DescriptionSet {
			update["description"] = input.Description
		}
		if input.PriceSet {
			if input.Price <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "price must be greater than zero")
				return
			}
			update["price"] = input.Price
		}
		if input.CategorySet {
			update["category"] = input.Category
		}
		if input.BrandSet {
			update["brand"] = input.Brand
		}
		if input.CountInStockSet {
			if input.CountInStock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "countInStock must be zero or more")
				return
			}
			update["countInStock"] = input.CountInStock
		}
		if input.IsActiveSet {
			update["isActive"] = input.IsActive
		}
		if input.TagsSet {
			update["tags"] = input.Tags
		}
		if input.ImageSet {
			update["image"] = input.ImagePath
		}

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(ctx,
			bson.M{"_id": productID},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to update product")
			return
		}

		if input.ImageSet && existing.Image != "" && existing.Image != input.ImagePath {
			if err := safeDeleteUpload(existing.Image); err != nil {
				log.Printf("[%s] failed to delete replaced image %s: %v", route, existing.Image, err)
			}
		}

		productCache.Invalidate(ctx, productID.Hex())
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteProduct removes the product document, its stored image file and its
// cache entry.
func DeleteProduct(db *mongo.Database, productCache *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to delete product")
			return
		}

		if product.Image != "" {
			if err := safeDeleteUpload(product.Image); err != nil {
				log.Printf("[%s] failed to delete image %s: %v", route, product.Image, err)
			}
		}

		productCache.Invalidate(ctx, productID.Hex())
		log.Printf("[%s] deleted product %s", route, productID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	}
}
