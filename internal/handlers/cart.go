package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func newCartItemID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return primitive.NewObjectID().Hex()
	}
	return hex.EncodeToString(buf)
}

func loadUserCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (models.User, error) {
	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	return user, err
}

func saveUserCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, cart models.Cart) error {
	_, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{"cart": cart, "updatedAt": time.Now()},
	})
	return err
}

// GetCart returns the authenticated user's cart.
func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CART")

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "CART", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUserCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, "CART", "User not found")
			return
		}
		if user.Cart.Items == nil {
			user.Cart.Items = []models.CartItem{}
		}

		c.JSON(http.StatusOK, user.Cart)
	}
}

// AddCartItem adds a product to the cart, merging quantity when the product
// is already present. Name, price and image are snapshotted from the product.
func AddCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CART")

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "CART", "unauthorized")
			return
		}

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "CART", "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			respondWithError(c, http.StatusBadRequest, "CART", "quantity must be at least 1")
			return
		}
		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CART", "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":      productID,
			"isActive": true,
		}).Decode(&product)
		if err != nil {
			respondWithError(c, http.StatusNotFound, "CART", "Product not found")
			return
		}
		if product.CountInStock < req.Quantity {
			respondWithError(c, http.StatusBadRequest, "CART", "Not enough stock")
			return
		}

		user, err := loadUserCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, "CART", "User not found")
			return
		}

		user.Cart.AddItem(models.CartItem{
			ID:       newCartItemID(),
			Product:  product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Quantity: req.Quantity,
		})

		if err := saveUserCart(ctx, db, userID, user.Cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, "CART", "failed to update cart")
			return
		}

		c.JSON(http.StatusOK, user.Cart)
	}
}

// UpdateCartItem sets a cart item's quantity. Unknown item ids are a 404.
func UpdateCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CART")

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "CART", "unauthorized")
			return
		}

		itemID := c.Param("itemId")

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "CART", "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			respondWithError(c, http.StatusBadRequest, "CART", "quantity must be at least 1")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUserCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, "CART", "User not found")
			return
		}

		if !user.Cart.UpdateItem(itemID, req.Quantity) {
			respondWithError(c, http.StatusNotFound, "CART", "Cart item not found")
			return
		}

		if err := saveUserCart(ctx, db, userID, user.Cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, "CART", "failed to update cart")
			return
		}

		c.JSON(http.StatusOK, user.Cart)
	}
}

// RemoveCartItem drops a cart item. Removing an id that is not in the cart
// still returns the (unchanged) cart.
func RemoveCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CART")

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "CART", "unauthorized")
			return
		}

		itemID := c.Param("itemId")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUserCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, "CART", "User not found")
			return
		}

		user.Cart.RemoveItem(itemID)

		if err := saveUserCart(ctx, db, userID, user.Cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, "CART", "failed to update cart")
			return
		}

		c.JSON(http.StatusOK, user.Cart)
	}
}

// ClearCart empties the cart in one shot.
func ClearCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CART")

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "CART", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart := models.Cart{Items: []models.CartItem{}}
		if err := saveUserCart(ctx, db, userID, cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, "CART", "failed to clear cart")
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}
