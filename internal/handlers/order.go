package handlers

import (
	"context"
	"fmt"
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
	"storefront/internal/mailer"
	"storefront/internal/models"
)

type orderItemRequest struct {
	ProductID string `json:"product"`
	Qty       int    `json:"qty"`
}

type createOrderRequest struct {
	OrderItems      []orderItemRequest     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type payOrderRequest struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func validateShippingAddress(a models.ShippingAddress) error {
	switch {
	case strings.TrimSpace(a.Address) == "":
		return fmt.Errorf("shipping address is required")
	case strings.TrimSpace(a.City) == "":
		return fmt.Errorf("shipping city is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return fmt.Errorf("shipping postal code is required")
	case strings.TrimSpace(a.Country) == "":
		return fmt.Errorf("shipping country is required")
	}
	return nil
}

// orderedProductIDs collects the distinct product ids an order touched, for
// invalidating their cache entries after the stock decrement.
func orderedProductIDs(items []models.OrderItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := item.Product.Hex()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// CreateOrder places an order inside a multi-document transaction. Prices
// are always taken from the catalog, never from the request, and stock is
// decremented with a guarded $inc so two checkouts cannot oversell.
func CreateOrder(db *mongo.Database, mail *mailer.Mailer, productCache *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if len(req.OrderItems) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "No order items")
			return
		}
		if err := validateShippingAddress(req.ShippingAddress); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if strings.TrimSpace(req.PaymentMethod) == "" {
			respondWithError(c, http.StatusBadRequest, route, "payment method is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to start transaction")
			return
		}
		defer session.EndSession(ctx)

		var created models.Order

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			orderItems := make([]models.OrderItem, 0, len(req.OrderItems))
			itemsPrice := 0.0

			for _, line := range req.OrderItems {
				if line.Qty <= 0 {
					return nil, fmt.Errorf("quantity must be at least 1")
				}
				productID, err := primitive.ObjectIDFromHex(line.ProductID)
				if err != nil {
					return nil, fmt.Errorf("invalid product id: %s", line.ProductID)
				}

				var product models.Product
				err = db.Collection("products").FindOne(sc, bson.M{
					"_id":      productID,
					"isActive": true,
				}).Decode(&product)
				if err != nil {
					return nil, fmt.Errorf("product not found: %s", line.ProductID)
				}
				if product.CountInStock < line.Qty {
					return nil, fmt.Errorf("not enough stock for %s", product.Name)
				}

				// The $gte filter makes the decrement fail instead of going
				// negative when a concurrent order got there first.
				result, err := db.Collection("products").UpdateOne(sc,
					bson.M{"_id": productID, "countInStock": bson.M{"$gte": line.Qty}},
					bson.M{"$inc": bson.M{"countInStock": -line.Qty}})
				if err != nil {
					return nil, err
				}
				if result.ModifiedCount == 0 {
					return nil, fmt.Errorf("not enough stock for %s", product.Name)
				}

				orderItems = append(orderItems, models.OrderItem{
					Name:    product.Name,
					Qty:     line.Qty,
					Image:   product.Image,
					Price:   product.Price,
					Product: product.ID,
				})
				itemsPrice += product.Price * float64(line.Qty)
			}

			taxPrice, shippingPrice, totalPrice := computeOrderTotals(itemsPrice)

			now := time.Now()
			order := models.Order{
				User:            userID,
				OrderItems:      orderItems,
				ShippingAddress: req.ShippingAddress,
				PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
				ItemsPrice:      itemsPrice,
				TaxPrice:        taxPrice,
				ShippingPrice:   shippingPrice,
				TotalPrice:      totalPrice,
				DeliveryDate:    now.AddDate(0, 0, deliveryLeadDays),
				CreatedAt:       now,
				UpdatedAt:       now,
			}

			inserted, err := db.Collection("orders").InsertOne(sc, order)
			if err != nil {
				return nil, err
			}
			order.ID = inserted.InsertedID.(primitive.ObjectID)

			// The cart is cleared here rather than trusted to the client.
			_, err = db.Collection("users").UpdateByID(sc, userID, bson.M{
				"$set": bson.M{
					"cart":      models.Cart{Items: []models.CartItem{}},
					"updatedAt": now,
				},
			})
			if err != nil {
				return nil, err
			}

			created = order
			return nil, nil
		})
		if err != nil {
			log.Printf("[%s] checkout failed: %v", route, err)
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		// Stock changed, so cached copies of the ordered products are stale.
		for _, id := range orderedProductIDs(created.OrderItems) {
			productCache.Invalidate(ctx, id)
		}

		go func(orderID primitive.ObjectID, total float64) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var user models.User
			if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
				return
			}
			mail.SendOrderConfirmation(user.Email, user.Name, orderID.Hex(), total)
		}(created.ID, created.TotalPrice)

		c.JSON(http.StatusCreated, created)
	}
}

// GetMyOrders lists the caller's orders, newest first.
func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/myorders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx,
			bson.M{"user": userID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func findOrderForCaller(c *gin.Context, db *mongo.Database, route string) (*models.Order, bool) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid order id")
		return nil, false
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		respondWithError(c, http.StatusNotFound, route, "Order not found")
		return nil, false
	}

	if order.User != userID && !isAdmin(c) {
		respondWithError(c, http.StatusForbidden, route, "forbidden")
		return nil, false
	}

	return &order, true
}

// GetOrderByID returns one order, visible to its owner or an admin.
func GetOrderByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		order, ok := findOrderForCaller(c, db, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PayOrder marks the order paid and records the gateway result. Paying a
// paid or cancelled order is rejected.
func PayOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/pay"
		defer handlePanic(c, route)

		order, ok := findOrderForCaller(c, db, route)
		if !ok {
			return
		}
		if order.IsPaid {
			respondWithError(c, http.StatusBadRequest, route, "Order is already paid")
			return
		}
		if order.IsCancelled {
			respondWithError(c, http.StatusBadRequest, route, "Order is cancelled")
			return
		}

		var req payOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		var updated models.Order
		err := db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"_id": order.ID, "isPaid": false, "isCancelled": false},
			bson.M{"$set": bson.M{
				"isPaid": true,
				"paidAt": now,
				"paymentResult": models.PaymentResult{
					ID:           req.ID,
					Status:       req.Status,
					UpdateTime:   req.UpdateTime,
					EmailAddress: req.EmailAddress,
				},
				"updatedAt": now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Order is already paid")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DeliverOrder marks a paid, uncancelled order delivered. Admin only.
func DeliverOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/deliver"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "Order not found")
			return
		}
		if order.IsCancelled {
			respondWithError(c, http.StatusBadRequest, route, "Order is cancelled")
			return
		}
		if !order.IsPaid {
			respondWithError(c, http.StatusBadRequest, route, "Order is not paid yet")
			return
		}
		if order.IsDelivered {
			respondWithError(c, http.StatusBadRequest, route, "Order is already delivered")
			return
		}

		now := time.Now()
		var updated models.Order
		err = db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"_id": orderID, "isDelivered": false, "isCancelled": false},
			bson.M{"$set": bson.M{
				"isDelivered": true,
				"deliveredAt": now,
				"updatedAt":   now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Order is already delivered")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// CancelOrder closes the order while the cancellation window is open. The
// window guard is re-evaluated against the current clock at write time.
func CancelOrder(db *mongo.Database, mail *mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/cancel"
		defer handlePanic(c, route)

		order, ok := findOrderForCaller(c, db, route)
		if !ok {
			return
		}

		now := time.Now()
		if !order.CanBeCancelled(now) {
			respondWithError(c, http.StatusBadRequest, route, "Order can no longer be cancelled")
			return
		}

		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			reason = "Cancelled by customer"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.Order
		err := db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"_id": order.ID, "isCancelled": false, "isDelivered": false},
			bson.M{"$set": bson.M{
				"isCancelled":        true,
				"cancelledAt":        now,
				"cancellationReason": reason,
				"updatedAt":          now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Order can no longer be cancelled")
			return
		}

		go func(owner primitive.ObjectID, orderID primitive.ObjectID) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var user models.User
			if err := db.Collection("users").FindOne(ctx, bson.M{"_id": owner}).Decode(&user); err != nil {
				return
			}
			mail.SendOrderCancellation(user.Email, user.Name, orderID.Hex(), reason)
		}(updated.User, updated.ID)

		c.JSON(http.StatusOK, updated)
	}
}
