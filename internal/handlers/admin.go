package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// DashboardStats aggregates the headline numbers for the admin landing
// page. Revenue only counts paid orders and is rounded for display.
func DashboardStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/dashboard"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		totalUsers, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalProducts, err := db.Collection("products").CountDocuments(ctx, bson.M{"isActive": true})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalOrders, err := db.Collection("orders").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isPaid": true, "isCancelled": false}}},
			{{Key: "$group", Value: bson.M{
				"_id":     nil,
				"revenue": bson.M{"$sum": "$totalPrice"},
			}}},
		}
		cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		totalRevenue := 0.0
		var grouped []struct {
			Revenue float64 `bson:"revenue"`
		}
		if err := cursor.All(ctx, &grouped); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(grouped) > 0 {
			totalRevenue = grouped[0].Revenue
		}

		recentOrders, err := db.Collection("orders").CountDocuments(ctx, bson.M{
			"createdAt": bson.M{"$gte": time.Now().AddDate(0, 0, -30)},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		pendingOrders, err := db.Collection("orders").CountDocuments(ctx, bson.M{
			"isPaid":      true,
			"isDelivered": false,
			"isCancelled": false,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"totalUsers":    totalUsers,
			"totalProducts": totalProducts,
			"totalOrders":   totalOrders,
			"totalRevenue":  math.Round(totalRevenue*100) / 100,
			"recentOrders":  recentOrders,
			"pendingOrders": pendingOrders,
		})
	}
}

// RecentOrders returns the latest orders for the dashboard feed.
func RecentOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders/recent"
		defer handlePanic(c, route)

		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "5"), 10, 64)
		if err != nil || limit < 1 {
			limit = 5
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, bson.M{},
			options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetLimit(limit))
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

// GetUsers lists all accounts without password hashes.
func GetUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/users"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, bson.M{},
			options.Find().
				SetProjection(bson.M{"passwordHash": 0}).
				SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, users)
	}
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole switches an account between user and admin.
func UpdateUserRole(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/users/:id/role"
		defer handlePanic(c, route)

		targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		var req updateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.Role != "user" && req.Role != "admin" {
			respondWithError(c, http.StatusBadRequest, route, "role must be user or admin")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.User
		err = db.Collection("users").FindOneAndUpdate(ctx,
			bson.M{"_id": targetID},
			bson.M{"$set": bson.M{"role": req.Role, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().
				SetReturnDocument(options.After).
				SetProjection(bson.M{"passwordHash": 0}),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DeleteUser removes an account. Admins cannot delete themselves.
func DeleteUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/users/:id"
		defer handlePanic(c, route)

		targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		callerID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		if callerID == targetID {
			respondWithError(c, http.StatusBadRequest, route, "You cannot delete your own account")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("users").DeleteOne(ctx, bson.M{"_id": targetID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to delete user")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}

		_, err = db.Collection("refresh_tokens").DeleteMany(ctx, bson.M{"userId": targetID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to delete user sessions")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}
