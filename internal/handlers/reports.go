package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// orderStatusLabel collapses the three lifecycle flags into one label.
// Cancellation wins over delivery, delivery over payment.
func orderStatusLabel(isCancelled, isDelivered, isPaid bool) string {
	switch {
	case isCancelled:
		return "Cancelled"
	case isDelivered:
		return "Delivered"
	case isPaid:
		return "Paid"
	default:
		return "Pending"
	}
}

// statusLabelCond is the aggregation-side twin of orderStatusLabel.
func statusLabelCond() bson.M {
	return bson.M{"$cond": bson.A{
		"$isCancelled", "Cancelled",
		bson.M{"$cond": bson.A{
			"$isDelivered", "Delivered",
			bson.M{"$cond": bson.A{"$isPaid", "Paid", "Pending"}},
		}},
	}}
}

func reportPeriodDays(c *gin.Context) int {
	raw := c.DefaultQuery("period", "30")
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return 30
	}
	return days
}

type periodTotals struct {
	Revenue float64 `bson:"revenue"`
	Orders  int64   `bson:"orders"`
}

func sumOrdersSince(ctx context.Context, db *mongo.Database, from, to time.Time) (periodTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"isCancelled": false,
			"createdAt":   bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$totalPrice"},
			"orders":  bson.M{"$sum": 1},
		}}},
	}

	cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
	if err != nil {
		return periodTotals{}, err
	}
	defer cursor.Close(ctx)

	var results []periodTotals
	if err := cursor.All(ctx, &results); err != nil {
		return periodTotals{}, err
	}
	if len(results) == 0 {
		return periodTotals{}, nil
	}
	return results[0], nil
}

func growthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return (current - previous) / previous * 100
}

// GetSalesOverview compares the last N days with the N days before them.
// Cancelled orders are excluded from every figure.
func GetSalesOverview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reports/overview"
		defer handlePanic(c, route)

		days := reportPeriodDays(c)
		now := time.Now()
		periodStart := now.AddDate(0, 0, -days)
		previousStart := now.AddDate(0, 0, -2*days)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		current, err := sumOrdersSince(ctx, db, periodStart, now)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		previous, err := sumOrdersSince(ctx, db, previousStart, periodStart)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		avgOrderValue := 0.0
		if current.Orders > 0 {
			avgOrderValue = current.Revenue / float64(current.Orders)
		}

		c.JSON(http.StatusOK, gin.H{
			"period":        days,
			"revenue":       current.Revenue,
			"orders":        current.Orders,
			"avgOrderValue": avgOrderValue,
			"revenueGrowth": growthPercent(current.Revenue, previous.Revenue),
			"ordersGrowth":  growthPercent(float64(current.Orders), float64(previous.Orders)),
		})
	}
}

// salesBucketing returns the $group key and matching $sort order for a
// bucket size. The key is a bson.D and the sort names the _id subfields
// explicitly: bucket keys must compare year first, then month/week, then
// day, and map key order would not guarantee that.
func salesBucketing(groupBy string) (bson.D, bson.D, bool) {
	switch groupBy {
	case "daily":
		groupID := bson.D{
			{Key: "year", Value: bson.M{"$year": "$createdAt"}},
			{Key: "month", Value: bson.M{"$month": "$createdAt"}},
			{Key: "day", Value: bson.M{"$dayOfMonth": "$createdAt"}},
		}
		sortOrder := bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
			{Key: "_id.day", Value: 1},
		}
		return groupID, sortOrder, true
	case "weekly":
		groupID := bson.D{
			{Key: "year", Value: bson.M{"$year": "$createdAt"}},
			{Key: "week", Value: bson.M{"$week": "$createdAt"}},
		}
		sortOrder := bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.week", Value: 1},
		}
		return groupID, sortOrder, true
	case "monthly":
		groupID := bson.D{
			{Key: "year", Value: bson.M{"$year": "$createdAt"}},
			{Key: "month", Value: bson.M{"$month": "$createdAt"}},
		}
		sortOrder := bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
		}
		return groupID, sortOrder, true
	}
	return nil, nil, false
}

// GetSalesByPeriod buckets uncancelled orders by day, week or month.
func GetSalesByPeriod(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reports/sales-by-period"
		defer handlePanic(c, route)

		days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
		if err != nil || days < 1 {
			days = 30
		}
		// Here "period" selects the bucket size; the window comes from "days".
		groupBy := c.DefaultQuery("period", "daily")

		groupID, sortOrder, ok := salesBucketing(groupBy)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "period must be daily, weekly or monthly")
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"isCancelled": false,
				"createdAt":   bson.M{"$gte": time.Now().AddDate(0, 0, -days)},
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":     groupID,
				"revenue": bson.M{"$sum": "$totalPrice"},
				"orders":  bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: sortOrder}},
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		buckets := make([]bson.M, 0)
		if err := cursor.All(ctx, &buckets); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"period": groupBy, "days": days, "data": buckets})
	}
}

// topProductsPipeline ranks products by revenue, highest first, across
// uncancelled orders of the trailing window.
func topProductsPipeline(from time.Time, limit int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"isCancelled": false,
			"createdAt":   bson.M{"$gte": from},
		}}},
		{{Key: "$unwind", Value: "$orderItems"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$orderItems.product",
			"name":      bson.M{"$first": "$orderItems.name"},
			"unitsSold": bson.M{"$sum": "$orderItems.qty"},
			"revenue": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$orderItems.price", "$orderItems.qty"},
			}},
			"avgPrice": bson.M{"$avg": "$orderItems.price"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$project", Value: bson.M{
			"name":      1,
			"unitsSold": 1,
			"revenue":   1,
			"avgPrice":  1,
			"image":     bson.M{"$first": "$product.image"},
			"category":  bson.M{"$first": "$product.category"},
			"brand":     bson.M{"$first": "$product.brand"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// GetTopProducts lists the best-selling products by revenue.
func GetTopProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reports/top-products"
		defer handlePanic(c, route)

		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
		if err != nil || limit < 1 {
			limit = 10
		}
		days := reportPeriodDays(c)

		pipeline := topProductsPipeline(time.Now().AddDate(0, 0, -days), limit)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]bson.M, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// GetCustomerReport summarizes the customer base: totals plus per-customer
// averages computed with a second grouping stage.
func GetCustomerReport(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reports/customers"
		defer handlePanic(c, route)

		days := reportPeriodDays(c)
		periodStart := time.Now().AddDate(0, 0, -days)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		totalCustomers, err := db.Collection("users").CountDocuments(ctx, bson.M{"role": "user"})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		newCustomers, err := db.Collection("users").CountDocuments(ctx, bson.M{
			"role":      "user",
			"createdAt": bson.M{"$gte": periodStart},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		activeBuyers, err := db.Collection("orders").Distinct(ctx, "user", bson.M{
			"isCancelled": false,
			"createdAt":   bson.M{"$gte": periodStart},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isCancelled": false}}},
			{{Key: "$group", Value: bson.M{
				"_id":    "$user",
				"spent":  bson.M{"$sum": "$totalPrice"},
				"orders": bson.M{"$sum": 1},
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":               nil,
				"buyingCustomers":   bson.M{"$sum": 1},
				"avgSpentPerUser":   bson.M{"$avg": "$spent"},
				"avgOrdersPerUser":  bson.M{"$avg": "$orders"},
				"bestCustomerSpent": bson.M{"$max": "$spent"},
			}}},
		}

		cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		stats := bson.M{
			"buyingCustomers":   0,
			"avgSpentPerUser":   0,
			"avgOrdersPerUser":  0,
			"bestCustomerSpent": 0,
		}
		var grouped []bson.M
		if err := cursor.All(ctx, &grouped); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(grouped) > 0 {
			stats = grouped[0]
		}
		stats["totalCustomers"] = totalCustomers
		stats["newCustomers"] = newCustomers
		stats["activeCustomers"] = len(activeBuyers)
		stats["period"] = days
		delete(stats, "_id")

		c.JSON(http.StatusOK, stats)
	}
}

// GetOrderStatusReport counts orders per lifecycle label.
func GetOrderStatusReport(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reports/order-status"
		defer handlePanic(c, route)

		pipeline := mongo.Pipeline{
			{{Key: "$project", Value: bson.M{
				"status":     statusLabelCond(),
				"totalPrice": 1,
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":     "$status",
				"count":   bson.M{"$sum": 1},
				"revenue": bson.M{"$sum": "$totalPrice"},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		statuses := make([]bson.M, 0)
		if err := cursor.All(ctx, &statuses); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, statuses)
	}
}

// ExportOrders streams the order book as JSON or as an xlsx workbook.
func ExportOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reports/export"
		defer handlePanic(c, route)

		format := c.DefaultQuery("format", "json")
		if format != "json" && format != "xlsx" {
			respondWithError(c, http.StatusBadRequest, route, "format must be json or xlsx")
			return
		}

		days := reportPeriodDays(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx,
			bson.M{"createdAt": bson.M{"$gte": time.Now().AddDate(0, 0, -days)}},
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

		if format == "json" {
			c.JSON(http.StatusOK, orders)
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to build workbook")
			return
		}

		header := sheet.AddRow()
		for _, title := range []string{"Order ID", "Customer ID", "Items", "Total", "Status", "Created At"} {
			header.AddCell().SetString(title)
		}

		for _, order := range orders {
			row := sheet.AddRow()
			row.AddCell().SetString(order.ID.Hex())
			row.AddCell().SetString(order.User.Hex())
			items := 0
			for _, item := range order.OrderItems {
				items += item.Qty
			}
			row.AddCell().SetInt(items)
			row.AddCell().SetFloat(order.TotalPrice)
			row.AddCell().SetString(orderStatusLabel(order.IsCancelled, order.IsDelivered, order.IsPaid))
			row.AddCell().SetString(order.CreatedAt.Format(time.RFC3339))
		}

		filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to write workbook")
			return
		}
	}
}
