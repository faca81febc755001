package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/mailer"
	"storefront/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureRefreshTokenIndexes(db); err != nil {
		log.Printf("refresh token index warning: %v", err)
	}

	redisClient, err := cache.Connect(
		config.AppEnv.RedisAddr,
		config.AppEnv.RedisPassword,
		config.AppEnv.RedisDB,
	)
	if err != nil {
		log.Printf("redis warning, continuing without cache: %v", err)
	}
	productCache := cache.NewProductCache(redisClient)

	mail := mailer.New(
		config.AppEnv.SMTPHost,
		config.AppEnv.SMTPPort,
		config.AppEnv.SMTPUser,
		config.AppEnv.SMTPPass,
		config.AppEnv.EmailFrom,
	)

	secret := config.AppEnv.JWTSecret

	r := gin.Default()
	r.Use(cors.Default())
	r.Static("/uploads", config.AppEnv.UploadDir)

	api := r.Group("/api")

	api.GET("/health", handlers.Health(db))

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register(db))
		auth.POST("/login", handlers.Login(db))
		auth.POST("/refresh", handlers.RefreshSession(db))
		auth.POST("/logout", handlers.Logout(db))
		auth.GET("/me", middleware.Protect(secret), handlers.GetMe(db))
	}

	products := api.Group("/products")
	{
		products.GET("", handlers.GetProducts(db))
		products.GET("/filters/options", handlers.GetFilterOptions(db, productCache))
		products.GET("/admin", middleware.AdminOnly(secret), handlers.GetAdminProducts(db))
		products.GET("/:id", handlers.GetProduct(db, productCache))
		products.POST("", middleware.AdminOnly(secret), handlers.CreateProduct(db, productCache))
		products.PUT("/:id", middleware.AdminOnly(secret), handlers.UpdateProduct(db, productCache))
		products.DELETE("/:id", middleware.AdminOnly(secret), handlers.DeleteProduct(db, productCache))
		products.POST("/:id/reviews", middleware.Protect(secret), handlers.AddProductReview(db, productCache))
	}

	cart := api.Group("/cart")
	cart.Use(middleware.Protect(secret))
	{
		cart.GET("", handlers.GetCart(db))
		cart.POST("", handlers.AddCartItem(db))
		cart.PUT("/:itemId", handlers.UpdateCartItem(db))
		cart.DELETE("/:itemId", handlers.RemoveCartItem(db))
		cart.DELETE("", handlers.ClearCart(db))
	}

	orders := api.Group("/orders")
	orders.Use(middleware.Protect(secret))
	{
		orders.POST("", handlers.CreateOrder(db, mail, productCache))
		orders.GET("/myorders", handlers.GetMyOrders(db))
		orders.GET("/:id", handlers.GetOrderByID(db))
		orders.PUT("/:id/pay", handlers.PayOrder(db))
		orders.PUT("/:id/deliver", middleware.AdminOnly(secret), handlers.DeliverOrder(db))
		orders.PUT("/:id/cancel", handlers.CancelOrder(db, mail))
	}

	reports := api.Group("/reports")
	reports.Use(middleware.AdminOnly(secret))
	{
		reports.GET("/overview", handlers.GetSalesOverview(db))
		reports.GET("/sales-by-period", handlers.GetSalesByPeriod(db))
		reports.GET("/top-products", handlers.GetTopProducts(db))
		reports.GET("/customers", handlers.GetCustomerReport(db))
		reports.GET("/order-status", handlers.GetOrderStatusReport(db))
		reports.GET("/export", handlers.ExportOrders(db))
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly(secret))
	{
		admin.GET("/dashboard/stats", handlers.DashboardStats(db))
		admin.GET("/orders/recent", handlers.RecentOrders(db))
		admin.GET("/users", handlers.GetUsers(db))
		admin.PUT("/users/:id/role", handlers.UpdateUserRole(db))
		admin.DELETE("/users/:id", handlers.DeleteUser(db))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	if err := r.Run(":" + config.AppEnv.Port); err != nil {
		log.Fatal(err)
	}
}
