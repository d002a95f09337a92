package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/wayfare/wayfare-backend/internal/config"
	"github.com/wayfare/wayfare-backend/internal/database"
	"github.com/wayfare/wayfare-backend/internal/handlers"
	"github.com/wayfare/wayfare-backend/internal/middleware"
	"github.com/wayfare/wayfare-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Redis is optional: without it booking events are not published
	// but every request path still works.
	if err := services.InitRedis(cfg.RedisURL); err != nil {
		log.Printf("Redis initialization warning: %v", err)
	}

	store, err := services.InitStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	hub := services.NewHub()
	go hub.Run()

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Static("/uploads", cfg.Storage.UploadDir)

	r.GET("/health", handlers.Health(hub))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, store))
			auth.POST("/login", handlers.Login(db, cfg.JWTSecret))
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			protected.GET("/ws", handlers.WebSocketHandler(hub))

			rides := protected.Group("/rides")
			{
				rides.POST("/offer-ride", handlers.OfferRide(db, hub))
				rides.GET("/my-rides", handlers.GetMyRides(db))
				rides.GET("/vehicles", handlers.GetMyVehicles(db))
				rides.GET("/find-rides", handlers.FindRides(db))

				rides.POST("/book-ride/:rideId", handlers.BookRide(db, hub))
				rides.PUT("/cancel-booking/:bookingId", handlers.CancelBooking(db, hub))
				rides.GET("/user-bookings", handlers.GetUserBookings(db))

				rides.GET("/pending-bookings", handlers.GetPendingBookings(db))
				rides.PUT("/bookings/:bookingId/approve", handlers.ApproveBooking(db, hub))
				rides.PUT("/bookings/:bookingId/reject", handlers.RejectBooking(db, hub))
			}

			users := protected.Group("/users")
			{
				users.GET("/me", handlers.GetProfile(db))
				users.PUT("/me", handlers.UpdateProfile(db))
				users.GET("/me/vehicles", handlers.GetUserVehicles(db))
				users.PUT("/vehicles/:vehicleId", handlers.EditVehicle(db))
			}
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
