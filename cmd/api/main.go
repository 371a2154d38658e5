package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/gighub-app/gighub_be/internal/config"
	"github.com/gighub-app/gighub_be/internal/db"
	"github.com/gighub-app/gighub_be/internal/handlers"
	"github.com/gighub-app/gighub_be/internal/middleware"
	"github.com/gighub-app/gighub_be/internal/models"
	"github.com/gighub-app/gighub_be/internal/realtime"
	"github.com/gighub-app/gighub_be/internal/services/orders"
	"github.com/gighub-app/gighub_be/internal/services/ratings"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.Gig{}, &models.Review{}, &models.Order{}); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis not reachable, order events will only reach in-process sockets:", err)
		rdb = nil
	}

	hub := realtime.NewHub()
	go hub.Run()

	orderSvc := orders.NewOrderService(gdb, cfg.StrictOrderFlow)
	ratingSvc := ratings.NewRatingService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	userH := handlers.NewUserHandler(gdb)
	gigH := handlers.NewGigHandler(gdb, ratingSvc, cfg.UploadDir)
	orderH := handlers.NewOrderHandler(gdb, orderSvc, hub, rdb)
	categoryH := handlers.NewCategoryHandler()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://127.0.0.1:3000, http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/users/register", authH.Register)
	api.Post("/users/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/gigs", gigH.List)
	api.Get("/gigs/:id", gigH.GetDetail)
	api.Get("/users/:id", userH.GetByID)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Post("/gigs",
		middleware.RequireRoles("freelancer"),
		gigH.Create,
	)
	protected.Delete("/gigs/:id",
		middleware.RequireRoles("freelancer"),
		gigH.Delete,
	)
	protected.Post("/gigs/:id/reviews",
		middleware.RequireRoles("client"),
		gigH.SubmitReview,
	)

	protected.Post("/orders",
		middleware.RequireRoles("client"),
		orderH.Create,
	)
	protected.Get("/orders/user/:userId", orderH.ListForUser)
	protected.Put("/orders/:id/status", orderH.UpdateStatus)

	// dashboard notifications (auth via query param)
	app.Get("/ws/orders", websocket.New(orderH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
