package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gighub-app/gighub_be/internal/middleware"
	"github.com/gighub-app/gighub_be/internal/models"
	"github.com/gighub-app/gighub_be/internal/realtime"
	"github.com/gighub-app/gighub_be/internal/services/orders"
	"github.com/gighub-app/gighub_be/internal/services/ratings"
	"github.com/gighub-app/gighub_be/internal/utils"
)

const testJWTSecret = "test-secret"

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Gig{}, &models.Review{}, &models.Order{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db
}

// newTestApp wires the API routes the way cmd/api does, minus the websocket
// endpoint and Redis.
func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	orderSvc := orders.NewOrderService(db, false)
	ratingSvc := ratings.NewRatingService(db)
	hub := realtime.NewHub()

	authH := &AuthHandler{DB: db, JWTSecret: testJWTSecret, Expires: 60}
	userH := NewUserHandler(db)
	gigH := NewGigHandler(db, ratingSvc, t.TempDir())
	orderH := NewOrderHandler(db, orderSvc, hub, nil)
	categoryH := NewCategoryHandler()

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/users/register", authH.Register)
	api.Post("/users/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/gigs", gigH.List)
	api.Get("/gigs/:id", gigH.GetDetail)
	api.Get("/users/:id", userH.GetByID)

	protected := api.Group("/",
		middleware.JWTFromCookie(testJWTSecret),
		middleware.AttachJWTLocals(),
	)
	protected.Post("/gigs", middleware.RequireRoles("freelancer"), gigH.Create)
	protected.Delete("/gigs/:id", middleware.RequireRoles("freelancer"), gigH.Delete)
	protected.Post("/gigs/:id/reviews", middleware.RequireRoles("client"), gigH.SubmitReview)
	protected.Post("/orders", middleware.RequireRoles("client"), orderH.Create)
	protected.Get("/orders/user/:userId", orderH.ListForUser)
	protected.Put("/orders/:id/status", orderH.UpdateStatus)

	return app
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string, role models.Role) models.User {
	t.Helper()

	hashed, err := utils.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{Username: username, Email: email, Password: hashed, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func sessionCookie(t *testing.T, u models.User) *http.Cookie {
	t.Helper()

	token, err := utils.SignJWT(testJWTSecret, u.ID.String(), string(u.Role), 60)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return &http.Cookie{Name: "gh_token", Value: token}
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}, cookie *http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}

	var parsed map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}
