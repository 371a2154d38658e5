package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/gighub-app/gighub_be/internal/models"
)

func seedGigs(t *testing.T, db *gorm.DB) (models.User, []models.Gig) {
	freelancer := createTestUser(t, db, "frank", "frank@example.com", models.RoleFreelancer)

	gigs := []models.Gig{
		{FreelancerID: freelancer.ID, Title: "React landing page", Description: "d", Price: 100, Category: "Web Development"},
		{FreelancerID: freelancer.ID, Title: "Minimal logo", Description: "d", Price: 50, Category: "Design"},
		{FreelancerID: freelancer.ID, Title: "Blog writing", Description: "d", Price: 25, Category: "Writing"},
	}
	for i := range gigs {
		if err := db.Create(&gigs[i]).Error; err != nil {
			t.Fatalf("seed gig: %v", err)
		}
	}
	return freelancer, gigs
}

func TestListGigsFilters(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	seedGigs(t, db)

	tests := []struct {
		name     string
		target   string
		expected int
	}{
		{"no filter returns everything", "/api/gigs", 3},
		{"All category means no filter", "/api/gigs?category=All", 3},
		{"category equality", "/api/gigs?category=Design", 1},
		{"search is case-insensitive substring", "/api/gigs?search=LANDING", 1},
		{"category and search combine", "/api/gigs?category=Writing&search=blog", 1},
		{"no match", "/api/gigs?search=nothing-here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodGet, tt.target, nil, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			data := body["data"].([]interface{})
			assert.Len(t, data, tt.expected)
		})
	}
}

func TestListGigsAttachesFreelancerUsername(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	seedGigs(t, db)

	_, body := doJSON(t, app, http.MethodGet, "/api/gigs?category=Design", nil, nil)
	data := body["data"].([]interface{})
	if assert.Len(t, data, 1) {
		gig := data[0].(map[string]interface{})
		freelancer := gig["freelancer"].(map[string]interface{})
		assert.Equal(t, "frank", freelancer["username"])
	}
}

func TestGetGigDetail(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	_, gigs := seedGigs(t, db)

	client := createTestUser(t, db, "carol", "carol@example.com", models.RoleClient)
	review := models.Review{GigID: gigs[0].ID, UserID: client.ID, Username: client.Username, Rating: 4, Comment: "solid"}
	assert.NoError(t, db.Create(&review).Error)

	resp, body := doJSON(t, app, http.MethodGet, "/api/gigs/"+gigs[0].ID.String(), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "React landing page", data["title"])
	reviews := data["reviews"].([]interface{})
	if assert.Len(t, reviews, 1) {
		r := reviews[0].(map[string]interface{})
		assert.Equal(t, "carol", r["username"])
		assert.Equal(t, float64(4), r["rating"])
	}
}

func TestGetGigDetailNotFound(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)

	resp, body := doJSON(t, app, http.MethodGet, "/api/gigs/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, body["success"].(bool))
}

func TestCreateGig(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	freelancer := createTestUser(t, db, "frank", "frank@example.com", models.RoleFreelancer)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("title", "SEO audit")
	_ = w.WriteField("description", "Full site audit")
	_ = w.WriteField("price", "75")
	_ = w.WriteField("category", "Marketing")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/gigs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(sessionCookie(t, freelancer))

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var stored models.Gig
	assert.NoError(t, db.First(&stored, "title = ?", "SEO audit").Error)
	assert.Equal(t, freelancer.ID, stored.FreelancerID)
	assert.Equal(t, 75.0, stored.Price)
	assert.Equal(t, models.DefaultGigImage, stored.ImageURL)
	assert.Equal(t, 0.0, stored.Rating)
	assert.Equal(t, 0, stored.NumReviews)
}

func TestCreateGigRejectsBadInput(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	freelancer := createTestUser(t, db, "frank", "frank@example.com", models.RoleFreelancer)
	client := createTestUser(t, db, "carol", "carol@example.com", models.RoleClient)

	build := func(price, category string) *http.Request {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		_ = w.WriteField("title", "t")
		_ = w.WriteField("description", "d")
		_ = w.WriteField("price", price)
		_ = w.WriteField("category", category)
		_ = w.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/gigs", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req
	}

	// negative price
	req := build("-5", "Design")
	req.AddCookie(sessionCookie(t, freelancer))
	resp, _ := app.Test(req, -1)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown category
	req = build("5", "Cooking")
	req.AddCookie(sessionCookie(t, freelancer))
	resp, _ = app.Test(req, -1)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// clients cannot create gigs
	req = build("5", "Design")
	req.AddCookie(sessionCookie(t, client))
	resp, _ = app.Test(req, -1)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteGigScopedToOwner(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	_, gigs := seedGigs(t, db)
	other := createTestUser(t, db, "fred", "fred@example.com", models.RoleFreelancer)

	// Another freelancer cannot delete the gig.
	req := httptest.NewRequest(http.MethodDelete, "/api/gigs/"+gigs[0].ID.String(), nil)
	req.AddCookie(sessionCookie(t, other))
	resp, _ := app.Test(req, -1)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var count int64
	db.Model(&models.Gig{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestSubmitReviewEndpoint(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)
	_, gigs := seedGigs(t, db)
	client := createTestUser(t, db, "carol", "carol@example.com", models.RoleClient)
	cookie := sessionCookie(t, client)
	target := "/api/gigs/" + gigs[0].ID.String() + "/reviews"

	// out-of-range rating
	resp, _ := doJSON(t, app, http.MethodPost, target, map[string]interface{}{"rating": 6}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// success
	resp, body := doJSON(t, app, http.MethodPost, target, map[string]interface{}{"rating": 4, "comment": "nice"}, cookie)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "carol", data["username"])

	// duplicate by the same user
	resp, _ = doJSON(t, app, http.MethodPost, target, map[string]interface{}{"rating": 2}, cookie)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// unknown gig
	resp, _ = doJSON(t, app, http.MethodPost, "/api/gigs/"+uuid.NewString()+"/reviews", map[string]interface{}{"rating": 4}, cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var stored models.Gig
	assert.NoError(t, db.First(&stored, "id = ?", gigs[0].ID).Error)
	assert.Equal(t, 1, stored.NumReviews)
	assert.Equal(t, 4.0, stored.Rating)
}

func TestGetCategories(t *testing.T) {
	db := setupHandlerTestDB(t)
	app := newTestApp(t, db)

	resp, body := doJSON(t, app, http.MethodGet, "/api/categories", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].([]interface{})
	assert.Len(t, data, len(models.Categories))
}
