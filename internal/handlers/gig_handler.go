package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gighub-app/gighub_be/internal/models"
	"github.com/gighub-app/gighub_be/internal/services/ratings"
)

type GigHandler struct {
	DB        *gorm.DB
	Ratings   *ratings.RatingService
	UploadDir string
}

func NewGigHandler(db *gorm.DB, ratingSvc *ratings.RatingService, uploadDir string) *GigHandler {
	return &GigHandler{DB: db, Ratings: ratingSvc, UploadDir: uploadDir}
}

func gigSummary(g *models.Gig) fiber.Map {
	out := fiber.Map{
		"id":          g.ID,
		"title":       g.Title,
		"description": g.Description,
		"price":       g.Price,
		"category":    g.Category,
		"image_url":   g.ImageURL,
		"rating":      g.Rating,
		"num_reviews": g.NumReviews,
		"created_at":  g.CreatedAt,
	}
	// Dangling freelancer reference renders as null, never fails the list.
	if g.Freelancer != nil {
		out["freelancer"] = fiber.Map{
			"id":       g.Freelancer.ID,
			"username": g.Freelancer.Username,
		}
	} else {
		out["freelancer"] = nil
	}
	return out
}

// List handles GET /api/gigs?category=&search=. Category is an exact match
// ("All" or empty disables it), search is a case-insensitive substring match
// on the title. Every match is returned, no pagination.
func (h *GigHandler) List(c *fiber.Ctx) error {
	q := h.DB.Model(&models.Gig{}).Preload("Freelancer")

	if cat := c.Query("category"); cat != "" && cat != "All" {
		q = q.Where("category = ?", cat)
	}
	if search := c.Query("search"); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var gigs []models.Gig
	if err := q.Order("created_at DESC").Find(&gigs).Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch gigs",
		})
	}

	out := make([]fiber.Map, 0, len(gigs))
	for i := range gigs {
		out = append(out, gigSummary(&gigs[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// GetDetail handles GET /api/gigs/:id, reviews in submission order.
func (h *GigHandler) GetDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	var gig models.Gig
	err := h.DB.
		Preload("Freelancer").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&gig, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Gig not found",
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch gig",
		})
	}

	out := gigSummary(&gig)
	out["reviews"] = gig.Reviews

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// Create handles POST /api/gigs. Multipart form with an optional image part;
// the owner comes from the session, not the body.
func (h *GigHandler) Create(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	category := strings.TrimSpace(c.FormValue("category"))
	price, perr := strconv.ParseFloat(c.FormValue("price"), 64)

	if title == "" || description == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Title and description are required",
		})
	}
	if perr != nil || price <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Price must be a positive number",
		})
	}
	if !models.ValidCategory(category) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unknown category",
		})
	}

	imageURL := models.DefaultGigImage
	if file, err := c.FormFile("image"); err == nil && file.Size > 0 {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Unsupported image format",
			})
		}

		dir := filepath.Join(h.UploadDir, "gigs")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create upload folder",
			})
		}

		filename := fmt.Sprintf("gig_%v_%d%s", uid, time.Now().UnixNano(), ext)
		if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to save image",
			})
		}
		imageURL = "/uploads/gigs/" + filename
	}

	gig := models.Gig{
		FreelancerID: user.ID,
		Title:        title,
		Description:  description,
		Price:        price,
		Category:     category,
		ImageURL:     imageURL,
	}

	if err := h.DB.Create(&gig).Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save gig",
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Gig created",
		"data": fiber.Map{
			"id":        gig.ID,
			"title":     gig.Title,
			"category":  gig.Category,
			"price":     gig.Price,
			"image_url": gig.ImageURL,
		},
	})
}

// Delete handles DELETE /api/gigs/:id, scoped to the owning freelancer.
// Orders referencing the gig are left in place.
func (h *GigHandler) Delete(c *fiber.Ctx) error {
	uid := c.Locals("userId")
	id := c.Params("id")

	res := h.DB.Where("id = ? AND freelancer_id = ?", id, uid).Delete(&models.Gig{})
	if res.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete gig",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Gig not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Gig deleted",
	})
}

type SubmitReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitReview handles POST /api/gigs/:id/reviews. The reviewer identity and
// username snapshot come from the session user.
func (h *GigHandler) SubmitReview(c *fiber.Ctx) error {
	uid, _ := c.Locals("userId").(string)
	userUUID, err := uuid.Parse(uid)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	gigID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid gig ID",
		})
	}

	var req SubmitReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	review, err := h.Ratings.SubmitReview(gigID, user.ID, user.Username, req.Rating, req.Comment)
	switch {
	case errors.Is(err, ratings.ErrInvalidRating):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Rating must be between 1 and 5",
		})
	case errors.Is(err, ratings.ErrGigNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Gig not found",
		})
	case errors.Is(err, ratings.ErrDuplicateReview):
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "You have already reviewed this gig",
		})
	case err != nil:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to submit review",
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review submitted",
		"data":    review,
	})
}
