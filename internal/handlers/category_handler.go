package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gighub-app/gighub_be/internal/models"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// GetCategories returns the fixed category set gigs may use.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.Categories,
	})
}
