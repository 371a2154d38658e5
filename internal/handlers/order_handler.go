package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gighub-app/gighub_be/internal/models"
	"github.com/gighub-app/gighub_be/internal/realtime"
	"github.com/gighub-app/gighub_be/internal/services/orders"
)

type OrderHandler struct {
	DB     *gorm.DB
	Orders *orders.OrderService
	Hub    *realtime.Hub
	RDB    *redis.Client
}

func NewOrderHandler(db *gorm.DB, orderSvc *orders.OrderService, hub *realtime.Hub, rdb *redis.Client) *OrderHandler {
	return &OrderHandler{DB: db, Orders: orderSvc, Hub: hub, RDB: rdb}
}

func orderResponse(o *models.Order) fiber.Map {
	out := fiber.Map{
		"id":            o.ID,
		"gig_id":        o.GigID,
		"client_id":     o.ClientID,
		"freelancer_id": o.FreelancerID,
		"price":         o.Price,
		"status":        o.Status,
		"created_at":    o.CreatedAt,
		"updated_at":    o.UpdatedAt,
	}
	// The gig may have been deleted since the order was placed.
	if o.Gig != nil {
		out["gig"] = fiber.Map{
			"id":        o.Gig.ID,
			"title":     o.Gig.Title,
			"image_url": o.Gig.ImageURL,
		}
	} else {
		out["gig"] = nil
	}
	return out
}

// notifyOrderParties pushes the event to connected dashboards and publishes it
// on the per-user Redis channels.
func (h *OrderHandler) notifyOrderParties(eventType string, o *models.Order) {
	event := fiber.Map{
		"type":  eventType,
		"order": orderResponse(o),
	}
	h.Hub.SendToOrderParties(o.ClientID, o.FreelancerID, event)

	if h.RDB == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Println("Error marshaling order event:", err)
		return
	}
	ctx := context.Background()
	h.RDB.Publish(ctx, "orders:"+o.ClientID.String(), payload)
	h.RDB.Publish(ctx, "orders:"+o.FreelancerID.String(), payload)
}

type CreateOrderReq struct {
	GigID string  `json:"gig_id"`
	Price float64 `json:"price"`
}

// Create handles POST /api/orders. The client comes from the session; the
// freelancer and, when the body omits it, the price are snapshotted from the
// gig at this moment.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	uid, _ := c.Locals("userId").(string)
	clientID, err := uuid.Parse(uid)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req CreateOrderReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	gigID, err := uuid.Parse(req.GigID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid gig ID",
		})
	}

	var gig models.Gig
	if err := h.DB.First(&gig, "id = ?", gigID).Error; err != nil {
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

	price := req.Price
	if price <= 0 {
		price = gig.Price
	}

	order, err := h.Orders.Create(gig.ID, clientID, gig.FreelancerID, price)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create order",
		})
	}
	order.Gig = &gig

	h.notifyOrderParties("order_created", order)

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed",
		"data":    orderResponse(order),
	})
}

// ListForUser handles GET /api/orders/user/:userId — every order the user is
// part of, joined with gig title/image.
func (h *OrderHandler) ListForUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	list, err := h.Orders.ListForUser(userID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch orders",
		})
	}

	out := make([]fiber.Map, 0, len(list))
	for i := range list {
		out = append(out, orderResponse(&list[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

type UpdateOrderStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order ID",
		})
	}

	var req UpdateOrderStatusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	order, err := h.Orders.SetStatus(orderID, models.OrderStatus(req.Status))
	switch {
	case errors.Is(err, orders.ErrInvalidStatus):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid status",
		})
	case errors.Is(err, orders.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	case errors.Is(err, orders.ErrInvalidTransition):
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Transition not allowed",
		})
	case err != nil:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update status",
		})
	}

	h.DB.Preload("Gig").First(order, "id = ?", order.ID)
	h.notifyOrderParties("order_status_update", order)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orderResponse(order),
	})
}

// WebSocketHandler keeps a dashboard socket open; authentication is via the
// user_id query parameter, same as the rest of the realtime layer.
func (h *OrderHandler) WebSocketHandler(c *websocket.Conn) {
	userID := c.Query("user_id")
	if userID == "" {
		log.Println("WebSocket: user_id parameter missing")
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("WebSocket: invalid user_id:", userID, "error:", err)
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	// hub -> socket
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// socket -> server, only to keep the connection alive
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
