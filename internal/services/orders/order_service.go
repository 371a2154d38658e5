package orders

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gighub-app/gighub_be/internal/models"
)

var (
	ErrInvalidStatus     = errors.New("status must be one of pending, in-progress, completed, cancelled")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrNotFound          = errors.New("order not found")
)

// strictTransitions are the only moves the UI actually drives, plus the
// explicit cancellation path. Enforced only when Strict is set; the default
// keeps the permissive set-any-status behavior.
var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusInProgress, models.OrderStatusCancelled},
	models.OrderStatusInProgress: {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

type OrderService struct {
	DB     *gorm.DB
	Strict bool
}

func NewOrderService(db *gorm.DB, strict bool) *OrderService {
	return &OrderService{DB: db, Strict: strict}
}

func validStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusInProgress,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
		return true
	}
	return false
}

// Create stores a new pending order. Price is a snapshot taken now and never
// re-read from the gig.
func (s *OrderService) Create(gigID, clientID, freelancerID uuid.UUID, price float64) (*models.Order, error) {
	order := &models.Order{
		GigID:        gigID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Price:        price,
		Status:       models.OrderStatusPending,
	}
	if err := s.DB.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ListForUser returns every order the user participates in, as client or
// freelancer, with the gig preloaded. A deleted gig loads as nil and must not
// fail the listing.
func (s *OrderService) ListForUser(userID uuid.UUID) ([]models.Order, error) {
	var list []models.Order
	err := s.DB.
		Where("client_id = ? OR freelancer_id = ?", userID, userID).
		Preload("Gig").
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SetStatus overwrites the order's status. The target must be a member of the
// enumerated set; in strict mode the current status must also be a valid
// predecessor. No audit trail of the prior status is kept.
func (s *OrderService) SetStatus(orderID uuid.UUID, target models.OrderStatus) (*models.Order, error) {
	if !validStatus(target) {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	if err := s.DB.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if s.Strict && !s.allowed(order.Status, target) {
		return nil, ErrInvalidTransition
	}

	// Concurrent updates to the same order race last-write-wins. Accepted:
	// status changes are manual, human-driven actions.
	order.Status = target
	if err := s.DB.Save(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) allowed(from, to models.OrderStatus) bool {
	for _, t := range strictTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
