package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order references gig and users without DB-level constraints: deleting a gig
// leaves historical orders in place with a dangling gig reference, and readers
// must tolerate that.
type Order struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GigID        uuid.UUID `gorm:"type:uuid;not null;index" json:"gig_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`

	// Snapshot of the gig price at order time, never re-read afterwards.
	Price float64 `gorm:"not null" json:"price"`

	Status OrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Gig        *Gig  `gorm:"foreignKey:GigID" json:"gig,omitempty"`
	Client     *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}
