package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultGigImage = "/uploads/default.jpg"

// Categories is the fixed set a gig may belong to.
var Categories = []string{"Web Development", "Design", "Writing", "Marketing"}

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

type Gig struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`

	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text;not null" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	Category    string  `gorm:"type:varchar(50);not null;index" json:"category"`
	ImageURL    string  `gorm:"default:'/uploads/default.jpg'" json:"image_url"`

	// Derived from the review rows; kept in sync by services/ratings.
	Rating     float64 `gorm:"default:0" json:"rating"`
	NumReviews int     `gorm:"default:0" json:"num_reviews"`

	// Optimistic lock counter guarding the aggregate columns above.
	Version int64 `gorm:"default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Reviews    []Review `gorm:"foreignKey:GigID" json:"reviews,omitempty"`
}

func (g *Gig) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return
}
