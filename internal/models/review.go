package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review belongs to exactly one gig. A user may review a gig once; the unique
// index backs up the existence check in services/ratings.
type Review struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GigID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_gig_user" json:"gig_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_gig_user" json:"user_id"`

	Username string `gorm:"not null" json:"username"` // snapshot at submission time
	Rating   int    `gorm:"not null" json:"rating"`   // 1-5
	Comment  string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
