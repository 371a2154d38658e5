package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"not null" json:"username"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"` // bcrypt hash
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	// profile
	Bio    string         `gorm:"type:text" json:"bio"`
	Skills datatypes.JSON `json:"skills"` // ["react", "seo", ...]

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
