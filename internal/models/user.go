package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// DefaultRating is applied at the data-access boundary whenever a stored
// rating is missing or malformed, so the rating engine never sees a zero.
const DefaultRating = 1500

type User struct {
	ID       string   `gorm:"primaryKey;type:text" json:"id"`
	Name     string   `json:"name"`
	Username string   `gorm:"uniqueIndex" json:"username"`
	Email    string   `gorm:"uniqueIndex" json:"email"`
	Role     UserRole `gorm:"type:text;default:'USER'" json:"role"`

	// Competitive rating, adjusted only at contest finalization
	Rating int `gorm:"default:1500" json:"rating"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectiveRating guards against rows written before the rating column
// existed (zero) or corrupted negative values.
func (u *User) EffectiveRating() int {
	if u.Rating <= 0 {
		return DefaultRating
	}
	return u.Rating
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
