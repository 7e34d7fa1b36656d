package dto

import (
	"time"

	"github.com/astroeyes/authcore/internal/user/domain"
)

// UserResponse is the public view of an account. The password hash is never exposed.
type UserResponse struct {
	ID          string    `json:"user_uuid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToUserResponse converts a domain user into a response.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
