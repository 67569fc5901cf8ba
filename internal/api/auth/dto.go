package auth

import (
	"Replicaide/internal/entity"
	"time"
)

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	City        string `json:"city" validate:"max=100"`
	State       string `json:"state" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
	Role        string `json:"role" validate:"max=100"`
	Temperament string `json:"temperament" validate:"max=100"`
	Locale      string `json:"locale" validate:"max=10"`
}

type LoginUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginUserResponse struct {
	AccessToken      string  `json:"access_token"`
	ExpiresInMinutes float64 `json:"expires_in_minutes"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Locale    string          `json:"locale"`
	Location  entity.Location `json:"location"`
	Persona   entity.Persona  `json:"persona"`
	CreatedAt time.Time       `json:"created_at"`
}

func MakeUserResponse(user entity.User) UserResponse {
	profile := user.Profile()

	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Locale:    user.Locale,
		Location:  profile.Location,
		Persona:   profile.Persona,
		CreatedAt: user.CreatedAt,
	}
}
