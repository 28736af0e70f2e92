package user

import (
	"github.com/google/uuid"

	"github.com/oxbryte/openly-backend/pkg/db/models"
)

// SignupInput carries the validated signup payload.
type SignupInput struct {
	Username      string
	Pin           string
	WalletAddress string
	Email         *string
}

// UserDTO is the outward user shape. The pin hash never leaves the service.
type UserDTO struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              *string   `json:"email,omitempty"`
	WalletAddress      *string   `json:"walletAddress,omitempty"`
	UniqueName         *string   `json:"uniqueName,omitempty"`
	OnboardingComplete bool      `json:"onboardingComplete"`
}

// UniqueNameCheckDTO reports alias availability.
type UniqueNameCheckDTO struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

func toUserDTO(user *models.User) *UserDTO {
	return &UserDTO{
		ID:                 user.ID,
		Username:           user.Username,
		Email:              user.Email,
		WalletAddress:      user.WalletAddress,
		UniqueName:         user.UniqueName,
		OnboardingComplete: user.OnboardingComplete,
	}
}
