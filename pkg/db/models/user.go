package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical account record for merchants and buyers. ClerkID is
// the external identity-provider subject; the internal uuid is the canonical
// seller key everywhere else.
type User struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClerkID            *string    `gorm:"column:clerk_id;uniqueIndex"`
	Username           string     `gorm:"column:username;not null;uniqueIndex"`
	Email              *string    `gorm:"column:email"`
	PinHash            string     `gorm:"column:pin_hash;not null"`
	WalletAddress      *string    `gorm:"column:wallet_address;uniqueIndex"`
	UniqueName         *string    `gorm:"column:unique_name;uniqueIndex"`
	OnboardingComplete bool       `gorm:"column:onboarding_complete;not null;default:false"`
	Deleted            bool       `gorm:"column:deleted;not null;default:false"`
	DeletedAt          *time.Time `gorm:"column:deleted_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
