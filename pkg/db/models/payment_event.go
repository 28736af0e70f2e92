package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/oxbryte/openly-backend/pkg/enums"
)

// PaymentEvent is an append-only outbox row recorded in the same transaction
// as a payment transition, forwarded downstream by the outbox publisher.
type PaymentEvent struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType    enums.PaymentEventType `gorm:"column:event_type;not null"`
	PaymentID    uuid.UUID              `gorm:"column:payment_id;type:uuid;not null;index"`
	Payload      json.RawMessage        `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	PublishedAt  *time.Time             `gorm:"column:published_at"`
	AttemptCount int                    `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string                `gorm:"column:last_error"`
}
