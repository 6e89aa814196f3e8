package model

import (
	"time"

	"github.com/google/uuid"
)

type Banner struct {
	ID        uuid.UUID
	Title     string
	ImageURL  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreSettings is a singleton row holding storefront-wide defaults.
type StoreSettings struct {
	Currency  string
	Timezone  string
	UpdatedAt time.Time
}

// NotificationType discriminates messages on the notifications queue.
type NotificationType string

const (
	NotificationOrderPlaced   NotificationType = "order_placed"
	NotificationPasswordReset NotificationType = "password_reset"
)

// NotificationMessage is the payload published to RabbitMQ for the
// notification worker.
type NotificationMessage struct {
	Type    NotificationType `json:"type"`
	UserID  uuid.UUID        `json:"user_id"`
	Email   string           `json:"email"`
	OrderID uuid.UUID        `json:"order_id,omitempty"`
	Token   string           `json:"token,omitempty"`
}
