// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and transport layers.
package domain

import "time"

// Idempotency records a webhook event delivery that has already been
// processed, keyed by the transport-supplied Idempotency-Key. Messaging
// transports redeliver on timeout; replaying a recorded key skips the
// dialogue turn instead of running it twice.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_key"`
	ConversationID string    `gorm:"type:TEXT NOT NULL"`
	SenderID       string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
