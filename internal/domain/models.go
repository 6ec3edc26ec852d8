// Package domain defines the core data model shared across the bot: resource
// units, bookings, pause records, and the inbound event shape delivered by
// the messaging transport. Booking is also the persistence model mapped with
// GORM for the durable ledger snapshot.
package domain

import (
	"time"
)

// Unit identifies one of the configured physical locations. Each unit carries
// its own capacity policy (see booking.UnitPolicy).
type Unit string

const (
	// UnitRecreio is the capacity-bounded unit: a fixed set of trial-class
	// slots with a per-slot seat maximum.
	UnitRecreio Unit = "recreio"

	// UnitBangu is the unbounded unit: free-form HH:MM times, no seat limit.
	UnitBangu Unit = "bangu"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	return u == UnitRecreio || u == UnitBangu
}

// Booking is a confirmed trial-class reservation. Rows are immutable once
// created; the only mutation is deletion (cancel). Bookings are owned
// exclusively by the capacity ledger; no other component writes them.
//
// Fields:
//   - ID: opaque UUID assigned at creation.
//   - Unit / Date / Time: the slot the booking occupies. Date is ISO
//     (YYYY-MM-DD), Time is the slot label (HH:MM).
//   - Name / Phone: requester details; Phone is in normalized display form.
//   - Companion: optional companion name (empty when none).
//   - Seq: insertion sequence within the ledger, used to restore creation
//     order from a snapshot. Listing and cancel-by-index follow this order.
type Booking struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Unit      Unit      `json:"unit"      gorm:"type:varchar(16);not null;index:idx_unit_date,priority:1"`
	Date      string    `json:"date"      gorm:"type:char(10);not null;index:idx_unit_date,priority:2"`
	Time      string    `json:"time"      gorm:"type:char(5);not null"`
	Name      string    `json:"name"      gorm:"type:varchar(128);not null"`
	Phone     string    `json:"phone"     gorm:"type:varchar(32);not null"`
	Companion string    `json:"companion,omitempty" gorm:"type:varchar(128)"`
	Seq       int64     `json:"-"         gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

// PauseReason records why a conversation was paused.
type PauseReason string

const (
	// PauseHumanTakeover: a human agent was observed replying in the
	// conversation, so the engine must stay silent.
	PauseHumanTakeover PauseReason = "human_takeover"

	// PauseUserRequested: the user asked to speak with staff.
	PauseUserRequested PauseReason = "user_requested"
)

// Event is the inbound fact set the core consumes per transport delivery.
// The core is indifferent to transport specifics beyond these four fields.
//
// FromSelf marks events originating from the account the bot itself operates.
// The transport never echoes the engine's own sends back, so a FromSelf event
// means a human agent replied from the shared account, which triggers the
// auto-pause mechanism.
type Event struct {
	SenderID       string `json:"sender_id"`
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	FromSelf       bool   `json:"from_self"`
}
