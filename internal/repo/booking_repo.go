// Package repo implements the durable persistence layer for the booking
// ledger, backed by GORM. This file provides the snapshot save/load contract
// the ledger persists through.
//
// The snapshot model is intentionally simple: the ledger is the source of
// truth in memory, and the bookings table is always replaced wholesale in a
// single transaction. Durability is best-effort; readers must tolerate the
// table being momentarily stale relative to the in-memory ledger.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/arenalk/bookingbot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
//
// It aliases gorm.ErrRecordNotFound so callers can match either.
var ErrNotFound = gorm.ErrRecordNotFound

// SaveSnapshot replaces the persisted booking set with the given snapshot
// in one transaction. An empty snapshot clears the table.
func SaveSnapshot(ctx context.Context, db *gorm.DB, bookings []domain.Booking) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.Booking{}).Error; err != nil {
			return err
		}
		if len(bookings) == 0 {
			return nil
		}
		return tx.Create(&bookings).Error
	})
}

// LoadSnapshot returns every persisted booking ordered by insertion
// sequence, ready for Ledger.Restore. A missing or empty table yields an
// empty slice, not an error.
func LoadSnapshot(ctx context.Context, db *gorm.DB) ([]domain.Booking, error) {
	var out []domain.Booking
	err := db.WithContext(ctx).Order("seq ASC").Find(&out).Error
	return out, err
}
