// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for polls and
// their candidate slots.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the service layer. They hold no business
// rules beyond the guarded writes that keep the lock transition atomic.
//
// Error semantics:
//   - A missing poll or slot yields ErrNotFound (gorm.ErrRecordNotFound).
//   - Constraint violations and I/O failures propagate as raw gorm errors.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-meetmerge-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePoll inserts p and all of its slots in a single transaction. Slot
// PollIDs are overwritten with p.ID. Either everything is stored or nothing.
func CreatePoll(ctx context.Context, db *gorm.DB, p *domain.Poll, slots []domain.Slot) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if len(slots) == 0 {
			return nil
		}
		for i := range slots {
			slots[i].PollID = p.ID
		}
		return tx.Omit("Poll").Create(&slots).Error
	})
}

// GetPoll fetches a poll by id.
func GetPoll(ctx context.Context, db *gorm.DB, id string) (*domain.Poll, error) {
	var p domain.Poll
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSlots returns the slots of a poll ordered by start time, then id.
func ListSlots(ctx context.Context, db *gorm.DB, pollID string) ([]domain.Slot, error) {
	var out []domain.Slot
	err := db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("start_iso ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetSlot fetches a slot scoped to its poll. A slot id that exists under a
// different poll is reported as ErrNotFound.
func GetSlot(ctx context.Context, db *gorm.DB, pollID, slotID string) (*domain.Slot, error) {
	var s domain.Slot
	if err := db.WithContext(ctx).
		Where("id = ? AND poll_id = ?", slotID, pollID).
		Take(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// LockPoll records slotID as the winning slot, but only while the poll is
// still open. It reports whether the row was updated; false means the poll
// is missing or another caller locked it first.
func LockPoll(ctx context.Context, db *gorm.DB, pollID, slotID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("id = ? AND locked_slot_id IS NULL", pollID).
		Update("locked_slot_id", slotID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
