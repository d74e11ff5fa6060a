// Package services defines the business logic for scheduling polls.
// This file centralizes service-level error values so that service methods
// return them consistently and callers can match them with errors.Is.
//
// Translation into HTTP status codes happens in the handler layer. The error
// strings double as the client-facing reason, so keep them short and stable.
package services

import "errors"

// Validation errors.
var (
	// ErrTitleRequired is returned when the title is blank after trimming.
	ErrTitleRequired = errors.New("title required")

	// ErrTitleTooLong is returned when the title exceeds MaxTitleRunes.
	ErrTitleTooLong = errors.New("title too long")

	// ErrDescriptionTooLong is returned when the description exceeds
	// MaxDescriptionRunes.
	ErrDescriptionTooLong = errors.New("description too long")

	// ErrSlotCount is returned when a poll would have fewer than 3 or more
	// than 7 slots, counting either the submitted or the non-blank entries.
	ErrSlotCount = errors.New("slots must be 3..7")

	// ErrSlotIDRequired is returned when a vote names no slot.
	ErrSlotIDRequired = errors.New("slotId required")

	// ErrInvalidChoice is returned for choices other than yes, maybe, no.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrLockFieldsRequired is returned when a lock request lacks the slot
	// or the host key.
	ErrLockFieldsRequired = errors.New("slotId + hostKey required")

	// ErrSlotNotInPoll is returned when a slot id does not belong to the
	// poll named in the request.
	ErrSlotNotInPoll = errors.New("slot not in poll")
)

// State and access errors.
var (
	// ErrPollNotFound indicates that no poll has the requested id.
	ErrPollNotFound = errors.New("poll not found")

	// ErrForbidden is returned when the presented host key does not match.
	ErrForbidden = errors.New("forbidden")

	// ErrPollLocked is returned when a vote arrives after the poll was locked.
	ErrPollLocked = errors.New("poll locked")

	// ErrAlreadyLocked is returned when a poll that already has a winning
	// slot is locked again.
	ErrAlreadyLocked = errors.New("poll already locked")
)
