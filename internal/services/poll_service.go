// Package services – PollService
//
// This file implements the PollService, which owns the poll lifecycle:
// creation with its candidate slots, the read model with tallies, anonymous
// voting, and the one-way lock performed by the host.
//
// Every mutating method runs in a single transaction. The storage writes that
// could race with a lock (vote upsert, lock itself) are guarded in SQL, so the
// checks performed here only decide which error to report.
//
// Observability: public methods are OpenTelemetry-instrumented; spans are
// named after the method under the "services/PollService" tracer.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-meetmerge-backend/internal/domain"
	"github.com/tbourn/go-meetmerge-backend/internal/repo"
	"github.com/tbourn/go-meetmerge-backend/internal/token"
)

const tracerName = "services/PollService"

// PollService provides the poll operations exposed by the API.
type PollService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Now is the clock used for creation and vote timestamps.
	Now func() time.Time
	// NewID mints prefixed ids for polls and slots.
	NewID func(prefix string) (string, error)
	// NewSecret mints host keys and voter keys.
	NewSecret func() (string, error)

	// MaxTitleRunes and MaxDescriptionRunes cap stored text by rune count.
	MaxTitleRunes       int
	MaxDescriptionRunes int
}

// NewPollService constructs a PollService backed by db with the system
// clock and crypto/rand generators.
func NewPollService(db *gorm.DB) *PollService {
	return &PollService{
		DB:                  db,
		Now:                 time.Now,
		NewID:               token.NewID,
		NewSecret:           token.NewSecret,
		MaxTitleRunes:       200,
		MaxDescriptionRunes: 2000,
	}
}

// CreatePollInput is the raw create request. Slots holds the submitted start
// times in request order.
type CreatePollInput struct {
	Title       string
	Description *string
	Slots       []string
}

// CreatePollResult carries the new poll id and its host secret. The secret
// is returned exactly once.
type CreatePollResult struct {
	PollID  string
	HostKey string
}

// PollView is the read model returned by Get.
type PollView struct {
	Poll    domain.Poll
	Slots   []domain.Slot
	Tallies []domain.Tally // same order as Slots
	IsHost  bool
}

// VoteInput is a single vote request.
type VoteInput struct {
	PollID   string
	SlotID   string
	Choice   string
	VoterKey string // may be empty; a fresh key is minted then
}

// VoteResult reports the voter key the vote was stored under.
type VoteResult struct {
	VoterKey string
	Minted   bool
}

// LockInput is a host's request to finalize a poll.
type LockInput struct {
	PollID  string
	SlotID  string
	HostKey string
}

// Create validates the request and stores the poll with its slots atomically.
func (s *PollService) Create(ctx context.Context, in CreatePollInput) (*CreatePollResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Create",
		trace.WithAttributes(attribute.Int("poll.slots.submitted", len(in.Slots))),
	)
	defer span.End()

	title := normalizeText(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if s.MaxTitleRunes > 0 && utf8.RuneCountInString(title) > s.MaxTitleRunes {
		return nil, ErrTitleTooLong
	}

	var desc *string
	if in.Description != nil {
		if d := normalizeText(*in.Description); d != "" {
			if s.MaxDescriptionRunes > 0 && utf8.RuneCountInString(d) > s.MaxDescriptionRunes {
				return nil, ErrDescriptionTooLong
			}
			desc = &d
		}
	}

	if n := len(in.Slots); n < domain.MinSlots || n > domain.MaxSlots {
		return nil, ErrSlotCount
	}
	starts := make([]string, 0, len(in.Slots))
	for _, raw := range in.Slots {
		if st := strings.TrimSpace(raw); st != "" {
			starts = append(starts, st)
		}
	}
	// blank entries are dropped, so the survivors must still meet the minimum
	if len(starts) < domain.MinSlots {
		return nil, ErrSlotCount
	}

	pollID, err := s.NewID(token.PollPrefix)
	if err != nil {
		return nil, failSpan(span, err)
	}
	hostKey, err := s.NewSecret()
	if err != nil {
		return nil, failSpan(span, err)
	}
	slots := make([]domain.Slot, len(starts))
	for i, st := range starts {
		id, err := s.NewID(token.SlotPrefix)
		if err != nil {
			return nil, failSpan(span, err)
		}
		slots[i] = domain.Slot{ID: id, StartISO: st}
	}

	p := &domain.Poll{
		ID:           pollID,
		Title:        title,
		Description:  desc,
		CreatedAtISO: domain.FormatTime(s.Now()),
		HostKey:      hostKey,
	}
	if err := repo.CreatePoll(ctx, s.DB, p, slots); err != nil {
		return nil, failSpan(span, fmt.Errorf("create poll: %w", err))
	}

	span.SetAttributes(attribute.String("poll.id", pollID), attribute.Int("poll.slots", len(slots)))
	return &CreatePollResult{PollID: pollID, HostKey: hostKey}, nil
}

// Get loads a poll, its ordered slots and per-slot tallies. Slots without
// votes get an all-zero tally. hostKey only affects IsHost and is trimmed
// the same way Lock trims it.
func (s *PollService) Get(ctx context.Context, pollID, hostKey string) (*PollView, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Get",
		trace.WithAttributes(attribute.String("poll.id", pollID)),
	)
	defer span.End()

	var view PollView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.GetPoll(ctx, tx, pollID)
		if err != nil {
			return err
		}
		slots, err := repo.ListSlots(ctx, tx, pollID)
		if err != nil {
			return err
		}
		counts, err := repo.TallyVotes(ctx, tx, pollID)
		if err != nil {
			return err
		}

		view.Poll = *p
		view.Slots = slots
		view.Tallies = make([]domain.Tally, len(slots))
		for i, sl := range slots {
			if t, ok := counts[sl.ID]; ok {
				view.Tallies[i] = *t
			} else {
				view.Tallies[i] = domain.Tally{SlotID: sl.ID}
			}
		}
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("get poll: %w", err))
	}

	view.IsHost = token.Equal(strings.TrimSpace(hostKey), view.Poll.HostKey)
	return &view, nil
}

// Vote records or replaces the caller's answer for one slot. Validation
// failures are reported before the poll is looked up.
func (s *PollService) Vote(ctx context.Context, in VoteInput) (*VoteResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Vote",
		trace.WithAttributes(attribute.String("poll.id", in.PollID)),
	)
	defer span.End()

	slotID := strings.TrimSpace(in.SlotID)
	if slotID == "" {
		return nil, ErrSlotIDRequired
	}
	choice, ok := domain.ParseChoice(in.Choice)
	if !ok {
		return nil, ErrInvalidChoice
	}

	res := &VoteResult{VoterKey: in.VoterKey}
	if !token.ValidVoterKey(res.VoterKey) {
		k, err := s.NewSecret()
		if err != nil {
			return nil, failSpan(span, err)
		}
		res.VoterKey, res.Minted = k, true
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.GetPoll(ctx, tx, in.PollID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPollNotFound
		}
		if err != nil {
			return err
		}
		if p.Locked() {
			return ErrPollLocked
		}
		if _, err := repo.GetSlot(ctx, tx, in.PollID, slotID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSlotNotInPoll
			}
			return err
		}

		applied, err := repo.UpsertVote(ctx, tx, &domain.Vote{
			PollID:     in.PollID,
			SlotID:     slotID,
			VoterKey:   res.VoterKey,
			Choice:     choice,
			VotedAtISO: domain.FormatTime(s.Now()),
		})
		if err != nil {
			return err
		}
		if !applied {
			return ErrPollLocked
		}
		return nil
	})
	if err != nil {
		if isServiceErr(err) {
			return nil, err
		}
		return nil, failSpan(span, fmt.Errorf("vote: %w", err))
	}

	span.SetAttributes(attribute.String("vote.choice", string(choice)))
	return res, nil
}

// Lock finalizes a poll on slotID. Only the host may lock, the slot must
// belong to the poll, and a poll can be locked once.
func (s *PollService) Lock(ctx context.Context, in LockInput) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Lock",
		trace.WithAttributes(attribute.String("poll.id", in.PollID)),
	)
	defer span.End()

	slotID := strings.TrimSpace(in.SlotID)
	hostKey := strings.TrimSpace(in.HostKey)
	if slotID == "" || hostKey == "" {
		return ErrLockFieldsRequired
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.GetPoll(ctx, tx, in.PollID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPollNotFound
		}
		if err != nil {
			return err
		}
		if !token.Equal(hostKey, p.HostKey) {
			return ErrForbidden
		}
		if _, err := repo.GetSlot(ctx, tx, in.PollID, slotID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSlotNotInPoll
			}
			return err
		}
		if p.Locked() {
			return ErrAlreadyLocked
		}

		ok, err := repo.LockPoll(ctx, tx, in.PollID, slotID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyLocked
		}
		return nil
	})
	if err != nil {
		if isServiceErr(err) {
			return err
		}
		return failSpan(span, fmt.Errorf("lock poll: %w", err))
	}

	span.SetAttributes(attribute.String("poll.locked_slot", slotID))
	return nil
}

// failSpan marks the span as errored and returns err unchanged.
func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// isServiceErr reports whether err is one of this package's sentinels.
func isServiceErr(err error) bool {
	for _, target := range []error{
		ErrPollNotFound, ErrForbidden, ErrPollLocked, ErrAlreadyLocked, ErrSlotNotInPoll,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// normalizeText trims surrounding whitespace and applies Unicode NFC so that
// visually identical titles are stored identically.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
