package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/go-meetmerge-backend/internal/domain"
)

func TestCreatePoll_PersistsPollAndSlots(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, _ := seedPoll(t, db, "p_1", "2025-01-03T19:00", "2025-01-01T19:00", "2025-01-02T19:00")

	got, err := GetPoll(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("GetPoll: %v", err)
	}
	if got.Title != "Dinner" || got.HostKey != p.HostKey || got.LockedSlotID != nil || got.Description != nil {
		t.Fatalf("unexpected poll %+v", got)
	}

	slots, err := ListSlots(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	want := []string{"2025-01-01T19:00", "2025-01-02T19:00", "2025-01-03T19:00"}
	if len(slots) != len(want) {
		t.Fatalf("len(slots) = %d", len(slots))
	}
	for i, s := range slots {
		if s.StartISO != want[i] || s.PollID != p.ID {
			t.Fatalf("slot %d = %+v; want start %s", i, s, want[i])
		}
	}
}

func TestCreatePoll_RollsBackOnSlotFailure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := &domain.Poll{ID: "p_dup", Title: "T", CreatedAtISO: "2025-01-01T00:00:00.000Z", HostKey: "h"}
	slots := []domain.Slot{
		{ID: "s_same", StartISO: "a"},
		{ID: "s_same", StartISO: "b"}, // duplicate primary key
	}
	if err := CreatePoll(ctx, db, p, slots); err == nil {
		t.Fatalf("expected error on duplicate slot id")
	}
	if _, err := GetPoll(ctx, db, "p_dup"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("poll must not survive a failed create, err=%v", err)
	}
}

func TestGetPoll_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetPoll(context.Background(), db, "p_nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSlot_ScopedToPoll(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, aSlots := seedPoll(t, db, "p_a", "1", "2", "3")
	seedPoll(t, db, "p_b", "1", "2", "3")

	if _, err := GetSlot(ctx, db, "p_a", aSlots[0].ID); err != nil {
		t.Fatalf("GetSlot own poll: %v", err)
	}
	if _, err := GetSlot(ctx, db, "p_b", aSlots[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("slot from another poll must be ErrNotFound, got %v", err)
	}
}

func TestLockPoll_SingleAssignment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, slots := seedPoll(t, db, "p_l", "1", "2", "3")

	ok, err := LockPoll(ctx, db, p.ID, slots[1].ID)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	ok, err = LockPoll(ctx, db, p.ID, slots[2].ID)
	if err != nil || ok {
		t.Fatalf("second lock must not apply: ok=%v err=%v", ok, err)
	}
	got, _ := GetPoll(ctx, db, p.ID)
	if got.LockedSlotID == nil || *got.LockedSlotID != slots[1].ID {
		t.Fatalf("locked slot = %v; want %s", got.LockedSlotID, slots[1].ID)
	}

	ok, err = LockPoll(ctx, db, "p_missing", "s")
	if err != nil || ok {
		t.Fatalf("missing poll: ok=%v err=%v", ok, err)
	}
}

func TestLockPoll_ConcurrentExactlyOneWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, slots := seedPoll(t, db, "p_c", "1", "2", "3")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := LockPoll(ctx, db, p.ID, slots[i%len(slots)].ID)
			if err != nil {
				t.Errorf("LockPoll: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winning lock, got %d", wins)
	}
}
