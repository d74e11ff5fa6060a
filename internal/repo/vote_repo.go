package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-meetmerge-backend/internal/domain"
)

// upsertOpenVoteSQL writes a vote only while its poll is unlocked. The
// composite primary key turns a resubmission into an in-place update, and
// the EXISTS guard makes the open-poll check part of the same statement.
const upsertOpenVoteSQL = `
INSERT INTO votes (poll_id, slot_id, voter_key, choice, voted_at_iso)
SELECT ?, ?, ?, ?, ?
WHERE EXISTS (SELECT 1 FROM polls WHERE id = ? AND locked_slot_id IS NULL)
ON CONFLICT (poll_id, slot_id, voter_key)
DO UPDATE SET choice = excluded.choice, voted_at_iso = excluded.voted_at_iso`

// UpsertVote inserts or replaces the vote identified by (PollID, SlotID,
// VoterKey). It reports whether a row was written; false means the poll is
// locked (or missing) and nothing changed.
func UpsertVote(ctx context.Context, db *gorm.DB, v *domain.Vote) (bool, error) {
	res := db.WithContext(ctx).Exec(upsertOpenVoteSQL,
		v.PollID, v.SlotID, v.VoterKey, string(v.Choice), v.VotedAtISO,
		v.PollID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountVotes counts the votes with the given choice for one slot of a poll.
func CountVotes(ctx context.Context, db *gorm.DB, pollID, slotID string, choice domain.Choice) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("poll_id = ? AND slot_id = ? AND choice = ?", pollID, slotID, string(choice)).
		Count(&n).Error
	return n, err
}

// TallyVotes aggregates every vote of a poll in one grouped query. The map is
// keyed by slot id; slots without votes are absent.
func TallyVotes(ctx context.Context, db *gorm.DB, pollID string) (map[string]*domain.Tally, error) {
	var rows []struct {
		SlotID string
		Choice string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("slot_id, choice, COUNT(1) AS n").
		Where("poll_id = ?", pollID).
		Group("slot_id").Group("choice").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]*domain.Tally, len(rows))
	for _, r := range rows {
		t, ok := out[r.SlotID]
		if !ok {
			t = &domain.Tally{SlotID: r.SlotID}
			out[r.SlotID] = t
		}
		t.Add(domain.Choice(r.Choice), r.N)
	}
	return out, nil
}
