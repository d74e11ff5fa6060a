// Package domain defines the persistence models for polls, candidate slots
// and votes. These types are mapped with GORM and form the core data layer of
// the scheduling API.
package domain

import "time"

// TimeLayout is the fixed-width UTC layout used for every stored timestamp.
// Values in this layout sort lexicographically in chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout after converting it to UTC.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// Slot count bounds accepted at poll creation.
const (
	MinSlots = 3
	MaxSlots = 7
)

// Poll is a scheduling poll owned by whoever holds HostKey.
//
// Fields:
//   - ID: opaque identifier ("p_" + 12 hex chars).
//   - Title: trimmed, non-empty display title.
//   - Description: optional free text; nil when absent.
//   - CreatedAtISO: creation instant in TimeLayout.
//   - HostKey: host secret; never serialized.
//   - LockedSlotID: winning slot once the host locks the poll; terminal.
type Poll struct {
	ID           string  `json:"id"           gorm:"type:varchar(32);primaryKey"`
	Title        string  `json:"title"        gorm:"type:varchar(255);not null"`
	Description  *string `json:"description"  gorm:"type:text"`
	CreatedAtISO string  `json:"createdAtIso" gorm:"column:created_at_iso;type:varchar(32);not null"`
	HostKey      string  `json:"-"            gorm:"type:varchar(64);not null"`
	LockedSlotID *string `json:"lockedSlotId" gorm:"type:varchar(32)"`
}

// TableName returns the database table name for Poll.
func (Poll) TableName() string { return "polls" }

// Locked reports whether a winning slot has been chosen.
func (p Poll) Locked() bool { return p.LockedSlotID != nil }

// Slot is a candidate start time belonging to one poll.
type Slot struct {
	ID       string `json:"id"       gorm:"type:varchar(32);primaryKey"`
	PollID   string `json:"-"        gorm:"type:varchar(32);not null;index:idx_slots_poll_start,priority:1"`
	StartISO string `json:"startIso" gorm:"column:start_iso;type:varchar(64);not null;index:idx_slots_poll_start,priority:2"`

	// Poll is the owning poll. Slots are removed with it.
	Poll Poll `json:"-" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Slot.
func (Slot) TableName() string { return "slots" }

// Vote is one voter's answer for one slot. The (poll, slot, voter) triple is
// the primary key, so a resubmission replaces the previous answer.
type Vote struct {
	PollID     string `json:"pollId"     gorm:"type:varchar(32);primaryKey;index:idx_votes_poll_slot,priority:1"`
	SlotID     string `json:"slotId"     gorm:"type:varchar(32);primaryKey;index:idx_votes_poll_slot,priority:2"`
	VoterKey   string `json:"-"          gorm:"type:varchar(64);primaryKey"`
	Choice     Choice `json:"choice"     gorm:"type:varchar(8);not null;check:choice IN ('yes','maybe','no')"`
	VotedAtISO string `json:"votedAtIso" gorm:"column:voted_at_iso;type:varchar(32);not null"`

	Poll Poll `json:"-" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Slot Slot `json:"-" gorm:"foreignKey:SlotID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// Choice is a voter's availability answer for a slot.
type Choice string

const (
	ChoiceYes   Choice = "yes"
	ChoiceMaybe Choice = "maybe"
	ChoiceNo    Choice = "no"
)

// ParseChoice accepts exactly "yes", "maybe" or "no".
func ParseChoice(s string) (Choice, bool) {
	switch c := Choice(s); c {
	case ChoiceYes, ChoiceMaybe, ChoiceNo:
		return c, true
	}
	return "", false
}

// Tally is the per-slot vote count.
type Tally struct {
	SlotID string `json:"slotId"`
	Yes    int64  `json:"yes"`
	Maybe  int64  `json:"maybe"`
	No     int64  `json:"no"`
}

// Add increments the counter for c by n.
func (t *Tally) Add(c Choice, n int64) {
	switch c {
	case ChoiceYes:
		t.Yes += n
	case ChoiceMaybe:
		t.Maybe += n
	case ChoiceNo:
		t.No += n
	}
}
