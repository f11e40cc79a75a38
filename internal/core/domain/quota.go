package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultVotesPerQuarter is the quota every user starts each quarter with.
const DefaultVotesPerQuarter = 5

// QuotaRecord is a user's vote usage within one quarter. It is derived from the
// votes recorded for that quarter and never stored on its own.
type QuotaRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	Quarter   string    `json:"quarter"`
	VotesUsed int       `json:"votes_used"`
	Total     int       `json:"total_votes"`
}

// Remaining is Total - VotesUsed clamped to [0, Total].
func (r QuotaRecord) Remaining() int {
	remaining := r.Total - r.VotesUsed
	if remaining < 0 {
		return 0
	}
	if remaining > r.Total {
		return r.Total
	}
	return remaining
}

type QuarterInfo struct {
	CurrentQuarter   string    `json:"current_quarter"`
	QuarterStart     time.Time `json:"quarter_start"`
	NextQuarterStart time.Time `json:"next_quarter_start"`
	VotesUsed        int       `json:"votes_used"`
	VotesRemaining   int       `json:"votes_remaining"`
	TotalVotes       int       `json:"total_votes"`
	ResetsIn         string    `json:"resets_in"`
}
