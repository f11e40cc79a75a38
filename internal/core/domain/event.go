package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChangeKind string

const (
	ChangeIdeaCreated ChangeKind = "idea.created"
	ChangeIdeaUpdated ChangeKind = "idea.updated"
	ChangeVoteCast    ChangeKind = "vote.cast"
	ChangeVoteRemoved ChangeKind = "vote.removed"
)

// ChangeEvent announces that ideas or votes were mutated. Receivers re-read
// state instead of applying the event as a delta.
type ChangeEvent struct {
	Kind   ChangeKind `json:"kind"`
	IdeaID uuid.UUID  `json:"idea_id"`
	UserID uuid.UUID  `json:"user_id,omitempty"`
	At     time.Time  `json:"at"`
}
