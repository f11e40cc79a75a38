package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote links one user to one idea for the quarter it was cast in.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	IdeaID    uuid.UUID `json:"idea_id"`
	UserID    uuid.UUID `json:"user_id"`
	Quarter   string    `json:"quarter"`
	CreatedAt time.Time `json:"created_at"`
}
