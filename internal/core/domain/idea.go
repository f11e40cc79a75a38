package domain

import (
	"time"

	"github.com/google/uuid"
)

type IdeaStatus string

const (
	StatusUnderReview  IdeaStatus = "Under Review"
	StatusPlanned      IdeaStatus = "Planned"
	StatusInProgress   IdeaStatus = "Development In Progress"
	StatusReleased     IdeaStatus = "Released"
	StatusRevisitLater IdeaStatus = "Will be revisited later"
)

var ideaStatuses = []IdeaStatus{
	StatusUnderReview,
	StatusPlanned,
	StatusInProgress,
	StatusReleased,
	StatusRevisitLater,
}

func IdeaStatuses() []IdeaStatus {
	return append([]IdeaStatus(nil), ideaStatuses...)
}

func (s IdeaStatus) Valid() bool {
	for _, status := range ideaStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type UsageFrequency string

const (
	UsageHigh UsageFrequency = "High"
	UsageLow  UsageFrequency = "Low"
)

func (f UsageFrequency) Valid() bool {
	return f == UsageHigh || f == UsageLow
}

// Categories is the suggested list offered by clients. Any non-empty category is accepted.
var Categories = []string{
	"User Interface",
	"Performance",
	"Security",
	"Integration",
	"Analytics",
	"Mobile Experience",
	"New Feature",
	"Other",
}

type Idea struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	UsageFrequency UsageFrequency `json:"usage_frequency"`
	Status         IdeaStatus     `json:"status"`
	Notes          *string        `json:"notes,omitempty"`
	Votes          int            `json:"votes"`
	CreatedBy      *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Voter struct {
	UserID      uuid.UUID `json:"user_id"`
	FullName    *string   `json:"full_name"`
	CompanyName *string   `json:"company_name"`
}

// IdeaWithVotes is an idea joined with its voters and the submitter's profile.
type IdeaWithVotes struct {
	Idea
	Voters             []Voter `json:"voters"`
	SubmittedBy        *string `json:"submitted_by"`
	SubmittedByCompany *string `json:"submitted_by_company"`
}

type IdeaStats struct {
	Total      int          `json:"total"`
	InProgress int          `json:"in_progress"`
	Released   int          `json:"released"`
	TotalVotes int          `json:"total_votes"`
	Categories []string     `json:"categories"`
	Statuses   []IdeaStatus `json:"statuses"`
}
