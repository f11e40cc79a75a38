package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type IdeaConfig struct {
	// AutoVote casts the submitter's vote on their own idea when quota allows.
	AutoVote bool
	Admins   []uuid.UUID
	Timeout  time.Duration
	Clock    func() time.Time
}

type ideaService struct {
	store     ports.Store
	votes     ports.VoteService
	publisher ports.ChangePublisher
	metrics   ports.VoteMetrics
	admins    map[uuid.UUID]struct{}
	autoVote  bool
	timeout   time.Duration
	clock     func() time.Time

	mu         sync.RWMutex
	snapshot   []*domain.IdeaWithVotes
	generation uint64
}

func NewIdeaService(store ports.Store, votes ports.VoteService, publisher ports.ChangePublisher, metrics ports.VoteMetrics, cfg IdeaConfig) ports.IdeaService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	admins := make(map[uuid.UUID]struct{}, len(cfg.Admins))
	for _, id := range cfg.Admins {
		admins[id] = struct{}{}
	}

	s := &ideaService{
		store:     store,
		votes:     votes,
		publisher: publisher,
		metrics:   metrics,
		admins:    admins,
		autoVote:  cfg.AutoVote,
		timeout:   cfg.Timeout,
		clock:     cfg.Clock,
	}

	// A committed vote drops the snapshot before Vote or Unvote returns.
	if observer, ok := votes.(commitObserver); ok {
		observer.onCommit(func(context.Context, domain.ChangeEvent) { s.invalidate() })
	}

	return s
}

func (s *ideaService) Submit(ctx context.Context, input ports.SubmitIdeaInput) (*domain.Idea, error) {
	if input.UserID == uuid.Nil {
		return nil, domain.ErrNotAuthenticated
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidIdea)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidIdea)
	}
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidIdea)
	}
	if input.UsageFrequency == "" {
		input.UsageFrequency = domain.UsageLow
	}
	if !input.UsageFrequency.Valid() {
		return nil, fmt.Errorf("%w: usage frequency must be High or Low", domain.ErrInvalidIdea)
	}

	now := s.clock().UTC()
	submitter := input.UserID
	idea := &domain.Idea{
		ID:             uuid.New(),
		Title:          title,
		Description:    description,
		Category:       category,
		UsageFrequency: input.UsageFrequency,
		Status:         domain.StatusUnderReview,
		Votes:          0,
		CreatedBy:      &submitter,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	saveCtx, cancel := withTimeout(ctx, s.timeout)
	err := s.store.Ideas().Save(saveCtx, idea)
	cancel()
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to save idea: %w", err))
	}

	s.invalidate()
	s.metrics.IdeaSubmitted()
	s.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeIdeaCreated, IdeaID: idea.ID, UserID: submitter, At: now})
	slog.Info("idea submitted", "idea_id", idea.ID, "user_id", submitter, "category", category)

	if s.autoVote && s.votes != nil {
		_, err := s.votes.Vote(ctx, submitter, idea.ID)
		switch {
		case err == nil:
			idea.Votes = 1
		case errors.Is(err, domain.ErrQuotaExhausted):
			slog.Info("submitter has no votes left, idea starts without a vote", "idea_id", idea.ID, "user_id", submitter)
		default:
			slog.Warn("failed to auto-vote submitted idea", "idea_id", idea.ID, "user_id", submitter, "error", err)
		}
	}

	return idea, nil
}

func (s *ideaService) GetIdea(ctx context.Context, id uuid.UUID, viewerID uuid.UUID) (*ports.IdeaView, error) {
	ideas, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, idea := range ideas {
		if idea.ID != id {
			continue
		}
		view := &ports.IdeaView{IdeaWithVotes: idea}
		if viewerID != uuid.Nil && s.votes != nil {
			view.HasVoted, err = s.votes.HasVoted(ctx, viewerID, id)
			if err != nil {
				return nil, err
			}
		}
		return view, nil
	}

	return nil, domain.ErrIdeaNotFound
}

func (s *ideaService) ListIdeas(ctx context.Context, input ports.ListIdeasInput) (*ports.ListIdeasResult, error) {
	ideas, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	filtered := filterIdeas(ideas, input)
	sortIdeas(filtered, input.Sort)

	page, pageSize := input.Page, input.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	start := min((page-1)*pageSize, len(filtered))
	end := min(start+pageSize, len(filtered))

	voted := map[uuid.UUID]bool{}
	if input.ViewerID != uuid.Nil && s.votes != nil {
		ids, err := s.votes.VotedIdeas(ctx, input.ViewerID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			voted[id] = true
		}
	}

	views := make([]ports.IdeaView, 0, end-start)
	for _, idea := range filtered[start:end] {
		views = append(views, ports.IdeaView{IdeaWithVotes: idea, HasVoted: voted[idea.ID]})
	}

	return &ports.ListIdeasResult{
		Ideas:    views,
		Total:    len(filtered),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *ideaService) Stats(ctx context.Context) (*domain.IdeaStats, error) {
	ideas, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.IdeaStats{Total: len(ideas), Categories: []string{}, Statuses: []domain.IdeaStatus{}}
	categories := map[string]bool{}
	statuses := map[domain.IdeaStatus]bool{}
	for _, idea := range ideas {
		switch idea.Status {
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusReleased:
			stats.Released++
		}
		stats.TotalVotes += idea.Votes
		categories[idea.Category] = true
		statuses[idea.Status] = true
	}

	for category := range categories {
		stats.Categories = append(stats.Categories, category)
	}
	sort.Strings(stats.Categories)
	for _, status := range domain.IdeaStatuses() {
		if statuses[status] {
			stats.Statuses = append(stats.Statuses, status)
		}
	}

	return stats, nil
}

func (s *ideaService) UpdateIdea(ctx context.Context, input ports.UpdateIdeaInput) (*domain.Idea, error) {
	if input.AdminID == uuid.Nil {
		return nil, domain.ErrNotAuthenticated
	}
	if _, ok := s.admins[input.AdminID]; !ok {
		return nil, domain.ErrForbidden
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, *input.Status)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	idea, err := s.store.Ideas().GetByID(ctx, input.IdeaID)
	if err != nil {
		return nil, storeError(err)
	}

	previous := idea.Status
	if input.Status != nil {
		idea.Status = *input.Status
	}
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		if notes == "" {
			idea.Notes = nil
		} else {
			idea.Notes = &notes
		}
	}
	idea.UpdatedAt = s.clock().UTC()

	if err := s.store.Ideas().Update(ctx, idea); err != nil {
		return nil, storeError(fmt.Errorf("failed to update idea: %w", err))
	}

	s.invalidate()
	s.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeIdeaUpdated, IdeaID: idea.ID, UserID: input.AdminID, At: idea.UpdatedAt})
	slog.Info("idea updated", "idea_id", idea.ID, "admin_id", input.AdminID, "from", previous, "to", idea.Status)

	return idea, nil
}

// HandleChange re-reads the idea list after any idea or vote mutation,
// whether it came from this process or another one.
func (s *ideaService) HandleChange(ctx context.Context, event domain.ChangeEvent) {
	s.invalidate()
	if _, err := s.load(ctx); err != nil {
		slog.Warn("failed to refresh ideas after change", "kind", event.Kind, "idea_id", event.IdeaID, "error", err)
	}
}

func (s *ideaService) load(ctx context.Context) ([]*domain.IdeaWithVotes, error) {
	s.mu.RLock()
	snapshot, generation := s.snapshot, s.generation
	s.mu.RUnlock()
	if snapshot != nil {
		return snapshot, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ideas, err := s.store.Ideas().ListWithVotes(ctx)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list ideas: %w", err))
	}
	if ideas == nil {
		ideas = []*domain.IdeaWithVotes{}
	}

	s.mu.Lock()
	if s.generation == generation {
		s.snapshot = ideas
	}
	s.mu.Unlock()

	return ideas, nil
}

func (s *ideaService) invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.generation++
	s.mu.Unlock()
}

func (s *ideaService) publish(ctx context.Context, event domain.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish change event", "kind", event.Kind, "idea_id", event.IdeaID, "error", err)
	}
}

func filterIdeas(ideas []*domain.IdeaWithVotes, input ports.ListIdeasInput) []*domain.IdeaWithVotes {
	query := strings.ToLower(strings.TrimSpace(input.Query))
	filtered := make([]*domain.IdeaWithVotes, 0, len(ideas))
	for _, idea := range ideas {
		if input.Status != "" && input.Status != "all" && string(idea.Status) != input.Status {
			continue
		}
		if input.Category != "" && input.Category != "all" && idea.Category != input.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(idea.Title), query) &&
			!strings.Contains(strings.ToLower(idea.Description), query) {
			continue
		}
		filtered = append(filtered, idea)
	}
	return filtered
}

func sortIdeas(ideas []*domain.IdeaWithVotes, by string) {
	switch by {
	case ports.SortVotes:
		sort.SliceStable(ideas, func(i, j int) bool {
			if ideas[i].Votes != ideas[j].Votes {
				return ideas[i].Votes > ideas[j].Votes
			}
			return ideas[i].CreatedAt.After(ideas[j].CreatedAt)
		})
	case ports.SortOldest:
		sort.SliceStable(ideas, func(i, j int) bool {
			return ideas[i].CreatedAt.Before(ideas[j].CreatedAt)
		})
	default:
		sort.SliceStable(ideas, func(i, j int) bool {
			return ideas[i].CreatedAt.After(ideas[j].CreatedAt)
		})
	}
}
