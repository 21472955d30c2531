package journey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/pkg/id"
)

type Service interface {
	ListStages(ctx context.Context, f domain.StageFilter) ([]domain.JourneyStage, error)
	GetStage(ctx context.Context, stageID string) (*domain.JourneyStage, error)
	Graph(ctx context.Context, includeOptional bool) (*domain.JourneyGraph, error)
	CreateStage(ctx context.Context, in domain.StageInput) (*domain.JourneyStage, error)
	UpdateStage(ctx context.Context, stageID string, in domain.StageInput) (*domain.JourneyStage, error)
	AddDependency(ctx context.Context, in domain.DependencyInput) (*domain.StageDependency, error)
	RemoveDependency(ctx context.Context, dependencyID string) error
	UpsertProgress(ctx context.Context, userID, stageID string, in domain.ProgressInput) (*domain.UserJourneyProgress, error)
	ListProgress(ctx context.Context, userID string) ([]domain.UserJourneyProgress, error)
	Summary(ctx context.Context, userID string) (*domain.JourneySummary, error)
}

type stageStore interface {
	Put(ctx context.Context, s *domain.JourneyStage) error
	Get(ctx context.Context, stageID string) (*domain.JourneyStage, error)
	Scan(ctx context.Context) ([]domain.JourneyStage, error)
	Update(ctx context.Context, stageID string, updates map[string]interface{}) error
}

type dependencyStore interface {
	Put(ctx context.Context, d *domain.StageDependency) error
	Delete(ctx context.Context, dependencyID string) error
	Scan(ctx context.Context) ([]domain.StageDependency, error)
}

type progressStore interface {
	Upsert(ctx context.Context, p *domain.UserJourneyProgress) (*domain.UserJourneyProgress, error)
	ListByUser(ctx context.Context, userID string) ([]domain.UserJourneyProgress, error)
}

type service struct {
	stages   stageStore
	deps     dependencyStore
	progress progressStore
}

type ServiceDeps struct {
	StageRepo      stageStore
	DependencyRepo dependencyStore
	ProgressRepo   progressStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		stages:   deps.StageRepo,
		deps:     deps.DependencyRepo,
		progress: deps.ProgressRepo,
	}
}

func (s *service) ListStages(ctx context.Context, f domain.StageFilter) ([]domain.JourneyStage, error) {
	all, err := s.stages.Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.JourneyStage, 0, len(all))
	for _, st := range all {
		if f.Category != "" && !strings.EqualFold(st.Category, f.Category) {
			continue
		}
		if st.Premium && !f.IncludePremium {
			continue
		}
		out = append(out, st)
	}
	byPosition(out)
	return out, nil
}

func (s *service) GetStage(ctx context.Context, stageID string) (*domain.JourneyStage, error) {
	return s.stages.Get(ctx, stageID)
}

func (s *service) Graph(ctx context.Context, includeOptional bool) (*domain.JourneyGraph, error) {
	stages, err := s.stages.Scan(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := s.deps.Scan(ctx)
	if err != nil {
		return nil, err
	}
	byPosition(stages)

	g := &domain.JourneyGraph{Nodes: stages, Edges: []domain.StageDependency{}}
	for _, d := range deps {
		if d.Type == domain.DependencyOptional && !includeOptional {
			continue
		}
		g.Edges = append(g.Edges, d)
	}
	g.Order = topoOrder(stages, deps)
	g.CriticalPath, g.CriticalPathDays = criticalPath(stages, deps, g.Order)
	for _, st := range stages {
		g.TotalCostMin += st.CostMin
		g.TotalCostMax += st.CostMax
		g.TotalDaysMin += st.DurationMinDays
		g.TotalDaysMax += st.DurationMaxDays
	}
	return g, nil
}

func (s *service) CreateStage(ctx context.Context, in domain.StageInput) (*domain.JourneyStage, error) {
	now := time.Now().UTC()
	st := &domain.JourneyStage{
		StageID:         id.New(),
		Name:            in.Name,
		Description:     in.Description,
		Category:        in.Category,
		Position:        in.Position,
		CostMin:         in.CostMin,
		CostMax:         in.CostMax,
		DurationMinDays: in.DurationMinDays,
		DurationMaxDays: in.DurationMaxDays,
		Complexity:      in.Complexity,
		CriticalPath:    in.CriticalPath,
		Premium:         in.Premium,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.stages.Put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) UpdateStage(ctx context.Context, stageID string, in domain.StageInput) (*domain.JourneyStage, error) {
	err := s.stages.Update(ctx, stageID, map[string]interface{}{
		"name":              in.Name,
		"description":       in.Description,
		"category":          in.Category,
		"position":          in.Position,
		"cost_min":          in.CostMin,
		"cost_max":          in.CostMax,
		"duration_min_days": in.DurationMinDays,
		"duration_max_days": in.DurationMaxDays,
		"complexity":        in.Complexity,
		"critical_path":     in.CriticalPath,
		"premium":           in.Premium,
	})
	if err != nil {
		return nil, err
	}
	return s.stages.Get(ctx, stageID)
}

func (s *service) AddDependency(ctx context.Context, in domain.DependencyInput) (*domain.StageDependency, error) {
	if in.PrerequisiteID == in.DependentID {
		return nil, fmt.Errorf("a stage cannot depend on itself: %w", domain.ErrBadRequest)
	}
	for _, sid := range []string{in.PrerequisiteID, in.DependentID} {
		if _, err := s.stages.Get(ctx, sid); err != nil {
			return nil, err
		}
	}
	existing, err := s.deps.Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range existing {
		if d.PrerequisiteID == in.PrerequisiteID && d.DependentID == in.DependentID {
			return nil, fmt.Errorf("dependency already exists: %w", domain.ErrConflict)
		}
	}
	d := &domain.StageDependency{
		DependencyID:   id.New(),
		PrerequisiteID: in.PrerequisiteID,
		DependentID:    in.DependentID,
		Type:           in.Type,
		CreatedAt:      time.Now().UTC(),
	}
	if ordering(*d) && createsCycle(existing, d.PrerequisiteID, d.DependentID) {
		return nil, fmt.Errorf("dependency would create a cycle: %w", domain.ErrConflict)
	}
	if err := s.deps.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) RemoveDependency(ctx context.Context, dependencyID string) error {
	return s.deps.Delete(ctx, dependencyID)
}

func (s *service) UpsertProgress(ctx context.Context, userID, stageID string, in domain.ProgressInput) (*domain.UserJourneyProgress, error) {
	stage, err := s.stages.Get(ctx, stageID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := indexProgress(rows)

	if in.Status == domain.ProgressInProgress || in.Status == domain.ProgressCompleted {
		deps, err := s.deps.Scan(ctx)
		if err != nil {
			return nil, err
		}
		if blocked := unmet(blockingPrereqs(deps)[stageID], current); len(blocked) > 0 {
			return nil, fmt.Errorf("%s is blocked by unfinished stages %s: %w",
				stage.Name, strings.Join(blocked, ", "), domain.ErrConflict)
		}
	}

	p := &domain.UserJourneyProgress{
		UserID:             userID,
		StageID:            stageID,
		Status:             in.Status,
		ActualCost:         in.ActualCost,
		ActualDurationDays: in.ActualDurationDays,
		Notes:              in.Notes,
	}
	switch {
	case in.Status == domain.ProgressCompleted:
		p.Percentage = 100
	case in.Status == domain.ProgressNotStarted:
		p.Percentage = 0
	case in.Percentage != nil:
		p.Percentage = *in.Percentage
	default:
		p.Percentage = current[stageID].Percentage
	}
	return s.progress.Upsert(ctx, p)
}

func (s *service) ListProgress(ctx context.Context, userID string) ([]domain.UserJourneyProgress, error) {
	return s.progress.ListByUser(ctx, userID)
}

func (s *service) Summary(ctx context.Context, userID string) (*domain.JourneySummary, error) {
	stages, err := s.stages.Scan(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := s.deps.Scan(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPosition(stages)
	current := indexProgress(rows)
	prereqs := blockingPrereqs(deps)

	sum := &domain.JourneySummary{
		TotalStages: len(stages),
		Counts:      map[domain.ProgressStatus]int{},
		NextStages:  []domain.JourneyStage{},
	}
	totalPct := 0
	for _, st := range stages {
		p, ok := current[st.StageID]
		status := domain.ProgressNotStarted
		if ok {
			status = p.Status
			totalPct += p.Percentage
			if p.ActualCost != nil {
				sum.ActualCost += *p.ActualCost
			}
		}
		sum.Counts[status]++
		sum.EstimatedCostMin += st.CostMin
		sum.EstimatedCostMax += st.CostMax
		if status == domain.ProgressNotStarted && len(unmet(prereqs[st.StageID], current)) == 0 {
			sum.NextStages = append(sum.NextStages, st)
		}
	}
	if len(stages) > 0 {
		sum.OverallPercentage = totalPct / len(stages)
	}
	return sum, nil
}

func indexProgress(rows []domain.UserJourneyProgress) map[string]domain.UserJourneyProgress {
	m := make(map[string]domain.UserJourneyProgress, len(rows))
	for _, r := range rows {
		m[r.StageID] = r
	}
	return m
}

func unmet(prereqs []string, current map[string]domain.UserJourneyProgress) []string {
	var out []string
	for _, p := range prereqs {
		if current[p].Status != domain.ProgressCompleted {
			out = append(out, p)
		}
	}
	return out
}
