package domain

import "time"

type JourneyStage struct {
	StageID         string    `json:"id" dynamodbav:"stage_id"`
	Name            string    `json:"name" dynamodbav:"name"`
	Description     string    `json:"description,omitempty" dynamodbav:"description"`
	Category        string    `json:"category" dynamodbav:"category"`
	Position        int       `json:"position" dynamodbav:"position"`
	CostMin         float64   `json:"cost_min" dynamodbav:"cost_min"`
	CostMax         float64   `json:"cost_max" dynamodbav:"cost_max"`
	DurationMinDays int       `json:"duration_min_days" dynamodbav:"duration_min_days"`
	DurationMaxDays int       `json:"duration_max_days" dynamodbav:"duration_max_days"`
	Complexity      int       `json:"complexity" dynamodbav:"complexity"`
	CriticalPath    bool      `json:"critical_path" dynamodbav:"critical_path"`
	Premium         bool      `json:"premium" dynamodbav:"premium"`
	CreatedAt       time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time `json:"updated" dynamodbav:"updated_at"`
}

type StageInput struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Description     string  `json:"description" validate:"max=2000"`
	Category        string  `json:"category" validate:"required,max=60"`
	Position        int     `json:"position" validate:"gte=0"`
	CostMin         float64 `json:"cost_min" validate:"gte=0"`
	CostMax         float64 `json:"cost_max" validate:"gtefield=CostMin"`
	DurationMinDays int     `json:"duration_min_days" validate:"gte=0"`
	DurationMaxDays int     `json:"duration_max_days" validate:"gtefield=DurationMinDays"`
	Complexity      int     `json:"complexity" validate:"required,min=1,max=10"`
	CriticalPath    bool    `json:"critical_path"`
	Premium         bool    `json:"premium"`
}

// StageFilter narrows ListStages.
type StageFilter struct {
	Category       string
	IncludePremium bool
}

type DependencyType string

const (
	DependencyBlocking DependencyType = "blocking"
	DependencyParallel DependencyType = "parallel"
	DependencyOptional DependencyType = "optional"
)

type StageDependency struct {
	DependencyID   string         `json:"id" dynamodbav:"dependency_id"`
	PrerequisiteID string         `json:"prerequisite_stage_id" dynamodbav:"prerequisite_stage_id"`
	DependentID    string         `json:"dependent_stage_id" dynamodbav:"dependent_stage_id"`
	Type           DependencyType `json:"dependency_type" dynamodbav:"dependency_type"`
	CreatedAt      time.Time      `json:"created" dynamodbav:"created_at"`
}

type DependencyInput struct {
	PrerequisiteID string         `json:"prerequisite_stage_id" validate:"required"`
	DependentID    string         `json:"dependent_stage_id" validate:"required"`
	Type           DependencyType `json:"dependency_type" validate:"required,oneof=blocking parallel optional"`
}

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressOnHold     ProgressStatus = "on_hold"
	ProgressCancelled  ProgressStatus = "cancelled"
)

// UserJourneyProgress is keyed by (user_id, stage_id); at most one row per pair.
type UserJourneyProgress struct {
	UserID             string         `json:"user_id" dynamodbav:"user_id"`
	StageID            string         `json:"stage_id" dynamodbav:"stage_id"`
	Status             ProgressStatus `json:"status" dynamodbav:"status"`
	Percentage         int            `json:"percentage" dynamodbav:"percentage"`
	ActualCost         *float64       `json:"actual_cost,omitempty" dynamodbav:"actual_cost"`
	ActualDurationDays *int           `json:"actual_duration_days,omitempty" dynamodbav:"actual_duration_days"`
	Notes              string         `json:"notes,omitempty" dynamodbav:"notes"`
	StartedAt          *time.Time     `json:"started_at,omitempty" dynamodbav:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty" dynamodbav:"completed_at"`
	UpdatedAt          time.Time      `json:"updated_at" dynamodbav:"updated_at"`
}

type ProgressInput struct {
	Status             ProgressStatus `json:"status" validate:"required,oneof=not_started in_progress completed on_hold cancelled"`
	Percentage         *int           `json:"percentage" validate:"omitempty,min=0,max=100"`
	ActualCost         *float64       `json:"actual_cost" validate:"omitempty,gte=0"`
	ActualDurationDays *int           `json:"actual_duration_days" validate:"omitempty,gte=0"`
	Notes              string         `json:"notes" validate:"max=2000"`
}

// JourneyGraph is the dependency graph over journey stages.
type JourneyGraph struct {
	Nodes            []JourneyStage    `json:"nodes"`
	Edges            []StageDependency `json:"edges"`
	Order            []string          `json:"order"`
	CriticalPath     []string          `json:"critical_path"`
	CriticalPathDays int               `json:"critical_path_days"`
	TotalCostMin     float64           `json:"total_cost_min"`
	TotalCostMax     float64           `json:"total_cost_max"`
	TotalDaysMin     int               `json:"total_days_min"`
	TotalDaysMax     int               `json:"total_days_max"`
}

// JourneySummary aggregates a user's progress across all stages.
type JourneySummary struct {
	TotalStages       int                    `json:"total_stages"`
	OverallPercentage int                    `json:"overall_percentage"`
	Counts            map[ProgressStatus]int `json:"counts"`
	EstimatedCostMin  float64                `json:"estimated_cost_min"`
	EstimatedCostMax  float64                `json:"estimated_cost_max"`
	ActualCost        float64                `json:"actual_cost"`
	NextStages        []JourneyStage         `json:"next_stages"`
}
