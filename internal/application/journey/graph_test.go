package journey

import (
	"testing"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func stage(id string, pos, days int) domain.JourneyStage {
	return domain.JourneyStage{StageID: id, Name: id, Position: pos, DurationMaxDays: days}
}

func edge(from, to string, t domain.DependencyType) domain.StageDependency {
	return domain.StageDependency{DependencyID: from + "->" + to, PrerequisiteID: from, DependentID: to, Type: t}
}

func TestTopoOrder_RespectsEdgesThenPosition(t *testing.T) {
	stages := []domain.JourneyStage{stage("land", 0, 30), stage("permit", 1, 60), stage("build", 2, 180), stage("design", 3, 20)}
	deps := []domain.StageDependency{
		edge("land", "permit", domain.DependencyBlocking),
		edge("design", "permit", domain.DependencyBlocking),
		edge("permit", "build", domain.DependencyBlocking),
	}

	assert.Equal(t, []string{"land", "design", "permit", "build"}, topoOrder(stages, deps))
}

func TestTopoOrder_IgnoresOptionalEdges(t *testing.T) {
	stages := []domain.JourneyStage{stage("a", 0, 1), stage("b", 1, 1)}
	deps := []domain.StageDependency{edge("b", "a", domain.DependencyOptional)}

	assert.Equal(t, []string{"a", "b"}, topoOrder(stages, deps))
}

func TestCriticalPath_LongestBlockingChain(t *testing.T) {
	stages := []domain.JourneyStage{stage("land", 0, 30), stage("design", 1, 20), stage("permit", 2, 60), stage("build", 3, 180)}
	deps := []domain.StageDependency{
		edge("land", "permit", domain.DependencyBlocking),
		edge("design", "permit", domain.DependencyBlocking),
		edge("permit", "build", domain.DependencyBlocking),
	}

	path, days := criticalPath(stages, deps, topoOrder(stages, deps))
	assert.Equal(t, []string{"land", "permit", "build"}, path)
	assert.Equal(t, 270, days)
}

func TestCriticalPath_Empty(t *testing.T) {
	path, days := criticalPath(nil, nil, nil)
	assert.Empty(t, path)
	assert.Zero(t, days)
}

func TestCreatesCycle(t *testing.T) {
	deps := []domain.StageDependency{
		edge("a", "b", domain.DependencyBlocking),
		edge("b", "c", domain.DependencyParallel),
	}

	assert.True(t, createsCycle(deps, "c", "a"))
	assert.False(t, createsCycle(deps, "a", "c"))

	optional := []domain.StageDependency{edge("a", "b", domain.DependencyOptional)}
	assert.False(t, createsCycle(optional, "b", "a"))
}

func TestBlockingPrereqs(t *testing.T) {
	deps := []domain.StageDependency{
		edge("a", "c", domain.DependencyBlocking),
		edge("b", "c", domain.DependencyParallel),
		edge("d", "c", domain.DependencyBlocking),
	}

	assert.ElementsMatch(t, []string{"a", "d"}, blockingPrereqs(deps)["c"])
}
