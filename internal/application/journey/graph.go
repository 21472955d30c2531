package journey

import (
	"sort"

	"github.com/diaspora-journey-api/internal/domain"
)

// ordering edges constrain sequence; optional edges are informational only.
func ordering(d domain.StageDependency) bool {
	return d.Type == domain.DependencyBlocking || d.Type == domain.DependencyParallel
}

// byPosition sorts stages by catalog position, then id.
func byPosition(stages []domain.JourneyStage) {
	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].Position != stages[j].Position {
			return stages[i].Position < stages[j].Position
		}
		return stages[i].StageID < stages[j].StageID
	})
}

// topoOrder returns stage ids in dependency order using Kahn's algorithm over
// ordering edges. Ready stages are taken by position. Stages left over by a
// cycle are appended in position order.
func topoOrder(stages []domain.JourneyStage, deps []domain.StageDependency) []string {
	sorted := append([]domain.JourneyStage(nil), stages...)
	byPosition(sorted)
	rank := make(map[string]int, len(sorted))
	for i, s := range sorted {
		rank[s.StageID] = i
	}

	indeg := make(map[string]int, len(sorted))
	next := make(map[string][]string)
	for _, d := range deps {
		if !ordering(d) {
			continue
		}
		if _, ok := rank[d.PrerequisiteID]; !ok {
			continue
		}
		if _, ok := rank[d.DependentID]; !ok {
			continue
		}
		indeg[d.DependentID]++
		next[d.PrerequisiteID] = append(next[d.PrerequisiteID], d.DependentID)
	}

	var ready []string
	for _, s := range sorted {
		if indeg[s.StageID] == 0 {
			ready = append(ready, s.StageID)
		}
	}
	order := make([]string, 0, len(sorted))
	done := make(map[string]bool, len(sorted))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return rank[ready[i]] < rank[ready[j]] })
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		done[cur] = true
		for _, n := range next[cur] {
			indeg[n]--
			if indeg[n] == 0 {
				ready = append(ready, n)
			}
		}
	}
	for _, s := range sorted {
		if !done[s.StageID] {
			order = append(order, s.StageID)
		}
	}
	return order
}

// criticalPath finds the longest chain of blocking edges weighted by each
// stage's maximum duration. Ties keep the earlier stage in order.
func criticalPath(stages []domain.JourneyStage, deps []domain.StageDependency, order []string) ([]string, int) {
	dur := make(map[string]int, len(stages))
	for _, s := range stages {
		dur[s.StageID] = s.DurationMaxDays
	}
	preds := make(map[string][]string)
	for _, d := range deps {
		if d.Type == domain.DependencyBlocking {
			preds[d.DependentID] = append(preds[d.DependentID], d.PrerequisiteID)
		}
	}

	dist := make(map[string]int, len(order))
	prev := make(map[string]string, len(order))
	best, bestLen := "", -1
	for _, sid := range order {
		base := 0
		for _, p := range preds[sid] {
			if d, ok := dist[p]; ok && d > base {
				base = d
				prev[sid] = p
			}
		}
		dist[sid] = base + dur[sid]
		if dist[sid] > bestLen {
			best, bestLen = sid, dist[sid]
		}
	}
	if best == "" {
		return []string{}, 0
	}
	var path []string
	for cur := best; cur != ""; cur = prev[cur] {
		path = append([]string{cur}, path...)
	}
	return path, bestLen
}

// createsCycle reports whether adding from -> to to the ordering edges closes
// a cycle, i.e. whether from is already reachable from to.
func createsCycle(deps []domain.StageDependency, from, to string) bool {
	next := make(map[string][]string)
	for _, d := range deps {
		if ordering(d) {
			next[d.PrerequisiteID] = append(next[d.PrerequisiteID], d.DependentID)
		}
	}
	seen := map[string]bool{to: true}
	stack := []string{to}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == from {
			return true
		}
		for _, n := range next[cur] {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return false
}

// blockingPrereqs maps each stage to the stages that must be completed first.
func blockingPrereqs(deps []domain.StageDependency) map[string][]string {
	out := make(map[string][]string)
	for _, d := range deps {
		if d.Type == domain.DependencyBlocking {
			out[d.DependentID] = append(out[d.DependentID], d.PrerequisiteID)
		}
	}
	return out
}
