package waterworks

import "sort"

// topoSort orders tanks so that every tank appears after all the tanks
// depsOf it returns, breaking ties deterministically by tank name. This
// is a standard Kahn's-algorithm topological sort: at each step, every
// currently-ready tank (no unscheduled dependency) is a candidate, and
// picking the lexicographically smallest name keeps the order stable
// across runs regardless of map iteration. The Python original instead
// sorted the full tank list with a pairwise comparator derived from
// dependency membership, which gives inconsistent results for tanks
// that are mutually non-dependent (neither is "less than" the other,
// violating the total order sort requires) — Kahn's algorithm avoids
// that by only comparing tanks that are actually ready at the same
// step.
func topoSort(tanks []*Tank, depsOf func(*Tank) []*Tank) ([]*Tank, error) {
	indegree := make(map[*Tank]int, len(tanks))
	dependents := make(map[*Tank][]*Tank, len(tanks))
	index := make(map[*Tank]bool, len(tanks))
	for _, t := range tanks {
		index[t] = true
	}
	for _, t := range tanks {
		for _, d := range depsOf(t) {
			if !index[d] {
				continue // dependency outside this tank set (e.g. a placeholder source)
			}
			indegree[t]++
			dependents[d] = append(dependents[d], t)
		}
	}

	var ready []*Tank
	for _, t := range tanks {
		if indegree[t] == 0 {
			ready = append(ready, t)
		}
	}

	var order []*Tank
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Name < ready[j].Name })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(tanks) {
		remaining := make([]string, 0)
		scheduled := make(map[*Tank]bool, len(order))
		for _, t := range order {
			scheduled[t] = true
		}
		for _, t := range tanks {
			if !scheduled[t] {
				remaining = append(remaining, t.Name)
			}
		}
		sort.Strings(remaining)
		return nil, &CycleDetectedError{Tanks: remaining}
	}
	return order, nil
}
