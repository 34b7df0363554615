package flow

import (
	"math"
	"slices"

	"cropflow/internal/nodules"
)

// IDMapping maps a 1-based current index to a 1-based next index.
type IDMapping map[int]int

// Match returns the nearest-neighbour mapping from current to next. An empty
// next collection yields an empty mapping.
func Match(current, next []nodules.Record) IDMapping {
	mapping := make(IDMapping, len(current))
	if len(next) == 0 {
		return mapping
	}
	for i, rec := range current {
		closest, at, ok := nearest(rec, next)
		if !ok {
			continue
		}
		// Equality lookup fails only for records carrying NaN attributes.
		if j := indexOf(next, closest); j >= 0 {
			at = j
		}
		mapping[i+1] = at + 1
	}
	return mapping
}

func nearest(rec nodules.Record, candidates []nodules.Record) (nodules.Record, int, bool) {
	best := -1
	minDistance := math.Inf(1)
	p := rec.Point()
	for j, c := range candidates {
		if d := p.Distance(c.Point()); d < minDistance {
			best = j
			minDistance = d
		}
	}
	if best < 0 {
		return nodules.Record{}, -1, false
	}
	return candidates[best], best, true
}

// indexOf returns the first position holding a record equal to target.
func indexOf(records []nodules.Record, target nodules.Record) int {
	for i, r := range records {
		if r == target {
			return i
		}
	}
	return -1
}

// Targets returns the sorted distinct next indices reached by m.
func (m IDMapping) Targets() []int {
	seen := make(map[int]struct{}, len(m))
	out := make([]int, 0, len(m))
	for _, j := range m {
		if _, ok := seen[j]; ok {
			continue
		}
		seen[j] = struct{}{}
		out = append(out, j)
	}
	slices.Sort(out)
	return out
}

// Keys returns the current indices in ascending order.
func (m IDMapping) Keys() []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}
