package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/graph"
)

// fingerprint builds the cache key for one task: a stable hash over the task
// identity, its sorted predecessor edges, the scheduler configuration and the
// task's anchor. The key is prefixed with the task code so invalidation can
// target every entry referencing an affected task.
func (s *Scheduler) fingerprint(g *graph.Graph, code string, anchors map[string]domain.Date) string {
	var b strings.Builder

	id := code
	if s.ids != nil {
		if v, ok := s.ids[code]; ok && v != "" {
			id = v
		}
	}
	node, _ := g.Task(code)
	fmt.Fprintf(&b, "id=%s;dur=%d;", id, node.Duration)

	// Predecessors arrives already in canonical (predecessor, kind, lag)
	// order.
	for _, e := range g.Predecessors(code) {
		fmt.Fprintf(&b, "edge=%s/%d/%d/%d;", e.Predecessor, e.Kind, e.Lag.Days, e.Lag.Unit)
	}

	fmt.Fprintf(&b, "start=%s;end=%s;def=%d;wd=%t;hours=%d;",
		s.cfg.ProjectStart, formatEnd(s.cfg.ProjectEnd), s.cfg.DefaultDuration,
		s.cfg.WorkingDaysOnly, s.cfg.WorkingHoursPerDay)

	if anchor, ok := anchors[code]; ok {
		fmt.Fprintf(&b, "anchor=%s;", anchor)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return CacheKey(code, hex.EncodeToString(sum[:16]))
}

func formatEnd(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// CacheKey joins a task code and a fingerprint into a cache key.
func CacheKey(code, fp string) string {
	return "task:" + code + "|" + fp
}

// CacheKeyPrefix is the invalidation prefix for every entry of one task.
func CacheKeyPrefix(code string) string {
	return "task:" + code + "|"
}
