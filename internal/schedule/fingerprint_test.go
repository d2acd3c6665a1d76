package schedule

import (
	"strings"
	"testing"

	"github.com/tasktaskrevolution/ttr/internal/domain"
	"github.com/tasktaskrevolution/ttr/internal/graph"
)

func fingerprintGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	mustAdd(t, g,
		[]graph.Node{{Code: "T1", Duration: 5}, {Code: "T2", Duration: 3}},
		[]graph.Edge{fs("T1", "T2", 2)})
	return g
}

func TestFingerprintStable(t *testing.T) {
	t.Parallel()
	g := fingerprintGraph(t)
	s := NewScheduler(calendarConfig("2024-01-01"), NewCalendar(nil))

	first := s.fingerprint(g, "T2", nil)
	second := s.fingerprint(g, "T2", nil)
	if first != second {
		t.Errorf("fingerprint not stable: %s vs %s", first, second)
	}
	if !strings.HasPrefix(first, CacheKeyPrefix("T2")) {
		t.Errorf("fingerprint %q should carry the task prefix", first)
	}
}

func TestFingerprintEdgeOrderCanonical(t *testing.T) {
	t.Parallel()
	build := func(order []graph.Edge) *graph.Graph {
		g := graph.New()
		for _, n := range []graph.Node{{Code: "A", Duration: 1}, {Code: "B", Duration: 1}, {Code: "C", Duration: 2}} {
			if err := g.AddTask(n); err != nil {
				t.Fatalf("AddTask() error = %v", err)
			}
		}
		for _, e := range order {
			if err := g.AddDependency(e); err != nil {
				t.Fatalf("AddDependency() error = %v", err)
			}
		}
		return g
	}

	forward := build([]graph.Edge{fs("A", "C", 0), fs("B", "C", 1)})
	reversed := build([]graph.Edge{fs("B", "C", 1), fs("A", "C", 0)})

	s := NewScheduler(calendarConfig("2024-01-01"), NewCalendar(nil))
	if s.fingerprint(forward, "C", nil) != s.fingerprint(reversed, "C", nil) {
		t.Error("fingerprint must not depend on edge insertion order")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	t.Parallel()
	g := fingerprintGraph(t)
	s := NewScheduler(calendarConfig("2024-01-01"), NewCalendar(nil))
	base := s.fingerprint(g, "T2", nil)

	// Duration change.
	if err := g.SetDuration("T2", 4); err != nil {
		t.Fatalf("SetDuration() error = %v", err)
	}
	if s.fingerprint(g, "T2", nil) == base {
		t.Error("fingerprint should change with duration")
	}
	if err := g.SetDuration("T2", 3); err != nil {
		t.Fatalf("SetDuration() error = %v", err)
	}

	// Anchor change.
	anchored := s.fingerprint(g, "T2", map[string]domain.Date{"T2": domain.MustDate("2024-02-01")})
	if anchored == base {
		t.Error("fingerprint should change with an anchor")
	}

	// Config change.
	other := NewScheduler(calendarConfig("2024-03-01"), NewCalendar(nil))
	if other.fingerprint(g, "T2", nil) == base {
		t.Error("fingerprint should change with the configuration")
	}

	// Entity ids participate when supplied.
	withIDs := NewScheduler(calendarConfig("2024-01-01"), NewCalendar(nil),
		WithTaskIDs(map[string]string{"T2": "01HXZZZZZZZZZZZZZZZZZZZZZZ"}))
	if withIDs.fingerprint(g, "T2", nil) == base {
		t.Error("fingerprint should incorporate the task id")
	}
}
