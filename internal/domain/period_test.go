package domain

import "testing"

func TestDateArithmetic(t *testing.T) {
	t.Parallel()
	d := MustDate("2024-01-05")

	if got := d.AddDays(3); !got.Equal(MustDate("2024-01-08")) {
		t.Errorf("AddDays(3) = %s, want 2024-01-08", got)
	}
	if got := d.AddDays(-5); !got.Equal(MustDate("2023-12-31")) {
		t.Errorf("AddDays(-5) = %s, want 2023-12-31", got)
	}
	if got := d.DaysUntil(MustDate("2024-01-10")); got != 5 {
		t.Errorf("DaysUntil() = %d, want 5", got)
	}
	if got := MustDate("2024-01-10").DaysUntil(d); got != -5 {
		t.Errorf("DaysUntil() reversed = %d, want -5", got)
	}
	// Month boundary.
	if got := MustDate("2024-01-31").AddDays(1); !got.Equal(MustDate("2024-02-01")) {
		t.Errorf("AddDays over month = %s, want 2024-02-01", got)
	}
	// Leap day.
	if got := MustDate("2024-02-28").AddDays(1); !got.Equal(MustDate("2024-02-29")) {
		t.Errorf("AddDays over leap day = %s, want 2024-02-29", got)
	}
}

func TestParseDateRejectsBadInput(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"2024/01/05", "05-01-2024", "2024-13-01", "yesterday", ""} {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("ParseDate(%q) should fail", input)
		}
	}
}

func TestPeriodOverlaps(t *testing.T) {
	t.Parallel()
	base, _ := NewPeriod(MustDate("2024-01-10"), MustDate("2024-01-20"))

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"disjoint before", "2024-01-01", "2024-01-09", false},
		{"touching start", "2024-01-05", "2024-01-10", true},
		{"inside", "2024-01-12", "2024-01-15", true},
		{"touching end", "2024-01-20", "2024-01-25", true},
		{"disjoint after", "2024-01-21", "2024-01-30", false},
		{"covering", "2024-01-01", "2024-01-31", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			other, err := NewPeriod(MustDate(tt.start), MustDate(tt.end))
			if err != nil {
				t.Fatalf("NewPeriod() error = %v", err)
			}
			if got := base.Overlaps(other); got != tt.want {
				t.Errorf("Overlaps(%s) = %t, want %t", other, got, tt.want)
			}
			if got := other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %s", other)
			}
		})
	}
}

func TestPeriodIntersection(t *testing.T) {
	t.Parallel()
	a, _ := NewPeriod(MustDate("2024-01-01"), MustDate("2024-01-10"))
	b, _ := NewPeriod(MustDate("2024-01-08"), MustDate("2024-01-12"))

	got, ok := a.Intersection(b)
	if !ok {
		t.Fatal("Intersection() should exist")
	}
	if !got.Start.Equal(MustDate("2024-01-08")) || !got.End.Equal(MustDate("2024-01-10")) {
		t.Errorf("Intersection() = %s", got)
	}
	if got.Days() != 3 {
		t.Errorf("Days() = %d, want 3", got.Days())
	}

	c, _ := NewPeriod(MustDate("2024-02-01"), MustDate("2024-02-05"))
	if _, ok := a.Intersection(c); ok {
		t.Error("Intersection() of disjoint periods should not exist")
	}
}

func TestNewPeriodRejectsInvertedBounds(t *testing.T) {
	t.Parallel()
	if _, err := NewPeriod(MustDate("2024-01-10"), MustDate("2024-01-01")); err == nil {
		t.Error("NewPeriod() with end before start should fail")
	}
}
