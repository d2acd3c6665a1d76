package domain

import "fmt"

// LinkKind selects which endpoints of predecessor and successor a dependency
// relates.
type LinkKind int

const (
	FinishToStart LinkKind = iota
	StartToStart
	FinishToFinish
	StartToFinish
)

var linkKindNames = map[LinkKind]string{
	FinishToStart:  "FinishToStart",
	StartToStart:   "StartToStart",
	FinishToFinish: "FinishToFinish",
	StartToFinish:  "StartToFinish",
}

func (k LinkKind) String() string {
	if s, ok := linkKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("LinkKind(%d)", int(k))
}

func (k LinkKind) Valid() bool {
	_, ok := linkKindNames[k]
	return ok
}

func ParseLinkKind(s string) (LinkKind, error) {
	for k, name := range linkKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, &ValidationError{Entity: "dependency", Field: "kind", Reason: fmt.Sprintf("unknown link kind %q", s)}
}

// LagUnit selects between calendar days and working days for a lag.
type LagUnit int

const (
	LagCalendarDays LagUnit = iota
	LagWorkingDays
)

func (u LagUnit) String() string {
	if u == LagWorkingDays {
		return "WorkingDays"
	}
	return "Days"
}

func ParseLagUnit(s string) (LagUnit, error) {
	switch s {
	case "", "Days":
		return LagCalendarDays, nil
	case "WorkingDays":
		return LagWorkingDays, nil
	}
	return 0, &ValidationError{Entity: "dependency", Field: "lag.unit", Reason: fmt.Sprintf("unknown lag unit %q", s)}
}

// Lag is a signed duration applied to the predecessor endpoint. Negative
// values represent overlap.
type Lag struct {
	Days int
	Unit LagUnit
}

func (l Lag) String() string {
	return fmt.Sprintf("%d %s", l.Days, l.Unit)
}

// Dependency is an edge in the scheduling graph: Predecessor must be
// positioned relative to the owning task according to Kind and Lag.
type Dependency struct {
	Predecessor string
	Kind        LinkKind
	Lag         Lag
	AddedBy     string
	Reason      string
}
