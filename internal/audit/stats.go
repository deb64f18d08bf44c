package audit

import "sort"

// Stats counts what happened to the reviews of one conversion run.
type Stats struct {
	Reviews    int            `json:"reviews"`
	Exported   int            `json:"exported"`
	Violations int            `json:"violations"`
	Packages   int            `json:"packages"`
	Skipped    map[string]int `json:"skipped"`
}

func newStats() *Stats {
	return &Stats{Skipped: make(map[string]int)}
}

func (s *Stats) skip(reason string) {
	s.Skipped[reason]++
}

func (s *Stats) merge(o *Stats) {
	s.Exported += o.Exported
	s.Violations += o.Violations
	for reason, n := range o.Skipped {
		s.Skipped[reason] += n
	}
}

// SkipReasons returns the recorded skip reasons in sorted order.
func (s *Stats) SkipReasons() []string {
	reasons := make([]string, 0, len(s.Skipped))
	for r := range s.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// TotalSkipped is the number of reviews that produced no entry.
func (s *Stats) TotalSkipped() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}
