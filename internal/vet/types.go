// Package vet defines the cargo-vet compatible audits document.
package vet

import (
	"encoding/json"
	"sort"
)

// Criteria names emitted by the converter. safe-to-run and safe-to-deploy
// are built into cargo-vet and are not declared in the taxonomy.
const (
	SafeToRun    = "safe-to-run"
	SafeToDeploy = "safe-to-deploy"

	Negative = "negative"
	Neutral  = "neutral"
	Positive = "positive"
	Strong   = "strong"

	TrustLow    = "trust-low"
	TrustMedium = "trust-medium"
	TrustHigh   = "trust-high"

	LevelNone   = "level-none"
	LevelLow    = "level-low"
	LevelMedium = "level-medium"
	LevelHigh   = "level-high"

	Unmaintained = "unmaintained"
)

// AuditsFile is the whole audits document.
type AuditsFile struct {
	Criteria map[string]CriteriaEntry `json:"criteria"`
	Audits   map[string][]AuditEntry `json:"audits"`
}

// Packages returns the audited package names in sorted order.
func (f *AuditsFile) Packages() []string {
	names := make([]string, 0, len(f.Audits))
	for name := range f.Audits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CriteriaNames returns the declared criteria in sorted order.
func (f *AuditsFile) CriteriaNames() []string {
	names := make([]string, 0, len(f.Criteria))
	for name := range f.Criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CriteriaEntry declares one custom criterion.
type CriteriaEntry struct {
	Description    string   `json:"description,omitempty"`
	Implies        []string `json:"implies"`
	AggregatedFrom []string `json:"aggregated_from"`
}

// AuditEntry is one exported review. Exactly one of Violation, Version and
// Delta is set.
type AuditEntry struct {
	Criteria       []string `json:"criteria"`
	Who            Who      `json:"who"`
	Notes          string   `json:"notes,omitempty"`
	Violation      string   `json:"violation,omitempty"`
	Version        string   `json:"version,omitempty"`
	Delta          string   `json:"delta,omitempty"`
	AggregatedFrom []string `json:"aggregated_from"`
}

// IsViolation reports whether the entry flags a version rather than endorsing it.
func (e AuditEntry) IsViolation() bool { return e.Violation != "" }

// Who attributes an entry. It serializes as a plain string when it holds
// exactly one name and as a list otherwise.
type Who []string

// WhoString attributes an entry to a single reviewer.
func WhoString(s string) Who { return Who{s} }

// Value returns the serialized form: a string or a []string.
func (w Who) Value() any {
	if len(w) == 1 {
		return w[0]
	}
	if w == nil {
		return []string{}
	}
	return []string(w)
}

func (w Who) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Value())
}

func (w *Who) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*w = Who{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*w = Who(list)
	return nil
}
