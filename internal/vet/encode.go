package vet

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// tomlFile mirrors AuditsFile with cargo-vet's key spelling.
type tomlFile struct {
	Criteria map[string]tomlCriteria `toml:"criteria"`
	Audits   map[string][]tomlEntry  `toml:"audits"`
}

type tomlCriteria struct {
	Description    string   `toml:"description,omitempty"`
	Implies        []string `toml:"implies,omitempty"`
	AggregatedFrom []string `toml:"aggregated-from,omitempty"`
}

type tomlEntry struct {
	Who            any      `toml:"who"`
	Criteria       []string `toml:"criteria"`
	Version        string   `toml:"version,omitempty"`
	Delta          string   `toml:"delta,omitempty"`
	Violation      string   `toml:"violation,omitempty"`
	Notes          string   `toml:"notes,multiline,omitempty"`
	AggregatedFrom []string `toml:"aggregated-from,omitempty"`
}

// EncodeTOML writes f as an audits.toml document. A non-empty header is
// written first as a comment block.
func EncodeTOML(w io.Writer, f *AuditsFile, header string) error {
	if header != "" {
		for _, line := range strings.Split(strings.TrimRight(header, "\n"), "\n") {
			if _, err := fmt.Fprintf(w, "# %s\n", line); err != nil {
				return fmt.Errorf("vet.EncodeTOML: %w", err)
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("vet.EncodeTOML: %w", err)
		}
	}

	doc := tomlFile{
		Criteria: make(map[string]tomlCriteria, len(f.Criteria)),
		Audits:   make(map[string][]tomlEntry, len(f.Audits)),
	}
	for name, c := range f.Criteria {
		doc.Criteria[name] = tomlCriteria(c)
	}
	for name, entries := range f.Audits {
		out := make([]tomlEntry, len(entries))
		for i, e := range entries {
			out[i] = tomlEntry{
				Who:            e.Who.Value(),
				Criteria:       e.Criteria,
				Version:        e.Version,
				Delta:          e.Delta,
				Violation:      e.Violation,
				Notes:          e.Notes,
				AggregatedFrom: e.AggregatedFrom,
			}
		}
		doc.Audits[name] = out
	}

	enc := toml.NewEncoder(w)
	enc.SetIndentTables(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("vet.EncodeTOML: %w", err)
	}
	return nil
}

// DecodeTOML parses an audits.toml document.
func DecodeTOML(r io.Reader) (*AuditsFile, error) {
	var doc tomlFile
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("vet.DecodeTOML: %w", err)
	}

	f := &AuditsFile{
		Criteria: make(map[string]CriteriaEntry, len(doc.Criteria)),
		Audits:   make(map[string][]AuditEntry, len(doc.Audits)),
	}
	for name, c := range doc.Criteria {
		if c.Implies == nil {
			c.Implies = []string{}
		}
		f.Criteria[name] = CriteriaEntry(c)
	}
	for name, entries := range doc.Audits {
		out := make([]AuditEntry, len(entries))
		for i, e := range entries {
			who, err := whoFromTOML(e.Who)
			if err != nil {
				return nil, fmt.Errorf("vet.DecodeTOML: audits.%s[%d]: %w", name, i, err)
			}
			out[i] = AuditEntry{
				Criteria:       e.Criteria,
				Who:            who,
				Notes:          e.Notes,
				Violation:      e.Violation,
				Version:        e.Version,
				Delta:          e.Delta,
				AggregatedFrom: e.AggregatedFrom,
			}
		}
		f.Audits[name] = out
	}
	return f, nil
}

func whoFromTOML(v any) (Who, error) {
	switch w := v.(type) {
	case nil:
		return Who{}, nil
	case string:
		return Who{w}, nil
	case []any:
		out := make(Who, 0, len(w))
		for _, item := range w {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("who: expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("who: unsupported type %T", v)
}

// EncodeJSON writes f as indented JSON.
func EncodeJSON(w io.Writer, f *AuditsFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("vet.EncodeJSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("vet.EncodeJSON: %w", err)
	}
	return nil
}
