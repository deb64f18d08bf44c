// Package schema validates audits documents before they are published.
package schema

import (
	"fmt"
	"strings"

	"github.com/dshills/revaudit/internal/vet"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// builtinCriteria are defined by cargo-vet itself and need no declaration.
var builtinCriteria = map[string]bool{
	vet.SafeToRun:    true,
	vet.SafeToDeploy: true,
}

// Validate checks an audits document for structural validity. Errors are
// reported in a stable order.
func Validate(f *vet.AuditsFile) []ValidationError {
	var errs []ValidationError

	for _, name := range f.CriteriaNames() {
		c := f.Criteria[name]
		prefix := "criteria." + name
		if builtinCriteria[name] {
			errs = append(errs, ValidationError{prefix, "redefines a built-in criterion"})
		}
		if c.Description == "" {
			errs = append(errs, ValidationError{prefix + ".description", "required"})
		}
		for i, target := range c.Implies {
			if _, ok := f.Criteria[target]; !ok && !builtinCriteria[target] {
				errs = append(errs, ValidationError{fmt.Sprintf("%s.implies[%d]", prefix, i), fmt.Sprintf("undefined criterion %q", target)})
			}
		}
	}
	if cycle := findCycle(f); cycle != nil {
		errs = append(errs, ValidationError{"criteria", "implies cycle: " + strings.Join(cycle, " -> ")})
	}

	for _, pkg := range f.Packages() {
		entries := f.Audits[pkg]
		if len(entries) == 0 {
			errs = append(errs, ValidationError{"audits." + pkg, "at least one entry required"})
		}
		for i, e := range entries {
			errs = append(errs, validateEntry(fmt.Sprintf("audits.%s[%d]", pkg, i), e, f)...)
		}
	}
	return errs
}

func validateEntry(prefix string, e vet.AuditEntry, f *vet.AuditsFile) []ValidationError {
	var errs []ValidationError

	if len(e.Criteria) == 0 {
		errs = append(errs, ValidationError{prefix + ".criteria", "at least one criterion required"})
	}
	seen := make(map[string]bool)
	for j, c := range e.Criteria {
		p := fmt.Sprintf("%s.criteria[%d]", prefix, j)
		if seen[c] {
			errs = append(errs, ValidationError{p, fmt.Sprintf("duplicate criterion %q", c)})
		}
		seen[c] = true
		if _, ok := f.Criteria[c]; !ok && !builtinCriteria[c] {
			errs = append(errs, ValidationError{p, fmt.Sprintf("undefined criterion %q", c)})
		}
	}

	if len(e.Who) == 0 || e.Who[0] == "" {
		errs = append(errs, ValidationError{prefix + ".who", "required"})
	}
	if len(e.AggregatedFrom) == 0 {
		errs = append(errs, ValidationError{prefix + ".aggregated-from", "at least one source required"})
	}

	if e.IsViolation() {
		if e.Version != "" || e.Delta != "" {
			errs = append(errs, ValidationError{prefix, "violation entries must not set version or delta"})
		}
		return errs
	}
	switch {
	case e.Version == "" && e.Delta == "":
		errs = append(errs, ValidationError{prefix, "one of version or delta required"})
	case e.Version != "" && e.Delta != "":
		errs = append(errs, ValidationError{prefix, "version and delta are mutually exclusive"})
	case e.Delta != "" && !strings.Contains(e.Delta, " -> "):
		errs = append(errs, ValidationError{prefix + ".delta", fmt.Sprintf("expected \"from -> to\", got %q", e.Delta)})
	}
	return errs
}

// findCycle returns one implies cycle, or nil when the graph is acyclic.
func findCycle(f *vet.AuditsFile) []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = active
		stack = append(stack, name)
		for _, next := range f.Criteria[name].Implies {
			switch state[next] {
			case active:
				for i, n := range stack {
					if n == next {
						return append(append([]string{}, stack[i:]...), next)
					}
				}
			case unvisited:
				if _, ok := f.Criteria[next]; !ok {
					continue
				}
				if c := visit(next); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range f.CriteriaNames() {
		if state[name] == unvisited {
			if c := visit(name); c != nil {
				return c
			}
		}
	}
	return nil
}
