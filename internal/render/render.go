// Package render produces a Markdown summary of an audits document.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/revaudit/internal/audit"
	"github.com/dshills/revaudit/internal/vet"
)

// Markdown renders the document as a Markdown report. stats may be nil.
func Markdown(f *vet.AuditsFile, stats *audit.Stats) string {
	var b strings.Builder

	b.WriteString("# Review Audit Export\n\n")
	var endorsements, violations int
	for _, entries := range f.Audits {
		for _, e := range entries {
			if e.IsViolation() {
				violations++
			} else {
				endorsements++
			}
		}
	}
	fmt.Fprintf(&b, "**Packages:** %d\n", len(f.Audits))
	fmt.Fprintf(&b, "**Entries:** %d endorsements, %d violations\n", endorsements, violations)
	if stats != nil {
		fmt.Fprintf(&b, "**Reviews:** %d read, %d exported, %d skipped\n", stats.Reviews, stats.Exported, stats.TotalSkipped())
	}
	b.WriteString("\n")

	if stats != nil && stats.TotalSkipped() > 0 {
		b.WriteString("## Skipped Reviews\n\n")
		b.WriteString("| Reason | Count |\n|---|---|\n")
		for _, reason := range stats.SkipReasons() {
			fmt.Fprintf(&b, "| %s | %d |\n", reason, stats.Skipped[reason])
		}
		b.WriteString("\n")
	}

	var flagged []string
	for _, pkg := range f.Packages() {
		for _, e := range f.Audits[pkg] {
			if e.IsViolation() {
				flagged = append(flagged, pkg)
				break
			}
		}
	}
	if len(flagged) > 0 {
		b.WriteString("## Violations\n\n")
		for _, pkg := range flagged {
			for _, e := range f.Audits[pkg] {
				if e.IsViolation() {
					renderEntry(&b, pkg, e)
				}
			}
		}
	}

	if endorsements > 0 {
		b.WriteString("## Endorsements\n\n")
		for _, pkg := range f.Packages() {
			for _, e := range f.Audits[pkg] {
				if !e.IsViolation() {
					renderEntry(&b, pkg, e)
				}
			}
		}
	}

	if len(f.Audits) == 0 {
		b.WriteString("No reviews exported.\n\n")
	}

	return b.String()
}

func renderEntry(b *strings.Builder, pkg string, e vet.AuditEntry) {
	version := e.Version
	switch {
	case e.IsViolation():
		version = e.Violation
	case e.Delta != "":
		version = e.Delta
	}
	fmt.Fprintf(b, "### %s %s\n\n", pkg, version)
	fmt.Fprintf(b, "**Who:** %s\n\n", strings.Join(e.Who, ", "))
	fmt.Fprintf(b, "**Criteria:** %s\n\n", strings.Join(e.Criteria, ", "))
	if e.Notes != "" {
		for _, line := range strings.Split(e.Notes, "\n") {
			if line == "" {
				b.WriteString(">\n")
			} else {
				fmt.Fprintf(b, "> %s\n", line)
			}
		}
		b.WriteString("\n")
	}
}
