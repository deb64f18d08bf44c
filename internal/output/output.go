// Package output formats human-facing CLI output.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dshills/revaudit/internal/audit"
	"github.com/dshills/revaudit/internal/vet"
)

// UI provides colored output and respects verbose mode.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI writing to out and errOut. Nil writers fall back to
// stdout and stderr.
func New(out, errOut io.Writer, verbose bool) *UI {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &UI{Verbose: verbose, Out: out, ErrOut: errOut}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// TrustColor colors a trust level name.
func TrustColor(level string) string {
	switch strings.ToLower(level) {
	case "high":
		return green(level)
	case "medium":
		return cyan(level)
	case "low":
		return yellow(level)
	case "distrust":
		return red(level)
	default:
		return level
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Criteria prints the criteria taxonomy sorted by name.
func (u *UI) Criteria(f *vet.AuditsFile) error {
	table := u.Table([]string{"Criterion", "Implies", "Description"})
	for _, name := range f.CriteriaNames() {
		c := f.Criteria[name]
		if err := table.Append([]string{name, strings.Join(c.Implies, ", "), c.Description}); err != nil {
			return fmt.Errorf("output.Criteria: %w", err)
		}
	}
	return table.Render()
}

// Stats prints the outcome counts of a conversion run.
func (u *UI) Stats(s *audit.Stats) error {
	table := u.Table([]string{"Outcome", "Reviews"})
	rows := [][]string{
		{"read", strconv.Itoa(s.Reviews)},
		{"exported", green(strconv.Itoa(s.Exported))},
		{"violations", yellow(strconv.Itoa(s.Violations))},
	}
	for _, reason := range s.SkipReasons() {
		rows = append(rows, []string{"skipped: " + reason, strconv.Itoa(s.Skipped[reason])})
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("output.Stats: %w", err)
		}
	}
	return table.Render()
}
