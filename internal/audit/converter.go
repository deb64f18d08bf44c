package audit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/revaudit/internal/review"
	"github.com/dshills/revaudit/internal/vet"
)

// Skip reasons that arise after classification.
const (
	SkipExcluded      = "excluded reviewer"
	SkipMissingDigest = "missing digest"
	SkipDominated     = "dominated"
)

// Options tunes a conversion run.
type Options struct {
	// Source is the package registry to export. Defaults to crates.io.
	Source string
	// MinTrust drops reviews from reviewers trusted less than this.
	MinTrust review.TrustLevel
	// IncludeGitRevs annotates versions with their git revision. cargo-vet
	// ignores such entries, so this is off by default.
	IncludeGitRevs bool
	// ViolationExclusions drops violations whose reviewer's verified URL
	// contains any of these substrings.
	ViolationExclusions []string
	// Workers bounds how many package groups convert in parallel.
	Workers int
	Logger  *slog.Logger
}

// Converter turns a review snapshot into an audits document.
type Converter struct {
	source ReviewSource
	oracle TrustOracle
	opts   Options
	log    *slog.Logger
}

// New creates a Converter, filling unset options with defaults.
func New(source ReviewSource, oracle TrustOracle, opts Options) *Converter {
	if opts.Source == "" {
		opts.Source = review.SourceCratesIO
	}
	if opts.MinTrust == "" {
		opts.MinTrust = review.TrustLow
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Converter{source: source, oracle: oracle, opts: opts, log: log}
}

// prepared is a classified review with its entry fully resolved.
type prepared struct {
	scored review.Scored
	entry  vet.AuditEntry
}

type groupResult struct {
	name    string
	entries []vet.AuditEntry
	stats   *Stats
}

// Convert runs the pipeline over every review of the configured source.
func (c *Converter) Convert(ctx context.Context) (*vet.AuditsFile, *Stats, error) {
	reviews := c.source.ReviewsForSource(c.opts.Source)
	trusts := NewTrustSet(c.oracle, reviews)

	stats := newStats()
	stats.Reviews = len(reviews)

	var names []string
	groups := make(map[string][]review.Scored)
	for i := range reviews {
		r := &reviews[i]
		s, ok := review.Annotate(r, trusts.Get(r.From), c.opts.MinTrust)
		if !ok {
			reason := review.SkipUntrusted
			if r.Assessment == nil {
				reason = review.SkipNoAssessment
			}
			stats.skip(reason)
			c.logSkip(r, reason)
			continue
		}
		if _, seen := groups[r.Package.Name]; !seen {
			names = append(names, r.Package.Name)
		}
		groups[r.Package.Name] = append(groups[r.Package.Name], s)
	}

	results := make([]groupResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.convertGroup(name, groups[name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("audit.Convert: %w", err)
	}

	doc := &vet.AuditsFile{
		Criteria: vet.StandardCriteria(),
		Audits:   make(map[string][]vet.AuditEntry),
	}
	for _, res := range results {
		stats.merge(res.stats)
		if len(res.entries) > 0 {
			doc.Audits[res.name] = res.entries
		}
	}
	stats.Packages = len(doc.Audits)

	c.log.Info("conversion finished",
		"reviews", stats.Reviews,
		"exported", stats.Exported,
		"violations", stats.Violations,
		"packages", stats.Packages)
	return doc, stats, nil
}

// convertGroup orders, classifies and deduplicates the reviews of one package.
func (c *Converter) convertGroup(name string, group []review.Scored) groupResult {
	res := groupResult{name: name, stats: newStats()}
	review.SortScored(group)

	var candidates []prepared
	for _, s := range group {
		criteria, reason := review.Classify(s)
		if criteria == nil {
			res.stats.skip(reason)
			c.logSkip(s.Review, reason)
			continue
		}
		p, reason := c.prepare(s, criteria)
		if reason != "" {
			res.stats.skip(reason)
			c.logSkip(s.Review, reason)
			continue
		}
		candidates = append(candidates, p)
	}

	kept := review.Dedup(candidates, func(p prepared) review.Scored { return p.scored })
	if dropped := len(candidates) - len(kept); dropped > 0 {
		res.stats.Skipped[SkipDominated] += dropped
		c.log.Debug("dropped dominated reviews", "package", name, "count", dropped)
	}

	for _, p := range kept {
		res.entries = append(res.entries, p.entry)
		res.stats.Exported++
		if p.entry.IsViolation() {
			res.stats.Violations++
		}
	}
	return res
}

// prepare resolves provenance, attribution, notes and version fields.
func (c *Converter) prepare(s review.Scored, criteria []string) (prepared, string) {
	r := s.Review
	violation := s.Violation()

	url, verified := c.source.VerifiedURL(r.From)
	if !verified {
		url = ""
	}
	if violation && c.excluded(url) {
		return prepared{}, SkipExcluded
	}

	digest, ok := c.source.ProofDigest(*r)
	if !ok || len(digest) == 0 {
		return prepared{}, SkipMissingDigest
	}

	viol, version, delta := VersionFields(r, violation, c.opts.IncludeGitRevs)
	notes := Notes(r)
	if notes == "" && violation {
		notes = "<" + fmt.Sprintf(AuditPageURL, r.Package.Name) + ">"
	}

	return prepared{
		scored: s,
		entry: vet.AuditEntry{
			Criteria:  criteria,
			Who:       vet.WhoString(Who(r.From, url)),
			Notes:     notes,
			Violation: viol,
			Version:   version,
			Delta:     delta,
			AggregatedFrom: []string{
				BaseURL(r.From, url),
				DigestURI(digest),
			},
		},
	}, ""
}

func (c *Converter) excluded(url string) bool {
	if url == "" {
		return false
	}
	for _, sub := range c.opts.ViolationExclusions {
		if sub != "" && strings.Contains(url, sub) {
			return true
		}
	}
	return false
}

func (c *Converter) logSkip(r *review.Review, reason string) {
	c.log.Debug("skipping review",
		"package", r.Package.Name,
		"version", r.Package.VersionString(),
		"reviewer", r.From,
		"reason", reason)
}
