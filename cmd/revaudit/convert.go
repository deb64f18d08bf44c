package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/revaudit/internal/audit"
	"github.com/dshills/revaudit/internal/policy"
	"github.com/dshills/revaudit/internal/render"
	"github.com/dshills/revaudit/internal/review"
	"github.com/dshills/revaudit/internal/schema"
	"github.com/dshills/revaudit/internal/snapshot"
	"github.com/dshills/revaudit/internal/store"
	"github.com/dshills/revaudit/internal/vet"
)

type convertFlags struct {
	snapshotPath   string
	dbPath         string
	out            string
	format         string
	policyRef      string
	minTrust       string
	includeGitRevs bool
	workers        int
	repoURL        string
	source         string
}

// settings is the outcome of layering flags over config over policy.
type settings struct {
	policy         *policy.Policy
	minTrust       review.TrustLevel
	includeGitRevs bool
	exclusions     []string
	workers        int
}

func newConvertCmd(a *app) *cobra.Command {
	f := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert reviews into a cargo-vet audits document",
		Long: `Convert reads reviews from a snapshot file, or from the review database when
no snapshot is given, and writes the reviews of trusted reviewers as a
cargo-vet audits document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, a, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.snapshotPath, "snapshot", "", "Snapshot file to convert (YAML or JSON)")
	flags.StringVar(&f.dbPath, "db", "", "Review database to convert (default: db_path from config)")
	flags.StringVarP(&f.out, "out", "o", "", "Output file path (default: stdout)")
	flags.StringVar(&f.format, "format", "toml", "Output format: toml, json or md")
	flags.StringVar(&f.policyRef, "policy", "", "Built-in policy name or policy YAML file")
	flags.StringVar(&f.minTrust, "min-trust", "", "Minimum reviewer trust: distrust, none, low, medium or high")
	flags.BoolVar(&f.includeGitRevs, "include-git-revs", false, "Annotate versions with their git revision")
	flags.IntVar(&f.workers, "workers", 0, "Package groups converted in parallel (0 = number of CPUs)")
	flags.StringVar(&f.repoURL, "repo-url", "", "Git remote of the repository the document is published in")
	flags.StringVar(&f.source, "source", review.SourceCratesIO, "Package registry to export")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "db")

	return cmd
}

func runConvert(cmd *cobra.Command, a *app, f *convertFlags) error {
	ctx := cmd.Context()

	// 1. Resolve policy and overrides
	s, err := resolveSettings(cmd, a, f)
	if err != nil {
		return err
	}
	a.ui.VerboseLog("Policy %s: min trust %s, git revisions %t, %d exclusions",
		s.policy.Name, s.minTrust, s.includeGitRevs, len(s.exclusions))

	// 2. Load reviews
	snap, err := loadReviews(ctx, a, f)
	if err != nil {
		return err
	}
	a.log.Debug("reviews loaded", "path", snap.FilePath, "hash", snap.Hash, "reviewers", len(snap.Reviewers()))

	// 3. Convert
	conv := audit.New(snap, snap, audit.Options{
		Source:              f.source,
		MinTrust:            s.minTrust,
		IncludeGitRevs:      s.includeGitRevs,
		ViolationExclusions: s.exclusions,
		Workers:             s.workers,
		Logger:              a.log,
	})
	doc, stats, err := conv.Convert(ctx)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	// 4. Validate
	if errs := schema.Validate(doc); len(errs) > 0 {
		a.ui.Error("Audits document failed validation:")
		for _, e := range errs {
			fmt.Fprintf(a.ui.ErrOut, "  %s\n", e)
		}
		return exitError(5, "audits document failed validation (%d errors)", len(errs))
	}

	// 5. Encode
	repo := audit.RepoInfoFromRemote(f.repoURL)
	var buf bytes.Buffer
	switch strings.ToLower(f.format) {
	case "toml":
		err = vet.EncodeTOML(&buf, doc, documentHeader(repo))
	case "json":
		err = vet.EncodeJSON(&buf, doc)
	case "md":
		buf.WriteString(render.Markdown(doc, stats))
	default:
		return exitError(3, "unknown format: %s", f.format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	// 6. Output
	if f.out == "" {
		_, err := a.ui.Out.Write(buf.Bytes())
		return err
	}
	a.ui.VerboseLog("Writing output to %s", f.out)
	if err := os.WriteFile(f.out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := a.ui.Stats(stats); err != nil {
		return err
	}
	a.ui.Success("Wrote %d entries for %d packages to %s", stats.Exported, stats.Packages, f.out)
	if repo.HTTPSURL != "" {
		a.ui.Info("Import with: cargo vet import %s %s", repo.Name, repo.HTTPSURL)
	}
	return nil
}

// resolveSettings layers explicit flags over config values over the policy.
func resolveSettings(cmd *cobra.Command, a *app, f *convertFlags) (settings, error) {
	flags := cmd.Flags()

	ref := a.cfg.Policy
	if flags.Changed("policy") {
		ref = f.policyRef
	}
	p, err := policy.Resolve(ref)
	if err != nil {
		return settings{}, exitError(3, "failed to load policy: %v", err)
	}
	minTrust, err := p.Trust()
	if err != nil {
		return settings{}, exitError(3, "%v", err)
	}

	s := settings{
		policy:         p,
		minTrust:       minTrust,
		includeGitRevs: p.IncludeGitRevs,
		exclusions:     p.Exclusions(a.cfg.ViolationExclusions...),
		workers:        a.cfg.Workers,
	}

	if a.cfg.MinTrust != "" {
		s.minTrust = a.cfg.MinTrust
	}
	if flags.Changed("min-trust") {
		t, err := review.ParseTrustLevel(f.minTrust)
		if err != nil {
			return settings{}, exitError(3, "invalid --min-trust: %v", err)
		}
		s.minTrust = t
	}

	if a.cfg.IncludeGitRevs != nil {
		s.includeGitRevs = *a.cfg.IncludeGitRevs
	}
	if flags.Changed("include-git-revs") {
		s.includeGitRevs = f.includeGitRevs
	}

	if flags.Changed("workers") {
		if f.workers < 0 {
			return settings{}, exitError(3, "--workers must be >= 0, got %d", f.workers)
		}
		s.workers = f.workers
	}
	return s, nil
}

// loadReviews reads the snapshot file when one is given and the review
// database otherwise.
func loadReviews(ctx context.Context, a *app, f *convertFlags) (*snapshot.Snapshot, error) {
	if f.snapshotPath != "" {
		a.ui.VerboseLog("Loading snapshot: %s", f.snapshotPath)
		snap, err := snapshot.Load(f.snapshotPath)
		if err != nil {
			return nil, exitError(3, "failed to load snapshot: %v", err)
		}
		return snap, nil
	}

	dbPath := a.cfg.DBPath
	if f.dbPath != "" {
		dbPath = f.dbPath
	}
	a.ui.VerboseLog("Loading review database: %s", dbPath)
	st, err := openStore(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, exitError(3, "failed to load review database: %v", err)
	}
	return snap, nil
}

func openStore(ctx context.Context, dbPath string) (store.Store, error) {
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, exitError(3, "failed to open review database: %v", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, exitError(3, "failed to migrate review database: %v", err)
	}
	return st, nil
}

func documentHeader(repo audit.RepoInfo) string {
	h := fmt.Sprintf("Automatically generated by revaudit %s from cargo-crev reviews", version)
	if repo.GitURL != "" {
		h += "\nReviews published in " + repo.GitURL
	}
	return h
}
