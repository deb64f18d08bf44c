package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Masterminds/semver/v3"
	"github.com/oklog/ulid/v2"

	"github.com/dshills/revaudit/internal/review"
	"github.com/dshills/revaudit/internal/snapshot"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps the pragmas below in effect for every query.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Import ---

func (s *SQLiteStore) Import(ctx context.Context, snap *snapshot.Snapshot) (*ImportRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	reviewers := snap.Reviewers()
	for _, r := range reviewers {
		if err := upsertReviewer(ctx, tx, r); err != nil {
			return nil, err
		}
	}

	reviews := snap.Reviews()
	written := 0
	for i := range reviews {
		digest, _ := snap.ProofDigest(reviews[i])
		ok, err := replaceReview(ctx, tx, &reviews[i], digest)
		if err != nil {
			return nil, err
		}
		if ok {
			written++
		}
	}

	rec := &ImportRecord{
		ID:         newULID(),
		FilePath:   snap.FilePath,
		Hash:       snap.Hash,
		Reviewers:  len(reviewers),
		Reviews:    written,
		ImportedAt: time.Now().UTC(),
	}
	q, args, err := sq.Insert("imports").
		Columns("id", "file_path", "hash", "reviewers", "reviews", "imported_at").
		Values(rec.ID, rec.FilePath, rec.Hash, rec.Reviewers, rec.Reviews, rec.ImportedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build import record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return rec, nil
}

func upsertReviewer(ctx context.Context, tx *sql.Tx, r snapshot.Reviewer) error {
	q, args, err := sq.Insert("reviewers").
		Columns("id", "url", "verified", "trust").
		Values(r.ID, r.URL, boolToInt(r.Verified), string(r.Trust)).
		Suffix("ON CONFLICT(id) DO UPDATE SET url = excluded.url, verified = excluded.verified, trust = excluded.trust").
		ToSql()
	if err != nil {
		return fmt.Errorf("build reviewer upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert reviewer %s: %w", r.ID, err)
	}
	return nil
}

// replaceReview stores r unless the database already holds a review of the
// same package version by the same reviewer dated after it. It reports
// whether r was written.
func replaceReview(ctx context.Context, tx *sql.Tx, r *review.Review, digest []byte) (bool, error) {
	key := r.Key()
	match := sq.Eq{"reviewer_id": key.From, "source": key.Source, "name": key.Name, "version": key.Version}

	newer, err := storedAfter(ctx, tx, match, r.Date)
	if err != nil {
		return false, err
	}
	if newer {
		return false, nil
	}

	// Findings go first so the replacement never depends on cascade settings.
	existing := sq.Select("id").From("reviews").Where(match)
	sub, subArgs, err := existing.ToSql()
	if err != nil {
		return false, fmt.Errorf("build review lookup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM review_findings WHERE review_id IN ("+sub+")", subArgs...); err != nil {
		return false, fmt.Errorf("delete findings: %w", err)
	}
	q, args, err := sq.Delete("reviews").Where(match).ToSql()
	if err != nil {
		return false, fmt.Errorf("build review delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}

	id := newULID()
	row := map[string]any{
		"id":            id,
		"reviewer_id":   r.From,
		"source":        r.Package.Source,
		"name":          r.Package.Name,
		"version":       r.Package.VersionString(),
		"revision":      r.Package.Revision,
		"revision_type": r.Package.RevisionType,
		"unmaintained":  boolToInt(r.Unmaintained),
		"comment":       r.Comment,
		"reviewed_at":   formatTime(r.Date),
		"digest":        digest,
	}
	if b := r.DiffBase; b != nil {
		row["base_source"] = nullable(b.Source)
		row["base_version"] = nullable(b.VersionString())
		row["base_revision"] = b.Revision
		row["base_revision_type"] = b.RevisionType
	}
	if a := r.Assessment; a != nil {
		row["thoroughness"] = string(a.Thoroughness)
		row["understanding"] = string(a.Understanding)
		row["rating"] = string(a.Rating)
	}
	q, args, err = sq.Insert("reviews").SetMap(row).ToSql()
	if err != nil {
		return false, fmt.Errorf("build review insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return false, fmt.Errorf("insert review %s %s by %s: %w", key.Name, key.Version, key.From, err)
	}

	insert := sq.Insert("review_findings").Columns("review_id", "position", "kind", "ids", "severity", "comment")
	n := 0
	for i, iss := range r.Issues {
		ids := "[]"
		if iss.ID != "" {
			b, _ := json.Marshal([]string{iss.ID})
			ids = string(b)
		}
		insert = insert.Values(id, i, "issue", ids, string(iss.Severity), iss.Comment)
		n++
	}
	for i, adv := range r.Advisories {
		ids, _ := json.Marshal(nonNil(adv.IDs))
		insert = insert.Values(id, i, "advisory", string(ids), string(adv.Severity), adv.Comment)
		n++
	}
	if n == 0 {
		return true, nil
	}
	q, args, err = insert.ToSql()
	if err != nil {
		return false, fmt.Errorf("build findings insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return false, fmt.Errorf("insert findings: %w", err)
	}
	return true, nil
}

// storedAfter reports whether the review matched by match is dated after t.
func storedAfter(ctx context.Context, tx *sql.Tx, match sq.Eq, t time.Time) (bool, error) {
	q, args, err := sq.Select("reviewed_at").From("reviews").Where(match).ToSql()
	if err != nil {
		return false, fmt.Errorf("build review lookup: %w", err)
	}
	var stored string
	switch err := tx.QueryRowContext(ctx, q, args...).Scan(&stored); {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup review: %w", err)
	}
	if stored == "" {
		return false, nil
	}
	prev, err := time.Parse(time.RFC3339Nano, stored)
	if err != nil {
		return false, fmt.Errorf("stored review date %q: %w", stored, err)
	}
	return t.Before(prev), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// --- Load ---

type finding struct {
	kind     string
	ids      []string
	severity review.Level
	comment  string
}

func (s *SQLiteStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	snap := snapshot.New()
	snap.FilePath = s.path

	if err := s.loadReviewers(ctx, snap); err != nil {
		return nil, err
	}
	findings, err := s.loadFindings(ctx)
	if err != nil {
		return nil, err
	}

	q, args, err := sq.Select(
		"id", "reviewer_id", "source", "name", "version", "revision", "revision_type",
		"base_source", "base_version", "base_revision", "base_revision_type",
		"thoroughness", "understanding", "rating",
		"unmaintained", "comment", "reviewed_at", "digest",
	).From("reviews").OrderBy("rowid").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			r                                   review.Review
			id, version, reviewedAt             string
			baseSource, baseVersion             sql.NullString
			baseRevision, baseRevisionType      string
			thoroughness, understanding, rating sql.NullString
			digest                              []byte
		)
		if err := rows.Scan(&id, &r.From, &r.Package.Source, &r.Package.Name, &version,
			&r.Package.Revision, &r.Package.RevisionType,
			&baseSource, &baseVersion, &baseRevision, &baseRevisionType,
			&thoroughness, &understanding, &rating,
			&r.Unmaintained, &r.Comment, &reviewedAt, &digest); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}

		if r.Package.Version, err = semver.StrictNewVersion(version); err != nil {
			return nil, fmt.Errorf("review %s: version %q: %w", id, version, err)
		}
		if baseVersion.Valid {
			v, err := semver.StrictNewVersion(baseVersion.String)
			if err != nil {
				return nil, fmt.Errorf("review %s: base version %q: %w", id, baseVersion.String, err)
			}
			r.DiffBase = &review.Package{
				Source:       baseSource.String,
				Name:         r.Package.Name,
				Version:      v,
				Revision:     baseRevision,
				RevisionType: baseRevisionType,
			}
		}
		if rating.Valid {
			r.Assessment = &review.Assessment{
				Thoroughness:  review.Level(thoroughness.String),
				Understanding: review.Level(understanding.String),
				Rating:        review.Rating(rating.String),
			}
		}
		if reviewedAt != "" {
			if r.Date, err = time.Parse(time.RFC3339Nano, reviewedAt); err != nil {
				return nil, fmt.Errorf("review %s: date: %w", id, err)
			}
		}
		for _, f := range findings[id] {
			switch f.kind {
			case "issue":
				issueID := ""
				if len(f.ids) > 0 {
					issueID = f.ids[0]
				}
				r.Issues = append(r.Issues, review.Issue{ID: issueID, Severity: f.severity, Comment: f.comment})
			case "advisory":
				r.Advisories = append(r.Advisories, review.Advisory{IDs: f.ids, Severity: f.severity, Comment: f.comment})
			}
		}
		snap.AddReview(r, digest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	imports, err := s.Imports(ctx)
	if err != nil {
		return nil, err
	}
	if len(imports) > 0 {
		snap.Hash = imports[0].Hash
	}
	return snap, nil
}

func (s *SQLiteStore) loadReviewers(ctx context.Context, snap *snapshot.Snapshot) error {
	q, args, err := sq.Select("id", "url", "verified", "trust").From("reviewers").OrderBy("id").ToSql()
	if err != nil {
		return fmt.Errorf("build reviewer query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("list reviewers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r snapshot.Reviewer
		var trust string
		if err := rows.Scan(&r.ID, &r.URL, &r.Verified, &trust); err != nil {
			return fmt.Errorf("scan reviewer: %w", err)
		}
		r.Trust = review.TrustLevel(trust)
		snap.AddReviewer(r)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadFindings(ctx context.Context) (map[string][]finding, error) {
	q, args, err := sq.Select("review_id", "kind", "ids", "severity", "comment").
		From("review_findings").
		OrderBy("review_id", "kind", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build findings query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]finding)
	for rows.Next() {
		var (
			reviewID, ids, severity string
			f                       finding
		)
		if err := rows.Scan(&reviewID, &f.kind, &ids, &severity, &f.comment); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &f.ids); err != nil {
			return nil, fmt.Errorf("finding ids for %s: %w", reviewID, err)
		}
		if len(f.ids) == 0 {
			f.ids = nil
		}
		f.severity = review.Level(severity)
		out[reviewID] = append(out[reviewID], f)
	}
	return out, rows.Err()
}

// --- Imports ---

func (s *SQLiteStore) Imports(ctx context.Context) ([]ImportRecord, error) {
	q, args, err := sq.Select("id", "file_path", "hash", "reviewers", "reviews", "imported_at").
		From("imports").
		OrderBy("rowid DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build imports query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		if err := rows.Scan(&rec.ID, &rec.FilePath, &rec.Hash, &rec.Reviewers, &rec.Reviews, &rec.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
