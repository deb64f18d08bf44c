package snapshot

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/dshills/revaudit/internal/review"
)

// ErrUnknownFormat is returned for snapshot files that are neither YAML nor JSON.
var ErrUnknownFormat = errors.New("unknown snapshot format")

// Format is the encoding of a snapshot file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// File is the on-disk snapshot layout.
type File struct {
	Reviewers []ReviewerRecord `yaml:"reviewers" json:"reviewers"`
	Reviews   []ReviewRecord   `yaml:"reviews" json:"reviews"`
}

// ReviewerRecord describes a reviewer identity and its precomputed trust.
type ReviewerRecord struct {
	ID       string `yaml:"id" json:"id"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Verified bool   `yaml:"verified" json:"verified"`
	Trust    string `yaml:"trust" json:"trust"`
}

// PackageRecord identifies a reviewed package version.
type PackageRecord struct {
	Source       string `yaml:"source,omitempty" json:"source,omitempty"`
	Name         string `yaml:"name" json:"name"`
	Version      string `yaml:"version" json:"version"`
	Revision     string `yaml:"revision,omitempty" json:"revision,omitempty"`
	RevisionType string `yaml:"revision_type,omitempty" json:"revision_type,omitempty"`
}

// AssessmentRecord is the review body.
type AssessmentRecord struct {
	Thoroughness  string `yaml:"thoroughness" json:"thoroughness"`
	Understanding string `yaml:"understanding" json:"understanding"`
	Rating        string `yaml:"rating" json:"rating"`
}

// IssueRecord is a problem found in the reviewed version.
type IssueRecord struct {
	ID       string `yaml:"id" json:"id"`
	Severity string `yaml:"severity" json:"severity"`
	Comment  string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// AdvisoryRecord is an advisory attached to the review.
type AdvisoryRecord struct {
	IDs      []string `yaml:"ids,omitempty" json:"ids,omitempty"`
	Severity string   `yaml:"severity" json:"severity"`
	Comment  string   `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// ReviewRecord is one package review proof.
type ReviewRecord struct {
	From         string            `yaml:"from" json:"from"`
	Date         time.Time         `yaml:"date" json:"date"`
	Package      PackageRecord     `yaml:"package" json:"package"`
	DiffBase     *PackageRecord    `yaml:"diff_base,omitempty" json:"diff_base,omitempty"`
	Review       *AssessmentRecord `yaml:"review,omitempty" json:"review,omitempty"`
	Issues       []IssueRecord     `yaml:"issues,omitempty" json:"issues,omitempty"`
	Advisories   []AdvisoryRecord  `yaml:"advisories,omitempty" json:"advisories,omitempty"`
	Unmaintained bool              `yaml:"unmaintained,omitempty" json:"unmaintained,omitempty"`
	Comment      string            `yaml:"comment,omitempty" json:"comment,omitempty"`
	// Digest is the base64url proof digest. When empty it is computed from Proof.
	Digest string `yaml:"digest,omitempty" json:"digest,omitempty"`
	Proof  string `yaml:"proof,omitempty" json:"proof,omitempty"`
}

// Load reads a snapshot file and computes its SHA-256 hash.
func Load(path string) (*Snapshot, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot.Load: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot.Load: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("snapshot.Load: %s: %w", path, err)
	}
	h := sha256.Sum256(data)
	s.FilePath = path
	s.Hash = fmt.Sprintf("sha256:%x", h)
	return s, nil
}

// Parse decodes snapshot data in the given format.
func Parse(data []byte, format Format) (*Snapshot, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return FromFile(&f)
}

// FromFile validates the records of f and builds a snapshot.
func FromFile(f *File) (*Snapshot, error) {
	s := New()
	for i, rec := range f.Reviewers {
		if rec.ID == "" {
			return nil, fmt.Errorf("reviewers[%d].id: required", i)
		}
		trust := review.TrustNone
		if rec.Trust != "" {
			t, err := review.ParseTrustLevel(rec.Trust)
			if err != nil {
				return nil, fmt.Errorf("reviewers[%d].trust: %w", i, err)
			}
			trust = t
		}
		s.AddReviewer(Reviewer{ID: rec.ID, URL: rec.URL, Verified: rec.Verified, Trust: trust})
	}

	for i, rec := range f.Reviews {
		r, err := rec.toReview()
		if err != nil {
			return nil, fmt.Errorf("reviews[%d]: %w", i, err)
		}
		digest, err := rec.digest()
		if err != nil {
			return nil, fmt.Errorf("reviews[%d].digest: %w", i, err)
		}
		s.AddReview(r, digest)
	}
	return s, nil
}

func (rec ReviewRecord) toReview() (review.Review, error) {
	if rec.From == "" {
		return review.Review{}, errors.New("from: required")
	}
	pkg, err := rec.Package.toPackage()
	if err != nil {
		return review.Review{}, fmt.Errorf("package: %w", err)
	}
	r := review.Review{
		From:         rec.From,
		Package:      pkg,
		Unmaintained: rec.Unmaintained,
		Comment:      rec.Comment,
		Date:         rec.Date,
	}
	if rec.DiffBase != nil {
		base, err := rec.DiffBase.toPackage()
		if err != nil {
			return review.Review{}, fmt.Errorf("diff_base: %w", err)
		}
		if rec.DiffBase.Source == "" {
			base.Source = pkg.Source
		}
		r.DiffBase = &base
	}
	if rec.Review != nil {
		a, err := rec.Review.toAssessment()
		if err != nil {
			return review.Review{}, fmt.Errorf("review: %w", err)
		}
		r.Assessment = &a
	}
	for j, iss := range rec.Issues {
		sev, err := review.ParseLevel(iss.Severity)
		if err != nil {
			return review.Review{}, fmt.Errorf("issues[%d].severity: %w", j, err)
		}
		r.Issues = append(r.Issues, review.Issue{ID: iss.ID, Severity: sev, Comment: iss.Comment})
	}
	for j, adv := range rec.Advisories {
		sev, err := review.ParseLevel(adv.Severity)
		if err != nil {
			return review.Review{}, fmt.Errorf("advisories[%d].severity: %w", j, err)
		}
		r.Advisories = append(r.Advisories, review.Advisory{IDs: adv.IDs, Severity: sev, Comment: adv.Comment})
	}
	return r, nil
}

func (p PackageRecord) toPackage() (review.Package, error) {
	if p.Name == "" {
		return review.Package{}, errors.New("name: required")
	}
	v, err := semver.StrictNewVersion(p.Version)
	if err != nil {
		return review.Package{}, fmt.Errorf("version %q: %w", p.Version, err)
	}
	source := p.Source
	if source == "" {
		source = review.SourceCratesIO
	}
	return review.Package{
		Source:       source,
		Name:         p.Name,
		Version:      v,
		Revision:     p.Revision,
		RevisionType: p.RevisionType,
	}, nil
}

func (a AssessmentRecord) toAssessment() (review.Assessment, error) {
	th, err := review.ParseLevel(a.Thoroughness)
	if err != nil {
		return review.Assessment{}, fmt.Errorf("thoroughness: %w", err)
	}
	un, err := review.ParseLevel(a.Understanding)
	if err != nil {
		return review.Assessment{}, fmt.Errorf("understanding: %w", err)
	}
	rating, err := review.ParseRating(a.Rating)
	if err != nil {
		return review.Assessment{}, fmt.Errorf("rating: %w", err)
	}
	return review.Assessment{Thoroughness: th, Understanding: un, Rating: rating}, nil
}

func (rec ReviewRecord) digest() ([]byte, error) {
	if rec.Digest != "" {
		return DecodeDigest(rec.Digest)
	}
	if rec.Proof != "" {
		return ComputeDigest([]byte(rec.Proof)), nil
	}
	return nil, nil
}

// ComputeDigest computes the content digest of a serialized proof.
func ComputeDigest(proof []byte) []byte {
	sum := blake2b.Sum256(proof)
	return sum[:]
}

// EncodeDigest renders a digest as unpadded base64url.
func EncodeDigest(d []byte) string {
	return base64.RawURLEncoding.EncodeToString(d)
}

// DecodeDigest parses a base64url digest, padded or not.
func DecodeDigest(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
