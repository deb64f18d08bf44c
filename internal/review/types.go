// Package review defines package reviews and the scoring, ordering,
// classification and deduplication rules applied to them.
package review

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// SourceCratesIO identifies the crates.io package registry.
const SourceCratesIO = "https://crates.io"

// Package identifies the reviewed artifact.
type Package struct {
	Source       string
	Name         string
	Version      *semver.Version
	Revision     string
	RevisionType string
}

// VersionString returns the canonical version text, or "" when unset.
func (p Package) VersionString() string {
	if p.Version == nil {
		return ""
	}
	return p.Version.String()
}

// Prerelease reports whether the package version carries a prerelease tag.
func (p Package) Prerelease() bool {
	return p.Version != nil && p.Version.Prerelease() != ""
}

// Assessment is the body of a review. A review without one carries only
// flags or advisories and is never exported.
type Assessment struct {
	Thoroughness  Level
	Understanding Level
	Rating        Rating
}

// Issue is a problem the reviewer found in this version.
type Issue struct {
	ID       string
	Severity Level
	Comment  string
}

// Advisory reports a problem fixed in this version or affecting older ones.
type Advisory struct {
	IDs      []string
	Severity Level
	Comment  string
}

// Review is one reviewer's assessment of a specific package version.
type Review struct {
	// From is the reviewer identity.
	From    string
	Package Package
	// DiffBase is the baseline version of an incremental review.
	DiffBase     *Package
	Assessment   *Assessment
	Issues       []Issue
	Advisories   []Advisory
	Unmaintained bool
	Comment      string
	Date         time.Time
}

// Incremental reports whether the review only covers the changes since DiffBase.
func (r *Review) Incremental() bool { return r.DiffBase != nil }

// Key returns the identity used to look up the review's proof digest.
func (r *Review) Key() Key {
	return Key{
		From:    r.From,
		Source:  r.Package.Source,
		Name:    r.Package.Name,
		Version: r.Package.VersionString(),
	}
}

// Key identifies a review of one package version by one reviewer.
type Key struct {
	From    string
	Source  string
	Name    string
	Version string
}
