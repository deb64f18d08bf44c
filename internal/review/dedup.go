package review

import "github.com/Masterminds/semver/v3"

// Marker is the best endorsement retained so far in a package group.
type Marker struct {
	Quality int
	Trust   TrustLevel
	Version *semver.Version
}

// Dominates reports whether the marker makes s redundant: s is no better in
// quality and the marker is newer and at least as trusted, or at least as new
// and more trusted.
func (m Marker) Dominates(s Scored) bool {
	if s.Quality > m.Quality {
		return false
	}
	ver := CompareVersions(m.Version, s.Review.Package.Version)
	trust := m.Trust.Compare(s.Trust)
	return (ver > 0 && trust >= 0) || (ver >= 0 && trust > 0)
}

// CanDominate reports whether a retained review may suppress later ones:
// rated above neutral, a full review, and of a released version.
func CanDominate(s Scored) bool {
	return !s.Violation() &&
		s.Review.Assessment.Rating.Above(RatingNeutral) &&
		!s.Review.Incremental() &&
		!s.Review.Package.Prerelease()
}

// Step folds one review into the marker. It returns whether the review is
// kept and the marker to carry forward. Violations are always kept and
// leave the marker untouched.
func Step(m *Marker, s Scored) (bool, *Marker) {
	if s.Violation() {
		return true, m
	}
	if m != nil && m.Dominates(s) {
		return false, m
	}
	if CanDominate(s) {
		return true, &Marker{Quality: s.Quality, Trust: s.Trust, Version: s.Review.Package.Version}
	}
	return true, m
}

// Dedup drops pareto-dominated endorsements from items, which must already
// be in SortScored order. view extracts the scored review from each item.
func Dedup[T any](items []T, view func(T) Scored) []T {
	var marker *Marker
	kept := make([]T, 0, len(items))
	for _, it := range items {
		var keep bool
		keep, marker = Step(marker, view(it))
		if keep {
			kept = append(kept, it)
		}
	}
	return kept
}
