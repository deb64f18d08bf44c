// Package audit converts trusted package reviews into a cargo-vet audits document.
package audit

import "github.com/dshills/revaudit/internal/review"

// ReviewSource is a read-only view of a materialized review database.
type ReviewSource interface {
	// ReviewsForSource returns every review of packages from the given registry.
	ReviewsForSource(source string) []review.Review
	// VerifiedURL returns the reviewer's verified public proof repository URL.
	VerifiedURL(id string) (string, bool)
	// ProofDigest returns the content digest of the proof carrying r.
	ProofDigest(r review.Review) ([]byte, bool)
}

// TrustOracle reports the effective trust the publisher places in a reviewer.
type TrustOracle interface {
	EffectiveTrust(id string) review.TrustLevel
}

// TrustSet caches oracle answers for one conversion run.
type TrustSet map[string]review.TrustLevel

// NewTrustSet queries oracle once for each distinct reviewer in reviews.
func NewTrustSet(oracle TrustOracle, reviews []review.Review) TrustSet {
	set := make(TrustSet)
	for i := range reviews {
		id := reviews[i].From
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = oracle.EffectiveTrust(id)
	}
	return set
}

// Get returns the trust of id, or none when it is unknown.
func (t TrustSet) Get(id string) review.TrustLevel {
	if lvl, ok := t[id]; ok {
		return lvl
	}
	return review.TrustNone
}
