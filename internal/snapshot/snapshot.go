// Package snapshot holds an in-memory, read-only review database together
// with the trust level of every known reviewer.
package snapshot

import (
	"sort"

	"github.com/dshills/revaudit/internal/review"
)

// Reviewer is a known review author.
type Reviewer struct {
	ID       string
	URL      string
	Verified bool
	Trust    review.TrustLevel
}

// Snapshot is a materialized set of reviews, reviewer identities and proof
// digests. It is safe for concurrent reads once built.
type Snapshot struct {
	FilePath string
	Hash     string

	reviews   []review.Review
	index     map[review.Key]int
	reviewers map[string]Reviewer
	digests   map[review.Key][]byte
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{
		index:     make(map[review.Key]int),
		reviewers: make(map[string]Reviewer),
		digests:   make(map[review.Key][]byte),
	}
}

// AddReviewer records or replaces a reviewer.
func (s *Snapshot) AddReviewer(r Reviewer) {
	s.reviewers[r.ID] = r
}

// AddReview records a review and the digest of its proof. A reviewer has at
// most one review per package version: a review dated before the one already
// held is ignored, otherwise it replaces it in place together with its
// digest. A nil digest leaves the review without proof.
func (s *Snapshot) AddReview(r review.Review, digest []byte) bool {
	key := r.Key()
	if i, ok := s.index[key]; ok {
		if r.Date.Before(s.reviews[i].Date) {
			return false
		}
		s.reviews[i] = r
	} else {
		s.index[key] = len(s.reviews)
		s.reviews = append(s.reviews, r)
	}
	if len(digest) > 0 {
		s.digests[key] = digest
	} else {
		delete(s.digests, key)
	}
	return true
}

// Reviews returns all reviews in first-insertion order.
func (s *Snapshot) Reviews() []review.Review {
	out := make([]review.Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

// Reviewers returns all reviewers sorted by id.
func (s *Snapshot) Reviewers() []Reviewer {
	out := make([]Reviewer, 0, len(s.reviewers))
	for _, r := range s.reviewers {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReviewsForSource returns the reviews of packages from source.
func (s *Snapshot) ReviewsForSource(source string) []review.Review {
	var out []review.Review
	for _, r := range s.reviews {
		if r.Package.Source == source {
			out = append(out, r)
		}
	}
	return out
}

// VerifiedURL returns the reviewer's URL when it has been verified.
func (s *Snapshot) VerifiedURL(id string) (string, bool) {
	r, ok := s.reviewers[id]
	if !ok || !r.Verified || r.URL == "" {
		return "", false
	}
	return r.URL, true
}

// ProofDigest returns the digest of the proof that carried r.
func (s *Snapshot) ProofDigest(r review.Review) ([]byte, bool) {
	d, ok := s.digests[r.Key()]
	return d, ok
}

// EffectiveTrust returns the reviewer's trust, or none when unknown.
func (s *Snapshot) EffectiveTrust(id string) review.TrustLevel {
	if r, ok := s.reviewers[id]; ok && r.Trust != "" {
		return r.Trust
	}
	return review.TrustNone
}
