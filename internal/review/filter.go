package review

// Scored is a review annotated with its reviewer's trust and its quality.
type Scored struct {
	Review  *Review
	Trust   TrustLevel
	Quality int
}

// Violation reports whether the review flags the version as unsafe.
func (s Scored) Violation() bool {
	return s.Review.Assessment != nil && s.Review.Assessment.Rating == RatingNegative
}

// Admit reports whether a reviewer's trust meets the configured minimum.
func Admit(trust, minTrust TrustLevel) bool {
	return trust.AtLeast(minTrust)
}

// Annotate gates r on trust and scores it. ok is false when the review has
// no assessment or its reviewer is trusted less than minTrust.
func Annotate(r *Review, trust, minTrust TrustLevel) (s Scored, ok bool) {
	if r.Assessment == nil || !Admit(trust, minTrust) {
		return Scored{}, false
	}
	return Scored{Review: r, Trust: trust, Quality: Quality(*r.Assessment)}, true
}
