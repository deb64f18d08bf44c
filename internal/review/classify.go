package review

import "github.com/dshills/revaudit/internal/vet"

// Severity returns the highest severity across the review's issues and
// advisories, or medium when it itemizes none.
func Severity(r *Review) Level {
	if len(r.Issues) == 0 && len(r.Advisories) == 0 {
		return LevelMedium
	}
	sev := LevelNone
	for _, iss := range r.Issues {
		sev = MaxLevel(sev, iss.Severity)
	}
	for _, adv := range r.Advisories {
		sev = MaxLevel(sev, adv.Severity)
	}
	return sev
}

// ViolationCriteria maps a violation's severity to the criteria it breaks.
func ViolationCriteria(sev Level) []string {
	switch sev {
	case LevelNone:
		return []string{vet.LevelNone}
	case LevelLow:
		return []string{vet.LevelLow}
	case LevelHigh:
		return []string{vet.SafeToRun, vet.SafeToDeploy}
	default:
		return []string{vet.SafeToDeploy}
	}
}

// Threshold returns the minimum quality an endorsement needs to be exported.
// ok is false for trust levels that can never endorse.
func Threshold(trust TrustLevel, rating Rating) (floor int, ok bool) {
	switch trust {
	case TrustLow:
		floor = Score(LevelHigh)
	case TrustMedium:
		floor = Score(LevelMedium)
	case TrustHigh:
		floor = Score(LevelLow)
	default:
		return 0, false
	}
	switch rating {
	case RatingNeutral:
		floor += Score(LevelMedium)
	case RatingPositive:
		floor += Score(LevelLow)
	}
	return floor, true
}

// SafeToRun reports whether an endorsement earns safe-to-run.
func SafeToRun(s Scored) bool {
	if !s.Trust.AtLeast(TrustMedium) {
		return false
	}
	switch s.Review.Assessment.Rating {
	case RatingNeutral:
		return s.Quality >= Score(LevelMedium)+Score(LevelMedium)
	case RatingPositive:
		return s.Quality >= Score(LevelMedium)+Score(LevelLow)
	case RatingStrong:
		return s.Quality >= Score(LevelLow)+Score(LevelLow)
	}
	return false
}

// SafeToDeploy reports whether an endorsement earns safe-to-deploy.
func SafeToDeploy(s Scored) bool {
	a := s.Review.Assessment
	if !SafeToRun(s) || !a.Understanding.AtLeast(LevelMedium) {
		return false
	}
	switch a.Rating {
	case RatingNeutral:
		return a.Thoroughness.AtLeast(LevelHigh)
	case RatingPositive:
		return a.Thoroughness.AtLeast(LevelMedium)
	case RatingStrong:
		return a.Thoroughness.AtLeast(LevelLow)
	}
	return false
}

// LevelCriterion names the depth bucket a quality score falls into.
func LevelCriterion(quality int) string {
	switch {
	case quality >= Score(LevelHigh)*2:
		return vet.LevelHigh
	case quality >= Score(LevelMedium)*2:
		return vet.LevelMedium
	case quality >= Score(LevelLow)*2:
		return vet.LevelLow
	default:
		return vet.LevelNone
	}
}

func ratingCriterion(r Rating) string {
	switch r {
	case RatingNeutral:
		return vet.Neutral
	case RatingPositive:
		return vet.Positive
	case RatingStrong:
		return vet.Strong
	default:
		return vet.Negative
	}
}

func trustCriterion(t TrustLevel) string {
	switch t {
	case TrustHigh:
		return vet.TrustHigh
	case TrustMedium:
		return vet.TrustMedium
	default:
		return vet.TrustLow
	}
}

// EndorsementCriteria derives the criteria of a non-negative review that
// has already passed Threshold.
func EndorsementCriteria(s Scored) []string {
	criteria := []string{
		ratingCriterion(s.Review.Assessment.Rating),
		LevelCriterion(s.Quality),
		trustCriterion(s.Trust),
	}
	if SafeToDeploy(s) {
		criteria = append(criteria, vet.SafeToDeploy)
	}
	if SafeToRun(s) {
		criteria = append(criteria, vet.SafeToRun)
	}
	if s.Review.Unmaintained {
		criteria = append(criteria, vet.Unmaintained)
	}
	return criteria
}

// Skip reasons reported by Classify.
const (
	SkipUntrusted    = "untrusted"
	SkipLowQuality   = "below quality threshold"
	SkipNoAssessment = "no assessment"
)

// Classify selects the violation or endorsement branch and returns the
// review's criteria. When the review must not be exported, criteria is nil
// and reason says why.
func Classify(s Scored) (criteria []string, reason string) {
	if s.Review.Assessment == nil {
		return nil, SkipNoAssessment
	}
	if s.Violation() {
		return ViolationCriteria(Severity(s.Review)), ""
	}
	floor, ok := Threshold(s.Trust, s.Review.Assessment.Rating)
	if !ok {
		return nil, SkipUntrusted
	}
	if s.Quality < floor {
		return nil, SkipLowQuality
	}
	return EndorsementCriteria(s), ""
}
