package review

import "fmt"

// Rating is the reviewer's overall verdict on a package version.
type Rating string

const (
	RatingNegative Rating = "negative"
	RatingNeutral  Rating = "neutral"
	RatingPositive Rating = "positive"
	RatingStrong   Rating = "strong"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingNegative, RatingNeutral, RatingPositive, RatingStrong:
		return true
	}
	return false
}

// rank returns the comparison key (higher = more favourable).
func (r Rating) rank() int {
	switch r {
	case RatingNegative:
		return 0
	case RatingNeutral:
		return 1
	case RatingPositive:
		return 2
	case RatingStrong:
		return 3
	default:
		return -1
	}
}

// Above reports whether r ranks strictly higher than o.
func (r Rating) Above(o Rating) bool { return r.rank() > o.rank() }

// Level grades thoroughness, understanding and issue severity.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) Valid() bool {
	switch l {
	case LevelNone, LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

func (l Level) rank() int {
	switch l {
	case LevelNone:
		return 0
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l ranks at or above o.
func (l Level) AtLeast(o Level) bool { return l.rank() >= o.rank() }

// MaxLevel returns the higher-ranked of a and b.
func MaxLevel(a, b Level) Level {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// TrustLevel is the effective trust the publisher places in a reviewer.
type TrustLevel string

const (
	TrustDistrust TrustLevel = "distrust"
	TrustNone     TrustLevel = "none"
	TrustLow      TrustLevel = "low"
	TrustMedium   TrustLevel = "medium"
	TrustHigh     TrustLevel = "high"
)

func (t TrustLevel) Valid() bool {
	switch t {
	case TrustDistrust, TrustNone, TrustLow, TrustMedium, TrustHigh:
		return true
	}
	return false
}

func (t TrustLevel) rank() int {
	switch t {
	case TrustDistrust:
		return 0
	case TrustNone:
		return 1
	case TrustLow:
		return 2
	case TrustMedium:
		return 3
	case TrustHigh:
		return 4
	default:
		return -1
	}
}

// Compare returns -1, 0 or +1 ordering t relative to o.
func (t TrustLevel) Compare(o TrustLevel) int {
	return cmpInt(t.rank(), o.rank())
}

// AtLeast reports whether t ranks at or above o.
func (t TrustLevel) AtLeast(o TrustLevel) bool { return t.rank() >= o.rank() }

// ParseRating converts a case-sensitive rating name.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.Valid() {
		return "", fmt.Errorf("review.ParseRating: invalid rating %q", s)
	}
	return r, nil
}

// ParseLevel converts a level name. The empty string is treated as none.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelNone, nil
	}
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("review.ParseLevel: invalid level %q", s)
	}
	return l, nil
}

// ParseTrustLevel converts a trust level name.
func ParseTrustLevel(s string) (TrustLevel, error) {
	t := TrustLevel(s)
	if !t.Valid() {
		return "", fmt.Errorf("review.ParseTrustLevel: invalid trust level %q", s)
	}
	return t, nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
