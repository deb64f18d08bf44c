package review

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SortScored orders reviews of one package: version descending, then trust,
// then quality, then submission date, all descending. Full ties keep input order.
func SortScored(reviews []Scored) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return Less(reviews[i], reviews[j])
	})
}

// Less reports whether a sorts before b.
func Less(a, b Scored) bool {
	if c := CompareVersions(a.Review.Package.Version, b.Review.Package.Version); c != 0 {
		return c > 0
	}
	if c := a.Trust.Compare(b.Trust); c != 0 {
		return c > 0
	}
	if a.Quality != b.Quality {
		return a.Quality > b.Quality
	}
	return a.Review.Date.After(b.Review.Date)
}

// CompareVersions orders semver versions, treating nil as lowest. Versions
// equal by precedence are ordered by build metadata, as cargo orders them.
func CompareVersions(a, b *semver.Version) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := a.Compare(b); c != 0 {
		return c
	}
	return compareMetadata(a.Metadata(), b.Metadata())
}

// compareMetadata orders build metadata: none first, then identifier by
// identifier with numeric identifiers before alphanumeric ones.
func compareMetadata(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareIdent(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(as), len(bs))
}

func compareIdent(a, b string) int {
	an, aErr := strconv.ParseUint(a, 10, 64)
	bn, bErr := strconv.ParseUint(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
