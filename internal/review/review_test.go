package review

import (
	"reflect"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
)

// --- Enum tests ---

func TestRatingValid(t *testing.T) {
	for _, r := range []Rating{RatingNegative, RatingNeutral, RatingPositive, RatingStrong} {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if Rating("great").Valid() {
		t.Error("expected great rating to be invalid")
	}
}

func TestTrustLevelOrder(t *testing.T) {
	order := []TrustLevel{TrustDistrust, TrustNone, TrustLow, TrustMedium, TrustHigh}
	for i := 1; i < len(order); i++ {
		if order[i].Compare(order[i-1]) != 1 {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
		if order[i-1].AtLeast(order[i]) {
			t.Errorf("%s should not be at least %s", order[i-1], order[i])
		}
	}
	if TrustLow.Compare(TrustLow) != 0 {
		t.Error("equal trust levels should compare equal")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelNone, false},
		{"none", LevelNone, false},
		{"high", LevelHigh, false},
		{"HIGH", "", true},
		{"extreme", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// --- Score tests ---

func TestScore(t *testing.T) {
	want := map[Level]int{LevelNone: 0, LevelLow: 1, LevelMedium: 3, LevelHigh: 7}
	for l, s := range want {
		if got := Score(l); got != s {
			t.Errorf("Score(%s) = %d, want %d", l, got, s)
		}
	}
}

func TestQuality(t *testing.T) {
	levels := []Level{LevelNone, LevelLow, LevelMedium, LevelHigh}
	for _, th := range levels {
		for _, un := range levels {
			q := Quality(Assessment{Thoroughness: th, Understanding: un})
			if q != Score(th)+Score(un) {
				t.Errorf("Quality(%s, %s) = %d, want %d", th, un, q, Score(th)+Score(un))
			}
			if q < 0 || q > 14 {
				t.Errorf("Quality(%s, %s) = %d out of range", th, un, q)
			}
		}
	}
	if got := Quality(Assessment{Thoroughness: LevelMedium, Understanding: LevelHigh}); got != 10 {
		t.Errorf("Quality(medium, high) = %d, want 10", got)
	}
}

// --- Filter tests ---

func TestAdmit(t *testing.T) {
	tests := []struct {
		trust, min TrustLevel
		want       bool
	}{
		{TrustHigh, TrustLow, true},
		{TrustLow, TrustLow, true},
		{TrustNone, TrustLow, false},
		{TrustDistrust, TrustNone, false},
		{TrustMedium, TrustHigh, false},
		{TrustNone, TrustNone, true},
	}
	for _, tt := range tests {
		if got := Admit(tt.trust, tt.min); got != tt.want {
			t.Errorf("Admit(%s, %s) = %v, want %v", tt.trust, tt.min, got, tt.want)
		}
	}
}

func TestAnnotate(t *testing.T) {
	r := mkReview("1.0.0", RatingPositive, LevelMedium, LevelHigh)

	if _, ok := Annotate(r, TrustNone, TrustLow); ok {
		t.Error("review below minimum trust should not be admitted")
	}
	s, ok := Annotate(r, TrustMedium, TrustLow)
	if !ok {
		t.Fatal("expected review to be admitted")
	}
	if s.Quality != 10 {
		t.Errorf("quality = %d, want 10", s.Quality)
	}

	bare := mkReview("1.0.0", RatingPositive, LevelLow, LevelLow)
	bare.Assessment = nil
	if _, ok := Annotate(bare, TrustHigh, TrustLow); ok {
		t.Error("review without assessment should not be admitted")
	}
}

// --- Sort tests ---

func TestSortScored(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []Scored{
		{Review: withDate(mkReview("1.0.0", RatingPositive, LevelLow, LevelLow), day), Trust: TrustHigh, Quality: 2},
		{Review: withDate(mkReview("2.0.0", RatingPositive, LevelLow, LevelLow), day), Trust: TrustLow, Quality: 2},
		{Review: withDate(mkReview("2.0.0", RatingPositive, LevelLow, LevelLow), day), Trust: TrustMedium, Quality: 2},
		{Review: withDate(mkReview("2.0.0", RatingPositive, LevelLow, LevelLow), day), Trust: TrustMedium, Quality: 6},
		{Review: withDate(mkReview("2.0.0", RatingPositive, LevelLow, LevelLow), day.AddDate(0, 0, 1)), Trust: TrustMedium, Quality: 6},
		{Review: withDate(mkReview("2.0.0-rc.1", RatingPositive, LevelLow, LevelLow), day), Trust: TrustHigh, Quality: 14},
	}
	for i := range items {
		items[i].Review.Comment = string(rune('a' + i))
	}

	SortScored(items)

	expected := []string{"e", "d", "c", "b", "f", "a"}
	for i, id := range expected {
		if items[i].Review.Comment != id {
			t.Errorf("position %d: got %s, want %s", i, items[i].Review.Comment, id)
		}
	}
}

func TestCompareVersionsBuildMetadata(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.0+build", -1},
		{"1.0.0+2", "1.0.0+10", -1},
		{"1.0.0+10", "1.0.0+abc", -1},
		{"1.0.0+abc", "1.0.0+abd", -1},
		{"1.0.0+a", "1.0.0+a.1", -1},
		{"1.0.0+zzz", "1.0.1", -1},
		{"1.0.0-rc.1+b", "1.0.0", -1},
	}
	for _, tt := range tests {
		a, b := semver.MustParse(tt.a), semver.MustParse(tt.b)
		if got := CompareVersions(a, b); got != tt.want {
			t.Errorf("CompareVersions(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := CompareVersions(b, a); got != -tt.want {
			t.Errorf("CompareVersions(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestSortScoredStableOnFullTie(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var items []Scored
	for _, c := range []string{"x", "y", "z"} {
		r := withDate(mkReview("1.0.0", RatingPositive, LevelLow, LevelLow), day)
		r.Comment = c
		items = append(items, Scored{Review: r, Trust: TrustLow, Quality: 2})
	}
	SortScored(items)
	for i, c := range []string{"x", "y", "z"} {
		if items[i].Review.Comment != c {
			t.Errorf("position %d: got %s, want %s", i, items[i].Review.Comment, c)
		}
	}
}

// --- Dedup tests ---

func TestDedup(t *testing.T) {
	tests := []struct {
		name  string
		items []Scored
		want  []int
	}{
		{
			name: "older weaker review dropped",
			items: []Scored{
				scored("2.0.0", RatingPositive, TrustMedium, 10),
				scored("1.0.0", RatingPositive, TrustMedium, 10),
			},
			want: []int{0},
		},
		{
			name: "same version less trusted dropped",
			items: []Scored{
				scored("2.0.0", RatingPositive, TrustHigh, 10),
				scored("2.0.0", RatingPositive, TrustMedium, 4),
			},
			want: []int{0},
		},
		{
			name: "same version same trust kept",
			items: []Scored{
				scored("2.0.0", RatingPositive, TrustMedium, 10),
				scored("2.0.0", RatingStrong, TrustMedium, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "higher quality older review kept",
			items: []Scored{
				scored("2.0.0", RatingPositive, TrustMedium, 4),
				scored("1.0.0", RatingPositive, TrustMedium, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "more trusted older review kept",
			items: []Scored{
				scored("2.0.0", RatingPositive, TrustLow, 10),
				scored("1.0.0", RatingPositive, TrustHigh, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "violations never dropped",
			items: []Scored{
				scored("2.0.0", RatingStrong, TrustHigh, 14),
				scored("1.0.0", RatingNegative, TrustLow, 0),
			},
			want: []int{0, 1},
		},
		{
			name: "neutral review does not dominate",
			items: []Scored{
				scored("2.0.0", RatingNeutral, TrustHigh, 14),
				scored("1.0.0", RatingPositive, TrustHigh, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "prerelease does not dominate",
			items: []Scored{
				scored("2.0.0-beta.1", RatingStrong, TrustHigh, 14),
				scored("1.0.0", RatingPositive, TrustHigh, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "incremental review does not dominate",
			items: []Scored{
				incremental(scored("2.0.0", RatingStrong, TrustHigh, 14), "1.5.0"),
				scored("1.0.0", RatingPositive, TrustHigh, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "marker survives violation",
			items: []Scored{
				scored("3.0.0", RatingPositive, TrustHigh, 10),
				scored("2.0.0", RatingNegative, TrustHigh, 0),
				scored("1.0.0", RatingPositive, TrustMedium, 10),
			},
			want: []int{0, 1},
		},
		{
			name: "marker survives non-dominating review",
			items: []Scored{
				scored("3.0.0", RatingPositive, TrustHigh, 10),
				scored("3.0.0", RatingNeutral, TrustHigh, 14),
				scored("1.0.0", RatingPositive, TrustHigh, 8),
			},
			want: []int{0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := make([]int, len(tt.items))
			for i := range idx {
				idx[i] = i
			}
			got := Dedup(idx, func(i int) Scored { return tt.items[i] })
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dedup() kept %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Classify tests ---

func TestClassifyEndorsementExample(t *testing.T) {
	r := mkReview("1.2.0", RatingPositive, LevelMedium, LevelHigh)
	s, ok := Annotate(r, TrustMedium, TrustLow)
	if !ok {
		t.Fatal("expected admission")
	}
	if s.Quality != 10 {
		t.Fatalf("quality = %d, want 10", s.Quality)
	}
	got, reason := Classify(s)
	want := []string{"positive", "level-medium", "trust-medium", "safe-to-deploy", "safe-to-run"}
	if reason != "" {
		t.Fatalf("unexpected skip: %s", reason)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("criteria = %v, want %v", got, want)
	}
}

func TestClassifyViolation(t *testing.T) {
	tests := []struct {
		name   string
		issues []Issue
		advs   []Advisory
		want   []string
	}{
		{"high issue", []Issue{{ID: "X-1", Severity: LevelHigh}}, nil, []string{"safe-to-run", "safe-to-deploy"}},
		{"no items defaults to medium", nil, nil, []string{"safe-to-deploy"}},
		{"low issue", []Issue{{Severity: LevelLow}}, nil, []string{"level-low"}},
		{"none issue", []Issue{{Severity: LevelNone}}, nil, []string{"level-none"}},
		{"advisory raises max", []Issue{{Severity: LevelLow}}, []Advisory{{Severity: LevelHigh}}, []string{"safe-to-run", "safe-to-deploy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mkReview("1.0.0", RatingNegative, LevelLow, LevelLow)
			r.Issues = tt.issues
			r.Advisories = tt.advs
			got, reason := Classify(Scored{Review: r, Trust: TrustLow, Quality: 2})
			if reason != "" {
				t.Fatalf("unexpected skip: %s", reason)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("criteria = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		trust  TrustLevel
		rating Rating
		want   int
		ok     bool
	}{
		{TrustLow, RatingNeutral, 10, true},
		{TrustLow, RatingPositive, 8, true},
		{TrustLow, RatingStrong, 7, true},
		{TrustMedium, RatingNeutral, 6, true},
		{TrustMedium, RatingPositive, 4, true},
		{TrustHigh, RatingStrong, 1, true},
		{TrustNone, RatingStrong, 0, false},
		{TrustDistrust, RatingPositive, 0, false},
	}
	for _, tt := range tests {
		got, ok := Threshold(tt.trust, tt.rating)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Threshold(%s, %s) = (%d, %v), want (%d, %v)", tt.trust, tt.rating, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClassifySkips(t *testing.T) {
	low := mkReview("1.0.0", RatingPositive, LevelLow, LevelLow)
	if _, reason := Classify(Scored{Review: low, Trust: TrustLow, Quality: 2}); reason != SkipLowQuality {
		t.Errorf("reason = %q, want %q", reason, SkipLowQuality)
	}
	if _, reason := Classify(Scored{Review: low, Trust: TrustNone, Quality: 2}); reason != SkipUntrusted {
		t.Errorf("reason = %q, want %q", reason, SkipUntrusted)
	}
}

func TestEndorsementCriteriaFlags(t *testing.T) {
	r := mkReview("1.0.0", RatingStrong, LevelLow, LevelLow)
	r.Unmaintained = true
	got := EndorsementCriteria(Scored{Review: r, Trust: TrustHigh, Quality: 2})
	// understanding below medium: safe-to-run only
	want := []string{"strong", "level-low", "trust-high", "safe-to-run", "unmaintained"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("criteria = %v, want %v", got, want)
	}

	neutral := mkReview("1.0.0", RatingNeutral, LevelMedium, LevelHigh)
	got = EndorsementCriteria(Scored{Review: neutral, Trust: TrustMedium, Quality: 10})
	want = []string{"neutral", "level-medium", "trust-medium", "safe-to-run"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("criteria = %v, want %v", got, want)
	}
}

func TestLevelCriterion(t *testing.T) {
	tests := map[int]string{0: "level-none", 2: "level-low", 4: "level-low", 6: "level-medium", 10: "level-medium", 14: "level-high"}
	for q, want := range tests {
		if got := LevelCriterion(q); got != want {
			t.Errorf("LevelCriterion(%d) = %s, want %s", q, got, want)
		}
	}
}

// --- helpers ---

func mkReview(version string, rating Rating, thoroughness, understanding Level) *Review {
	return &Review{
		From: "reviewer",
		Package: Package{
			Source:  SourceCratesIO,
			Name:    "foo",
			Version: semver.MustParse(version),
		},
		Assessment: &Assessment{
			Thoroughness:  thoroughness,
			Understanding: understanding,
			Rating:        rating,
		},
	}
}

func withDate(r *Review, d time.Time) *Review {
	r.Date = d
	return r
}

func scored(version string, rating Rating, trust TrustLevel, quality int) Scored {
	return Scored{Review: mkReview(version, rating, LevelNone, LevelNone), Trust: trust, Quality: quality}
}

func incremental(s Scored, base string) Scored {
	s.Review.DiffBase = &Package{Source: SourceCratesIO, Name: "foo", Version: semver.MustParse(base)}
	return s
}
