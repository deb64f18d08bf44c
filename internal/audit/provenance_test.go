package audit

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"

	"github.com/dshills/revaudit/internal/review"
)

func TestWho(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"unverified", "", "https://web.crev.dev/rust-reviews/reviewer/abc"},
		{"github", "https://github.com/alice/crev-proofs", `"alice" (https://github.com/alice)`},
		{"gitlab", "https://gitlab.com/bob/proofs", `"bob" (https://gitlab.com/bob/proofs)`},
		{"sourcehut", "https://git.sr.ht/~carol/crev-proofs", `"carol" (https://git.sr.ht/~carol)`},
		{"other host", "https://example.org/dave/crev-proofs", `"example.org" (https://example.org/dave)`},
		{"not https", "git://example.org/dave", "git://example.org/dave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Who("abc", tt.url))
		})
	}
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://github.com/alice/crev-proofs#abc", BaseURL("abc", "https://github.com/alice/crev-proofs"))
	assert.Equal(t, "crev:user/abc", BaseURL("abc", ""))
}

func TestDigestURI(t *testing.T) {
	assert.Equal(t, "crev:review/AQIDBA", DigestURI([]byte{1, 2, 3, 4}))
	assert.Equal(t, "crev:review/-_8B", DigestURI([]byte{0xfb, 0xff, 0x01}))
}

func TestNotes(t *testing.T) {
	r := &review.Review{
		Comment: "looks ok",
		Issues: []review.Issue{
			{ID: "X-1", Severity: review.LevelHigh, Comment: "bad"},
		},
		Advisories: []review.Advisory{
			{IDs: []string{"A", "B"}, Severity: review.LevelLow},
		},
	}
	want := "looks ok\n" +
		"severity: low\nid: A, B\n" +
		"\n" +
		"severity: high\nid: X-1\n\nbad"
	assert.Equal(t, want, Notes(r))

	assert.Equal(t, "", Notes(&review.Review{Comment: "  \n"}))
	assert.Equal(t, "severity: medium\n", Notes(&review.Review{
		Comment: " ",
		Issues:  []review.Issue{{Severity: review.LevelMedium}},
	}))
}

func TestVersionFields(t *testing.T) {
	cur := review.Package{Name: "foo", Version: semver.MustParse("1.1.0"), Revision: "abc123", RevisionType: "git"}
	base := review.Package{Name: "foo", Version: semver.MustParse("1.0.0")}

	full := &review.Review{Package: cur}
	viol, version, delta := VersionFields(full, false, false)
	assert.Equal(t, [3]string{"", "1.1.0", ""}, [3]string{viol, version, delta})

	viol, version, delta = VersionFields(full, false, true)
	assert.Equal(t, [3]string{"", "1.1.0@git:abc123", ""}, [3]string{viol, version, delta})

	viol, version, delta = VersionFields(full, true, true)
	assert.Equal(t, [3]string{"=1.1.0", "", ""}, [3]string{viol, version, delta})

	incr := &review.Review{Package: cur, DiffBase: &base}
	viol, version, delta = VersionFields(incr, false, false)
	assert.Equal(t, [3]string{"", "", "1.0.0 -> 1.1.0"}, [3]string{viol, version, delta})
}

func TestRepoInfoFromRemote(t *testing.T) {
	tests := []struct {
		remote string
		want   RepoInfo
	}{
		{"", RepoInfo{}},
		{"git@github.com:alice/crev-proofs.git", RepoInfo{
			GitURL:   "https://github.com/alice/crev-proofs.git",
			HTTPSURL: "https://raw.githubusercontent.com/alice/crev-proofs/HEAD/audits.toml",
			Name:     "alice",
		}},
		{"https://gitlab.com/bob/proofs", RepoInfo{
			GitURL:   "https://gitlab.com/bob/proofs",
			HTTPSURL: "https://gitlab.com/bob/proofs/-/raw/HEAD/audits.toml",
			Name:     "bob",
		}},
		{"https://example.org/carol/proofs", RepoInfo{GitURL: "https://example.org/carol/proofs"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RepoInfoFromRemote(tt.remote), tt.remote)
	}
}
