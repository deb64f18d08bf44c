package audit

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dshills/revaudit/internal/review"
)

const (
	// ReviewerPageURL prefixes the reviewer id when no verified URL is known.
	ReviewerPageURL = "https://web.crev.dev/rust-reviews/reviewer/"
	// AuditPageURL is the placeholder note for violations without notes.
	AuditPageURL = "https://lib.rs/crates/%s/audit"
)

var userHostPrefixes = []string{
	"https://github.com/",
	"https://gitlab.com/",
	"https://git.sr.ht/~",
}

// BaseURL identifies the reviewer in aggregated-from.
func BaseURL(id, verifiedURL string) string {
	if verifiedURL != "" {
		return verifiedURL + "#" + id
	}
	return "crev:user/" + id
}

// DigestURI identifies the proof in aggregated-from.
func DigestURI(digest []byte) string {
	return "crev:review/" + base64.RawURLEncoding.EncodeToString(digest)
}

// Who renders the attribution of a reviewer.
func Who(id, verifiedURL string) string {
	if verifiedURL == "" {
		return ReviewerPageURL + id
	}
	url := strings.TrimSuffix(verifiedURL, "/crev-proofs")
	for _, prefix := range userHostPrefixes {
		if rest, ok := strings.CutPrefix(url, prefix); ok {
			user, _, _ := strings.Cut(rest, "/")
			return fmt.Sprintf("\"%s\" (%s)", user, url)
		}
	}
	if rest, ok := strings.CutPrefix(url, "https://"); ok {
		host, _, _ := strings.Cut(rest, "/")
		return fmt.Sprintf("\"%s\" (%s)", host, url)
	}
	return url
}

// Notes joins the review comment with one block per advisory and issue.
func Notes(r *review.Review) string {
	var notes string
	if strings.TrimSpace(r.Comment) != "" {
		notes = r.Comment
	}

	var blocks []string
	for _, adv := range r.Advisories {
		blocks = append(blocks, noteBlock(adv.Severity, strings.Join(adv.IDs, ", "), adv.Comment))
	}
	for _, iss := range r.Issues {
		blocks = append(blocks, noteBlock(iss.Severity, iss.ID, iss.Comment))
	}
	if len(blocks) == 0 {
		return notes
	}

	out := strings.Join(blocks, "\n")
	if notes == "" {
		return out
	}
	return notes + "\n" + out
}

func noteBlock(sev review.Level, ids, comment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "severity: %s\n", sev)
	if ids != "" {
		fmt.Fprintf(&b, "id: %s\n", ids)
	}
	if comment != "" {
		b.WriteString("\n")
		b.WriteString(comment)
	}
	return b.String()
}

// VetVersion renders a package version, annotated with its git revision
// when includeGitRevs is set.
func VetVersion(p review.Package, includeGitRevs bool) string {
	v := p.VersionString()
	if includeGitRevs && p.RevisionType == "git" && p.Revision != "" {
		return v + "@git:" + p.Revision
	}
	return v
}

// VersionFields selects which of violation, version and delta an entry carries.
func VersionFields(r *review.Review, violation, includeGitRevs bool) (viol, version, delta string) {
	switch {
	case violation:
		return "=" + r.Package.VersionString(), "", ""
	case r.DiffBase != nil:
		return "", "", VetVersion(*r.DiffBase, includeGitRevs) + " -> " + VetVersion(r.Package, includeGitRevs)
	default:
		return "", VetVersion(r.Package, includeGitRevs), ""
	}
}
