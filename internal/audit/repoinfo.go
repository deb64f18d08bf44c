package audit

import "strings"

// RepoInfo describes where a published audits.toml can be fetched from.
type RepoInfo struct {
	GitURL   string
	HTTPSURL string
	Name     string
}

// RepoInfoFromRemote derives public URLs from a proof repository's git remote.
// SSH remotes (git@host:path) are rewritten to https. HTTPSURL and Name are
// only set for github.com and gitlab.com.
func RepoInfoFromRemote(remote string) RepoInfo {
	if remote == "" {
		return RepoInfo{}
	}
	gitURL := remote
	if rest, ok := strings.CutPrefix(remote, "git@"); ok {
		if host, path, ok := strings.Cut(rest, ":"); ok {
			gitURL = "https://" + host + "/" + path
		}
	}

	info := RepoInfo{GitURL: gitURL}
	u := strings.TrimSuffix(strings.TrimSuffix(gitURL, "/"), ".git")
	if rest, ok := strings.CutPrefix(u, "https://github.com/"); ok {
		info.HTTPSURL = "https://raw.githubusercontent.com/" + rest + "/HEAD/audits.toml"
		info.Name, _, _ = strings.Cut(rest, "/")
	} else if rest, ok := strings.CutPrefix(u, "https://gitlab.com/"); ok {
		info.HTTPSURL = "https://gitlab.com/" + rest + "/-/raw/HEAD/audits.toml"
		info.Name, _, _ = strings.Cut(rest, "/")
	}
	return info
}
