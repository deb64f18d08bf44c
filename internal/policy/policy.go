// Package policy handles loading and describing conversion policies.
package policy

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/revaudit/internal/review"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// ErrUnknownPolicy is returned when a name matches no built-in policy.
var ErrUnknownPolicy = errors.New("unknown policy")

// Policy bundles the knobs that decide which reviews a conversion exports.
type Policy struct {
	Name                string   `yaml:"name"`
	Version             int      `yaml:"version"`
	Description         string   `yaml:"description"`
	MinTrust            string   `yaml:"min_trust"`
	IncludeGitRevs      bool     `yaml:"include_git_revs"`
	ViolationExclusions []string `yaml:"violation_exclusions"`
}

// Trust returns the parsed minimum trust level.
func (p *Policy) Trust() (review.TrustLevel, error) {
	t, err := review.ParseTrustLevel(p.MinTrust)
	if err != nil {
		return "", fmt.Errorf("policy %s: min_trust: %w", p.Name, err)
	}
	return t, nil
}

// LoadBuiltin loads a built-in policy by name.
func LoadBuiltin(name string) (*Policy, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("policy.LoadBuiltin: %w %q", ErrUnknownPolicy, name)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy.LoadBuiltin: parse %q: %w", name, err)
	}
	return p, nil
}

// LoadFile loads a policy from a YAML file.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy.LoadFile: %w", err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy.LoadFile: %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Resolve treats ref as a file path when it has a YAML extension and as a
// built-in name otherwise.
func Resolve(ref string) (*Policy, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yaml", ".yml":
		return LoadFile(ref)
	}
	return LoadBuiltin(ref)
}

func parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.MinTrust == "" {
		p.MinTrust = string(review.TrustLow)
	}
	if _, err := p.Trust(); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the names of all available built-in policies.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exclusions merges the policy's violation exclusions with extra ones,
// dropping blanks and duplicates.
func (p *Policy) Exclusions(extra ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{p.ViolationExclusions, extra} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Describe renders the policy as Markdown.
func Describe(p *Policy) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Policy: %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Description))
	}
	fmt.Fprintf(&b, "- min_trust: %s\n", p.MinTrust)
	fmt.Fprintf(&b, "- include_git_revs: %t\n", p.IncludeGitRevs)
	if len(p.ViolationExclusions) == 0 {
		b.WriteString("- violation_exclusions: none\n")
	} else {
		b.WriteString("- violation_exclusions:\n")
		for _, s := range p.ViolationExclusions {
			fmt.Fprintf(&b, "  - %q\n", s)
		}
	}
	return b.String()
}
