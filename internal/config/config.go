// Package config loads revaudit settings from the config file, the
// environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/viper"

	"github.com/dshills/revaudit/internal/review"
)

// EnvPrefix prefixes every environment override, e.g. REVAUDIT_DB_PATH.
const EnvPrefix = "REVAUDIT"

// Config is the effective configuration of one invocation.
type Config struct {
	// MinTrust overrides the policy's minimum trust when non-empty.
	MinTrust review.TrustLevel
	// IncludeGitRevs overrides the policy's setting when non-nil.
	IncludeGitRevs      *bool
	Policy              string
	Workers             int
	DBPath              string
	LogLevel            string
	ViolationExclusions []string
}

// Key describes one setting for display.
type Key struct {
	Name   string
	EnvVar string
}

// Keys lists every supported setting in display order.
var Keys = []Key{
	{Name: "policy", EnvVar: EnvPrefix + "_POLICY"},
	{Name: "min_trust", EnvVar: EnvPrefix + "_MIN_TRUST"},
	{Name: "include_git_revs", EnvVar: EnvPrefix + "_INCLUDE_GIT_REVS"},
	{Name: "violation_exclusions", EnvVar: EnvPrefix + "_VIOLATION_EXCLUSIONS"},
	{Name: "workers", EnvVar: EnvPrefix + "_WORKERS"},
	{Name: "db_path", EnvVar: EnvPrefix + "_DB_PATH"},
	{Name: "log_level", EnvVar: EnvPrefix + "_LOG_LEVEL"},
}

// DefaultDir returns ~/.config/revaudit.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config.DefaultDir: %w", err)
	}
	return filepath.Join(home, ".config", "revaudit"), nil
}

// New builds a viper instance reading cfgFile, or config.yaml in dir when
// cfgFile is empty. A missing config file is not an error.
func New(cfgFile, dir string) (*viper.Viper, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// min_trust and include_git_revs have no default so that the selected
	// policy decides unless they are set explicitly.
	v.SetDefault("policy", "default")
	v.SetDefault("violation_exclusions", []string{})
	v.SetDefault("workers", 0)
	v.SetDefault("db_path", filepath.Join(dir, "reviews.db"))
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("config.New: %w", err)
		}
	}
	return v, nil
}

// Load extracts and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Policy:              v.GetString("policy"),
		Workers:             v.GetInt("workers"),
		DBPath:              v.GetString("db_path"),
		LogLevel:            v.GetString("log_level"),
		ViolationExclusions: v.GetStringSlice("violation_exclusions"),
	}
	if s := v.GetString("min_trust"); s != "" {
		t, err := review.ParseTrustLevel(s)
		if err != nil {
			return nil, fmt.Errorf("config.Load: min_trust: %w", err)
		}
		c.MinTrust = t
	}
	if v.IsSet("include_git_revs") {
		b := v.GetBool("include_git_revs")
		c.IncludeGitRevs = &b
	}
	if c.Workers < 0 {
		return nil, fmt.Errorf("config.Load: workers must be >= 0, got %d", c.Workers)
	}
	if c.Policy == "" {
		return nil, errors.New("config.Load: policy must not be empty")
	}
	return c, nil
}

// Source reports where the value of key comes from.
func Source(v *viper.Viper, k Key) string {
	if _, ok := os.LookupEnv(k.EnvVar); ok {
		return "env: " + k.EnvVar
	}
	if v.InConfig(k.Name) {
		return "file"
	}
	if v.IsSet(k.Name) {
		return "default"
	}
	return "policy"
}

const fileTemplate = `# revaudit configuration
# See: revaudit config show (for effective values and sources)

# Built-in policy name or path to a policy YAML file
policy: {{ .Policy }}

# Override the policy's minimum reviewer trust (distrust, none, low, medium, high)
# min_trust: low

# Override the policy's git revision annotation
# include_git_revs: false

# Extra reviewer URL substrings whose violations are withheld
violation_exclusions: []

# Package groups converted in parallel (0 = number of CPUs)
workers: {{ .Workers }}

# SQLite review database
db_path: {{ .DBPath }}

# debug, info, warn or error
log_level: {{ .LogLevel }}
`

// WriteTemplate writes a commented config file seeded with v's values.
func WriteTemplate(w io.Writer, v *viper.Viper) error {
	tmpl, err := template.New("config").Parse(fileTemplate)
	if err != nil {
		return fmt.Errorf("config.WriteTemplate: %w", err)
	}
	data := struct {
		Policy   string
		Workers  int
		DBPath   string
		LogLevel string
	}{
		Policy:   v.GetString("policy"),
		Workers:  v.GetInt("workers"),
		DBPath:   v.GetString("db_path"),
		LogLevel: v.GetString("log_level"),
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("config.WriteTemplate: %w", err)
	}
	return nil
}
