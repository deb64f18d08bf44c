package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/revaudit/internal/config"
	"github.com/dshills/revaudit/internal/policy"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage revaudit configuration.

Running bare 'revaudit config' is the same as 'revaudit config show'.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigShow(a)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file with commented defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(a, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration with sources",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigShow(a)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (a *app) configFilePath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	dir, err := config.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func runConfigInit(a *app, force bool) error {
	cfgPath, err := a.configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !force {
			return exitError(3, "config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		a.ui.Warning("Overwriting existing config file")
	}

	var buf bytes.Buffer
	if err := config.WriteTemplate(&buf, a.v); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	a.ui.Success("Config file created: %s", cfgPath)
	return nil
}

func runConfigShow(a *app) error {
	if used := a.v.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			a.ui.Info("Config file: %s", used)
		} else {
			a.ui.Info("Config file: (none)")
		}
	} else {
		a.ui.Info("Config file: (none)")
	}
	fmt.Fprintln(a.ui.Out)

	// Settings left to the policy show the policy's value.
	p, err := policy.Resolve(a.cfg.Policy)
	if err != nil {
		return exitError(3, "failed to load policy: %v", err)
	}
	fromPolicy := map[string]any{
		"min_trust":        p.MinTrust,
		"include_git_revs": p.IncludeGitRevs,
	}

	table := a.ui.Table([]string{"Key", "Value", "Source"})
	for _, k := range config.Keys {
		val := a.v.Get(k.Name)
		source := config.Source(a.v, k)
		if source == "policy" {
			val = fromPolicy[k.Name]
			source = "policy: " + p.Name
		}
		if err := table.Append([]string{k.Name, fmt.Sprint(val), source}); err != nil {
			return err
		}
	}
	return table.Render()
}
