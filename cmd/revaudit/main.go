package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/revaudit/internal/config"
	"github.com/dshills/revaudit/internal/logging"
	"github.com/dshills/revaudit/internal/output"
)

var version = "0.1.0"

// app carries the state shared by every subcommand after flag parsing.
type app struct {
	cfgFile  string
	logLevel string
	verbose  bool

	v   *viper.Viper
	cfg *config.Config
	log *slog.Logger
	ui  *output.UI
}

// setup loads configuration and builds the logger and UI for cmd.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := config.DefaultDir()
	if err != nil {
		return exitError(3, "%v", err)
	}
	a.v, err = config.New(a.cfgFile, dir)
	if err != nil {
		return exitError(3, "failed to read config: %v", err)
	}
	a.cfg, err = config.Load(a.v)
	if err != nil {
		return exitError(3, "invalid config: %v", err)
	}

	level := a.cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = a.logLevel
	}
	if a.verbose {
		level = "debug"
	}
	a.log = logging.NewCLILogger(cmd.ErrOrStderr(), level)
	a.ui = output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.verbose)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "revaudit",
		Short:         "Export trusted cargo-crev package reviews as cargo-vet audits",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default: ~/.config/revaudit/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Print processing steps")

	root.AddCommand(
		newConvertCmd(a),
		newImportCmd(a),
		newCriteriaCmd(a),
		newPoliciesCmd(a),
		newConfigCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
