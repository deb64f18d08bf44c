package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/revaudit/internal/snapshot"
)

func newImportCmd(a *app) *cobra.Command {
	var dbPath string
	var history bool

	cmd := &cobra.Command{
		Use:   "import [snapshot-file]",
		Short: "Import a review snapshot into the review database",
		Long: `Import merges a snapshot file into the review database. Reviewers are
updated in place and a newer review of the same package version by the same
reviewer replaces the older one. With --history, past imports are listed
instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.cfg.DBPath
			}
			if history {
				return runImportHistory(cmd, a, dbPath)
			}
			if len(args) != 1 {
				return exitError(3, "import requires a snapshot file")
			}
			return runImport(cmd, a, args[0], dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Review database (default: db_path from config)")
	cmd.Flags().BoolVar(&history, "history", false, "List past imports, newest first")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, path, dbPath string) error {
	ctx := cmd.Context()

	a.ui.VerboseLog("Loading snapshot: %s", path)
	snap, err := snapshot.Load(path)
	if err != nil {
		return exitError(3, "failed to load snapshot: %v", err)
	}

	st, err := openStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Import(ctx, snap)
	if err != nil {
		return exitError(3, "import failed: %v", err)
	}
	a.log.Debug("snapshot imported", "id", rec.ID, "hash", rec.Hash)
	a.ui.Success("Imported %d reviews from %d reviewers into %s", rec.Reviews, rec.Reviewers, dbPath)
	return nil
}

func runImportHistory(cmd *cobra.Command, a *app, dbPath string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.Imports(ctx)
	if err != nil {
		return exitError(3, "failed to list imports: %v", err)
	}
	if len(recs) == 0 {
		a.ui.Info("No imports in %s", dbPath)
		return nil
	}

	table := a.ui.Table([]string{"Imported", "File", "Reviewers", "Reviews", "Hash"})
	for _, r := range recs {
		row := []string{
			r.ImportedAt.Local().Format(time.DateTime),
			r.FilePath,
			strconv.Itoa(r.Reviewers),
			strconv.Itoa(r.Reviews),
			r.Hash,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
