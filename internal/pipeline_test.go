package internal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dshills/revaudit/internal/audit"
	"github.com/dshills/revaudit/internal/schema"
	"github.com/dshills/revaudit/internal/snapshot"
	"github.com/dshills/revaudit/internal/store"
	"github.com/dshills/revaudit/internal/vet"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

func convertTOML(t *testing.T, snap *snapshot.Snapshot) (string, *vet.AuditsFile) {
	t.Helper()
	conv := audit.New(snap, snap, audit.Options{
		Workers: 2,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	doc, _, err := conv.Convert(context.Background())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	var buf bytes.Buffer
	if err := vet.EncodeTOML(&buf, doc, "generated"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.String(), doc
}

func TestPipelineSnapshotAndStoreAgree(t *testing.T) {
	path := filepath.Join(projectRoot(), "internal", "snapshot", "testdata", "basic.yaml")

	// Load the snapshot file directly
	snap, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	fromFile, doc := convertTOML(t, snap)

	// Validate the document
	for _, e := range schema.Validate(doc) {
		t.Errorf("validation error: %s", e)
	}
	if len(doc.Audits["serde"]) != 2 {
		t.Errorf("expected 2 serde entries, got %d", len(doc.Audits["serde"]))
	}
	if _, ok := doc.Audits["requests"]; ok {
		t.Error("non crates.io package exported")
	}

	// Round-trip through the review database
	ctx := context.Background()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "reviews.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := st.Import(ctx, snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	loaded, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	fromStore, _ := convertTOML(t, loaded)

	if fromFile != fromStore {
		t.Errorf("store round-trip changed output:\n--- file ---\n%s\n--- store ---\n%s", fromFile, fromStore)
	}

	// Published document must read back unchanged
	decoded, err := vet.DecodeTOML(bytes.NewReader([]byte(fromFile)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, e := range schema.Validate(decoded) {
		t.Errorf("decoded validation error: %s", e)
	}
	var again bytes.Buffer
	if err := vet.EncodeTOML(&again, decoded, "generated"); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if again.String() != fromFile {
		t.Error("decode/encode changed the document")
	}
}
