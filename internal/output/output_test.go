package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revaudit/internal/audit"
	"github.com/dshills/revaudit/internal/vet"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestNew(t *testing.T) {
	out := &bytes.Buffer{}
	u := New(out, nil, true)
	assert.Same(t, out, u.Out)
	assert.NotNil(t, u.ErrOut)

	u.VerboseLog("step %d", 2)
	assert.Contains(t, out.String(), "step 2")
}

func TestMessages(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Info("hello %s", "world")
	u.Success("done %d", 42)
	u.Warning("careful %s", "now")
	u.Error("failed %s", "badly")

	assert.Contains(t, out.String(), "hello world")
	assert.Contains(t, out.String(), "done 42")
	assert.Contains(t, errOut.String(), "careful now")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("detail %d", 1)
	assert.Empty(t, out.String())

	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestTrustColor(t *testing.T) {
	for _, l := range []string{"high", "medium", "low", "distrust"} {
		assert.Contains(t, TrustColor(l), l)
	}
	assert.Equal(t, "none", TrustColor("none"))
}

func TestCriteriaTable(t *testing.T) {
	u, out, _ := newTestUI()
	require.NoError(t, u.Criteria(&vet.AuditsFile{Criteria: vet.StandardCriteria()}))

	result := out.String()
	for _, name := range []string{"trust-high", "level-none", "unmaintained", "strong"} {
		assert.Contains(t, result, name)
	}
}

func TestStatsTable(t *testing.T) {
	u, out, _ := newTestUI()
	s := &audit.Stats{Reviews: 5, Exported: 2, Skipped: map[string]int{"untrusted": 3}}
	require.NoError(t, u.Stats(s))

	result := out.String()
	assert.Contains(t, result, "exported")
	assert.Contains(t, result, "skipped: untrusted")
}
