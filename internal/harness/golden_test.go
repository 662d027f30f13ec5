package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/consentlab/studyctl/internal/catalog"
)

// goldenOrder pins the page permutation so site names in the trace are
// deterministic: santander, zalando, eu_health.
var goldenOrder = []int{2, 0, 1}

func runGolden(t *testing.T, scenarioFile string) {
	t.Helper()

	s, err := LoadScenario(filepath.Join("testdata", "scenarios", scenarioFile))
	require.NoError(t, err)

	r, err := NewRunnerWithOrder(
		filepath.Join(t.TempDir(), "test.db"),
		catalog.Default(),
		goldenOrder,
	)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run(s)
	require.NoError(t, err)

	data, err := Snapshot(s.Name, res.Events).MarshalIndent()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
}

func TestGolden_FullSession(t *testing.T) {
	runGolden(t, "full_session.yaml")
}

func TestGolden_ReloadResume(t *testing.T) {
	runGolden(t, "reload_resume.yaml")
}
