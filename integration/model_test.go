package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/unwind/model"
	"github.com/timewinder-dev/unwind/trace"
)

func isScenario(path string) bool {
	switch filepath.Ext(path) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// TestScenarios runs all scenario descriptions in testdata as subtests
func TestScenarios(t *testing.T) {
	testdataDir := filepath.Join("..", "testdata")

	err := filepath.Walk(testdataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isScenario(path) {
			return nil
		}

		relPath, _ := filepath.Rel(testdataDir, path)
		testName := strings.TrimSuffix(relPath, filepath.Ext(relPath))
		testName = strings.ReplaceAll(testName, string(filepath.Separator), "/")

		t.Run(testName, func(t *testing.T) {
			s, err := model.LoadScenarioFromFile(path)
			require.NoError(t, err, "Failed to load scenario")

			store := trace.NewLRUCache(trace.NewMemoryStore(), 100)
			runner, err := s.BuildRunner(store)
			require.NoError(t, err, "Failed to build runner")

			result, err := runner.Run()
			require.NoError(t, err, "Error while running scenario")
			require.NotNil(t, result)
			require.True(t, result.Success, model.FormatAllViolations(result.Violations))

			t.Logf("Stats: %d episodes, %d frames pushed, %d raised, %d unique stacks",
				result.Statistics.Episodes,
				result.Statistics.FramesPushed,
				result.Statistics.Raises,
				result.Statistics.UniqueStacks)
		})
		return nil
	})
	require.NoError(t, err)
}
