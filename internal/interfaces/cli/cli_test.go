package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chemreact.yaml")
	content := fmt.Sprintf(`server:
  port: 18080
  mode: test
cache:
  dir: %s
%s`, filepath.Join(dir, "cache"), extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

func writeTestCorpus(t *testing.T) string {
	t.Helper()
	corpus := rxn.Corpus{
		Reactions: []rxn.Record{
			{Reactants: []string{"H", "H"}, Products: []string{"H2"}, Type: "synthesis"},
			{Reactants: []string{"Na", "Cl"}, Products: []string{"NaCl"}, Type: "synthesis"},
			{Reactants: []string{"H", "H", "O"}, Products: []string{"H2O"}, Type: "synthesis"},
		},
	}
	corpus.Count = len(corpus.Reactions)
	raw, err := json.Marshal(corpus)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	corpusPath := writeTestCorpus(t)
	cfgPath := writeTestConfig(t, fmt.Sprintf("predictor:\n  corpus_path: %s\n", corpusPath))

	out, err := runCommand(t, "predict", "H", "H", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)

	var resp prediction.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "H2", resp.Prediction.TopProduct())
	assert.Equal(t, rxn.MethodExactMatch, resp.Prediction.Method)
}

func TestPredictCommandTextOutput(t *testing.T) {
	corpusPath := writeTestCorpus(t)
	cfgPath := writeTestConfig(t, fmt.Sprintf("predictor:\n  corpus_path: %s\n", corpusPath))

	out, err := runCommand(t, "predict", "Na", "Cl", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Na + Cl")
	assert.Contains(t, out, "NaCl")
	assert.Contains(t, out, "exact_match")
}

func TestPredictCommandRejectsUnknownElement(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	_, err := runCommand(t, "predict", "Zz", "--config", cfgPath)
	require.Error(t, err)
}

func TestTrainCommand(t *testing.T) {
	corpusPath := writeTestCorpus(t)
	artifactPath := filepath.Join(t.TempDir(), "forest.json")
	cfgPath := writeTestConfig(t, "")

	out, err := runCommand(t, "train",
		"--config", cfgPath,
		"--corpus", corpusPath,
		"--artifact", artifactPath,
		"-o", "json")
	require.NoError(t, err)

	var summary prediction.TrainingSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.Reactions)
	assert.Equal(t, artifactPath, summary.Artifact)

	_, statErr := os.Stat(artifactPath)
	assert.NoError(t, statErr)
}

func TestTrainCommandWithoutCorpus(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	_, err := runCommand(t, "train", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no corpus file")
}

func TestStatsCommand(t *testing.T) {
	stats := prediction.ServiceStats{
		Router: rxn.RouterStats{
			TotalPredictions: 10,
			Level1Hits:       7,
			Level4Hits:       3,
			Level1Percentage: 70,
			Level4Percentage: 30,
		},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}))
	defer ts.Close()

	cfgPath := writeTestConfig(t, "")
	out, err := runCommand(t, "stats", "--config", cfgPath, "--server", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Predictions: 10")
	assert.Contains(t, out, "L1 exact match:  7 (70.0%)")
}

func TestStatsCommandServerDown(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	_, err := runCommand(t, "stats", "--config", cfgPath, "--server", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reach server")
}

func TestRootVersionFlag(t *testing.T) {
	out, err := runCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}
