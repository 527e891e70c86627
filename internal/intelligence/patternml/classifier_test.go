package patternml

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// trainingCorpus is small but separable: every class has a distinctive
// fingerprint region, so even a modest forest classifies it correctly.
func trainingCorpus() []rxn.Record {
	var records []rxn.Record
	add := func(n int, reactants []string, product string) {
		for i := 0; i < n; i++ {
			records = append(records, rxn.Record{Reactants: reactants, Products: []string{product}})
		}
	}
	add(10, []string{"H", "H"}, "H2")
	add(10, []string{"H", "H", "O"}, "H2O")
	add(10, []string{"Na", "Cl"}, "NaCl")
	add(10, []string{"C", "H", "H", "H", "H"}, "CH4")
	add(10, []string{"O", "O"}, "O2")
	return records
}

func trainedClassifier(t *testing.T) *Classifier {
	t.Helper()
	model, err := Train(trainingCorpus(), DefaultTrainOptions())
	require.NoError(t, err)
	c := NewClassifier(logging.NewNopLogger())
	c.SetModel(model)
	return c
}

func TestFingerprint_LengthAndChannels(t *testing.T) {
	fp := Fingerprint([]string{"H", "H", "O"})
	require.Len(t, fp, NumFeatures)

	hIdx, _ := reaction.AtomicNumber("H")
	oIdx, _ := reaction.AtomicNumber("O")
	assert.Equal(t, 2.0, fp[hIdx-1])
	assert.Equal(t, 1.0, fp[oIdx-1])

	base := len(reaction.PeriodicTable)
	assert.Equal(t, 3.0, fp[base+0])  // total atoms
	assert.Equal(t, 2.0, fp[base+1])  // distinct elements
	assert.Equal(t, 1.0, fp[base+12]) // heavy atoms
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint([]string{"O", "H", "H"})
	b := Fingerprint([]string{"H", "H", "O"})
	assert.Equal(t, a, b)
}

func TestFingerprint_Flags(t *testing.T) {
	base := len(reaction.PeriodicTable)

	diatomic := Fingerprint([]string{"O", "O"})
	assert.Equal(t, 1.0, diatomic[base+13])

	organic := Fingerprint([]string{"C", "H", "H", "H", "H"})
	assert.Equal(t, 1.0, organic[base+15])

	noble := Fingerprint([]string{"Xe", "F"})
	assert.Equal(t, 1.0, noble[base+18])
	assert.Equal(t, 1.0, noble[base+17])
}

func TestTrain_EmptyCorpusFails(t *testing.T) {
	_, err := Train(nil, DefaultTrainOptions())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactionNotTrained))
}

func TestTrain_Deterministic(t *testing.T) {
	opts := DefaultTrainOptions()
	a, err := Train(trainingCorpus(), opts)
	require.NoError(t, err)
	b, err := Train(trainingCorpus(), opts)
	require.NoError(t, err)

	probsA := a.PredictProbs(Fingerprint([]string{"H", "H"}))
	probsB := b.PredictProbs(Fingerprint([]string{"H", "H"}))
	assert.Equal(t, probsA, probsB)
}

func TestPredict_ClassifiesTrainingPatterns(t *testing.T) {
	c := trainedClassifier(t)

	tests := []struct {
		reactants []string
		want      string
	}{
		{[]string{"H", "H"}, "H2"},
		{[]string{"H", "H", "O"}, "H2O"},
		{[]string{"Cl", "Na"}, "NaCl"},
		{[]string{"C", "H", "H", "H", "H"}, "CH4"},
	}
	for _, tt := range tests {
		result, err := c.Predict(context.Background(), tt.reactants, 3)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, tt.want, result.TopProduct())
		assert.Equal(t, rxn.MethodMLPattern, result.Method)
		assert.Equal(t, rxn.SpeedFast, result.Speed)
		assert.Greater(t, result.Confidence, 50.0)
	}
}

func TestPredict_ClosedVocabulary(t *testing.T) {
	c := trainedClassifier(t)

	// Unknown input still maps onto the trained vocabulary.
	result, err := c.Predict(context.Background(), []string{"Xe", "Xe"}, 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	vocab := map[string]bool{"H2": true, "H2O": true, "NaCl": true, "CH4": true, "O2": true}
	for _, cand := range result.Products {
		assert.True(t, vocab[cand.Formula], "product %q outside trained vocabulary", cand.Formula)
	}
}

func TestPredict_UntrainedDeclines(t *testing.T) {
	c := NewClassifier(logging.NewNopLogger())
	assert.False(t, c.Ready())

	result, err := c.Predict(context.Background(), []string{"H", "H"}, 3)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestArtifact_SaveLoadRoundTrip(t *testing.T) {
	model, err := Train(trainingCorpus(), DefaultTrainOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, SaveArtifact(model, path))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, model.Products, loaded.Products)
	assert.Equal(t, len(model.Trees), len(loaded.Trees))

	probsA := model.PredictProbs(Fingerprint([]string{"Na", "Cl"}))
	probsB := loaded.PredictProbs(Fingerprint([]string{"Na", "Cl"}))
	assert.InDeltaSlice(t, probsA, probsB, 1e-12)
}

func TestLoadArtifact_Missing(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeModelNotAvailable))
}

func TestLoadArtifact_RejectsWrongVersion(t *testing.T) {
	model, err := Train(trainingCorpus(), DefaultTrainOptions())
	require.NoError(t, err)
	model.Version = 99

	assert.Error(t, model.Validate())
}

func TestValidate_RejectsCorruptNodes(t *testing.T) {
	corrupt := []struct {
		name   string
		mutate func(m *Model)
	}{
		{"feature out of range", func(m *Model) {
			m.Trees[0].Nodes[firstInternal(m)].Feature = NumFeatures
		}},
		{"negative feature", func(m *Model) {
			m.Trees[0].Nodes[firstInternal(m)].Feature = -1
		}},
		{"child index past tree", func(m *Model) {
			m.Trees[0].Nodes[firstInternal(m)].Right = len(m.Trees[0].Nodes)
		}},
		{"backward link cycle", func(m *Model) {
			i := firstInternal(m)
			m.Trees[0].Nodes[i].Left = i
		}},
		{"leaf distribution too short", func(m *Model) {
			for i := range m.Trees[0].Nodes {
				if m.Trees[0].Nodes[i].Left < 0 {
					m.Trees[0].Nodes[i].Probs = m.Trees[0].Nodes[i].Probs[:1]
					return
				}
			}
		}},
		{"empty tree", func(m *Model) {
			m.Trees[0].Nodes = nil
		}},
	}
	for _, tc := range corrupt {
		t.Run(tc.name, func(t *testing.T) {
			model, err := Train(trainingCorpus(), DefaultTrainOptions())
			require.NoError(t, err)
			require.NoError(t, model.Validate())

			tc.mutate(model)
			err = model.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeModelArtifactInvalid))
		})
	}
}

// firstInternal returns the index of the first non-leaf node in the first
// tree, failing loudly when the trained fixture is all leaves.
func firstInternal(m *Model) int {
	for i, node := range m.Trees[0].Nodes {
		if node.Left >= 0 {
			return i
		}
	}
	panic("training fixture produced a leaf-only tree")
}

func TestArtifactWatcher_ReloadsOnPublish(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	c := NewClassifier(logging.NewNopLogger())
	w, err := NewArtifactWatcher(path, c, logging.NewNopLogger())
	require.NoError(t, err)
	defer w.Close()

	model, err := Train(trainingCorpus(), DefaultTrainOptions())
	require.NoError(t, err)
	require.NoError(t, SaveArtifact(model, path))

	require.Eventually(t, c.Ready, 3*time.Second, 10*time.Millisecond,
		"classifier never picked up the published artifact")
}
