package reaction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

func TestParseCorpus_Valid(t *testing.T) {
	raw := []byte(`{
		"reactions": [
			{"reactants": ["H", "H", "O"], "products": ["H2O"], "type": "synthesis"},
			{"reactants": ["Na", "Cl"], "products": ["NaCl"]}
		],
		"count": 2
	}`)

	corpus, err := ParseCorpus(raw)
	require.NoError(t, err)
	assert.Len(t, corpus.Reactions, 2)
	assert.Equal(t, 2, corpus.Count)
}

func TestParseCorpus_CorrectsStaleCount(t *testing.T) {
	raw := []byte(`{"reactions": [{"reactants": ["H", "H"], "products": ["H2"]}], "count": 99}`)

	corpus, err := ParseCorpus(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.Count)
}

func TestParseCorpus_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{`},
		{"empty reactants", `{"reactions": [{"reactants": [], "products": ["H2"]}]}`},
		{"unknown element", `{"reactions": [{"reactants": ["Zz"], "products": ["H2"]}]}`},
		{"no products", `{"reactions": [{"reactants": ["H", "H"], "products": []}]}`},
		{"bad product formula", `{"reactions": [{"reactants": ["H", "H"], "products": ["h2"]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCorpus([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactionCorpusInvalid))
		})
	}
}

func TestLoadCorpus_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	raw := `{"reactions": [{"reactants": ["H", "H"], "products": ["H2"]}], "count": 1}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.Count)
}

func TestLoadCorpus_MissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactionCorpusNotFound))
	assert.True(t, apperrors.IsNotFound(err))
}
