package reaction

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// LoadCorpus reads and validates a training corpus from the JSON file at
// path.  The wire format is {reactions: [{reactants, products, type}],
// count}.  A count that disagrees with the reaction list is corrected, not
// rejected, since scraper collaborators have been observed emitting stale
// counts.
func LoadCorpus(path string) (*rxn.Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeReactionCorpusNotFound,
				fmt.Sprintf("corpus file %s not found", path))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeReactionCorpusInvalid,
			fmt.Sprintf("corpus file %s unreadable", path))
	}
	return ParseCorpus(raw)
}

// ParseCorpus decodes and validates corpus JSON.
func ParseCorpus(raw []byte) (*rxn.Corpus, error) {
	var corpus rxn.Corpus
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeReactionCorpusInvalid,
			"corpus is not valid JSON")
	}

	for i, rec := range corpus.Reactions {
		if err := ValidateReactants(rec.Reactants); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeReactionCorpusInvalid,
				fmt.Sprintf("corpus reaction %d has invalid reactants", i))
		}
		if len(rec.Products) == 0 {
			return nil, apperrors.New(apperrors.ErrCodeReactionCorpusInvalid,
				fmt.Sprintf("corpus reaction %d has no products", i))
		}
		for _, p := range rec.Products {
			if _, err := ParseFormula(p); err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodeReactionCorpusInvalid,
					fmt.Sprintf("corpus reaction %d has invalid product %q", i, p))
			}
		}
	}

	corpus.Count = len(corpus.Reactions)
	return &corpus, nil
}
