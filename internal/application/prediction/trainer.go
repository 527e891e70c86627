package prediction

import (
	"context"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/exactmatch"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/patternml"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// CorpusSource loads a training corpus from somewhere other than a file,
// typically the SQL repository.
type CorpusSource interface {
	LoadAll(ctx context.Context) (*rxn.Corpus, error)
}

// TrainingSummary reports what one training run produced.
type TrainingSummary struct {
	Reactions int           `json:"reactions"`
	Products  int           `json:"products"`
	Trees     int           `json:"trees"`
	Artifact  string        `json:"artifact,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Trainer feeds a corpus into both trainable tiers and optionally persists
// the tree-ensemble artifact so other instances can hot-load it.
type Trainer struct {
	index        *exactmatch.Index
	classifier   *patternml.Classifier
	artifactPath string
	opts         patternml.TrainOptions
	logger       logging.Logger
}

func NewTrainer(index *exactmatch.Index, classifier *patternml.Classifier, artifactPath string, logger logging.Logger) *Trainer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Trainer{
		index:        index,
		classifier:   classifier,
		artifactPath: artifactPath,
		opts:         patternml.DefaultTrainOptions(),
		logger:       logger.Named("trainer"),
	}
}

// TrainFromFile loads a JSON corpus from disk and trains on it.
func (t *Trainer) TrainFromFile(ctx context.Context, path string) (*TrainingSummary, error) {
	corpus, err := reaction.LoadCorpus(path)
	if err != nil {
		return nil, err
	}
	return t.train(ctx, corpus)
}

// TrainFromSource trains on a corpus loaded from a repository.
func (t *Trainer) TrainFromSource(ctx context.Context, src CorpusSource) (*TrainingSummary, error) {
	corpus, err := src.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return t.train(ctx, corpus)
}

func (t *Trainer) train(ctx context.Context, corpus *rxn.Corpus) (*TrainingSummary, error) {
	if corpus == nil || len(corpus.Reactions) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeReactionCorpusInvalid, "training corpus is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "training aborted")
	}
	start := time.Now()

	t.index.Train(corpus.Reactions)

	model, err := patternml.Train(corpus.Reactions, t.opts)
	if err != nil {
		return nil, err
	}
	t.classifier.SetModel(model)

	summary := &TrainingSummary{
		Reactions: len(corpus.Reactions),
		Products:  len(model.Products),
		Trees:     len(model.Trees),
	}

	if t.artifactPath != "" {
		if err := patternml.SaveArtifact(model, t.artifactPath); err != nil {
			return nil, err
		}
		summary.Artifact = t.artifactPath
	}

	summary.Elapsed = time.Since(start)
	t.logger.Info("training complete",
		logging.Int("reactions", summary.Reactions),
		logging.Int("products", summary.Products),
		logging.Duration("elapsed", summary.Elapsed))
	return summary, nil
}
