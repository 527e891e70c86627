package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// ReactionRepository persists labeled reactions.  It is the SQL counterpart
// of the JSON corpus file: LoadAll feeds the same trainers.
type ReactionRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

func NewReactionRepository(pool *Pool, logger logging.Logger) *ReactionRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReactionRepository{pool: pool.Pgx(), logger: logger.Named("reactions")}
}

// Save stores one labeled reaction.
func (r *ReactionRepository) Save(ctx context.Context, rec rxn.Record) error {
	key := reaction.Canonicalize(rec.Reactants)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reactions (id, canonical_key, reactants, products, reaction_type)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), key, rec.Reactants, rec.Products, rec.Type)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save reaction")
	}
	return nil
}

// SaveBatch stores many reactions in a single round trip.
func (r *ReactionRepository) SaveBatch(ctx context.Context, records []rxn.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO reactions (id, canonical_key, reactants, products, reaction_type)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), reaction.Canonicalize(rec.Reactants), rec.Reactants, rec.Products, rec.Type)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save reaction batch")
		}
	}
	r.logger.Info("reaction batch saved", logging.Int("count", len(records)))
	return nil
}

// LoadAll returns every stored reaction as a training corpus.
func (r *ReactionRepository) LoadAll(ctx context.Context) (*rxn.Corpus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reactants, products, reaction_type
		FROM reactions
		ORDER BY created_at`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load reactions")
	}
	defer rows.Close()

	corpus := &rxn.Corpus{}
	for rows.Next() {
		var rec rxn.Record
		if err := rows.Scan(&rec.Reactants, &rec.Products, &rec.Type); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan reaction row")
		}
		corpus.Reactions = append(corpus.Reactions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate reaction rows")
	}
	corpus.Count = len(corpus.Reactions)
	return corpus, nil
}

// CountByKey reports how many stored reactions share a canonical key.
func (r *ReactionRepository) CountByKey(ctx context.Context, reactants []string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM reactions WHERE canonical_key = $1`,
		reaction.Canonicalize(reactants)).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count reactions")
	}
	return count, nil
}
