package postgres

import (
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to date.  The embedded migrations are the
// default; cfg.MigrationPath points at an external directory when operators
// need to layer custom DDL on top.
func Migrate(cfg config.DatabaseConfig, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("migrator")

	// The pgx/v5 migrate driver registers under its own URL scheme.
	dsn := strings.Replace(DSN(cfg), "postgres://", "pgx5://", 1)

	var (
		m   *migrate.Migrate
		err error
	)
	if cfg.MigrationPath != "" {
		m, err = migrate.New("file://"+cfg.MigrationPath, dsn)
	} else {
		source, srcErr := iofs.New(migrationFS, "migrations")
		if srcErr != nil {
			return apperrors.Wrap(srcErr, apperrors.ErrCodeDatabaseError, "failed to load embedded migrations")
		}
		m, err = migrate.NewWithSourceInstance("iofs", source, dsn)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Warn("failed to read migration version", logging.Err(err))
		return nil
	}
	logger.Info("schema migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}
