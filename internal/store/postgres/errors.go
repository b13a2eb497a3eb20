package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfeidau/sessionhub/internal/models"
)

// mapPostgresError classifies the errors the sessions and principals tables can produce.
// Anything else is returned unchanged.
func mapPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgerrcode.CheckViolation, pgErr.Code == pgerrcode.StringDataRightTruncationDataException:
		// the CHECK constraints mirror models.SessionFields.Validate
		return fmt.Errorf("%w: constraint %s: %v", models.ErrValidation, pgErr.ConstraintName, err)

	case pgErr.Code == pgerrcode.UniqueViolation:
		return fmt.Errorf("duplicate %s: %w", pgErr.ConstraintName, err)

	case pgErr.Code == pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code):
		return fmt.Errorf("database unavailable: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s: %w", pgErr.Code, pgErr.Message, err)
	}
}
