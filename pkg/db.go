package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html

// IsForeignKeyViolationError checks if the error is a foreign key violation error,
// e.g. an exercise inserted for a workout that no longer exists
func IsForeignKeyViolationError(err error) bool {
	return pgErrorCode(err) == "23503"
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
