package pgateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

// classify wraps err as model.ErrDBTransient or model.ErrDBPermanent based
// on the PostgreSQL error class. Connection-class errors (SQLSTATE class
// 08, "Connection Exception") and a handful of others that are expected to
// clear up on retry are transient; everything else — syntax, permission,
// constraint violations — is permanent and the cycle continues on to the
// next item.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if isTransientCode(pgErr.Code) {
			return fmt.Errorf("%s: %w: %s", op, model.ErrDBTransient, pgErr.Message)
		}
		return fmt.Errorf("%s: %w: %s", op, model.ErrDBPermanent, pgErr.Message)
	}
	// Connection-level failures (closed pool, dial timeout) surface as
	// plain errors from pgx, not *pgconn.PgError; treat those as
	// transient too since they are not the result of the SQL itself.
	return fmt.Errorf("%s: %w: %v", op, model.ErrDBTransient, err)
}

func isTransientCode(code string) bool {
	// SQLSTATE class 08 = Connection Exception; 57P03 = cannot connect
	// now; 40001/40P01 = serialization/deadlock, safe to retry next cycle.
	switch {
	case strings.HasPrefix(code, "08"):
		return true
	case code == "57P03", code == "40001", code == "40P01":
		return true
	default:
		return false
	}
}
