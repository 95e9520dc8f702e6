// Package sqlxrepos implements the Postgres repositories on top of jmoiron/sqlx.
// Every query goes through a core.DBExecutor so repositories take part in the caller's transaction.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// selectRows scans every row into dest, a pointer to a slice of structs.
func selectRows(ctx context.Context, exec core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

func execQuery(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (sql.Result, error) {
	return exec.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...)
}

// selectIn expands slice arguments (IN (?)) before selecting.
func selectIn(ctx context.Context, exec core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return err
	}
	return selectRows(ctx, exec, dest, q, args...)
}

func pqCode(err error) string {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool { return pqCode(err) == pqUniqueViolation }

// trapFKErr turns a foreign key violation into a validation error.
func trapFKErr(err error) error {
	if pqCode(err) == pqForeignKeyViolation {
		return core.NewValidationError(err, core.FieldError{Field: "id", Error: "registro referenciado inválido ou em uso"})
	}
	return err
}

// validID rejects ids that cannot be a uuid before they reach Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.New().String()
}

type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
