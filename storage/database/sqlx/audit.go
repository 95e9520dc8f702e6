package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
)

const auditColumns = "id, entity, entity_id, action, user_id, payload, created_at"

type auditRow struct {
	ID        string         `db:"id"`
	Entity    string         `db:"entity"`
	EntityID  sql.NullString `db:"entity_id"`
	Action    string         `db:"action"`
	UserID    sql.NullString `db:"user_id"`
	Payload   types.JSONText `db:"payload"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r auditRow) entry() (audit.Entry, error) {
	e := audit.Entry{
		ID:        r.ID,
		Entity:    r.Entity,
		EntityID:  r.EntityID.String,
		Action:    r.Action,
		UserID:    r.UserID.String,
		Payload:   make(map[string]interface{}),
		CreatedAt: r.CreatedAt,
	}
	if len(r.Payload) > 0 {
		if err := r.Payload.Unmarshal(&e.Payload); err != nil {
			return audit.Entry{}, err
		}
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type auditRepository struct {
	exec core.DBExecutor
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(exec core.DBExecutor) *auditRepository {
	return &auditRepository{exec: exec}
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry, exec ...core.DBExecutor) (audit.Entry, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "encoding audit payload")
	}

	e.ID = newID()
	_, err = execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Entity, nullString(e.EntityID), e.Action, nullString(e.UserID), types.JSONText(payload), e.CreatedAt)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	return e, nil
}

func (repo auditRepository) QueryEntries(ctx context.Context, filter audit.QueryFilter, exec ...core.DBExecutor) ([]audit.Entry, error) {
	var where whereClause
	if filter.Entity != "" {
		where.add("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		where.add("entity_id = ?", filter.EntityID)
	}

	var rows []auditRow
	q := `SELECT ` + auditColumns + ` FROM audit_logs` + where.String() + ` ORDER BY created_at DESC`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting audit entries")
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, errors.Wrap(err, "decoding audit payload")
		}
		entries = append(entries, e)
	}
	return entries, nil
}
