package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
)

const waitlistColumns = "id, nome, email, telefone, cidade, bairro, status, notified_at, created_at"

type waitlistRepository struct {
	exec core.DBExecutor
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(exec core.DBExecutor) *waitlistRepository {
	return &waitlistRepository{exec: exec}
}

func (repo waitlistRepository) CreateEntry(ctx context.Context, e waitlist.Entry, exec ...core.DBExecutor) (waitlist.Entry, error) {
	e.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO lista_espera (`+waitlistColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Nome, e.Email, e.Telefone, e.Cidade, e.Bairro, e.Status, e.NotifiedAt, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return waitlist.Entry{}, waitlist.ErrEmailExists
		}
		return waitlist.Entry{}, errors.Wrap(err, "inserting waitlist entry")
	}
	return e, nil
}

func (repo waitlistRepository) QueryEntries(ctx context.Context, filter waitlist.QueryFilter, exec ...core.DBExecutor) ([]waitlist.Entry, error) {
	var where whereClause
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	entries := make([]waitlist.Entry, 0)
	q := `SELECT ` + waitlistColumns + ` FROM lista_espera` + where.String() + ` ORDER BY created_at DESC`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &entries, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting waitlist entries")
	}
	return entries, nil
}

func (repo waitlistRepository) MarkNotified(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	if !validID(id) {
		return core.NewNotFoundError("inscrição na lista de espera")
	}
	res, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`UPDATE lista_espera SET status = ?, notified_at = ? WHERE id = ?`, waitlist.StatusNotificado, at, id)
	if err != nil {
		return errors.Wrap(err, "marking waitlist entry notified")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("inscrição na lista de espera")
	}
	return nil
}
