package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

const (
	poloColumns  = "id, nome, codigo, cidade, status, created_at"
	turmaColumns = "id, nome, polo_id, modulo_id, status, created_at"
)

type schoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) CreatePolo(ctx context.Context, polo school.Polo, exec ...core.DBExecutor) (school.Polo, error) {
	polo.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO polos (id, nome, codigo, cidade, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		polo.ID, polo.Nome, polo.Codigo, polo.Cidade, polo.Status, polo.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return school.Polo{}, school.ErrCodigoExists
		}
		return school.Polo{}, errors.Wrap(err, "inserting polo")
	}
	return polo, nil
}

func (repo schoolRepository) GetPolo(ctx context.Context, id string, exec ...core.DBExecutor) (school.Polo, error) {
	if !validID(id) {
		return school.Polo{}, school.ErrPoloNotFound
	}
	var polos []school.Polo
	q := `SELECT ` + poloColumns + ` FROM polos WHERE id = ?`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &polos, q, id); err != nil {
		return school.Polo{}, errors.Wrap(err, "selecting polo")
	}
	if len(polos) == 0 {
		return school.Polo{}, school.ErrPoloNotFound
	}
	return polos[0], nil
}

func (repo schoolRepository) QueryPolos(ctx context.Context, filter school.PoloFilter, exec ...core.DBExecutor) ([]school.Polo, error) {
	var where whereClause
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}
	if filter.Cidade != "" {
		where.add("cidade ILIKE ?", "%"+filter.Cidade+"%")
	}

	polos := make([]school.Polo, 0)
	q := `SELECT ` + poloColumns + ` FROM polos` + where.String() + ` ORDER BY nome`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &polos, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting polos")
	}
	return polos, nil
}

func (repo schoolRepository) CreateTurma(ctx context.Context, turma school.Turma, exec ...core.DBExecutor) (school.Turma, error) {
	turma.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO turmas (id, nome, polo_id, modulo_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		turma.ID, turma.Nome, turma.PoloID, turma.ModuloID, turma.Status, turma.CreatedAt)
	if err != nil {
		return school.Turma{}, errors.Wrap(trapFKErr(err), "inserting turma")
	}
	return turma, nil
}

func (repo schoolRepository) GetTurma(ctx context.Context, id string, exec ...core.DBExecutor) (school.Turma, error) {
	if !validID(id) {
		return school.Turma{}, school.ErrTurmaNotFound
	}
	var turmas []school.Turma
	q := `SELECT ` + turmaColumns + ` FROM turmas WHERE id = ?`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &turmas, q, id); err != nil {
		return school.Turma{}, errors.Wrap(err, "selecting turma")
	}
	if len(turmas) == 0 {
		return school.Turma{}, school.ErrTurmaNotFound
	}
	return turmas[0], nil
}

func (repo schoolRepository) QueryTurmas(ctx context.Context, filter school.TurmaFilter, exec ...core.DBExecutor) ([]school.Turma, error) {
	var where whereClause
	if filter.PoloID != "" {
		if !validID(filter.PoloID) {
			return []school.Turma{}, nil
		}
		where.add("polo_id = ?", filter.PoloID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	turmas := make([]school.Turma, 0)
	q := `SELECT ` + turmaColumns + ` FROM turmas` + where.String() + ` ORDER BY nome`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &turmas, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting turmas")
	}
	return turmas, nil
}
