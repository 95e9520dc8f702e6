package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
)

const (
	preMatriculaColumns = "id, nome_completo, cpf, data_nascimento, email_responsavel, telefone_responsavel, " +
		"polo_id, status, created_at, updated_at"
	matriculaColumns = "id, aluno_id, turma_id, polo_id, status, origem, approved_by, approved_at, created_at"
)

type enrollmentRepository struct {
	exec core.DBExecutor
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{exec: exec}
}

func (repo enrollmentRepository) getPreMatricula(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (enrollment.PreMatricula, error) {
	var pms []enrollment.PreMatricula
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &pms, q, args...); err != nil {
		return enrollment.PreMatricula{}, errors.Wrap(err, "selecting pre-matricula")
	}
	if len(pms) == 0 {
		return enrollment.PreMatricula{}, enrollment.ErrPreMatriculaNotFound
	}
	return pms[0], nil
}

func (repo enrollmentRepository) CreatePreMatricula(ctx context.Context, pm enrollment.PreMatricula, exec ...core.DBExecutor) (enrollment.PreMatricula, error) {
	pm.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO pre_matriculas (`+preMatriculaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pm.ID, pm.NomeCompleto, pm.CPF, pm.DataNascimento, pm.EmailResponsavel, pm.TelefoneResponsavel,
		pm.PoloID, pm.Status, pm.CreatedAt, pm.UpdatedAt)
	if err != nil {
		return enrollment.PreMatricula{}, errors.Wrap(trapFKErr(err), "inserting pre-matricula")
	}
	return pm, nil
}

func (repo enrollmentRepository) GetPreMatricula(ctx context.Context, id string, exec ...core.DBExecutor) (enrollment.PreMatricula, error) {
	if !validID(id) {
		return enrollment.PreMatricula{}, enrollment.ErrPreMatriculaNotFound
	}
	return repo.getPreMatricula(ctx, exec, `SELECT `+preMatriculaColumns+` FROM pre_matriculas WHERE id = ?`, id)
}

func (repo enrollmentRepository) QueryPreMatriculas(ctx context.Context, filter enrollment.PreMatriculaFilter, exec ...core.DBExecutor) ([]enrollment.PreMatricula, error) {
	var where whereClause
	if filter.PoloID != "" {
		where.add("polo_id::text = ?", filter.PoloID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	pms := make([]enrollment.PreMatricula, 0)
	q := `SELECT ` + preMatriculaColumns + ` FROM pre_matriculas` + where.String() + ` ORDER BY created_at DESC`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &pms, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting pre-matriculas")
	}
	return pms, nil
}

func (repo enrollmentRepository) UpdatePreMatriculaStatus(ctx context.Context, id, status string, updatedAt time.Time, exec ...core.DBExecutor) (enrollment.PreMatricula, error) {
	if !validID(id) {
		return enrollment.PreMatricula{}, enrollment.ErrPreMatriculaNotFound
	}
	return repo.getPreMatricula(ctx, exec,
		`UPDATE pre_matriculas SET status = ?, updated_at = ? WHERE id = ? RETURNING `+preMatriculaColumns,
		status, updatedAt, id)
}

func (repo enrollmentRepository) CreateMatricula(ctx context.Context, m enrollment.Matricula, exec ...core.DBExecutor) (enrollment.Matricula, error) {
	m.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO matriculas (`+matriculaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.AlunoID, m.TurmaID, m.PoloID, m.Status, m.Origem, m.ApprovedBy, m.ApprovedAt, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return enrollment.Matricula{}, core.NewInvalidStateError("o aluno já possui uma matrícula ativa")
		}
		return enrollment.Matricula{}, errors.Wrap(trapFKErr(err), "inserting matricula")
	}
	return m, nil
}

func (repo enrollmentRepository) GetActiveMatricula(ctx context.Context, alunoID string, exec ...core.DBExecutor) (enrollment.Matricula, error) {
	if !validID(alunoID) {
		return enrollment.Matricula{}, enrollment.ErrMatriculaNotFound
	}
	var mats []enrollment.Matricula
	q := `SELECT ` + matriculaColumns + ` FROM matriculas WHERE aluno_id = ? AND status = ? LIMIT 1`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &mats, q, alunoID, enrollment.MatriculaAtiva); err != nil {
		return enrollment.Matricula{}, errors.Wrap(err, "selecting active matricula")
	}
	if len(mats) == 0 {
		return enrollment.Matricula{}, enrollment.ErrMatriculaNotFound
	}
	return mats[0], nil
}

func (repo enrollmentRepository) QueryMatriculas(ctx context.Context, filter enrollment.MatriculaFilter, exec ...core.DBExecutor) ([]enrollment.Matricula, error) {
	var where whereClause
	if filter.AlunoID != "" {
		where.add("aluno_id::text = ?", filter.AlunoID)
	}
	if filter.TurmaID != "" {
		where.add("turma_id::text = ?", filter.TurmaID)
	}
	if filter.PoloID != "" {
		where.add("polo_id::text = ?", filter.PoloID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	mats := make([]enrollment.Matricula, 0)
	q := `SELECT ` + matriculaColumns + ` FROM matriculas` + where.String() + ` ORDER BY created_at`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &mats, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting matriculas")
	}
	return mats, nil
}
