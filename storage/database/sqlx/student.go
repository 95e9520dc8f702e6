package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
)

const alunoColumns = "id, nome, cpf, data_nascimento, email_responsavel, polo_id, turma_id, status, created_at, updated_at"

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) getOne(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (student.Aluno, error) {
	var alunos []student.Aluno
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &alunos, q, args...); err != nil {
		return student.Aluno{}, errors.Wrap(err, "selecting aluno")
	}
	if len(alunos) == 0 {
		return student.Aluno{}, student.ErrNotFound
	}
	return alunos[0], nil
}

func (repo studentRepository) CreateAluno(ctx context.Context, aluno student.Aluno, exec ...core.DBExecutor) (student.Aluno, error) {
	aluno.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO alunos (`+alunoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		aluno.ID, aluno.Nome, aluno.CPF, aluno.DataNascimento, aluno.EmailResponsavel,
		aluno.PoloID, aluno.TurmaID, aluno.Status, aluno.CreatedAt, aluno.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Aluno{}, student.ErrCPFExists
		}
		return student.Aluno{}, errors.Wrap(trapFKErr(err), "inserting aluno")
	}
	return aluno, nil
}

func (repo studentRepository) GetAluno(ctx context.Context, id string, exec ...core.DBExecutor) (student.Aluno, error) {
	if !validID(id) {
		return student.Aluno{}, student.ErrNotFound
	}
	return repo.getOne(ctx, exec, `SELECT `+alunoColumns+` FROM alunos WHERE id = ?`, id)
}

func (repo studentRepository) GetAlunoByCPF(ctx context.Context, cpf string, exec ...core.DBExecutor) (student.Aluno, error) {
	return repo.getOne(ctx, exec, `SELECT `+alunoColumns+` FROM alunos WHERE cpf = ?`, cpf)
}

func (repo studentRepository) GetAlunosByIDs(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]student.Aluno, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	alunos := make([]student.Aluno, 0, len(valid))
	if len(valid) == 0 {
		return alunos, nil
	}
	q := `SELECT ` + alunoColumns + ` FROM alunos WHERE id IN (?)`
	if err := selectIn(ctx, core.GetExec(repo.exec, exec), &alunos, q, valid); err != nil {
		return nil, errors.Wrap(err, "selecting alunos by id")
	}
	return alunos, nil
}

func (repo studentRepository) QueryAlunos(ctx context.Context, filter student.QueryFilter, exec ...core.DBExecutor) ([]student.Aluno, error) {
	var where whereClause
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		where.add("(nome ILIKE ? OR cpf LIKE ?)", val, val)
	}
	if filter.PoloID != "" {
		where.add("polo_id::text = ?", filter.PoloID)
	}
	if filter.TurmaID != "" {
		where.add("turma_id::text = ?", filter.TurmaID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	alunos := make([]student.Aluno, 0)
	q := `SELECT ` + alunoColumns + ` FROM alunos` + where.String() + ` ORDER BY nome`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &alunos, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting alunos")
	}
	return alunos, nil
}

func (repo studentRepository) UpdateAluno(ctx context.Context, aluno student.Aluno, exec ...core.DBExecutor) (student.Aluno, error) {
	return repo.getOne(ctx, exec,
		`UPDATE alunos SET turma_id = ?, status = ?, updated_at = ? WHERE id = ? RETURNING `+alunoColumns,
		aluno.TurmaID, aluno.Status, aluno.UpdatedAt, aluno.ID)
}

func (repo studentRepository) UpdateAlunoPolo(ctx context.Context, id, poloID string, updatedAt time.Time, exec ...core.DBExecutor) (student.Aluno, error) {
	return repo.getOne(ctx, exec,
		`UPDATE alunos SET polo_id = ?, updated_at = ? WHERE id = ? RETURNING `+alunoColumns,
		poloID, updatedAt, id)
}
