package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
)

const (
	moduloColumns = "id, numero, titulo, descricao, carga_horaria, is_active_cycle, created_at, updated_at"
	licaoColumns  = "id, modulo_id, titulo, descricao, ordem, video_url, duracao_minutos, created_at, updated_at"
)

type curriculumRepository struct {
	exec core.DBExecutor
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(exec core.DBExecutor) *curriculumRepository {
	return &curriculumRepository{exec: exec}
}

func (repo curriculumRepository) getModulo(ctx context.Context, exec []core.DBExecutor, notFound error, q string, args ...interface{}) (curriculum.Modulo, error) {
	var mods []curriculum.Modulo
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &mods, q, args...); err != nil {
		if isUniqueViolation(err) {
			return curriculum.Modulo{}, curriculum.ErrNumeroExists
		}
		return curriculum.Modulo{}, errors.Wrap(err, "selecting modulo")
	}
	if len(mods) == 0 {
		return curriculum.Modulo{}, notFound
	}
	return mods[0], nil
}

func (repo curriculumRepository) CreateModulo(ctx context.Context, m curriculum.Modulo, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	m.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO modulos (`+moduloColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Numero, m.Titulo, m.Descricao, m.CargaHoraria, m.IsActiveCycle, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return curriculum.Modulo{}, curriculum.ErrNumeroExists
		}
		return curriculum.Modulo{}, errors.Wrap(err, "inserting modulo")
	}
	return m, nil
}

func (repo curriculumRepository) GetModulo(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	if !validID(id) {
		return curriculum.Modulo{}, curriculum.ErrModuloNotFound
	}
	return repo.getModulo(ctx, exec, curriculum.ErrModuloNotFound, `SELECT `+moduloColumns+` FROM modulos WHERE id = ?`, id)
}

func (repo curriculumRepository) GetModuloByNumero(ctx context.Context, numero int, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	return repo.getModulo(ctx, exec, curriculum.ErrModuloNotFound, `SELECT `+moduloColumns+` FROM modulos WHERE numero = ?`, numero)
}

func (repo curriculumRepository) GetActiveCycle(ctx context.Context, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	return repo.getModulo(ctx, exec, curriculum.ErrNoActiveCycle,
		`SELECT `+moduloColumns+` FROM modulos WHERE is_active_cycle ORDER BY numero LIMIT 1`)
}

func (repo curriculumRepository) QueryModulos(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.Modulo, error) {
	mods := make([]curriculum.Modulo, 0)
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &mods, `SELECT `+moduloColumns+` FROM modulos ORDER BY numero`); err != nil {
		return nil, errors.Wrap(err, "selecting modulos")
	}
	return mods, nil
}

func (repo curriculumRepository) UpdateModulo(ctx context.Context, m curriculum.Modulo, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	if !validID(m.ID) {
		return curriculum.Modulo{}, curriculum.ErrModuloNotFound
	}
	return repo.getModulo(ctx, exec, curriculum.ErrModuloNotFound,
		`UPDATE modulos SET numero = ?, titulo = ?, descricao = ?, carga_horaria = ?, is_active_cycle = ?, updated_at = ? `+
			`WHERE id = ? RETURNING `+moduloColumns,
		m.Numero, m.Titulo, m.Descricao, m.CargaHoraria, m.IsActiveCycle, m.UpdatedAt, m.ID)
}

// DeleteModulo removes the module; its lessons go with it (ON DELETE CASCADE).
func (repo curriculumRepository) DeleteModulo(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !validID(id) {
		return nil
	}
	if _, err := execQuery(ctx, core.GetExec(repo.exec, exec), `DELETE FROM modulos WHERE id = ?`, id); err != nil {
		return errors.Wrap(trapFKErr(err), "deleting modulo")
	}
	return nil
}

func (repo curriculumRepository) ClearActiveCycle(ctx context.Context, exceptID string, exec ...core.DBExecutor) error {
	q := `UPDATE modulos SET is_active_cycle = false WHERE is_active_cycle`
	var args []interface{}
	if exceptID != "" {
		q += ` AND id::text <> ?`
		args = append(args, exceptID)
	}
	if _, err := execQuery(ctx, core.GetExec(repo.exec, exec), q, args...); err != nil {
		return errors.Wrap(err, "clearing active cycle")
	}
	return nil
}

func (repo curriculumRepository) getLicao(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (curriculum.Licao, error) {
	var licoes []curriculum.Licao
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &licoes, q, args...); err != nil {
		return curriculum.Licao{}, errors.Wrap(err, "selecting licao")
	}
	if len(licoes) == 0 {
		return curriculum.Licao{}, curriculum.ErrLicaoNotFound
	}
	return licoes[0], nil
}

func (repo curriculumRepository) CreateLicao(ctx context.Context, l curriculum.Licao, exec ...core.DBExecutor) (curriculum.Licao, error) {
	l.ID = newID()
	_, err := execQuery(ctx, core.GetExec(repo.exec, exec),
		`INSERT INTO licoes (`+licaoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ModuloID, l.Titulo, l.Descricao, l.Ordem, l.VideoURL, l.DuracaoMinutos, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return curriculum.Licao{}, errors.Wrap(trapFKErr(err), "inserting licao")
	}
	return l, nil
}

func (repo curriculumRepository) GetLicao(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Licao, error) {
	if !validID(id) {
		return curriculum.Licao{}, curriculum.ErrLicaoNotFound
	}
	return repo.getLicao(ctx, exec, `SELECT `+licaoColumns+` FROM licoes WHERE id = ?`, id)
}

func (repo curriculumRepository) QueryLicoes(ctx context.Context, moduloID string, exec ...core.DBExecutor) ([]curriculum.Licao, error) {
	var where whereClause
	if moduloID != "" {
		where.add("modulo_id::text = ?", moduloID)
	}

	licoes := make([]curriculum.Licao, 0)
	q := `SELECT ` + licaoColumns + ` FROM licoes` + where.String() + ` ORDER BY modulo_id, ordem`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &licoes, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting licoes")
	}
	return licoes, nil
}

func (repo curriculumRepository) MaxLicaoOrdem(ctx context.Context, moduloID string, exec ...core.DBExecutor) (int, error) {
	var res []struct {
		Max int `db:"max"`
	}
	q := `SELECT COALESCE(MAX(ordem), 0) AS max FROM licoes WHERE modulo_id::text = ?`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &res, q, moduloID); err != nil {
		return 0, errors.Wrap(err, "selecting max ordem")
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0].Max, nil
}

func (repo curriculumRepository) UpdateLicao(ctx context.Context, l curriculum.Licao, exec ...core.DBExecutor) (curriculum.Licao, error) {
	if !validID(l.ID) {
		return curriculum.Licao{}, curriculum.ErrLicaoNotFound
	}
	return repo.getLicao(ctx, exec,
		`UPDATE licoes SET titulo = ?, descricao = ?, ordem = ?, video_url = ?, duracao_minutos = ?, updated_at = ? `+
			`WHERE id = ? RETURNING `+licaoColumns,
		l.Titulo, l.Descricao, l.Ordem, l.VideoURL, l.DuracaoMinutos, l.UpdatedAt, l.ID)
}

func (repo curriculumRepository) DeleteLicao(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !validID(id) {
		return nil
	}
	if _, err := execQuery(ctx, core.GetExec(repo.exec, exec), `DELETE FROM licoes WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "deleting licao")
	}
	return nil
}
