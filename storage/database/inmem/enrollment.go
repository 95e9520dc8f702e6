package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
)

type enrollmentRepository struct {
	s *Store
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(s *Store) *enrollmentRepository {
	return &enrollmentRepository{s: s}
}

func (repo enrollmentRepository) CreatePreMatricula(_ context.Context, pm enrollment.PreMatricula, exec ...core.DBExecutor) (enrollment.PreMatricula, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		pm.ID = newID()
		t.preMatriculas[pm.ID] = pm
		return nil
	})
	return pm, nil
}

func (repo enrollmentRepository) GetPreMatricula(_ context.Context, id string, _ ...core.DBExecutor) (enrollment.PreMatricula, error) {
	var (
		pm enrollment.PreMatricula
		ok bool
	)
	repo.s.read(func(t *tables) { pm, ok = t.preMatriculas[id] })
	if !ok {
		return enrollment.PreMatricula{}, enrollment.ErrPreMatriculaNotFound
	}
	return pm, nil
}

func (repo enrollmentRepository) QueryPreMatriculas(_ context.Context, filter enrollment.PreMatriculaFilter, _ ...core.DBExecutor) ([]enrollment.PreMatricula, error) {
	pms := make([]enrollment.PreMatricula, 0)
	repo.s.read(func(t *tables) {
		for _, pm := range t.preMatriculas {
			if filter.PoloID != "" && pm.PoloID != filter.PoloID {
				continue
			}
			if filter.Status != "" && pm.Status != filter.Status {
				continue
			}
			pms = append(pms, pm)
		}
	})
	sort.Slice(pms, func(i, j int) bool { return pms[i].CreatedAt.After(pms[j].CreatedAt) })
	return pms, nil
}

func (repo enrollmentRepository) UpdatePreMatriculaStatus(_ context.Context, id, status string, updatedAt time.Time, exec ...core.DBExecutor) (enrollment.PreMatricula, error) {
	var pm enrollment.PreMatricula
	err := repo.s.write(exec, func(t *tables) error {
		current, ok := t.preMatriculas[id]
		if !ok {
			return enrollment.ErrPreMatriculaNotFound
		}
		current.Status = status
		current.UpdatedAt = updatedAt
		t.preMatriculas[id] = current
		pm = current
		return nil
	})
	if err != nil {
		return enrollment.PreMatricula{}, err
	}
	return pm, nil
}

func (repo enrollmentRepository) CreateMatricula(_ context.Context, m enrollment.Matricula, exec ...core.DBExecutor) (enrollment.Matricula, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		m.ID = newID()
		t.matriculas[m.ID] = m
		return nil
	})
	return m, nil
}

func (repo enrollmentRepository) GetActiveMatricula(_ context.Context, alunoID string, _ ...core.DBExecutor) (enrollment.Matricula, error) {
	var (
		mat   enrollment.Matricula
		found bool
	)
	repo.s.read(func(t *tables) {
		for _, m := range t.matriculas {
			if m.AlunoID == alunoID && m.Status == enrollment.MatriculaAtiva {
				mat, found = m, true
				return
			}
		}
	})
	if !found {
		return enrollment.Matricula{}, enrollment.ErrMatriculaNotFound
	}
	return mat, nil
}

func (repo enrollmentRepository) QueryMatriculas(_ context.Context, filter enrollment.MatriculaFilter, _ ...core.DBExecutor) ([]enrollment.Matricula, error) {
	mats := make([]enrollment.Matricula, 0)
	repo.s.read(func(t *tables) {
		for _, m := range t.matriculas {
			if filter.AlunoID != "" && m.AlunoID != filter.AlunoID {
				continue
			}
			if filter.TurmaID != "" && m.TurmaID != filter.TurmaID {
				continue
			}
			if filter.PoloID != "" && m.PoloID != filter.PoloID {
				continue
			}
			if filter.Status != "" && m.Status != filter.Status {
				continue
			}
			mats = append(mats, m)
		}
	})
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.Before(mats[j].CreatedAt) })
	return mats, nil
}
