package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

type schoolRepository struct {
	s *Store
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(s *Store) *schoolRepository {
	return &schoolRepository{s: s}
}

func (repo schoolRepository) CreatePolo(_ context.Context, polo school.Polo, exec ...core.DBExecutor) (school.Polo, error) {
	err := repo.s.write(exec, func(t *tables) error {
		for _, p := range t.polos {
			if p.Codigo == polo.Codigo {
				return school.ErrCodigoExists
			}
		}
		polo.ID = newID()
		t.polos[polo.ID] = polo
		return nil
	})
	if err != nil {
		return school.Polo{}, err
	}
	return polo, nil
}

func (repo schoolRepository) GetPolo(_ context.Context, id string, _ ...core.DBExecutor) (school.Polo, error) {
	var (
		polo school.Polo
		ok   bool
	)
	repo.s.read(func(t *tables) { polo, ok = t.polos[id] })
	if !ok {
		return school.Polo{}, school.ErrPoloNotFound
	}
	return polo, nil
}

func (repo schoolRepository) QueryPolos(_ context.Context, filter school.PoloFilter, _ ...core.DBExecutor) ([]school.Polo, error) {
	polos := make([]school.Polo, 0)
	cidade := strings.ToLower(filter.Cidade)
	repo.s.read(func(t *tables) {
		for _, p := range t.polos {
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if cidade != "" && !strings.Contains(strings.ToLower(p.Cidade), cidade) {
				continue
			}
			polos = append(polos, p)
		}
	})
	sort.Slice(polos, func(i, j int) bool { return polos[i].Nome < polos[j].Nome })
	return polos, nil
}

func (repo schoolRepository) CreateTurma(_ context.Context, turma school.Turma, exec ...core.DBExecutor) (school.Turma, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		turma.ID = newID()
		t.turmas[turma.ID] = turma
		return nil
	})
	return turma, nil
}

func (repo schoolRepository) GetTurma(_ context.Context, id string, _ ...core.DBExecutor) (school.Turma, error) {
	var (
		turma school.Turma
		ok    bool
	)
	repo.s.read(func(t *tables) { turma, ok = t.turmas[id] })
	if !ok {
		return school.Turma{}, school.ErrTurmaNotFound
	}
	return turma, nil
}

func (repo schoolRepository) QueryTurmas(_ context.Context, filter school.TurmaFilter, _ ...core.DBExecutor) ([]school.Turma, error) {
	turmas := make([]school.Turma, 0)
	repo.s.read(func(t *tables) {
		for _, tu := range t.turmas {
			if filter.PoloID != "" && tu.PoloID != filter.PoloID {
				continue
			}
			if filter.Status != "" && tu.Status != filter.Status {
				continue
			}
			turmas = append(turmas, tu)
		}
	})
	sort.Slice(turmas, func(i, j int) bool { return turmas[i].Nome < turmas[j].Nome })
	return turmas, nil
}
