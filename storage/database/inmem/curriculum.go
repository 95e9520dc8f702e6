package inmem

import (
	"context"
	"sort"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
)

type curriculumRepository struct {
	s *Store
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(s *Store) *curriculumRepository {
	return &curriculumRepository{s: s}
}

func (repo curriculumRepository) CreateModulo(_ context.Context, m curriculum.Modulo, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	err := repo.s.write(exec, func(t *tables) error {
		for _, other := range t.modulos {
			if other.Numero == m.Numero {
				return curriculum.ErrNumeroExists
			}
		}
		m.ID = newID()
		t.modulos[m.ID] = m
		return nil
	})
	if err != nil {
		return curriculum.Modulo{}, err
	}
	return m, nil
}

func (repo curriculumRepository) GetModulo(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.Modulo, error) {
	var (
		m  curriculum.Modulo
		ok bool
	)
	repo.s.read(func(t *tables) { m, ok = t.modulos[id] })
	if !ok {
		return curriculum.Modulo{}, curriculum.ErrModuloNotFound
	}
	return m, nil
}

func (repo curriculumRepository) findModulo(match func(m curriculum.Modulo) bool) (curriculum.Modulo, bool) {
	var (
		mod   curriculum.Modulo
		found bool
	)
	repo.s.read(func(t *tables) {
		for _, m := range t.modulos {
			if match(m) {
				mod, found = m, true
				return
			}
		}
	})
	return mod, found
}

func (repo curriculumRepository) GetModuloByNumero(_ context.Context, numero int, _ ...core.DBExecutor) (curriculum.Modulo, error) {
	m, ok := repo.findModulo(func(m curriculum.Modulo) bool { return m.Numero == numero })
	if !ok {
		return curriculum.Modulo{}, curriculum.ErrModuloNotFound
	}
	return m, nil
}

func (repo curriculumRepository) GetActiveCycle(_ context.Context, _ ...core.DBExecutor) (curriculum.Modulo, error) {
	m, ok := repo.findModulo(func(m curriculum.Modulo) bool { return m.IsActiveCycle })
	if !ok {
		return curriculum.Modulo{}, curriculum.ErrNoActiveCycle
	}
	return m, nil
}

func (repo curriculumRepository) QueryModulos(_ context.Context, _ ...core.DBExecutor) ([]curriculum.Modulo, error) {
	mods := make([]curriculum.Modulo, 0)
	repo.s.read(func(t *tables) {
		for _, m := range t.modulos {
			mods = append(mods, m)
		}
	})
	sort.Slice(mods, func(i, j int) bool { return mods[i].Numero < mods[j].Numero })
	return mods, nil
}

func (repo curriculumRepository) UpdateModulo(_ context.Context, m curriculum.Modulo, exec ...core.DBExecutor) (curriculum.Modulo, error) {
	err := repo.s.write(exec, func(t *tables) error {
		if _, ok := t.modulos[m.ID]; !ok {
			return curriculum.ErrModuloNotFound
		}
		for _, other := range t.modulos {
			if other.ID != m.ID && other.Numero == m.Numero {
				return curriculum.ErrNumeroExists
			}
		}
		t.modulos[m.ID] = m
		return nil
	})
	if err != nil {
		return curriculum.Modulo{}, err
	}
	return m, nil
}

func (repo curriculumRepository) DeleteModulo(_ context.Context, id string, exec ...core.DBExecutor) error {
	return repo.s.write(exec, func(t *tables) error {
		delete(t.modulos, id)
		for lid, l := range t.licoes {
			if l.ModuloID == id {
				delete(t.licoes, lid)
			}
		}
		return nil
	})
}

func (repo curriculumRepository) ClearActiveCycle(_ context.Context, exceptID string, exec ...core.DBExecutor) error {
	return repo.s.write(exec, func(t *tables) error {
		for id, m := range t.modulos {
			if id != exceptID && m.IsActiveCycle {
				m.IsActiveCycle = false
				t.modulos[id] = m
			}
		}
		return nil
	})
}

func (repo curriculumRepository) CreateLicao(_ context.Context, l curriculum.Licao, exec ...core.DBExecutor) (curriculum.Licao, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		l.ID = newID()
		t.licoes[l.ID] = l
		return nil
	})
	return l, nil
}

func (repo curriculumRepository) GetLicao(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.Licao, error) {
	var (
		l  curriculum.Licao
		ok bool
	)
	repo.s.read(func(t *tables) { l, ok = t.licoes[id] })
	if !ok {
		return curriculum.Licao{}, curriculum.ErrLicaoNotFound
	}
	return l, nil
}

func (repo curriculumRepository) QueryLicoes(_ context.Context, moduloID string, _ ...core.DBExecutor) ([]curriculum.Licao, error) {
	licoes := make([]curriculum.Licao, 0)
	repo.s.read(func(t *tables) {
		for _, l := range t.licoes {
			if moduloID == "" || l.ModuloID == moduloID {
				licoes = append(licoes, l)
			}
		}
	})
	sort.Slice(licoes, func(i, j int) bool {
		if licoes[i].ModuloID != licoes[j].ModuloID {
			return licoes[i].ModuloID < licoes[j].ModuloID
		}
		return licoes[i].Ordem < licoes[j].Ordem
	})
	return licoes, nil
}

func (repo curriculumRepository) MaxLicaoOrdem(_ context.Context, moduloID string, _ ...core.DBExecutor) (int, error) {
	var last int
	repo.s.read(func(t *tables) {
		for _, l := range t.licoes {
			if l.ModuloID == moduloID && l.Ordem > last {
				last = l.Ordem
			}
		}
	})
	return last, nil
}

func (repo curriculumRepository) UpdateLicao(_ context.Context, l curriculum.Licao, exec ...core.DBExecutor) (curriculum.Licao, error) {
	err := repo.s.write(exec, func(t *tables) error {
		if _, ok := t.licoes[l.ID]; !ok {
			return curriculum.ErrLicaoNotFound
		}
		t.licoes[l.ID] = l
		return nil
	})
	if err != nil {
		return curriculum.Licao{}, err
	}
	return l, nil
}

func (repo curriculumRepository) DeleteLicao(_ context.Context, id string, exec ...core.DBExecutor) error {
	return repo.s.write(exec, func(t *tables) error {
		delete(t.licoes, id)
		return nil
	})
}
