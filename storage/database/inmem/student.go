package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
)

type studentRepository struct {
	s *Store
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(s *Store) *studentRepository {
	return &studentRepository{s: s}
}

func (repo studentRepository) CreateAluno(_ context.Context, aluno student.Aluno, exec ...core.DBExecutor) (student.Aluno, error) {
	err := repo.s.write(exec, func(t *tables) error {
		for _, a := range t.alunos {
			if a.CPF == aluno.CPF {
				return student.ErrCPFExists
			}
		}
		aluno.ID = newID()
		t.alunos[aluno.ID] = aluno
		return nil
	})
	if err != nil {
		return student.Aluno{}, err
	}
	return aluno, nil
}

func (repo studentRepository) GetAluno(_ context.Context, id string, _ ...core.DBExecutor) (student.Aluno, error) {
	var (
		aluno student.Aluno
		ok    bool
	)
	repo.s.read(func(t *tables) { aluno, ok = t.alunos[id] })
	if !ok {
		return student.Aluno{}, student.ErrNotFound
	}
	return aluno, nil
}

func (repo studentRepository) GetAlunoByCPF(_ context.Context, cpf string, _ ...core.DBExecutor) (student.Aluno, error) {
	var (
		aluno student.Aluno
		found bool
	)
	repo.s.read(func(t *tables) {
		for _, a := range t.alunos {
			if a.CPF == cpf {
				aluno, found = a, true
				return
			}
		}
	})
	if !found {
		return student.Aluno{}, student.ErrNotFound
	}
	return aluno, nil
}

func (repo studentRepository) GetAlunosByIDs(_ context.Context, ids []string, _ ...core.DBExecutor) ([]student.Aluno, error) {
	alunos := make([]student.Aluno, 0, len(ids))
	repo.s.read(func(t *tables) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if a, ok := t.alunos[id]; ok && !seen[id] {
				seen[id] = true
				alunos = append(alunos, a)
			}
		}
	})
	return alunos, nil
}

func (repo studentRepository) QueryAlunos(_ context.Context, filter student.QueryFilter, _ ...core.DBExecutor) ([]student.Aluno, error) {
	alunos := make([]student.Aluno, 0)
	search := strings.ToLower(filter.Search)
	repo.s.read(func(t *tables) {
		for _, a := range t.alunos {
			if filter.PoloID != "" && a.PoloID != filter.PoloID {
				continue
			}
			if filter.TurmaID != "" && (a.TurmaID == nil || *a.TurmaID != filter.TurmaID) {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(a.Nome), search) && !strings.Contains(a.CPF, search) {
				continue
			}
			alunos = append(alunos, a)
		}
	})
	sort.Slice(alunos, func(i, j int) bool { return alunos[i].Nome < alunos[j].Nome })
	return alunos, nil
}

func (repo studentRepository) UpdateAluno(_ context.Context, aluno student.Aluno, exec ...core.DBExecutor) (student.Aluno, error) {
	err := repo.s.write(exec, func(t *tables) error {
		current, ok := t.alunos[aluno.ID]
		if !ok {
			return student.ErrNotFound
		}
		current.TurmaID = aluno.TurmaID
		current.Status = aluno.Status
		current.UpdatedAt = aluno.UpdatedAt
		t.alunos[aluno.ID] = current
		aluno = current
		return nil
	})
	if err != nil {
		return student.Aluno{}, err
	}
	return aluno, nil
}

func (repo studentRepository) UpdateAlunoPolo(_ context.Context, id, poloID string, updatedAt time.Time, exec ...core.DBExecutor) (student.Aluno, error) {
	var aluno student.Aluno
	err := repo.s.write(exec, func(t *tables) error {
		current, ok := t.alunos[id]
		if !ok {
			return student.ErrNotFound
		}
		current.PoloID = poloID
		current.UpdatedAt = updatedAt
		t.alunos[id] = current
		aluno = current
		return nil
	})
	if err != nil {
		return student.Aluno{}, err
	}
	return aluno, nil
}
