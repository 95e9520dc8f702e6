package enrollment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
)

var (
	ErrPreMatriculaNotFound = core.NewNotFoundError("pré-matrícula")
	ErrMatriculaNotFound    = core.NewNotFoundError("matrícula")
)

type (
	Repository interface {
		CreatePreMatricula(ctx context.Context, pm PreMatricula, exec ...core.DBExecutor) (PreMatricula, error)
		GetPreMatricula(ctx context.Context, id string, exec ...core.DBExecutor) (PreMatricula, error)
		QueryPreMatriculas(ctx context.Context, filter PreMatriculaFilter, exec ...core.DBExecutor) ([]PreMatricula, error)
		UpdatePreMatriculaStatus(ctx context.Context, id, status string, updatedAt time.Time, exec ...core.DBExecutor) (PreMatricula, error)
		CreateMatricula(ctx context.Context, m Matricula, exec ...core.DBExecutor) (Matricula, error)
		// GetActiveMatricula returns ErrMatriculaNotFound when the student has no active enrollment.
		GetActiveMatricula(ctx context.Context, alunoID string, exec ...core.DBExecutor) (Matricula, error)
		QueryMatriculas(ctx context.Context, filter MatriculaFilter, exec ...core.DBExecutor) ([]Matricula, error)
	}

	SchoolFinder interface {
		GetPolo(ctx context.Context, id string, exec ...core.DBExecutor) (school.Polo, error)
		GetTurma(ctx context.Context, id string, exec ...core.DBExecutor) (school.Turma, error)
	}

	Service struct {
		repo     Repository
		schools  SchoolFinder
		students student.Repository
		audit    audit.Repository
		tx       core.Transactor
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	schools SchoolFinder,
	students student.Repository,
	auditRepo audit.Repository,
	tx core.Transactor,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		schools:  schools,
		students: students,
		audit:    auditRepo,
		tx:       tx,
		validate: validate,
	}
}

// CreatePreMatricula registers a public pre-enrollment request.
func (svc *Service) CreatePreMatricula(ctx context.Context, np NewPreMatricula) (PreMatricula, error) {
	if err := np.Validate(svc.validate); err != nil {
		return PreMatricula{}, err
	}
	if _, err := svc.schools.GetPolo(ctx, np.PoloID); err != nil {
		return PreMatricula{}, err
	}

	now := time.Now().UTC()
	pm, err := svc.repo.CreatePreMatricula(ctx, PreMatricula{
		NomeCompleto:        np.NomeCompleto,
		CPF:                 np.CPF,
		DataNascimento:      core.MustParseDate(np.DataNascimento),
		EmailResponsavel:    np.EmailResponsavel,
		TelefoneResponsavel: np.TelefoneResponsavel,
		PoloID:              np.PoloID,
		Status:              StatusEmAnalise,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	return pm, errors.Wrap(err, "creating pre-matricula")
}

func (svc *Service) GetPreMatricula(ctx context.Context, id string) (PreMatricula, error) {
	return svc.repo.GetPreMatricula(ctx, id)
}

func (svc *Service) QueryPreMatriculas(ctx context.Context, filter PreMatriculaFilter) ([]PreMatricula, error) {
	filter.Clean()
	return svc.repo.QueryPreMatriculas(ctx, filter)
}

func (svc *Service) QueryMatriculas(ctx context.Context, filter MatriculaFilter) ([]Matricula, error) {
	filter.Clean()
	return svc.repo.QueryMatriculas(ctx, filter)
}

// UpdateStatus sets any of the known statuses; no transition graph is enforced.
func (svc *Service) UpdateStatus(ctx context.Context, id string, su StatusUpdate, userID string) (PreMatricula, error) {
	if err := su.Validate(svc.validate); err != nil {
		return PreMatricula{}, err
	}

	var pm PreMatricula
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		current, err := svc.repo.GetPreMatricula(ctx, id, exec)
		if err != nil {
			return err
		}
		pm, err = svc.repo.UpdatePreMatriculaStatus(ctx, current.ID, su.Status, time.Now().UTC(), exec)
		if err != nil {
			return errors.Wrap(err, "updating pre-matricula status")
		}

		entry := audit.NewEntry(audit.EntityPreMatricula, pm.ID, audit.ActionStatusChange, userID, map[string]interface{}{
			"de":   current.Status,
			"para": pm.Status,
		})
		_, err = svc.audit.CreateEntry(ctx, entry, exec)
		return errors.Wrap(err, "recording status change")
	})
	if err != nil {
		return PreMatricula{}, err
	}
	return pm, nil
}

// Conclude turns a pre-enrollment into an active enrollment in the given class.
// The student is looked up by CPF and created when missing.
func (svc *Service) Conclude(ctx context.Context, id string, cr ConcludeRequest, approvedBy string) (ConcludeResult, error) {
	if err := cr.Validate(svc.validate); err != nil {
		return ConcludeResult{}, err
	}

	var res ConcludeResult
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		pm, err := svc.repo.GetPreMatricula(ctx, id, exec)
		if err != nil {
			return err
		}
		if !pm.CanConclude() {
			return core.NewInvalidStateError("pré-matrícula com status %q não permite conclusão", pm.Status)
		}

		turma, err := svc.schools.GetTurma(ctx, cr.TurmaID, exec)
		if err != nil {
			return err
		}
		if turma.PoloID != pm.PoloID {
			return core.NewFieldError("turma_id", "a turma não pertence ao polo da pré-matrícula")
		}

		now := time.Now().UTC()
		aluno, err := svc.findOrCreateAluno(ctx, pm, now, exec)
		if err != nil {
			return err
		}

		if _, err = svc.repo.GetActiveMatricula(ctx, aluno.ID, exec); err == nil {
			return core.NewInvalidStateError("o aluno já possui uma matrícula ativa")
		} else if errors.Cause(err) != ErrMatriculaNotFound {
			return errors.Wrap(err, "checking active matricula")
		}

		var approver *string
		if approvedBy != "" {
			approver = &approvedBy
		}
		mat, err := svc.repo.CreateMatricula(ctx, Matricula{
			AlunoID:    aluno.ID,
			TurmaID:    turma.ID,
			PoloID:     turma.PoloID,
			Status:     MatriculaAtiva,
			Origem:     OrigemSite,
			ApprovedBy: approver,
			ApprovedAt: &now,
			CreatedAt:  now,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating matricula")
		}

		aluno.TurmaID = &turma.ID
		aluno.Status = student.StatusAtivo
		aluno.UpdatedAt = now
		if aluno, err = svc.students.UpdateAluno(ctx, aluno, exec); err != nil {
			return errors.Wrap(err, "linking aluno to turma")
		}

		if pm, err = svc.repo.UpdatePreMatriculaStatus(ctx, pm.ID, StatusConcluido, now, exec); err != nil {
			return errors.Wrap(err, "concluding pre-matricula")
		}

		entry := audit.NewEntry(audit.EntityPreMatricula, pm.ID, audit.ActionConclude, approvedBy, map[string]interface{}{
			"aluno_id":     aluno.ID,
			"matricula_id": mat.ID,
			"turma_id":     turma.ID,
		})
		if _, err = svc.audit.CreateEntry(ctx, entry, exec); err != nil {
			return errors.Wrap(err, "recording conclusion")
		}

		res = ConcludeResult{PreMatricula: pm, Aluno: aluno, Matricula: mat}
		return nil
	})
	if err != nil {
		return ConcludeResult{}, err
	}
	return res, nil
}

func (svc *Service) findOrCreateAluno(ctx context.Context, pm PreMatricula, now time.Time, exec core.DBExecutor) (student.Aluno, error) {
	aluno, err := svc.students.GetAlunoByCPF(ctx, pm.CPF, exec)
	if err == nil {
		return aluno, nil
	}
	if errors.Cause(err) != student.ErrNotFound {
		return student.Aluno{}, errors.Wrap(err, "finding aluno by cpf")
	}

	aluno, err = svc.students.CreateAluno(ctx, student.Aluno{
		Nome:             pm.NomeCompleto,
		CPF:              pm.CPF,
		DataNascimento:   pm.DataNascimento,
		EmailResponsavel: pm.EmailResponsavel,
		PoloID:           pm.PoloID,
		Status:           student.StatusAtivo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, exec)
	return aluno, errors.Wrap(err, "creating aluno")
}
