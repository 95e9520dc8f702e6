package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

var (
	ErrNotFound  = core.NewNotFoundError("aluno")
	ErrCPFExists = errors.New("já existe um aluno com este CPF")
)

const transferMessage = "Aluno transferido com sucesso"

type (
	Repository interface {
		CreateAluno(ctx context.Context, aluno Aluno, exec ...core.DBExecutor) (Aluno, error)
		GetAluno(ctx context.Context, id string, exec ...core.DBExecutor) (Aluno, error)
		GetAlunoByCPF(ctx context.Context, cpf string, exec ...core.DBExecutor) (Aluno, error)
		// GetAlunosByIDs returns the students found, in no particular order.
		GetAlunosByIDs(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Aluno, error)
		QueryAlunos(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Aluno, error)
		// UpdateAluno persists turma_id, status and updated_at.
		UpdateAluno(ctx context.Context, aluno Aluno, exec ...core.DBExecutor) (Aluno, error)
		// UpdateAlunoPolo only touches polo_id and updated_at.
		UpdateAlunoPolo(ctx context.Context, id, poloID string, updatedAt time.Time, exec ...core.DBExecutor) (Aluno, error)
	}

	PoloFinder interface {
		GetPolo(ctx context.Context, id string, exec ...core.DBExecutor) (school.Polo, error)
	}

	Service struct {
		repo     Repository
		polos    PoloFinder
		audit    audit.Repository
		tx       core.Transactor
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	polos PoloFinder,
	auditRepo audit.Repository,
	tx core.Transactor,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		polos:    polos,
		audit:    auditRepo,
		tx:       tx,
		validate: validate,
	}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Aluno, error) {
	return svc.repo.GetAluno(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Aluno, error) {
	filter.Clean()
	return svc.repo.QueryAlunos(ctx, filter)
}

// Transfer moves the student to the destination polo. Nothing but the polo changes;
// the move is recorded in the audit log within the same transaction.
func (svc *Service) Transfer(ctx context.Context, id string, tr TransferRequest, userID string) (TransferResult, error) {
	if err := tr.Validate(svc.validate); err != nil {
		return TransferResult{}, err
	}

	var res TransferResult
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		aluno, err := svc.repo.GetAluno(ctx, id, exec)
		if err != nil {
			return err
		}
		polo, err := svc.polos.GetPolo(ctx, tr.PoloDestinoID, exec)
		if err != nil {
			return err
		}
		if aluno.PoloID == polo.ID {
			return core.NewFieldError("polo_destino_id", "o aluno já pertence a este polo")
		}

		origin := aluno.PoloID
		aluno, err = svc.repo.UpdateAlunoPolo(ctx, aluno.ID, polo.ID, time.Now().UTC(), exec)
		if err != nil {
			return errors.Wrap(err, "updating aluno polo")
		}

		entry := audit.NewEntry(audit.EntityAluno, aluno.ID, audit.ActionTransfer, userID, map[string]interface{}{
			"polo_origem_id":  origin,
			"polo_destino_id": polo.ID,
			"motivo":          tr.Motivo,
			"observacoes":     tr.Observacoes,
		})
		if _, err = svc.audit.CreateEntry(ctx, entry, exec); err != nil {
			return errors.Wrap(err, "recording transfer")
		}

		res = TransferResult{Message: transferMessage, Aluno: aluno, PoloDestino: polo}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}
