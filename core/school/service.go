package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

var (
	ErrPoloNotFound  = core.NewNotFoundError("polo")
	ErrTurmaNotFound = core.NewNotFoundError("turma")
	ErrCodigoExists  = errors.New("já existe um polo com este código")
)

type (
	Repository interface {
		CreatePolo(ctx context.Context, polo Polo, exec ...core.DBExecutor) (Polo, error)
		GetPolo(ctx context.Context, id string, exec ...core.DBExecutor) (Polo, error)
		// QueryPolos matches Cidade case-insensitively; results are ordered by name.
		QueryPolos(ctx context.Context, filter PoloFilter, exec ...core.DBExecutor) ([]Polo, error)
		CreateTurma(ctx context.Context, turma Turma, exec ...core.DBExecutor) (Turma, error)
		GetTurma(ctx context.Context, id string, exec ...core.DBExecutor) (Turma, error)
		QueryTurmas(ctx context.Context, filter TurmaFilter, exec ...core.DBExecutor) ([]Turma, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) CreatePolo(ctx context.Context, np NewPolo) (Polo, error) {
	if err := np.Validate(svc.validate); err != nil {
		return Polo{}, err
	}
	polo, err := svc.repo.CreatePolo(ctx, Polo{
		Nome:      np.Nome,
		Codigo:    np.Codigo,
		Cidade:    np.Cidade,
		Status:    PoloStatusAtivo,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrCodigoExists {
			return Polo{}, core.NewFieldError("codigo", ErrCodigoExists.Error())
		}
		return Polo{}, errors.Wrap(err, "creating polo")
	}
	return polo, nil
}

func (svc *Service) GetPolo(ctx context.Context, id string) (Polo, error) {
	return svc.repo.GetPolo(ctx, id)
}

func (svc *Service) QueryPolos(ctx context.Context, filter PoloFilter) ([]Polo, error) {
	filter.Clean()
	return svc.repo.QueryPolos(ctx, filter)
}

func (svc *Service) CreateTurma(ctx context.Context, nt NewTurma) (Turma, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Turma{}, err
	}
	if _, err := svc.repo.GetPolo(ctx, nt.PoloID); err != nil {
		return Turma{}, err
	}
	turma, err := svc.repo.CreateTurma(ctx, Turma{
		Nome:      nt.Nome,
		PoloID:    nt.PoloID,
		ModuloID:  core.StrPtr(nt.ModuloID),
		Status:    TurmaStatusAtiva,
		CreatedAt: time.Now().UTC(),
	})
	return turma, errors.Wrap(err, "creating turma")
}

func (svc *Service) GetTurma(ctx context.Context, id string) (Turma, error) {
	return svc.repo.GetTurma(ctx, id)
}

func (svc *Service) QueryTurmas(ctx context.Context, filter TurmaFilter) ([]Turma, error) {
	filter.Clean()
	return svc.repo.QueryTurmas(ctx, filter)
}
