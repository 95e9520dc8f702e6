package curriculum

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

var (
	ErrModuloNotFound = core.NewNotFoundError("módulo")
	ErrLicaoNotFound  = core.NewNotFoundError("lição")
	ErrNoActiveCycle  = core.NewNotFoundError("módulo do ciclo ativo")
	ErrNumeroExists   = errors.New("já existe um módulo com este número")
)

type (
	Repository interface {
		CreateModulo(ctx context.Context, m Modulo, exec ...core.DBExecutor) (Modulo, error)
		GetModulo(ctx context.Context, id string, exec ...core.DBExecutor) (Modulo, error)
		// GetModuloByNumero returns ErrModuloNotFound when no module uses numero.
		GetModuloByNumero(ctx context.Context, numero int, exec ...core.DBExecutor) (Modulo, error)
		GetActiveCycle(ctx context.Context, exec ...core.DBExecutor) (Modulo, error)
		// QueryModulos returns every module ordered by numero.
		QueryModulos(ctx context.Context, exec ...core.DBExecutor) ([]Modulo, error)
		UpdateModulo(ctx context.Context, m Modulo, exec ...core.DBExecutor) (Modulo, error)
		DeleteModulo(ctx context.Context, id string, exec ...core.DBExecutor) error
		// ClearActiveCycle unsets is_active_cycle on every module but exceptID.
		ClearActiveCycle(ctx context.Context, exceptID string, exec ...core.DBExecutor) error

		CreateLicao(ctx context.Context, l Licao, exec ...core.DBExecutor) (Licao, error)
		GetLicao(ctx context.Context, id string, exec ...core.DBExecutor) (Licao, error)
		// QueryLicoes returns lessons ordered by ordem; an empty moduloID lists all of them.
		QueryLicoes(ctx context.Context, moduloID string, exec ...core.DBExecutor) ([]Licao, error)
		MaxLicaoOrdem(ctx context.Context, moduloID string, exec ...core.DBExecutor) (int, error)
		UpdateLicao(ctx context.Context, l Licao, exec ...core.DBExecutor) (Licao, error)
		DeleteLicao(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		validate *validator.Validate
	}
)

func NewService(repo Repository, tx core.Transactor, validate *validator.Validate) *Service {
	return &Service{repo: repo, tx: tx, validate: validate}
}

func (svc *Service) checkNumero(ctx context.Context, numero int, excludedID string, exec core.DBExecutor) error {
	m, err := svc.repo.GetModuloByNumero(ctx, numero, exec)
	if err != nil {
		if errors.Cause(err) == ErrModuloNotFound {
			return nil
		}
		return errors.Wrap(err, "checking numero uniqueness")
	}
	if m.ID != excludedID {
		return core.NewFieldError("numero", ErrNumeroExists.Error())
	}
	return nil
}

func (svc *Service) CreateModulo(ctx context.Context, nm NewModulo) (Modulo, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Modulo{}, err
	}

	var mod Modulo
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.checkNumero(ctx, nm.Numero, "", exec); err != nil {
			return err
		}

		now := time.Now().UTC()
		var err error
		mod, err = svc.repo.CreateModulo(ctx, Modulo{
			Numero:        nm.Numero,
			Titulo:        nm.Titulo,
			Descricao:     nm.Descricao,
			CargaHoraria:  nm.CargaHoraria,
			IsActiveCycle: nm.IsActiveCycle,
			CreatedAt:     now,
			UpdatedAt:     now,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating modulo")
		}
		if mod.IsActiveCycle {
			return errors.Wrap(svc.repo.ClearActiveCycle(ctx, mod.ID, exec), "clearing active cycle")
		}
		return nil
	})
	if err != nil {
		return Modulo{}, err
	}
	return mod, nil
}

func (svc *Service) UpdateModulo(ctx context.Context, id string, um UpdateModulo) (Modulo, error) {
	if err := um.Validate(svc.validate); err != nil {
		return Modulo{}, err
	}

	var mod Modulo
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		current, err := svc.repo.GetModulo(ctx, id, exec)
		if err != nil {
			return err
		}
		if um.Numero != nil && *um.Numero != current.Numero {
			if err = svc.checkNumero(ctx, *um.Numero, current.ID, exec); err != nil {
				return err
			}
		}

		updated := um.apply(current)
		updated.UpdatedAt = time.Now().UTC()
		if mod, err = svc.repo.UpdateModulo(ctx, updated, exec); err != nil {
			return errors.Wrap(err, "updating modulo")
		}
		if mod.IsActiveCycle && !current.IsActiveCycle {
			return errors.Wrap(svc.repo.ClearActiveCycle(ctx, mod.ID, exec), "clearing active cycle")
		}
		return nil
	})
	if err != nil {
		return Modulo{}, err
	}
	return mod, nil
}

func (svc *Service) DeleteModulo(ctx context.Context, id string) error {
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetModulo(ctx, id, exec); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteModulo(ctx, id, exec), "deleting modulo")
	})
}

func (svc *Service) GetModulo(ctx context.Context, id string) (Modulo, error) {
	return svc.repo.GetModulo(ctx, id)
}

func (svc *Service) QueryModulos(ctx context.Context) ([]Modulo, error) {
	return svc.repo.QueryModulos(ctx)
}

func (svc *Service) GetActiveCycle(ctx context.Context) (Modulo, error) {
	return svc.repo.GetActiveCycle(ctx)
}

// CreateLicao appends the lesson to its module when no ordem is given.
func (svc *Service) CreateLicao(ctx context.Context, nl NewLicao) (Licao, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Licao{}, err
	}

	var licao Licao
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetModulo(ctx, nl.ModuloID, exec); err != nil {
			return err
		}

		ordem := nl.Ordem
		if ordem == 0 {
			last, err := svc.repo.MaxLicaoOrdem(ctx, nl.ModuloID, exec)
			if err != nil {
				return errors.Wrap(err, "finding last ordem")
			}
			ordem = last + 1
		}

		now := time.Now().UTC()
		var err error
		licao, err = svc.repo.CreateLicao(ctx, Licao{
			ModuloID:       nl.ModuloID,
			Titulo:         nl.Titulo,
			Descricao:      nl.Descricao,
			Ordem:          ordem,
			VideoURL:       core.StrPtr(nl.VideoURL),
			DuracaoMinutos: nl.DuracaoMinutos,
			CreatedAt:      now,
			UpdatedAt:      now,
		}, exec)
		return errors.Wrap(err, "creating licao")
	})
	if err != nil {
		return Licao{}, err
	}
	return licao, nil
}

func (svc *Service) UpdateLicao(ctx context.Context, id string, ul UpdateLicao) (Licao, error) {
	if err := ul.Validate(svc.validate); err != nil {
		return Licao{}, err
	}

	var licao Licao
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		current, err := svc.repo.GetLicao(ctx, id, exec)
		if err != nil {
			return err
		}
		updated := ul.apply(current)
		updated.UpdatedAt = time.Now().UTC()
		licao, err = svc.repo.UpdateLicao(ctx, updated, exec)
		return errors.Wrap(err, "updating licao")
	})
	if err != nil {
		return Licao{}, err
	}
	return licao, nil
}

func (svc *Service) DeleteLicao(ctx context.Context, id string) error {
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetLicao(ctx, id, exec); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteLicao(ctx, id, exec), "deleting licao")
	})
}

func (svc *Service) GetLicao(ctx context.Context, id string) (Licao, error) {
	return svc.repo.GetLicao(ctx, id)
}

func (svc *Service) QueryLicoes(ctx context.Context, moduloID string) ([]Licao, error) {
	return svc.repo.QueryLicoes(ctx, core.CleanString(moduloID))
}
