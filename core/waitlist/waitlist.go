package waitlist

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

const (
	StatusPendente   = "pendente"
	StatusNotificado = "notificado"

	signUpMessage = "Cadastro na lista de espera realizado com sucesso!"
	notifyTmpl    = "lista_espera"
)

var ErrEmailExists = errors.New("Este e-mail já está cadastrado na lista de espera.")

type Entry struct {
	ID         string     `json:"id" db:"id"`
	Nome       string     `json:"nome" db:"nome"`
	Email      string     `json:"email" db:"email"`
	Telefone   *string    `json:"telefone" db:"telefone"`
	Cidade     *string    `json:"cidade" db:"cidade"`
	Bairro     *string    `json:"bairro" db:"bairro"`
	Status     string     `json:"status" db:"status"`
	NotifiedAt *time.Time `json:"notified_at" db:"notified_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type NewEntry struct {
	Nome     string `json:"nome" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Telefone string `json:"telefone" validate:"omitempty,max=20"`
	Cidade   string `json:"cidade" validate:"omitempty,max=120"`
	Bairro   string `json:"bairro" validate:"omitempty,max=120"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Nome = core.CleanString(ne.Nome)
	ne.Email = core.CleanString(ne.Email, true /* lower */)
	ne.Telefone = core.CleanString(ne.Telefone)
	ne.Cidade = core.CleanString(ne.Cidade)
	ne.Bairro = core.CleanString(ne.Bairro)
	return validate.Struct(ne)
}

type SignUpResult struct {
	Message string `json:"message"`
	Data    Entry  `json:"data"`
}

type QueryFilter struct {
	Status string `query:"status"`
}

type (
	Repository interface {
		// CreateEntry returns ErrEmailExists when the email is already on the list.
		CreateEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
		// QueryEntries returns the latest entries first.
		QueryEntries(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Entry, error)
		MarkNotified(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
	}

	PoloFinder interface {
		QueryPolos(ctx context.Context, filter school.PoloFilter, exec ...core.DBExecutor) ([]school.Polo, error)
	}

	Service struct {
		repo     Repository
		polos    PoloFinder
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	polos PoloFinder,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		polos:    polos,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

func (svc *Service) SignUp(ctx context.Context, ne NewEntry) (SignUpResult, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return SignUpResult{}, err
	}
	entry, err := svc.repo.CreateEntry(ctx, Entry{
		Nome:      ne.Nome,
		Email:     ne.Email,
		Telefone:  core.StrPtr(ne.Telefone),
		Cidade:    core.StrPtr(ne.Cidade),
		Bairro:    core.StrPtr(ne.Bairro),
		Status:    StatusPendente,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return SignUpResult{}, core.NewFieldError("email", ErrEmailExists.Error())
		}
		return SignUpResult{}, errors.Wrap(err, "creating waitlist entry")
	}
	return SignUpResult{Message: signUpMessage, Data: entry}, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	return svc.repo.QueryEntries(ctx, filter)
}

type notifyData struct {
	Nome string
	Polo *school.Polo
}

// NotifyPending emails every pending entry, pointing to an active polo of the same city when one exists,
// and marks it notified once the email is delivered. Failures are logged per entry and leave it pending;
// the number of notified entries is returned.
func (svc *Service) NotifyPending(ctx context.Context) (int, error) {
	entries, err := svc.repo.QueryEntries(ctx, QueryFilter{Status: StatusPendente})
	if err != nil {
		return 0, errors.Wrap(err, "querying pending entries")
	}

	var count int
	for _, e := range entries {
		data := notifyData{Nome: e.Nome}
		if e.Cidade != nil {
			polos, err := svc.polos.QueryPolos(ctx, school.PoloFilter{Status: school.PoloStatusAtivo, Cidade: *e.Cidade})
			if err != nil {
				svc.logger.Error("finding polo for waitlist entry", errors.Wrap(err, e.Email))
				continue
			}
			if len(polos) > 0 {
				data.Polo = &polos[0]
			}
		}

		err := svc.mailSvc.Send(&core.EmailMessage{
			To:           []mail.Address{{Name: e.Nome, Address: e.Email}},
			Subject:      "Inscrições abertas",
			TemplateName: notifyTmpl,
			TemplateData: data,
		})
		if err != nil {
			svc.logger.Error("emailing waitlist entry", errors.Wrap(err, e.Email))
			continue
		}

		if err = svc.repo.MarkNotified(ctx, e.ID, time.Now().UTC()); err != nil {
			svc.logger.Error("marking waitlist entry notified", errors.Wrap(err, e.Email))
			continue
		}
		count++
	}
	return count, nil
}
