package billing

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
)

var (
	ErrChargeNotFound = core.NewNotFoundError("mensalidade")
	ErrConfigNotFound = core.NewNotFoundError("configuração financeira")
)

const chargeTemplate = "mensalidade_gerada"

type (
	Repository interface {
		// CreateCharges inserts every charge or none.
		CreateCharges(ctx context.Context, charges []Charge, exec ...core.DBExecutor) ([]Charge, error)
		GetCharge(ctx context.Context, id string, exec ...core.DBExecutor) (Charge, error)
		// GetChargeForUpdate locks the charge row until the surrounding transaction ends.
		GetChargeForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (Charge, error)
		// QueryCharges returns charges ordered by vencimento, latest first.
		QueryCharges(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Charge, error)
		UpdateCharge(ctx context.Context, charge Charge, exec ...core.DBExecutor) (Charge, error)
		GetFinancialConfig(ctx context.Context, exec ...core.DBExecutor) (FinancialConfig, error)
		SaveFinancialConfig(ctx context.Context, conf FinancialConfig, exec ...core.DBExecutor) (FinancialConfig, error)
	}

	TurmaFinder interface {
		GetTurma(ctx context.Context, id string, exec ...core.DBExecutor) (school.Turma, error)
	}

	EnrollmentFinder interface {
		QueryMatriculas(ctx context.Context, filter enrollment.MatriculaFilter, exec ...core.DBExecutor) ([]enrollment.Matricula, error)
	}

	StudentFinder interface {
		GetAlunosByIDs(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]student.Aluno, error)
	}

	// Metrics receives billing events; services/metrics implements it with Prometheus.
	Metrics interface {
		ChargesGenerated(n int)
		PaymentConfirmed(cents int)
	}

	Deps struct {
		Repo        Repository
		Turmas      TurmaFinder
		Enrollments EnrollmentFinder
		Students    StudentFinder
		Audit       audit.Repository
		Tx          core.Transactor
		Validate    *validator.Validate
		MailSvc     core.EmailService
		Logger      core.Logger
		Metrics     Metrics
	}

	Service struct {
		Deps
	}
)

type noopMetrics struct{}

func (noopMetrics) ChargesGenerated(int) {}
func (noopMetrics) PaymentConfirmed(int) {}

func NewService(deps Deps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	return &Service{Deps: deps}
}

func today() core.Date {
	return core.DateOf(time.Now())
}

func withOverdue(charges []Charge) []Charge {
	t := today()
	for i := range charges {
		charges[i].Vencida = charges[i].IsOverdue(t)
	}
	return charges
}

func newCharge(alunoID, poloID string, turmaID *string, titulo string, valorCents int, vencimento core.Date, now time.Time) Charge {
	return Charge{
		AlunoID:    alunoID,
		PoloID:     poloID,
		TurmaID:    turmaID,
		Titulo:     titulo,
		ValorCents: valorCents,
		Vencimento: vencimento,
		Status:     StatusPendente,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// GenerateBatch creates one pending charge per active enrollment of the class.
// Either every charge is persisted or none is.
func (svc *Service) GenerateBatch(ctx context.Context, br BatchRequest, userID string) (BatchResult, error) {
	if err := br.Validate(svc.Validate); err != nil {
		return BatchResult{}, err
	}
	vencimento := core.MustParseDate(br.Vencimento)

	var created []Charge
	err := svc.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		turma, err := svc.Turmas.GetTurma(ctx, br.TurmaID, exec)
		if err != nil {
			return err
		}

		mats, err := svc.Enrollments.QueryMatriculas(ctx, enrollment.MatriculaFilter{
			TurmaID: turma.ID,
			Status:  enrollment.MatriculaAtiva,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "querying active matriculas")
		}
		if len(mats) == 0 {
			return core.NewFieldError("turma_id", "a turma não possui alunos com matrícula ativa")
		}

		now := time.Now().UTC()
		charges := make([]Charge, 0, len(mats))
		for _, m := range mats {
			turmaID := turma.ID
			charges = append(charges, newCharge(m.AlunoID, m.PoloID, &turmaID, br.Titulo, br.ValorCents, vencimento, now))
		}
		if created, err = svc.Repo.CreateCharges(ctx, charges, exec); err != nil {
			return errors.Wrap(err, "creating charges")
		}

		entry := audit.NewEntry(audit.EntityBillingBatch, turma.ID, audit.ActionPublish, userID, map[string]interface{}{
			"turma_id":    turma.ID,
			"titulo":      br.Titulo,
			"valor_cents": br.ValorCents,
			"vencimento":  vencimento.String(),
			"total":       len(created),
		})
		_, err = svc.Audit.CreateEntry(ctx, entry, exec)
		return errors.Wrap(err, "recording batch")
	})
	if err != nil {
		return BatchResult{}, err
	}

	svc.Metrics.ChargesGenerated(len(created))
	svc.notify(ctx, created)
	return BatchResult{TotalGerado: len(created), Cobrancas: withOverdue(created)}, nil
}

// GenerateForStudents creates one pending charge per listed student.
func (svc *Service) GenerateForStudents(ctx context.Context, sr StudentBatchRequest, userID string) (BatchResult, error) {
	if err := sr.Validate(svc.Validate); err != nil {
		return BatchResult{}, err
	}
	vencimento := core.MustParseDate(sr.Vencimento)

	var created []Charge
	err := svc.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		alunos, err := svc.Students.GetAlunosByIDs(ctx, sr.AlunoIDs, exec)
		if err != nil {
			return errors.Wrap(err, "finding alunos")
		}
		if len(alunos) != len(sr.AlunoIDs) {
			return student.ErrNotFound
		}

		now := time.Now().UTC()
		charges := make([]Charge, 0, len(alunos))
		for _, a := range alunos {
			charges = append(charges, newCharge(a.ID, a.PoloID, a.TurmaID, sr.Titulo, sr.ValorCents, vencimento, now))
		}
		if created, err = svc.Repo.CreateCharges(ctx, charges, exec); err != nil {
			return errors.Wrap(err, "creating charges")
		}

		entry := audit.NewEntry(audit.EntityBillingBatch, "", audit.ActionPublish, userID, map[string]interface{}{
			"aluno_ids":   sr.AlunoIDs,
			"titulo":      sr.Titulo,
			"valor_cents": sr.ValorCents,
			"vencimento":  vencimento.String(),
			"total":       len(created),
		})
		_, err = svc.Audit.CreateEntry(ctx, entry, exec)
		return errors.Wrap(err, "recording batch")
	})
	if err != nil {
		return BatchResult{}, err
	}

	svc.Metrics.ChargesGenerated(len(created))
	svc.notify(ctx, created)
	return BatchResult{TotalGerado: len(created), Cobrancas: withOverdue(created)}, nil
}

type chargeEmailData struct {
	NomeAluno  string
	Titulo     string
	Valor      string
	Vencimento string
}

// notify emails the guardians of the billed students. Failures are only logged.
func (svc *Service) notify(ctx context.Context, charges []Charge) {
	if svc.MailSvc == nil || len(charges) == 0 {
		return
	}

	ids := make([]string, 0, len(charges))
	for _, c := range charges {
		ids = append(ids, c.AlunoID)
	}
	alunos, err := svc.Students.GetAlunosByIDs(ctx, ids)
	if err != nil {
		svc.Logger.Error("loading alunos for charge notifications", errors.Wrap(err, "notifying charges"))
		return
	}
	byID := make(map[string]student.Aluno, len(alunos))
	for _, a := range alunos {
		byID[a.ID] = a
	}

	var finConf *FinancialConfig
	if fc, err := svc.Repo.GetFinancialConfig(ctx); err == nil {
		finConf = &fc
	} else if errors.Cause(err) != ErrConfigNotFound {
		svc.Logger.Error("loading financial config for charge notifications", errors.Wrap(err, "notifying charges"))
	}

	msgs := make([]*core.EmailMessage, 0, len(charges))
	for _, c := range charges {
		a, ok := byID[c.AlunoID]
		if !ok || a.EmailResponsavel == "" {
			continue
		}
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: a.Nome, Address: a.EmailResponsavel}},
			Subject:      fmt.Sprintf("Nova mensalidade: %s", c.Titulo),
			TemplateName: chargeTemplate,
			TemplateData: chargeEmailData{
				NomeAluno:  a.Nome,
				Titulo:     c.Titulo,
				Valor:      FormatCents(c.ValorCents),
				Vencimento: c.Vencimento.Format("02/01/2006"),
			},
		}
		if finConf != nil {
			if err := msg.Attach(strings.NewReader(pixSlip(*finConf, c)), pixSlipFile, "text/plain; charset=utf-8"); err != nil {
				svc.Logger.Error("attaching pix slip", errors.Wrap(err, c.ID))
			}
		}
		msgs = append(msgs, msg)
	}
	svc.MailSvc.SendMessages(msgs...)
}

const pixSlipFile = "pix.txt"

// pixSlip holds what a guardian needs to pay c by PIX.
func pixSlip(conf FinancialConfig, c Charge) string {
	return fmt.Sprintf(
		"Pagamento via PIX\r\nChave: %s\r\nBeneficiário: %s - %s\r\nReferência: %s\r\nValor: %s\r\nVencimento: %s\r\n",
		conf.ChavePix, conf.BeneficiarioNome, conf.BeneficiarioCidade,
		c.Titulo, FormatCents(c.ValorCents), c.Vencimento.Format("02/01/2006"),
	)
}

// ConfirmPayment marks a pending charge as paid. Confirming a paid charge is rejected.
func (svc *Service) ConfirmPayment(ctx context.Context, id string, cp ConfirmPayment, userID string) (Charge, error) {
	if err := cp.Validate(svc.Validate); err != nil {
		return Charge{}, err
	}

	var charge Charge
	err := svc.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		c, err := svc.Repo.GetChargeForUpdate(ctx, id, exec)
		if err != nil {
			return err
		}
		switch c.Status {
		case StatusPago:
			return core.NewInvalidStateError("mensalidade já está paga")
		case StatusCancelado:
			return core.NewInvalidStateError("mensalidade cancelada não pode ser paga")
		}

		now := time.Now().UTC()
		c.Status = StatusPago
		c.PagoEm = &now
		c.UpdatedAt = now
		if cp.ComprovanteURL != "" {
			c.ComprovanteURL = &cp.ComprovanteURL
		}
		if charge, err = svc.Repo.UpdateCharge(ctx, c, exec); err != nil {
			return errors.Wrap(err, "updating charge")
		}

		entry := audit.NewEntry(audit.EntityMensalidade, charge.ID, audit.ActionConfirm, userID, map[string]interface{}{
			"comprovante_url": cp.ComprovanteURL,
		})
		_, err = svc.Audit.CreateEntry(ctx, entry, exec)
		return errors.Wrap(err, "recording payment")
	})
	if err != nil {
		return Charge{}, err
	}

	svc.Metrics.PaymentConfirmed(charge.ValorCents)
	return withOverdue([]Charge{charge})[0], nil
}

// Cancel voids a pending charge.
func (svc *Service) Cancel(ctx context.Context, id string, cr CancelRequest, userID string) (Charge, error) {
	var charge Charge
	err := svc.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		c, err := svc.Repo.GetChargeForUpdate(ctx, id, exec)
		if err != nil {
			return err
		}
		if c.Status != StatusPendente {
			return core.NewInvalidStateError("mensalidade com status %q não pode ser cancelada", c.Status)
		}

		c.Status = StatusCancelado
		c.UpdatedAt = time.Now().UTC()
		if charge, err = svc.Repo.UpdateCharge(ctx, c, exec); err != nil {
			return errors.Wrap(err, "updating charge")
		}

		entry := audit.NewEntry(audit.EntityMensalidade, charge.ID, audit.ActionCancel, userID, map[string]interface{}{
			"motivo": core.CleanString(cr.Motivo),
		})
		_, err = svc.Audit.CreateEntry(ctx, entry, exec)
		return errors.Wrap(err, "recording cancellation")
	})
	if err != nil {
		return Charge{}, err
	}
	return withOverdue([]Charge{charge})[0], nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Charge, error) {
	c, err := svc.Repo.GetCharge(ctx, id)
	if err != nil {
		return Charge{}, err
	}
	return withOverdue([]Charge{c})[0], nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Charge, error) {
	filter.Clean()
	charges, err := svc.Repo.QueryCharges(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying charges")
	}
	return withOverdue(charges), nil
}

func (svc *Service) GetFinancialConfig(ctx context.Context) (FinancialConfig, error) {
	return svc.Repo.GetFinancialConfig(ctx)
}

func (svc *Service) UpdateFinancialConfig(ctx context.Context, uc UpdateFinancialConfig) (FinancialConfig, error) {
	if err := uc.Validate(svc.Validate); err != nil {
		return FinancialConfig{}, err
	}
	conf, err := svc.Repo.SaveFinancialConfig(ctx, FinancialConfig{
		ChavePix:           uc.ChavePix,
		BeneficiarioNome:   uc.BeneficiarioNome,
		BeneficiarioCidade: uc.BeneficiarioCidade,
		UpdatedAt:          time.Now().UTC(),
	})
	return conf, errors.Wrap(err, "saving financial config")
}
