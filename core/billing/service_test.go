package billing_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	appfs "github.com/simiao2025/IBUC-System-v2-sub005/fs"
	emailsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/email"
	"github.com/simiao2025/IBUC-System-v2-sub005/storage/database/inmem"
	testutil "github.com/simiao2025/IBUC-System-v2-sub005/tests"
)

type brokenAudit struct {
	audit.Repository
}

func (brokenAudit) CreateEntry(context.Context, audit.Entry, ...core.DBExecutor) (audit.Entry, error) {
	return audit.Entry{}, errors.New("audit log unavailable")
}

type fakeMetrics struct {
	generated, confirmed, cents int
}

func (m *fakeMetrics) ChargesGenerated(n int) { m.generated += n }

func (m *fakeMetrics) PaymentConfirmed(cents int) {
	m.confirmed++
	m.cents += cents
}

type fixture struct {
	svc     *billing.Service
	repo    billing.Repository
	metrics *fakeMetrics
	mailSvc *emailsvc.ConsoleServiceMock
	turma   school.Turma
	alunos  []student.Aluno
}

func setup(t *testing.T, failAudit bool) fixture {
	conf := core.NewTestConfig()
	validate, _ := testutil.NewValidator()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(appfs.FS, conf, logger)

	store := inmem.NewStore()
	schoolRepo := inmem.NewSchoolRepository(store)
	studentRepo := inmem.NewStudentRepository(store)
	enrollRepo := inmem.NewEnrollmentRepository(store)
	var auditRepo audit.Repository = inmem.NewAuditRepository(store)
	if failAudit {
		auditRepo = brokenAudit{auditRepo}
	}

	f := fixture{
		repo:    inmem.NewBillingRepository(store),
		metrics: new(fakeMetrics),
		mailSvc: emailsvc.NewConsoleServiceMock(conf),
	}
	f.svc = billing.NewService(billing.Deps{
		Repo:        f.repo,
		Turmas:      schoolRepo,
		Enrollments: enrollRepo,
		Students:    studentRepo,
		Audit:       auditRepo,
		Tx:          store,
		Validate:    validate,
		MailSvc:     f.mailSvc,
		Logger:      logger,
		Metrics:     f.metrics,
	})

	polo := testutil.CreatePolo(t, schoolRepo, "Polo Centro", "CEN", true)
	f.turma = testutil.CreateTurma(t, schoolRepo, "Turma A", polo.ID)
	for _, cpf := range []string{"11111111111", "22222222222"} {
		a := testutil.CreateAluno(t, studentRepo, "Aluno "+cpf[:1], cpf, polo.ID, &f.turma.ID)
		testutil.Enroll(t, enrollRepo, a, f.turma, enrollment.MatriculaAtiva)
		f.alunos = append(f.alunos, a)
	}
	return f
}

func batch(turmaID string) billing.BatchRequest {
	return billing.BatchRequest{TurmaID: turmaID, Titulo: "Mensalidade Abril", ValorCents: 8000, Vencimento: "2030-04-10"}
}

func TestService_GenerateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("all or nothing", func(t *testing.T) {
		f := setup(t, true)

		_, err := f.svc.GenerateBatch(ctx, batch(f.turma.ID), "staff")
		require.Error(t, err)

		charges, err := f.repo.QueryCharges(ctx, billing.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, charges)
		assert.Zero(t, f.metrics.generated)
		assert.Empty(t, f.mailSvc.SentMessages())
	})

	t.Run("unknown class", func(t *testing.T) {
		f := setup(t, false)
		_, err := f.svc.GenerateBatch(ctx, batch(uuid.NewString()), "staff")
		assert.Equal(t, school.ErrTurmaNotFound, err)
	})

	t.Run("generated", func(t *testing.T) {
		f := setup(t, false)

		res, err := f.svc.GenerateBatch(ctx, batch(f.turma.ID), "staff")
		require.NoError(t, err)
		assert.Equal(t, 2, res.TotalGerado)
		assert.Equal(t, 2, f.metrics.generated)
		sent := f.mailSvc.SentMessages()
		require.Len(t, sent, 2)
		assert.False(t, sent[0].HasAttachments())

		for _, c := range res.Cobrancas {
			assert.Equal(t, billing.StatusPendente, c.Status)
			assert.Equal(t, core.NewDate(2030, time.April, 10), c.Vencimento)
			require.NotNil(t, c.TurmaID)
			assert.Equal(t, f.turma.ID, *c.TurmaID)
		}
	})
}

func TestService_GenerateBatch_pixSlip(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	_, err := f.svc.UpdateFinancialConfig(ctx, billing.UpdateFinancialConfig{
		ChavePix:           "financeiro@ibuc.org",
		BeneficiarioNome:   "IBUC",
		BeneficiarioCidade: "Palmas",
	})
	require.NoError(t, err)

	_, err = f.svc.GenerateBatch(ctx, batch(f.turma.ID), "staff")
	require.NoError(t, err)

	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 2)
	for _, msg := range sent {
		require.Len(t, msg.Attachments, 1)
		at := msg.Attachments[0]
		assert.Equal(t, "pix.txt", at.Filename)
		assert.Equal(t, "text/plain; charset=utf-8", at.ContentType)

		slip, err := base64.StdEncoding.DecodeString(at.Content.String())
		require.NoError(t, err)
		assert.Contains(t, string(slip), "Chave: financeiro@ibuc.org")
		assert.Contains(t, string(slip), "Beneficiário: IBUC - Palmas")
		assert.Contains(t, string(slip), "Referência: Mensalidade Abril")
		assert.Contains(t, string(slip), "Vencimento: 10/04/2030")
	}
}

func TestService_GenerateForStudents(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	res, err := f.svc.GenerateForStudents(ctx, billing.StudentBatchRequest{
		AlunoIDs:   []string{f.alunos[0].ID, " " + f.alunos[0].ID + " "},
		Titulo:     "Material",
		ValorCents: 2500,
		Vencimento: "2030-02-01",
	}, "staff")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalGerado)
	assert.Equal(t, f.alunos[0].ID, res.Cobrancas[0].AlunoID)

	_, err = f.svc.GenerateForStudents(ctx, billing.StudentBatchRequest{
		AlunoIDs:   []string{f.alunos[1].ID, uuid.NewString()},
		Titulo:     "Material",
		ValorCents: 2500,
		Vencimento: "2030-02-01",
	}, "staff")
	assert.Equal(t, student.ErrNotFound, err)
	assert.Equal(t, 1, f.metrics.generated)
}

func TestService_ConfirmAndCancel(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	res, err := f.svc.GenerateBatch(ctx, batch(f.turma.ID), "staff")
	require.NoError(t, err)
	first, second := res.Cobrancas[0], res.Cobrancas[1]

	paid, err := f.svc.ConfirmPayment(ctx, first.ID, billing.ConfirmPayment{}, "staff")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPago, paid.Status)
	assert.NotNil(t, paid.PagoEm)
	assert.Nil(t, paid.ComprovanteURL)
	assert.Equal(t, 1, f.metrics.confirmed)
	assert.Equal(t, 8000, f.metrics.cents)

	_, err = f.svc.ConfirmPayment(ctx, first.ID, billing.ConfirmPayment{}, "staff")
	assert.True(t, core.IsInvalidState(err))
	_, err = f.svc.Cancel(ctx, first.ID, billing.CancelRequest{}, "staff")
	assert.True(t, core.IsInvalidState(err))
	assert.Equal(t, 1, f.metrics.confirmed)

	cancelled, err := f.svc.Cancel(ctx, second.ID, billing.CancelRequest{Motivo: "bolsa"}, "staff")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelado, cancelled.Status)

	_, err = f.svc.ConfirmPayment(ctx, second.ID, billing.ConfirmPayment{}, "staff")
	assert.True(t, core.IsInvalidState(err))

	_, err = f.svc.ConfirmPayment(ctx, uuid.NewString(), billing.ConfirmPayment{}, "staff")
	assert.Equal(t, billing.ErrChargeNotFound, err)
}

func TestService_FinancialConfig(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	_, err := f.svc.GetFinancialConfig(ctx)
	assert.Equal(t, billing.ErrConfigNotFound, err)

	saved, err := f.svc.UpdateFinancialConfig(ctx, billing.UpdateFinancialConfig{
		ChavePix:           " financeiro@ibuc.org ",
		BeneficiarioNome:   "IBUC",
		BeneficiarioCidade: "Palmas",
	})
	require.NoError(t, err)
	assert.Equal(t, "financeiro@ibuc.org", saved.ChavePix)

	got, err := f.svc.GetFinancialConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}
