package tests

import (
	"net/http"
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
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	"github.com/simiao2025/IBUC-System-v2-sub005/tests"
)

// gatherCounter reads the current value of a counter from the metrics registry.
func gatherCounter(t *testing.T, name string) float64 {
	mfs, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

type billingFixture struct {
	polo   school.Polo
	turma  school.Turma
	alunos []student.Aluno
	token  string
	staff  user.User
}

// newBillingFixture enrolls two active students and one cancelled student in a class.
func newBillingFixture(t *testing.T) billingFixture {
	reset()

	f := billingFixture{}
	f.polo = testutil.CreatePolo(t, schoolRepo, "Centro", "CEN", true)
	f.turma = testutil.CreateTurma(t, schoolRepo, "Turma A", f.polo.ID)
	for i, cpf := range []string{"11111111111", "22222222222", "33333333333"} {
		a := testutil.CreateAluno(t, studentRepo, []string{"Ana", "Bia", "Caio"}[i], cpf, f.polo.ID, &f.turma.ID)
		status := enrollment.MatriculaAtiva
		if i == 2 {
			status = enrollment.MatriculaCancelada
		}
		testutil.Enroll(t, enrollRepo, a, f.turma, status)
		f.alunos = append(f.alunos, a)
	}
	f.staff = createStaff(t, user.RoleSecretarioPolo)
	f.token = getToken(t, f.staff)
	return f
}

func (f billingFixture) charge(t *testing.T, alunoIdx int, status string, vencimento core.Date) billing.Charge {
	now := time.Now().UTC()
	a := f.alunos[alunoIdx]
	charges, err := billingRepo.CreateCharges(ctxb(), []billing.Charge{{
		AlunoID:    a.ID,
		PoloID:     a.PoloID,
		TurmaID:    a.TurmaID,
		Titulo:     "Mensalidade",
		ValorCents: 5000,
		Vencimento: vencimento,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}})
	require.NoError(t, err)
	return charges[0]
}

func Test_billingApi_generateBatch(t *testing.T) {
	f := newBillingFixture(t)
	body := func(turmaID string, valor int, vencimento string) []byte {
		return marshallObj(t, billing.BatchRequest{TurmaID: turmaID, Titulo: "Mensalidade Março", ValorCents: valor, Vencimento: vencimento})
	}

	emptyTurma := testutil.CreateTurma(t, schoolRepo, "Turma Vazia", f.polo.ID)

	tests := []httpTest{
		{name: "Auth required", body: body(f.turma.ID, 5000, "2030-03-10"), wantCode: http.StatusUnauthorized},
		{name: "zero amount", token: f.token, body: body(f.turma.ID, 0, "2030-03-10"), wantCode: http.StatusBadRequest},
		{
			name: "impossible date", token: f.token, body: body(f.turma.ID, 5000, "2030-02-30"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"vencimento": "vencimento deve ser uma data válida no formato AAAA-MM-DD"}),
		},
		{
			name: "unknown turma", token: f.token, body: body(uuid.NewString(), 5000, "2030-03-10"), wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "turma não encontrado(a)"}),
		},
		{
			name: "no active students", token: f.token, body: body(emptyTurma.ID, 5000, "2030-03-10"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"turma_id": "a turma não possui alunos com matrícula ativa"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/mensalidades/lote"
	}
	runHttpTests(t, tests)

	t.Run("negative amount", func(t *testing.T) {
		rec := serve(http.MethodPost, "/mensalidades/lote", f.token, body(f.turma.ID, -100, "2030-03-10"))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var fields map[string]string
		unmarshall(t, rec, &fields)
		assert.Contains(t, fields, "valor_cents")
	})

	// failed requests persist nothing
	charges, err := billingRepo.QueryCharges(ctxb(), billing.QueryFilter{})
	require.NoError(t, err)
	require.Empty(t, charges)
	require.Empty(t, mailSvc.SentMessages())

	t.Run("generated", func(t *testing.T) {
		before := gatherCounter(t, "ibuc_billing_charges_generated_total")

		rec := serve(http.MethodPost, "/mensalidades/lote", f.token, body(f.turma.ID, 12050, "2030-03-10"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res billing.BatchResult
		unmarshall(t, rec, &res)
		require.Equal(t, 2, res.TotalGerado)
		require.Len(t, res.Cobrancas, 2)

		ids := make([]string, 0, 2)
		for _, c := range res.Cobrancas {
			ids = append(ids, c.AlunoID)
			assert.Equal(t, billing.StatusPendente, c.Status)
			assert.Equal(t, 12050, c.ValorCents)
			assert.Equal(t, "2030-03-10", c.Vencimento.String())
			assert.Equal(t, f.polo.ID, c.PoloID)
			assert.False(t, c.Vencida)
		}
		// the cancelled enrollment is not billed
		assert.ElementsMatch(t, []string{f.alunos[0].ID, f.alunos[1].ID}, ids)

		assert.Equal(t, before+2, gatherCounter(t, "ibuc_billing_charges_generated_total"))

		sent := mailSvc.SentMessages()
		require.Len(t, sent, 2)
		for _, msg := range sent {
			assert.Contains(t, msg.Subject, "Mensalidade Março")
			assert.Contains(t, msg.TextContent, "R$ 120,50")
			assert.Contains(t, msg.TextContent, "10/03/2030")
		}

		entries, err := auditRepo.QueryEntries(ctxb(), audit.QueryFilter{Entity: audit.EntityBillingBatch})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionPublish, entries[0].Action)
		assert.Equal(t, f.staff.ID, entries[0].UserID)
	})

	t.Run("past due date is accepted", func(t *testing.T) {
		rec := serve(http.MethodPost, "/mensalidades/lote", f.token, body(f.turma.ID, 5000, "2020-01-10"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var res billing.BatchResult
		unmarshall(t, rec, &res)
		for _, c := range res.Cobrancas {
			assert.True(t, c.Vencida)
		}
	})
}

func Test_billingApi_generateForStudents(t *testing.T) {
	f := newBillingFixture(t)
	body := func(ids ...string) []byte {
		return marshallObj(t, billing.StudentBatchRequest{AlunoIDs: ids, Titulo: "Material", ValorCents: 3000, Vencimento: "2030-04-05"})
	}

	tests := []httpTest{
		{name: "no students", token: f.token, body: body(), wantCode: http.StatusBadRequest},
		{name: "unknown student", token: f.token, body: body(f.alunos[0].ID, uuid.NewString()), wantCode: http.StatusNotFound},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/mensalidades/lote-alunos"
	}
	runHttpTests(t, tests)

	t.Run("generated (duplicates ignored)", func(t *testing.T) {
		rec := serve(http.MethodPost, "/mensalidades/lote-alunos", f.token, body(f.alunos[2].ID, f.alunos[2].ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var res billing.BatchResult
		unmarshall(t, rec, &res)
		require.Equal(t, 1, res.TotalGerado)
		assert.Equal(t, f.alunos[2].ID, res.Cobrancas[0].AlunoID)
	})
}

func Test_billingApi_confirmAndCancel(t *testing.T) {
	f := newBillingFixture(t)
	future := core.NewDate(2030, time.May, 10)

	pending := f.charge(t, 0, billing.StatusPendente, future)
	paid := f.charge(t, 1, billing.StatusPago, future)
	cancelled := f.charge(t, 0, billing.StatusCancelado, future)
	toCancel := f.charge(t, 1, billing.StatusPendente, future)

	confirm := func(id string) string { return "/mensalidades/" + id + "/confirmar" }
	cancel := func(id string) string { return "/mensalidades/" + id + "/cancelar" }
	proof := []byte(`{"comprovante_url":"https://files.ibuc.org/pix/123.pdf"}`)

	tests := []httpTest{
		{name: "confirm: Auth required", path: confirm(pending.ID), wantCode: http.StatusUnauthorized},
		{name: "confirm: unknown", path: confirm(uuid.NewString()), token: f.token, wantCode: http.StatusNotFound},
		{name: "confirm: invalid url", path: confirm(pending.ID), token: f.token, body: []byte(`{"comprovante_url":"lol"}`), wantCode: http.StatusBadRequest},
		{
			name: "confirm: already paid", path: confirm(paid.ID), token: f.token, wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: "mensalidade já está paga"}),
		},
		{name: "confirm: cancelled", path: confirm(cancelled.ID), token: f.token, wantCode: http.StatusConflict},
		{name: "cancel: paid", path: cancel(paid.ID), token: f.token, wantCode: http.StatusConflict},
		{name: "cancel: cancelled", path: cancel(cancelled.ID), token: f.token, wantCode: http.StatusConflict},
		{name: "cancel: unknown", path: cancel(uuid.NewString()), token: f.token, wantCode: http.StatusNotFound},
	}
	for i := range tests {
		tests[i].method = http.MethodPatch
		if tests[i].body == nil {
			tests[i].body = []byte(`{}`)
		}
	}
	runHttpTests(t, tests)

	t.Run("confirmed", func(t *testing.T) {
		before := gatherCounter(t, "ibuc_billing_payments_confirmed_cents_total")

		rec := serve(http.MethodPatch, confirm(pending.ID), f.token, proof)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var c billing.Charge
		unmarshall(t, rec, &c)
		assert.Equal(t, billing.StatusPago, c.Status)
		require.NotNil(t, c.PagoEm)
		require.NotNil(t, c.ComprovanteURL)
		assert.Equal(t, "https://files.ibuc.org/pix/123.pdf", *c.ComprovanteURL)
		assert.Equal(t, before+5000, gatherCounter(t, "ibuc_billing_payments_confirmed_cents_total"))

		// second confirmation is rejected
		rec = serve(http.MethodPatch, confirm(pending.ID), f.token, proof)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("cancelled", func(t *testing.T) {
		rec := serve(http.MethodPatch, cancel(toCancel.ID), f.token, []byte(`{"motivo":"bolsa integral"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var c billing.Charge
		unmarshall(t, rec, &c)
		assert.Equal(t, billing.StatusCancelado, c.Status)

		entries, err := auditRepo.QueryEntries(ctxb(), audit.QueryFilter{Entity: audit.EntityMensalidade, EntityID: toCancel.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionCancel, entries[0].Action)
		assert.Equal(t, "bolsa integral", entries[0].Payload["motivo"])
	})
}

func Test_billingApi_query(t *testing.T) {
	f := newBillingFixture(t)

	older := f.charge(t, 0, billing.StatusPendente, core.NewDate(2020, time.January, 10))
	newer := f.charge(t, 1, billing.StatusPago, core.NewDate(2030, time.January, 10))
	older.Vencida = true

	tests := []httpTest{
		{name: "Auth required", path: "/mensalidades", wantCode: http.StatusUnauthorized},
		{name: "all (latest due first)", path: "/mensalidades", token: f.token, wantData: marshallList(t, newer, older)},
		{name: "by aluno", path: "/mensalidades?aluno_id=" + f.alunos[0].ID, token: f.token, wantData: marshallList(t, older)},
		{name: "by status", path: "/mensalidades?status=pago", token: f.token, wantData: marshallList(t, newer)},
		{name: "by turma", path: "/mensalidades?turma_id=" + uuid.NewString(), token: f.token, wantData: marshallList(t)},
		{name: "by id", path: "/mensalidades/" + older.ID, token: f.token, wantData: marshallObj(t, older)},
		{
			name: "unknown id", path: "/mensalidades/" + uuid.NewString(), token: f.token, wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "mensalidade não encontrado(a)"}),
		},
	}
	runHttpTests(t, tests)
}

func Test_billingApi_financialConfig(t *testing.T) {
	f := newBillingFixture(t)
	admin := adminToken(t)
	data := billing.UpdateFinancialConfig{ChavePix: "financeiro@ibuc.org", BeneficiarioNome: "IBUC", BeneficiarioCidade: "Palmas"}

	tests := []httpTest{
		{
			name: "not configured yet", path: "/configuracoes-financeiras", token: f.token, wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "configuração financeira não encontrado(a)"}),
		},
		{
			name: "update: admin required", method: http.MethodPut, path: "/configuracoes-financeiras", token: f.token,
			body: marshallObj(t, data), wantCode: http.StatusForbidden,
		},
		{
			name: "update: blank fields", method: http.MethodPut, path: "/configuracoes-financeiras", token: admin,
			body: []byte(`{"chave_pix":"  ","beneficiario_nome":"IBUC"}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"chave_pix": "este campo é obrigatório", "beneficiario_cidade": "este campo é obrigatório"}),
		},
	}
	runHttpTests(t, tests)

	t.Run("updated", func(t *testing.T) {
		rec := serve(http.MethodPut, "/configuracoes-financeiras", admin, marshallObj(t, data))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = serve(http.MethodGet, "/configuracoes-financeiras", f.token)
		require.Equal(t, http.StatusOK, rec.Code)
		var got billing.FinancialConfig
		unmarshall(t, rec, &got)
		assert.Equal(t, data.ChavePix, got.ChavePix)
		assert.Equal(t, data.BeneficiarioNome, got.BeneficiarioNome)
		assert.Equal(t, data.BeneficiarioCidade, got.BeneficiarioCidade)
		assert.False(t, got.UpdatedAt.IsZero())
	})
}
