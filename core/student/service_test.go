package student_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	"github.com/simiao2025/IBUC-System-v2-sub005/storage/database/inmem"
	"github.com/simiao2025/IBUC-System-v2-sub005/tests"
)

type brokenAudit struct {
	audit.Repository
}

func (brokenAudit) CreateEntry(context.Context, audit.Entry, ...core.DBExecutor) (audit.Entry, error) {
	return audit.Entry{}, errors.New("audit log unavailable")
}

func TestService_Transfer(t *testing.T) {
	ctx := context.Background()
	validate, _ := testutil.NewValidator()

	store := inmem.NewStore()
	schoolRepo := inmem.NewSchoolRepository(store)
	studentRepo := inmem.NewStudentRepository(store)
	auditRepo := inmem.NewAuditRepository(store)
	svc := student.NewService(studentRepo, schoolRepo, auditRepo, store, validate)

	origem := testutil.CreatePolo(t, schoolRepo, "Polo Norte", "NOR", true)
	destino := testutil.CreatePolo(t, schoolRepo, "Polo Sul", "SUL", true)
	turma := testutil.CreateTurma(t, schoolRepo, "Turma Norte", origem.ID)
	aluno := testutil.CreateAluno(t, studentRepo, "Ana", "11111111111", origem.ID, &turma.ID)

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Transfer(ctx, aluno.ID, student.TransferRequest{PoloDestinoID: destino.ID, Motivo: "   "}, "staff")
		assert.True(t, core.IsValidation(err))
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.Transfer(ctx, uuid.NewString(), student.TransferRequest{PoloDestinoID: destino.ID, Motivo: "mudança"}, "staff")
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("same polo", func(t *testing.T) {
		_, err := svc.Transfer(ctx, aluno.ID, student.TransferRequest{PoloDestinoID: origem.ID, Motivo: "mudança"}, "staff")
		assert.True(t, core.IsValidation(err))
	})

	t.Run("rolled back when the audit write fails", func(t *testing.T) {
		broken := student.NewService(studentRepo, schoolRepo, brokenAudit{auditRepo}, store, validate)
		_, err := broken.Transfer(ctx, aluno.ID, student.TransferRequest{PoloDestinoID: destino.ID, Motivo: "mudança"}, "staff")
		require.Error(t, err)

		got, err := studentRepo.GetAluno(ctx, aluno.ID)
		require.NoError(t, err)
		assert.Equal(t, origem.ID, got.PoloID)
	})

	t.Run("transferred", func(t *testing.T) {
		res, err := svc.Transfer(ctx, aluno.ID, student.TransferRequest{
			PoloDestinoID: destino.ID,
			Motivo:        " mudança de cidade ",
			Observacoes:   "família mudou para o sul",
		}, "staff")
		require.NoError(t, err)

		assert.Equal(t, "Aluno transferido com sucesso", res.Message)
		assert.Equal(t, destino.ID, res.Aluno.PoloID)
		assert.Equal(t, destino.ID, res.PoloDestino.ID)

		// only the polo changes
		require.NotNil(t, res.Aluno.TurmaID)
		assert.Equal(t, turma.ID, *res.Aluno.TurmaID)
		assert.Equal(t, aluno.Status, res.Aluno.Status)
		assert.Equal(t, aluno.Nome, res.Aluno.Nome)

		entries, err := auditRepo.QueryEntries(ctx, audit.QueryFilter{Entity: audit.EntityAluno, EntityID: aluno.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionTransfer, entries[0].Action)
		assert.Equal(t, "staff", entries[0].UserID)
		assert.Equal(t, map[string]interface{}{
			"polo_origem_id":  origem.ID,
			"polo_destino_id": destino.ID,
			"motivo":          "mudança de cidade",
			"observacoes":     "família mudou para o sul",
		}, entries[0].Payload)
	})
}
