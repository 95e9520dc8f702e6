package enrollment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	"github.com/simiao2025/IBUC-System-v2-sub005/storage/database/inmem"
	"github.com/simiao2025/IBUC-System-v2-sub005/tests"
)

// brokenAudit fails every write.
type brokenAudit struct {
	audit.Repository
}

func (brokenAudit) CreateEntry(context.Context, audit.Entry, ...core.DBExecutor) (audit.Entry, error) {
	return audit.Entry{}, errors.New("audit log unavailable")
}

type fixture struct {
	svc         *enrollment.Service
	store       *inmem.Store
	repo        enrollment.Repository
	schoolRepo  school.Repository
	studentRepo student.Repository
	auditRepo   audit.Repository
	polo        school.Polo
	turma       school.Turma
}

func setup(t *testing.T, failAudit bool) fixture {
	validate, _ := testutil.NewValidator()

	f := fixture{store: inmem.NewStore()}
	f.repo = inmem.NewEnrollmentRepository(f.store)
	f.schoolRepo = inmem.NewSchoolRepository(f.store)
	f.studentRepo = inmem.NewStudentRepository(f.store)
	f.auditRepo = inmem.NewAuditRepository(f.store)

	var auditRepo audit.Repository = f.auditRepo
	if failAudit {
		auditRepo = brokenAudit{f.auditRepo}
	}
	f.svc = enrollment.NewService(f.repo, f.schoolRepo, f.studentRepo, auditRepo, f.store, validate)

	f.polo = testutil.CreatePolo(t, f.schoolRepo, "Polo Centro", "CEN", true)
	f.turma = testutil.CreateTurma(t, f.schoolRepo, "Turma A", f.polo.ID)
	return f
}

func TestService_CreatePreMatricula(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	t.Run("normalized", func(t *testing.T) {
		pm, err := f.svc.CreatePreMatricula(ctx, enrollment.NewPreMatricula{
			NomeCompleto:        "  Lucas Silva ",
			CPF:                 "123.456.789-01",
			DataNascimento:      "2014-05-20",
			EmailResponsavel:    "Pais@Mail.com",
			TelefoneResponsavel: "(63) 99999-0000",
			PoloID:              f.polo.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Lucas Silva", pm.NomeCompleto)
		assert.Equal(t, "12345678901", pm.CPF)
		assert.Equal(t, "63999990000", pm.TelefoneResponsavel)
		assert.Equal(t, "pais@mail.com", pm.EmailResponsavel)
		assert.Equal(t, "2014-05-20", pm.DataNascimento.String())
		assert.Equal(t, enrollment.StatusEmAnalise, pm.Status)
	})

	t.Run("unknown polo", func(t *testing.T) {
		_, err := f.svc.CreatePreMatricula(ctx, enrollment.NewPreMatricula{
			NomeCompleto:        "Lucas Silva",
			CPF:                 "12345678901",
			DataNascimento:      "2014-05-20",
			EmailResponsavel:    "pais@mail.com",
			TelefoneResponsavel: "63999990000",
			PoloID:              uuid.NewString(),
		})
		require.Error(t, err)
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("impossible birth date", func(t *testing.T) {
		_, err := f.svc.CreatePreMatricula(ctx, enrollment.NewPreMatricula{
			NomeCompleto:        "Lucas Silva",
			CPF:                 "12345678901",
			DataNascimento:      "2014-02-30",
			EmailResponsavel:    "pais@mail.com",
			TelefoneResponsavel: "63999990000",
			PoloID:              f.polo.ID,
		})
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	})
}

func TestService_UpdateStatus(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	pm := testutil.CreatePreMatricula(t, f.repo, "Lucas", "12345678901", f.polo.ID, enrollment.StatusConcluido)

	// no transition graph: any known status may follow any other
	got, err := f.svc.UpdateStatus(ctx, pm.ID, enrollment.StatusUpdate{Status: enrollment.StatusEmAnalise}, "staff")
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusEmAnalise, got.Status)
	assert.True(t, got.UpdatedAt.After(pm.UpdatedAt) || got.UpdatedAt.Equal(pm.UpdatedAt))

	_, err = f.svc.UpdateStatus(ctx, pm.ID, enrollment.StatusUpdate{Status: "aprovado"}, "staff")
	assert.True(t, core.IsValidation(err))
	stored, err := f.repo.GetPreMatricula(ctx, pm.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusEmAnalise, stored.Status)

	_, err = f.svc.UpdateStatus(ctx, uuid.NewString(), enrollment.StatusUpdate{Status: enrollment.StatusAtivo}, "staff")
	assert.Equal(t, enrollment.ErrPreMatriculaNotFound, err)

	entries, err := f.auditRepo.QueryEntries(ctx, audit.QueryFilter{EntityID: pm.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enrollment.StatusConcluido, entries[0].Payload["de"])
	assert.Equal(t, enrollment.StatusEmAnalise, entries[0].Payload["para"])
}

func TestService_Conclude(t *testing.T) {
	ctx := context.Background()

	t.Run("creates student and enrollment", func(t *testing.T) {
		f := setup(t, false)
		pm := testutil.CreatePreMatricula(t, f.repo, "Lucas", "12345678901", f.polo.ID, enrollment.StatusAtivo)

		res, err := f.svc.Conclude(ctx, pm.ID, enrollment.ConcludeRequest{TurmaID: f.turma.ID}, "staff-id")
		require.NoError(t, err)

		assert.Equal(t, enrollment.StatusConcluido, res.PreMatricula.Status)
		assert.Equal(t, "Lucas", res.Aluno.Nome)
		assert.Equal(t, pm.CPF, res.Aluno.CPF)
		assert.Equal(t, pm.EmailResponsavel, res.Aluno.EmailResponsavel)
		require.NotNil(t, res.Aluno.TurmaID)
		assert.Equal(t, f.turma.ID, *res.Aluno.TurmaID)
		assert.Equal(t, enrollment.MatriculaAtiva, res.Matricula.Status)
		assert.Equal(t, enrollment.OrigemSite, res.Matricula.Origem)
		require.NotNil(t, res.Matricula.ApprovedBy)
		assert.Equal(t, "staff-id", *res.Matricula.ApprovedBy)
		assert.NotNil(t, res.Matricula.ApprovedAt)
	})

	t.Run("reuses student with same cpf", func(t *testing.T) {
		f := setup(t, false)
		aluno := testutil.CreateAluno(t, f.studentRepo, "Lucas S.", "12345678901", f.polo.ID, nil)
		pm := testutil.CreatePreMatricula(t, f.repo, "Lucas Silva", "12345678901", f.polo.ID, enrollment.StatusEmAnalise)

		res, err := f.svc.Conclude(ctx, pm.ID, enrollment.ConcludeRequest{TurmaID: f.turma.ID}, "")
		require.NoError(t, err)
		assert.Equal(t, aluno.ID, res.Aluno.ID)
		assert.Equal(t, "Lucas S.", res.Aluno.Nome)
		assert.Nil(t, res.Matricula.ApprovedBy)

		alunos, err := f.studentRepo.QueryAlunos(ctx, student.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, alunos, 1)
	})

	t.Run("not concludable", func(t *testing.T) {
		f := setup(t, false)
		for i, status := range []string{enrollment.StatusTrancado, enrollment.StatusConcluido} {
			cpf := []string{"11111111111", "22222222222"}[i]
			pm := testutil.CreatePreMatricula(t, f.repo, "Lucas", cpf, f.polo.ID, status)
			_, err := f.svc.Conclude(ctx, pm.ID, enrollment.ConcludeRequest{TurmaID: f.turma.ID}, "")
			assert.True(t, core.IsInvalidState(err), status)
		}
	})

	t.Run("class of another polo", func(t *testing.T) {
		f := setup(t, false)
		other := testutil.CreatePolo(t, f.schoolRepo, "Polo Sul", "SUL", true)
		turma := testutil.CreateTurma(t, f.schoolRepo, "Turma Sul", other.ID)
		pm := testutil.CreatePreMatricula(t, f.repo, "Lucas", "12345678901", f.polo.ID, enrollment.StatusAtivo)

		_, err := f.svc.Conclude(ctx, pm.ID, enrollment.ConcludeRequest{TurmaID: turma.ID}, "")
		require.Error(t, err)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "turma_id", vErr.Fields[0].Field)
	})

	t.Run("rolled back when the audit write fails", func(t *testing.T) {
		f := setup(t, true)
		pm := testutil.CreatePreMatricula(t, f.repo, "Lucas", "12345678901", f.polo.ID, enrollment.StatusAtivo)

		_, err := f.svc.Conclude(ctx, pm.ID, enrollment.ConcludeRequest{TurmaID: f.turma.ID}, "")
		require.Error(t, err)

		got, err := f.repo.GetPreMatricula(ctx, pm.ID)
		require.NoError(t, err)
		assert.Equal(t, enrollment.StatusAtivo, got.Status)

		_, err = f.studentRepo.GetAlunoByCPF(ctx, pm.CPF)
		assert.Equal(t, student.ErrNotFound, err)

		mats, err := f.repo.QueryMatriculas(ctx, enrollment.MatriculaFilter{})
		require.NoError(t, err)
		assert.Empty(t, mats)
	})
}
