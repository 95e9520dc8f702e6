package boiledrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/report"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

func newMock(t *testing.T) (core.DBExecutor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var userCols = []string{"id", "nome", "email", "polo_id", "roles", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create with duplicate email", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usuarios (" + userColumns + ")")).
			WillReturnError(&pq.Error{Code: pqUniqueViolation})

		_, err := NewUserRepository(db).CreateUser(ctx, user.User{Nome: "Ana", Email: "ana@ibuc.org"})
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("create defaults", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usuarios")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		usr, err := NewUserRepository(db).CreateUser(ctx, user.User{Nome: "Ana", Email: "ana@ibuc.org"})
		require.NoError(t, err)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, []string{}, usr.Roles)
		assert.True(t, usr.Active())
		assert.Nil(t, usr.PoloID)
	})

	t.Run("get by email", func(t *testing.T) {
		db, mock := newMock(t)
		id, poloID := uuid.NewString(), uuid.NewString()
		now := time.Now().UTC()
		mock.ExpectQuery(regexp.QuoteMeta("FROM usuarios WHERE email = $1")).
			WithArgs("ana@ibuc.org").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(id, "Ana", "ana@ibuc.org", poloID, "{secretario_polo,professor}", false, []byte("hash"), now, now, nil))

		usr, err := NewUserRepository(db).GetUser(ctx, user.GetFilter{Email: "ana@ibuc.org"})
		require.NoError(t, err)
		assert.Equal(t, id, usr.ID)
		require.NotNil(t, usr.PoloID)
		assert.Equal(t, poloID, *usr.PoloID)
		assert.Equal(t, []string{user.RoleSecretarioPolo, user.RoleProfessor}, usr.Roles)
		assert.False(t, usr.Active())
		assert.True(t, usr.LastLogin.IsZero())
	})

	t.Run("get unknown", func(t *testing.T) {
		db, mock := newMock(t)
		id := uuid.NewString()
		mock.ExpectQuery(regexp.QuoteMeta("FROM usuarios WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(userCols))

		repo := NewUserRepository(db)
		_, err := repo.GetUser(ctx, user.GetFilter{ID: id})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{ID: "1"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("query builds filters and ordering", func(t *testing.T) {
		db, mock := newMock(t)
		active := true
		mock.ExpectQuery(regexp.QuoteMeta(
			"FROM usuarios WHERE (nome ILIKE $1 OR email ILIKE $1) AND roles && $2 AND is_active = $3 " +
				"ORDER BY nome ASC NULLS LAST")).
			WithArgs("%ana%", pq.StringArray{user.RoleProfessor}, true).
			WillReturnRows(sqlmock.NewRows(userCols))

		users, err := NewUserRepository(db).QueryUsers(ctx,
			user.QueryFilter{Search: "ana", Roles: []string{user.RoleProfessor}, IsActive: &active},
			[]core.DBOrdering{{Field: "nome", Ascending: true}, {Field: "password_hash"}})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("email uniqueness", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("ana@ibuc.org", pq.StringArray{}).
			WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(true))

		err := NewUserRepository(db).CheckEmailUniqueness(ctx, "ana@ibuc.org", nil)
		assert.Equal(t, user.ErrEmailExists, err)
	})
}

func TestReportRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("site stats for a period", func(t *testing.T) {
		db, mock := newMock(t)
		poloID := uuid.NewString()
		mock.ExpectQuery(regexp.QuoteMeta("FROM polos p")).
			WithArgs("2024-01-01", "2024-01-31").
			WillReturnRows(sqlmock.NewRows([]string{
				"polo_id", "polo_nome", "polo_codigo", "total_alunos", "total_matriculas",
				"total_professores", "pendentes_cents", "pagas_cents",
			}).AddRow(poloID, "Polo Centro", "CEN", 10, 4, 2, 16000, 8000))

		stats, err := NewReportRepository(db).SiteStats(ctx, report.Period{
			Inicio: core.NewDate(2024, time.January, 1),
			Fim:    core.NewDate(2024, time.January, 31),
		})
		require.NoError(t, err)
		assert.Equal(t, []report.SiteStats{{
			PoloID: poloID, PoloNome: "Polo Centro", PoloCodigo: "CEN",
			TotalAlunos: 10, TotalMatriculas: 4, TotalProfessores: 2,
			MensalidadesPendentesCents: 16000, MensalidadesPagasCents: 8000,
		}}, stats)
	})

	t.Run("overdue charges", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE c.status = 'pendente' AND c.vencimento < $1::date")).
			WithArgs("2024-03-10", "").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "titulo", "valor_cents", "vencimento", "aluno_id", "aluno_nome", "polo_id", "polo_nome",
			}).AddRow("c1", "Fevereiro", 8000, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), "a1", "Ana", "p1", "Polo Centro"))

		charges, err := NewReportRepository(db).OverdueCharges(ctx, "", core.NewDate(2024, time.March, 10))
		require.NoError(t, err)
		require.Len(t, charges, 1)
		assert.Equal(t, core.NewDate(2024, time.February, 10), charges[0].Vencimento)
		assert.Equal(t, "Ana", charges[0].AlunoNome)
	})
}
