package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

func createModulo(t *testing.T, token string, numero int, titulo string, active bool) curriculum.Modulo {
	body := marshallObj(t, curriculum.NewModulo{Numero: numero, Titulo: titulo, CargaHoraria: 20, IsActiveCycle: active})
	rec := serve(http.MethodPost, "/modulos", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m curriculum.Modulo
	unmarshall(t, rec, &m)
	return m
}

func createLicao(t *testing.T, token string, nl curriculum.NewLicao) curriculum.Licao {
	rec := serve(http.MethodPost, "/licoes", token, marshallObj(t, nl))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var l curriculum.Licao
	unmarshall(t, rec, &l)
	return l
}

func Test_curriculumApi_modulos(t *testing.T) {
	reset()
	admin := adminToken(t)
	prof := getToken(t, createStaff(t, user.RoleProfessor))

	m1 := createModulo(t, admin, 1, "Pentateuco", true)
	require.True(t, m1.IsActiveCycle)

	// a new active cycle replaces the previous one
	m2 := createModulo(t, admin, 2, "Livros Históricos", true)
	m1.IsActiveCycle = false

	tests := []httpTest{
		{name: "Auth required", path: "/modulos", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "list (by numero)", path: "/modulos", token: prof, wantData: marshallList(t, m1, m2)},
		{name: "active cycle", path: "/modulos/ativo", token: prof, wantData: marshallObj(t, m2)},
		{name: "by id", path: "/modulos/" + m1.ID, token: prof, wantData: marshallObj(t, m1)},
		{
			name: "unknown id", path: "/modulos/" + uuid.NewString(), token: prof, wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "módulo não encontrado(a)"}),
		},
		{
			name: "create: admin required", method: http.MethodPost, path: "/modulos", token: prof,
			body: marshallObj(t, curriculum.NewModulo{Numero: 3, Titulo: "Poéticos"}), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errForbidden),
		},
		{
			name: "create: missing title", method: http.MethodPost, path: "/modulos", token: admin,
			body: marshallObj(t, curriculum.NewModulo{Numero: 3}), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"titulo": "este campo é obrigatório"}),
		},
		{name: "create: numero below 1", method: http.MethodPost, path: "/modulos", token: admin,
			body: marshallObj(t, curriculum.NewModulo{Numero: 0, Titulo: "Poéticos"}), wantCode: http.StatusBadRequest},
		{
			name: "create: duplicate numero", method: http.MethodPost, path: "/modulos", token: admin,
			body: marshallObj(t, curriculum.NewModulo{Numero: 1, Titulo: "Outro"}), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"numero": "já existe um módulo com este número"}),
		},
		{
			name: "update: duplicate numero", method: http.MethodPut, path: "/modulos/" + m2.ID, token: admin,
			body: []byte(`{"numero":1}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"numero": "já existe um módulo com este número"}),
		},
		{name: "update: unknown", method: http.MethodPut, path: "/modulos/" + uuid.NewString(), token: admin,
			body: []byte(`{"titulo":"x"}`), wantCode: http.StatusNotFound},
		{name: "delete: admin required", method: http.MethodDelete, path: "/modulos/" + m1.ID, token: prof, wantCode: http.StatusForbidden},
		{name: "delete: unknown", method: http.MethodDelete, path: "/modulos/" + uuid.NewString(), token: admin, wantCode: http.StatusNotFound},
	}
	runHttpTests(t, tests)

	t.Run("partial update", func(t *testing.T) {
		rec := serve(http.MethodPut, "/modulos/"+m1.ID, admin, []byte(`{"titulo":"  Lei  ","is_active_cycle":true}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got curriculum.Modulo
		unmarshall(t, rec, &got)
		assert.Equal(t, "Lei", got.Titulo)
		assert.Equal(t, 1, got.Numero)
		assert.Equal(t, 20, got.CargaHoraria)
		assert.True(t, got.IsActiveCycle)

		rec = serve(http.MethodGet, "/modulos/"+m2.ID, prof)
		var other curriculum.Modulo
		unmarshall(t, rec, &other)
		assert.False(t, other.IsActiveCycle)
	})

	t.Run("delete", func(t *testing.T) {
		createLicao(t, admin, curriculum.NewLicao{ModuloID: m1.ID, Titulo: "Gênesis"})

		rec := serve(http.MethodDelete, "/modulos/"+m1.ID, admin)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = serve(http.MethodGet, "/modulos/"+m1.ID, prof)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// lessons go with their module
		rec = serve(http.MethodGet, "/licoes?modulo_id="+m1.ID, prof)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())

		// the deleted module was the active cycle
		rec = serve(http.MethodGet, "/modulos/ativo", prof)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"módulo do ciclo ativo não encontrado(a)"}`, rec.Body.String())
	})
}

func Test_curriculumApi_licoes(t *testing.T) {
	reset()
	admin := adminToken(t)
	prof := getToken(t, createStaff(t, user.RoleProfessor))

	mod := createModulo(t, admin, 1, "Pentateuco", false)
	other := createModulo(t, admin, 2, "Evangelhos", false)

	// without ordem, lessons are appended to their module
	l1 := createLicao(t, admin, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Gênesis", DuracaoMinutos: 40})
	l2 := createLicao(t, admin, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Êxodo", VideoURL: "https://videos.ibuc.org/exodo"})
	l3 := createLicao(t, admin, curriculum.NewLicao{ModuloID: other.ID, Titulo: "Mateus", Ordem: 5})
	require.Equal(t, 1, l1.Ordem)
	require.Equal(t, 2, l2.Ordem)
	require.Equal(t, 5, l3.Ordem)
	require.Nil(t, l1.VideoURL)
	require.NotNil(t, l2.VideoURL)

	tests := []httpTest{
		{name: "Auth required", path: "/licoes", wantCode: http.StatusUnauthorized},
		{name: "by modulo", path: "/licoes?modulo_id=" + mod.ID, token: prof, wantData: marshallList(t, l1, l2)},
		{name: "by id", path: "/licoes/" + l3.ID, token: prof, wantData: marshallObj(t, l3)},
		{
			name: "unknown id", path: "/licoes/" + uuid.NewString(), token: prof, wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "lição não encontrado(a)"}),
		},
		{
			name: "create: admin required", method: http.MethodPost, path: "/licoes", token: prof,
			body: marshallObj(t, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Levítico"}), wantCode: http.StatusForbidden,
		},
		{
			name: "create: unknown modulo", method: http.MethodPost, path: "/licoes", token: admin,
			body: marshallObj(t, curriculum.NewLicao{ModuloID: uuid.NewString(), Titulo: "Levítico"}), wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "módulo não encontrado(a)"}),
		},
		{
			name: "create: invalid video url", method: http.MethodPost, path: "/licoes", token: admin,
			body: marshallObj(t, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Levítico", VideoURL: "not a url"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "update: blank title", method: http.MethodPut, path: "/licoes/" + l1.ID, token: admin,
			body: []byte(`{"titulo":"   "}`), wantCode: http.StatusBadRequest,
		},
		{name: "delete: admin required", method: http.MethodDelete, path: "/licoes/" + l1.ID, token: prof, wantCode: http.StatusForbidden},
	}
	runHttpTests(t, tests)

	t.Run("list all", func(t *testing.T) {
		rec := serve(http.MethodGet, "/licoes", prof)
		require.Equal(t, http.StatusOK, rec.Code)
		var got []curriculum.Licao
		unmarshall(t, rec, &got)
		assert.Len(t, got, 3)
	})

	t.Run("update", func(t *testing.T) {
		rec := serve(http.MethodPut, "/licoes/"+l1.ID, admin, []byte(`{"ordem":3,"video_url":"https://videos.ibuc.org/genesis"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got curriculum.Licao
		unmarshall(t, rec, &got)
		assert.Equal(t, 3, got.Ordem)
		assert.Equal(t, "Gênesis", got.Titulo)
		assert.Equal(t, 40, got.DuracaoMinutos)
		require.NotNil(t, got.VideoURL)
		assert.Equal(t, "https://videos.ibuc.org/genesis", *got.VideoURL)
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(http.MethodDelete, "/licoes/"+l2.ID, admin)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(http.MethodGet, "/licoes/"+l2.ID, prof)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = serve(http.MethodDelete, "/licoes/"+l2.ID, admin)
		assert.Equal(t, http.StatusNotFound, rec.Code, fmt.Sprintf("deleting twice: %s", rec.Body.String()))
	})
}
