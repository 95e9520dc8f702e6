package curriculum_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
	"github.com/simiao2025/IBUC-System-v2-sub005/storage/database/inmem"
	testutil "github.com/simiao2025/IBUC-System-v2-sub005/tests"
)

func setup() *curriculum.Service {
	validate, _ := testutil.NewValidator()
	store := inmem.NewStore()
	return curriculum.NewService(inmem.NewCurriculumRepository(store), store, validate)
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func TestService_ActiveCycle(t *testing.T) {
	ctx := context.Background()
	svc := setup()

	_, err := svc.GetActiveCycle(ctx)
	assert.Equal(t, curriculum.ErrNoActiveCycle, err)

	first, err := svc.CreateModulo(ctx, curriculum.NewModulo{Numero: 1, Titulo: " Fundamentos ", IsActiveCycle: true})
	require.NoError(t, err)
	assert.Equal(t, "Fundamentos", first.Titulo)

	second, err := svc.CreateModulo(ctx, curriculum.NewModulo{Numero: 2, Titulo: "Evangelhos", IsActiveCycle: true})
	require.NoError(t, err)

	active, err := svc.GetActiveCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	first, err = svc.UpdateModulo(ctx, first.ID, curriculum.UpdateModulo{IsActiveCycle: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, first.IsActiveCycle)

	mods, err := svc.QueryModulos(ctx)
	require.NoError(t, err)
	var actives int
	for _, m := range mods {
		if m.IsActiveCycle {
			actives++
			assert.Equal(t, first.ID, m.ID)
		}
	}
	assert.Equal(t, 1, actives)
}

func TestService_ModuloNumero(t *testing.T) {
	ctx := context.Background()
	svc := setup()

	first, err := svc.CreateModulo(ctx, curriculum.NewModulo{Numero: 1, Titulo: "Fundamentos"})
	require.NoError(t, err)
	second, err := svc.CreateModulo(ctx, curriculum.NewModulo{Numero: 2, Titulo: "Evangelhos"})
	require.NoError(t, err)

	_, err = svc.CreateModulo(ctx, curriculum.NewModulo{Numero: 1, Titulo: "Outro"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.FieldError{{Field: "numero", Error: curriculum.ErrNumeroExists.Error()}}, vErr.Fields)

	_, err = svc.UpdateModulo(ctx, second.ID, curriculum.UpdateModulo{Numero: intPtr(1)})
	assert.True(t, core.IsValidation(err))

	// keeping its own number is not a conflict
	first, err = svc.UpdateModulo(ctx, first.ID, curriculum.UpdateModulo{Numero: intPtr(1), CargaHoraria: intPtr(40)})
	require.NoError(t, err)
	assert.Equal(t, 40, first.CargaHoraria)
	assert.Equal(t, "Fundamentos", first.Titulo)

	_, err = svc.UpdateModulo(ctx, uuid.NewString(), curriculum.UpdateModulo{})
	assert.Equal(t, curriculum.ErrModuloNotFound, err)
}

func TestService_Licoes(t *testing.T) {
	ctx := context.Background()
	svc := setup()

	mod, err := svc.CreateModulo(ctx, curriculum.NewModulo{Numero: 1, Titulo: "Fundamentos"})
	require.NoError(t, err)

	_, err = svc.CreateLicao(ctx, curriculum.NewLicao{ModuloID: uuid.NewString(), Titulo: "Órfã"})
	assert.Equal(t, curriculum.ErrModuloNotFound, err)

	l1, err := svc.CreateLicao(ctx, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Criação"})
	require.NoError(t, err)
	assert.Equal(t, 1, l1.Ordem)
	assert.Nil(t, l1.VideoURL)

	l5, err := svc.CreateLicao(ctx, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Dilúvio", Ordem: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, l5.Ordem)

	l6, err := svc.CreateLicao(ctx, curriculum.NewLicao{ModuloID: mod.ID, Titulo: "Babel", VideoURL: "https://videos.ibuc.org/babel"})
	require.NoError(t, err)
	assert.Equal(t, 6, l6.Ordem)
	require.NotNil(t, l6.VideoURL)

	l6, err = svc.UpdateLicao(ctx, l6.ID, curriculum.UpdateLicao{VideoURL: new(string)})
	require.NoError(t, err)
	assert.Nil(t, l6.VideoURL)

	require.NoError(t, svc.DeleteModulo(ctx, mod.ID))
	licoes, err := svc.QueryLicoes(ctx, mod.ID)
	require.NoError(t, err)
	assert.Empty(t, licoes)

	_, err = svc.GetLicao(ctx, l1.ID)
	assert.Equal(t, curriculum.ErrLicaoNotFound, err)
}
