package enrollment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

var (
	preStatusTag  = "prestatus"
	preStatusText = "{0} deve ser um dos valores: em_analise, ativo, trancado, concluido"
)

// InitValidators registers the pre-enrollment validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(preStatusTag, preStatusValidation)
	core.RegisterCustomTranslation(validate, translator, preStatusTag, preStatusText)
}

func preStatusValidation(fl validator.FieldLevel) bool {
	return IsValidStatus(fl.Field().String())
}
