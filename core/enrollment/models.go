package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
)

// Pre-enrollment statuses
const (
	StatusEmAnalise = "em_analise"
	StatusAtivo     = "ativo"
	StatusTrancado  = "trancado"
	StatusConcluido = "concluido"
)

// Enrollment statuses
const (
	MatriculaAtiva     = "ativa"
	MatriculaCancelada = "cancelada"
	MatriculaConcluida = "concluida"

	OrigemSite = "site"
)

var Statuses = []string{StatusEmAnalise, StatusAtivo, StatusTrancado, StatusConcluido}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

type PreMatricula struct {
	ID                  string    `json:"id" db:"id"`
	NomeCompleto        string    `json:"nome_completo" db:"nome_completo"`
	CPF                 string    `json:"cpf" db:"cpf"`
	DataNascimento      core.Date `json:"data_nascimento" db:"data_nascimento"`
	EmailResponsavel    string    `json:"email_responsavel" db:"email_responsavel"`
	TelefoneResponsavel string    `json:"telefone_responsavel" db:"telefone_responsavel"`
	PoloID              string    `json:"polo_id" db:"polo_id"`
	Status              string    `json:"status" db:"status"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// CanConclude reports whether the pre-enrollment may still be turned into an enrollment.
func (pm PreMatricula) CanConclude() bool {
	return pm.Status == StatusEmAnalise || pm.Status == StatusAtivo
}

type Matricula struct {
	ID         string     `json:"id" db:"id"`
	AlunoID    string     `json:"aluno_id" db:"aluno_id"`
	TurmaID    string     `json:"turma_id" db:"turma_id"`
	PoloID     string     `json:"polo_id" db:"polo_id"`
	Status     string     `json:"status" db:"status"`
	Origem     string     `json:"origem" db:"origem"`
	ApprovedBy *string    `json:"approved_by" db:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at" db:"approved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type NewPreMatricula struct {
	NomeCompleto        string `json:"nome_completo" validate:"required,notblank"`
	CPF                 string `json:"cpf" validate:"required,len=11,numeric"`
	DataNascimento      string `json:"data_nascimento" validate:"required,isodate"`
	EmailResponsavel    string `json:"email_responsavel" validate:"required,email"`
	TelefoneResponsavel string `json:"telefone_responsavel" validate:"required,min=10,max=11"`
	PoloID              string `json:"polo_id" validate:"required,uuid"`
}

func (np *NewPreMatricula) Validate(validate *validator.Validate) error {
	np.NomeCompleto = core.CleanString(np.NomeCompleto)
	np.CPF = core.OnlyDigits(np.CPF)
	np.DataNascimento = core.CleanString(np.DataNascimento)
	np.EmailResponsavel = core.CleanString(np.EmailResponsavel, true /* lower */)
	np.TelefoneResponsavel = core.OnlyDigits(np.TelefoneResponsavel)
	np.PoloID = core.CleanString(np.PoloID, true /* lower */)
	return validate.Struct(np)
}

type StatusUpdate struct {
	Status string `json:"status" validate:"required,prestatus"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status)
	return validate.Struct(su)
}

type ConcludeRequest struct {
	TurmaID string `json:"turma_id" validate:"required,uuid"`
}

func (cr *ConcludeRequest) Validate(validate *validator.Validate) error {
	cr.TurmaID = core.CleanString(cr.TurmaID, true /* lower */)
	return validate.Struct(cr)
}

type ConcludeResult struct {
	PreMatricula PreMatricula  `json:"pre_matricula"`
	Aluno        student.Aluno `json:"aluno"`
	Matricula    Matricula     `json:"matricula"`
}

type PreMatriculaFilter struct {
	PoloID string `query:"polo_id"`
	Status string `query:"status"`
}

func (pf *PreMatriculaFilter) Clean() {
	pf.PoloID = core.CleanString(pf.PoloID)
	pf.Status = core.CleanString(pf.Status, true /* lower */)
}

type MatriculaFilter struct {
	AlunoID string `query:"aluno_id"`
	TurmaID string `query:"turma_id"`
	PoloID  string `query:"polo_id"`
	Status  string `query:"status"`
}

func (mf *MatriculaFilter) Clean() {
	mf.AlunoID = core.CleanString(mf.AlunoID)
	mf.TurmaID = core.CleanString(mf.TurmaID)
	mf.PoloID = core.CleanString(mf.PoloID)
	mf.Status = core.CleanString(mf.Status, true /* lower */)
}
