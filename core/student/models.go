package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

const (
	StatusPendente = "pendente"
	StatusAtivo    = "ativo"
	StatusInativo  = "inativo"
)

type Aluno struct {
	ID               string    `json:"id" db:"id"`
	Nome             string    `json:"nome" db:"nome"`
	CPF              string    `json:"cpf" db:"cpf"`
	DataNascimento   core.Date `json:"data_nascimento" db:"data_nascimento"`
	EmailResponsavel string    `json:"email_responsavel" db:"email_responsavel"`
	PoloID           string    `json:"polo_id" db:"polo_id"`
	TurmaID          *string   `json:"turma_id" db:"turma_id"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TransferRequest moves a student to another polo.
type TransferRequest struct {
	PoloDestinoID string `json:"polo_destino_id" validate:"required,uuid"`
	Motivo        string `json:"motivo" validate:"required,notblank"`
	Observacoes   string `json:"observacoes"`
}

func (tr *TransferRequest) Validate(validate *validator.Validate) error {
	tr.PoloDestinoID = core.CleanString(tr.PoloDestinoID, true /* lower */)
	tr.Motivo = core.CleanString(tr.Motivo)
	tr.Observacoes = core.CleanString(tr.Observacoes)
	return validate.Struct(tr)
}

type TransferResult struct {
	Message     string      `json:"message"`
	Aluno       Aluno       `json:"aluno"`
	PoloDestino school.Polo `json:"polo_destino"`
}

type QueryFilter struct {
	Search  string `query:"search"`
	PoloID  string `query:"polo_id"`
	TurmaID string `query:"turma_id"`
	Status  string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.PoloID = core.CleanString(qf.PoloID)
	qf.TurmaID = core.CleanString(qf.TurmaID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
