package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

const (
	PoloStatusAtivo   = "ativo"
	PoloStatusInativo = "inativo"

	TurmaStatusAtiva     = "ativa"
	TurmaStatusEncerrada = "encerrada"
)

// Polo is a physical site (branch) of the school.
type Polo struct {
	ID        string    `json:"id" db:"id"`
	Nome      string    `json:"nome" db:"nome"`
	Codigo    string    `json:"codigo" db:"codigo"`
	Cidade    string    `json:"cidade" db:"cidade"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (p Polo) IsActive() bool { return p.Status == PoloStatusAtivo }

// Turma is a class run at one polo.
type Turma struct {
	ID        string    `json:"id" db:"id"`
	Nome      string    `json:"nome" db:"nome"`
	PoloID    string    `json:"polo_id" db:"polo_id"`
	ModuloID  *string   `json:"modulo_id" db:"modulo_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type NewPolo struct {
	Nome   string `json:"nome" validate:"required,notblank"`
	Codigo string `json:"codigo" validate:"required,alphanum_"`
	Cidade string `json:"cidade" validate:"required,notblank"`
}

func (np *NewPolo) Validate(validate *validator.Validate) error {
	np.Nome = core.CleanString(np.Nome)
	np.Codigo = core.CleanString(np.Codigo)
	np.Cidade = core.CleanString(np.Cidade)
	return validate.Struct(np)
}

type NewTurma struct {
	Nome     string `json:"nome" validate:"required,notblank"`
	PoloID   string `json:"polo_id" validate:"required,uuid"`
	ModuloID string `json:"modulo_id" validate:"omitempty,uuid"`
}

func (nt *NewTurma) Validate(validate *validator.Validate) error {
	nt.Nome = core.CleanString(nt.Nome)
	nt.PoloID = core.CleanString(nt.PoloID)
	nt.ModuloID = core.CleanString(nt.ModuloID)
	return validate.Struct(nt)
}

type PoloFilter struct {
	Status string `query:"status"`
	Cidade string `query:"cidade"`
}

func (pf *PoloFilter) Clean() {
	pf.Status = core.CleanString(pf.Status, true /* lower */)
	pf.Cidade = core.CleanString(pf.Cidade)
}

type TurmaFilter struct {
	PoloID string `query:"polo_id"`
	Status string `query:"status"`
}

func (tf *TurmaFilter) Clean() {
	tf.PoloID = core.CleanString(tf.PoloID)
	tf.Status = core.CleanString(tf.Status, true /* lower */)
}
