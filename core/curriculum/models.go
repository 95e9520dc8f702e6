package curriculum

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

// Modulo is a teaching module. At most one module is the active cycle.
type Modulo struct {
	ID            string    `json:"id" db:"id"`
	Numero        int       `json:"numero" db:"numero"`
	Titulo        string    `json:"titulo" db:"titulo"`
	Descricao     string    `json:"descricao" db:"descricao"`
	CargaHoraria  int       `json:"carga_horaria" db:"carga_horaria"`
	IsActiveCycle bool      `json:"is_active_cycle" db:"is_active_cycle"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Licao struct {
	ID             string    `json:"id" db:"id"`
	ModuloID       string    `json:"modulo_id" db:"modulo_id"`
	Titulo         string    `json:"titulo" db:"titulo"`
	Descricao      string    `json:"descricao" db:"descricao"`
	Ordem          int       `json:"ordem" db:"ordem"`
	VideoURL       *string   `json:"video_url" db:"video_url"`
	DuracaoMinutos int       `json:"duracao_minutos" db:"duracao_minutos"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type NewModulo struct {
	Numero        int    `json:"numero" validate:"min=1"`
	Titulo        string `json:"titulo" validate:"required,notblank"`
	Descricao     string `json:"descricao"`
	CargaHoraria  int    `json:"carga_horaria" validate:"min=0"`
	IsActiveCycle bool   `json:"is_active_cycle"`
}

func (nm *NewModulo) Validate(validate *validator.Validate) error {
	nm.Titulo = core.CleanString(nm.Titulo)
	nm.Descricao = core.CleanString(nm.Descricao)
	return validate.Struct(nm)
}

// UpdateModulo only changes the provided fields.
type UpdateModulo struct {
	Numero        *int    `json:"numero" validate:"omitempty,min=1"`
	Titulo        *string `json:"titulo" validate:"omitempty,notblank"`
	Descricao     *string `json:"descricao"`
	CargaHoraria  *int    `json:"carga_horaria" validate:"omitempty,min=0"`
	IsActiveCycle *bool   `json:"is_active_cycle"`
}

func (um *UpdateModulo) Validate(validate *validator.Validate) error {
	if um.Titulo != nil {
		t := core.CleanString(*um.Titulo)
		um.Titulo = &t
	}
	if um.Descricao != nil {
		d := core.CleanString(*um.Descricao)
		um.Descricao = &d
	}
	return validate.Struct(um)
}

func (um UpdateModulo) apply(m Modulo) Modulo {
	if um.Numero != nil {
		m.Numero = *um.Numero
	}
	if um.Titulo != nil {
		m.Titulo = *um.Titulo
	}
	if um.Descricao != nil {
		m.Descricao = *um.Descricao
	}
	if um.CargaHoraria != nil {
		m.CargaHoraria = *um.CargaHoraria
	}
	if um.IsActiveCycle != nil {
		m.IsActiveCycle = *um.IsActiveCycle
	}
	return m
}

type NewLicao struct {
	ModuloID       string `json:"modulo_id" validate:"required,uuid"`
	Titulo         string `json:"titulo" validate:"required,notblank"`
	Descricao      string `json:"descricao"`
	Ordem          int    `json:"ordem" validate:"min=0"`
	VideoURL       string `json:"video_url" validate:"omitempty,url"`
	DuracaoMinutos int    `json:"duracao_minutos" validate:"min=0"`
}

func (nl *NewLicao) Validate(validate *validator.Validate) error {
	nl.ModuloID = core.CleanString(nl.ModuloID, true /* lower */)
	nl.Titulo = core.CleanString(nl.Titulo)
	nl.Descricao = core.CleanString(nl.Descricao)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	return validate.Struct(nl)
}

type UpdateLicao struct {
	Titulo         *string `json:"titulo" validate:"omitempty,notblank"`
	Descricao      *string `json:"descricao"`
	Ordem          *int    `json:"ordem" validate:"omitempty,min=1"`
	VideoURL       *string `json:"video_url" validate:"omitempty,url"`
	DuracaoMinutos *int    `json:"duracao_minutos" validate:"omitempty,min=0"`
}

func (ul *UpdateLicao) Validate(validate *validator.Validate) error {
	if ul.Titulo != nil {
		t := core.CleanString(*ul.Titulo)
		ul.Titulo = &t
	}
	if ul.Descricao != nil {
		d := core.CleanString(*ul.Descricao)
		ul.Descricao = &d
	}
	if ul.VideoURL != nil {
		u := core.CleanString(*ul.VideoURL)
		ul.VideoURL = &u
	}
	return validate.Struct(ul)
}

func (ul UpdateLicao) apply(l Licao) Licao {
	if ul.Titulo != nil {
		l.Titulo = *ul.Titulo
	}
	if ul.Descricao != nil {
		l.Descricao = *ul.Descricao
	}
	if ul.Ordem != nil {
		l.Ordem = *ul.Ordem
	}
	if ul.VideoURL != nil {
		l.VideoURL = core.StrPtr(*ul.VideoURL)
	}
	if ul.DuracaoMinutos != nil {
		l.DuracaoMinutos = *ul.DuracaoMinutos
	}
	return l
}
