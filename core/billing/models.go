package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

const (
	StatusPendente  = "pendente"
	StatusPago      = "pago"
	StatusCancelado = "cancelado"
)

// Charge is a tuition charge (mensalidade) owed by one student.
type Charge struct {
	ID             string     `json:"id" db:"id"`
	AlunoID        string     `json:"aluno_id" db:"aluno_id"`
	PoloID         string     `json:"polo_id" db:"polo_id"`
	TurmaID        *string    `json:"turma_id" db:"turma_id"`
	Titulo         string     `json:"titulo" db:"titulo"`
	ValorCents     int        `json:"valor_cents" db:"valor_cents"`
	DescontoCents  int        `json:"desconto_cents" db:"desconto_cents"`
	JurosCents     int        `json:"juros_cents" db:"juros_cents"`
	Vencimento     core.Date  `json:"vencimento" db:"vencimento"`
	Status         string     `json:"status" db:"status"`
	ComprovanteURL *string    `json:"comprovante_url" db:"comprovante_url"`
	PagoEm         *time.Time `json:"pago_em" db:"pago_em"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`

	Vencida bool `json:"vencida" db:"-"`
}

// IsOverdue reports whether a pending charge is past its due date.
func (c Charge) IsOverdue(today core.Date) bool {
	return c.Status == StatusPendente && c.Vencimento.Before(today)
}

// TotalCents is the amount due after discount and interest.
func (c Charge) TotalCents() int {
	return c.ValorCents - c.DescontoCents + c.JurosCents
}

type FinancialConfig struct {
	ChavePix           string    `json:"chave_pix" db:"chave_pix"`
	BeneficiarioNome   string    `json:"beneficiario_nome" db:"beneficiario_nome"`
	BeneficiarioCidade string    `json:"beneficiario_cidade" db:"beneficiario_cidade"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// BatchRequest generates one charge per active enrollment of a class.
type BatchRequest struct {
	TurmaID    string `json:"turma_id" validate:"required,uuid"`
	Titulo     string `json:"titulo" validate:"required,notblank"`
	ValorCents int    `json:"valor_cents" validate:"min=1"`
	Vencimento string `json:"vencimento" validate:"required,isodate"`
}

func (br *BatchRequest) Validate(validate *validator.Validate) error {
	br.TurmaID = core.CleanString(br.TurmaID, true /* lower */)
	br.Titulo = core.CleanString(br.Titulo)
	br.Vencimento = core.CleanString(br.Vencimento)
	return validate.Struct(br)
}

// StudentBatchRequest generates one charge per listed student.
type StudentBatchRequest struct {
	AlunoIDs   []string `json:"aluno_ids" validate:"required,min=1,dive,uuid"`
	Titulo     string   `json:"titulo" validate:"required,notblank"`
	ValorCents int      `json:"valor_cents" validate:"min=1"`
	Vencimento string   `json:"vencimento" validate:"required,isodate"`
}

func (sr *StudentBatchRequest) Validate(validate *validator.Validate) error {
	seen := make(map[string]bool, len(sr.AlunoIDs))
	ids := make([]string, 0, len(sr.AlunoIDs))
	for _, id := range sr.AlunoIDs {
		id = core.CleanString(id, true /* lower */)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sr.AlunoIDs = ids
	sr.Titulo = core.CleanString(sr.Titulo)
	sr.Vencimento = core.CleanString(sr.Vencimento)
	return validate.Struct(sr)
}

type BatchResult struct {
	TotalGerado int      `json:"total_gerado"`
	Cobrancas   []Charge `json:"cobrancas"`
}

type ConfirmPayment struct {
	ComprovanteURL string `json:"comprovante_url" validate:"omitempty,url"`
}

func (cp *ConfirmPayment) Validate(validate *validator.Validate) error {
	cp.ComprovanteURL = core.CleanString(cp.ComprovanteURL)
	return validate.Struct(cp)
}

type CancelRequest struct {
	Motivo string `json:"motivo"`
}

type UpdateFinancialConfig struct {
	ChavePix           string `json:"chave_pix" validate:"required,notblank"`
	BeneficiarioNome   string `json:"beneficiario_nome" validate:"required,notblank"`
	BeneficiarioCidade string `json:"beneficiario_cidade" validate:"required,notblank"`
}

func (uc *UpdateFinancialConfig) Validate(validate *validator.Validate) error {
	uc.ChavePix = core.CleanString(uc.ChavePix)
	uc.BeneficiarioNome = core.CleanString(uc.BeneficiarioNome)
	uc.BeneficiarioCidade = core.CleanString(uc.BeneficiarioCidade)
	return validate.Struct(uc)
}

type QueryFilter struct {
	AlunoID string `query:"aluno_id"`
	PoloID  string `query:"polo_id"`
	TurmaID string `query:"turma_id"`
	Status  string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.AlunoID = core.CleanString(qf.AlunoID)
	qf.PoloID = core.CleanString(qf.PoloID)
	qf.TurmaID = core.CleanString(qf.TurmaID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// FormatCents renders an amount in cents as Brazilian currency, e.g. R$ 1.234,56.
func FormatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := fmt.Sprintf("%d", cents/100)
	var groups []string
	for len(units) > 3 {
		groups = append([]string{units[len(units)-3:]}, groups...)
		units = units[:len(units)-3]
	}
	groups = append([]string{units}, groups...)
	return fmt.Sprintf("%sR$ %s,%02d", sign, strings.Join(groups, "."), cents%100)
}
