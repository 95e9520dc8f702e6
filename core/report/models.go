package report

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

const periodSeparator = "|"

// Period is an inclusive date range. A zero Period covers all time.
type Period struct {
	Inicio core.Date `json:"inicio"`
	Fim    core.Date `json:"fim"`
}

func (p Period) IsZero() bool { return p.Inicio.IsZero() && p.Fim.IsZero() }

// ParsePeriod parses "YYYY-MM-DD|YYYY-MM-DD". An empty string means all time.
func ParsePeriod(s string) (Period, error) {
	s = core.CleanString(s)
	if s == "" {
		return Period{}, nil
	}

	invalid := core.NewFieldError("periodo", "periodo deve estar no formato AAAA-MM-DD|AAAA-MM-DD")
	parts := strings.Split(s, periodSeparator)
	if len(parts) != 2 {
		return Period{}, invalid
	}
	inicio, err := core.ParseDate(core.CleanString(parts[0]))
	if err != nil {
		return Period{}, invalid
	}
	fim, err := core.ParseDate(core.CleanString(parts[1]))
	if err != nil {
		return Period{}, invalid
	}
	if fim.Before(inicio) {
		return Period{}, core.NewFieldError("periodo", "a data final deve ser igual ou posterior à data inicial")
	}
	return Period{Inicio: core.Date{Time: inicio}, Fim: core.Date{Time: fim}}, nil
}

type SiteStats struct {
	PoloID                     string `json:"poloId" boil:"polo_id"`
	PoloNome                   string `json:"poloNome" boil:"polo_nome"`
	PoloCodigo                 string `json:"poloCodigo" boil:"polo_codigo"`
	TotalAlunos                int    `json:"totalAlunos" boil:"total_alunos"`
	TotalMatriculas            int    `json:"totalMatriculas" boil:"total_matriculas"`
	TotalProfessores           int    `json:"totalProfessores" boil:"total_professores"`
	MensalidadesPendentesCents int    `json:"mensalidadesPendentesCents" boil:"pendentes_cents"`
	MensalidadesPagasCents     int    `json:"mensalidadesPagasCents" boil:"pagas_cents"`
}

type Summary struct {
	TotalPolos                 int `json:"totalPolos"`
	TotalAlunos                int `json:"totalAlunos"`
	TotalMatriculas            int `json:"totalMatriculas"`
	TotalProfessores           int `json:"totalProfessores"`
	MensalidadesPendentesCents int `json:"mensalidadesPendentesCents"`
	MensalidadesPagasCents     int `json:"mensalidadesPagasCents"`
}

type StatsReport struct {
	PorPolo     []SiteStats `json:"porPolo"`
	ResumoGeral Summary     `json:"resumoGeral"`
	Periodo     *Period     `json:"periodo,omitempty"`
}

type OverdueCharge struct {
	ID         string    `json:"id" boil:"id"`
	Titulo     string    `json:"titulo" boil:"titulo"`
	ValorCents int       `json:"valor_cents" boil:"valor_cents"`
	Vencimento core.Date `json:"vencimento" boil:"vencimento"`
	AlunoID    string    `json:"aluno_id" boil:"aluno_id"`
	AlunoNome  string    `json:"aluno_nome" boil:"aluno_nome"`
	PoloID     string    `json:"polo_id" boil:"polo_id"`
	PoloNome   string    `json:"polo_nome" boil:"polo_nome"`
}

type DebtorSummary struct {
	AlunoID              string    `json:"aluno_id"`
	Nome                 string    `json:"nome"`
	PoloNome             string    `json:"polo_nome"`
	TotalAtrasadoCents   int       `json:"total_atrasado_cents"`
	ParcelasAtrasadas    int       `json:"parcelas_atrasadas"`
	VencimentoMaisAntigo core.Date `json:"vencimento_mais_antigo"`
}

type DelinquencyReport struct {
	DataReferencia  core.Date       `json:"data_referencia"`
	Detalhado       []OverdueCharge `json:"detalhado"`
	ResumoPorAluno  []DebtorSummary `json:"resumo_por_aluno"`
	TotalGeralCents int             `json:"total_geral_cents"`
}

type DelinquencyFilter struct {
	PoloID         string `query:"polo_id" validate:"omitempty,uuid"`
	DataReferencia string `query:"data_referencia" validate:"omitempty,isodate"`
}

func (df *DelinquencyFilter) Validate(validate *validator.Validate) error {
	df.PoloID = core.CleanString(df.PoloID, true /* lower */)
	df.DataReferencia = core.CleanString(df.DataReferencia)
	return validate.Struct(df)
}
