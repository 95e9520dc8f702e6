package report

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

type (
	Repository interface {
		// SiteStats aggregates active polos, ordered by name. Enrollments are counted by creation date
		// and charges by due date when period is set.
		SiteStats(ctx context.Context, period Period, exec ...core.DBExecutor) ([]SiteStats, error)
		// OverdueCharges lists pending charges due before ref, oldest first. An empty poloID means every polo.
		OverdueCharges(ctx context.Context, poloID string, ref core.Date, exec ...core.DBExecutor) ([]OverdueCharge, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// StatsBySite reports per-polo statistics; it never writes.
func (svc *Service) StatsBySite(ctx context.Context, periodo string) (StatsReport, error) {
	period, err := ParsePeriod(periodo)
	if err != nil {
		return StatsReport{}, err
	}

	stats, err := svc.repo.SiteStats(ctx, period)
	if err != nil {
		return StatsReport{}, errors.Wrap(err, "aggregating site stats")
	}
	if stats == nil {
		stats = []SiteStats{}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].PoloNome < stats[j].PoloNome })

	rep := StatsReport{PorPolo: stats, ResumoGeral: summarize(stats)}
	if !period.IsZero() {
		rep.Periodo = &period
	}
	return rep, nil
}

func summarize(stats []SiteStats) Summary {
	sum := Summary{TotalPolos: len(stats)}
	for _, s := range stats {
		sum.TotalAlunos += s.TotalAlunos
		sum.TotalMatriculas += s.TotalMatriculas
		sum.TotalProfessores += s.TotalProfessores
		sum.MensalidadesPendentesCents += s.MensalidadesPendentesCents
		sum.MensalidadesPagasCents += s.MensalidadesPagasCents
	}
	return sum
}

// Delinquency lists overdue charges and groups them per student, largest debt first.
func (svc *Service) Delinquency(ctx context.Context, filter DelinquencyFilter) (DelinquencyReport, error) {
	if err := filter.Validate(svc.validate); err != nil {
		return DelinquencyReport{}, err
	}
	ref := core.DateOf(time.Now())
	if filter.DataReferencia != "" {
		ref = core.MustParseDate(filter.DataReferencia)
	}

	charges, err := svc.repo.OverdueCharges(ctx, filter.PoloID, ref)
	if err != nil {
		return DelinquencyReport{}, errors.Wrap(err, "querying overdue charges")
	}
	if charges == nil {
		charges = []OverdueCharge{}
	}

	rep := DelinquencyReport{DataReferencia: ref, Detalhado: charges, ResumoPorAluno: []DebtorSummary{}}
	idx := make(map[string]int)
	for _, c := range charges {
		rep.TotalGeralCents += c.ValorCents

		i, ok := idx[c.AlunoID]
		if !ok {
			i = len(rep.ResumoPorAluno)
			idx[c.AlunoID] = i
			rep.ResumoPorAluno = append(rep.ResumoPorAluno, DebtorSummary{
				AlunoID:              c.AlunoID,
				Nome:                 c.AlunoNome,
				PoloNome:             c.PoloNome,
				VencimentoMaisAntigo: c.Vencimento,
			})
		}
		d := &rep.ResumoPorAluno[i]
		d.TotalAtrasadoCents += c.ValorCents
		d.ParcelasAtrasadas++
		if c.Vencimento.Before(d.VencimentoMaisAntigo) {
			d.VencimentoMaisAntigo = c.Vencimento
		}
	}
	sort.SliceStable(rep.ResumoPorAluno, func(i, j int) bool {
		return rep.ResumoPorAluno[i].TotalAtrasadoCents > rep.ResumoPorAluno[j].TotalAtrasadoCents
	})
	return rep, nil
}
