package inmem

import (
	"context"
	"sort"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/report"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

type reportRepository struct {
	s *Store
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(s *Store) *reportRepository {
	return &reportRepository{s: s}
}

func inPeriod(d core.Date, p report.Period) bool {
	if p.IsZero() {
		return true
	}
	return !d.Before(p.Inicio) && !p.Fim.Before(d)
}

func (repo reportRepository) SiteStats(_ context.Context, period report.Period, _ ...core.DBExecutor) ([]report.SiteStats, error) {
	stats := make([]report.SiteStats, 0)
	repo.s.read(func(t *tables) {
		idx := make(map[string]int)
		for _, p := range t.polos {
			if p.Status != school.PoloStatusAtivo {
				continue
			}
			idx[p.ID] = len(stats)
			stats = append(stats, report.SiteStats{PoloID: p.ID, PoloNome: p.Nome, PoloCodigo: p.Codigo})
		}

		for _, a := range t.alunos {
			if i, ok := idx[a.PoloID]; ok {
				stats[i].TotalAlunos++
			}
		}
		for _, m := range t.matriculas {
			if i, ok := idx[m.PoloID]; ok && inPeriod(core.DateOf(m.CreatedAt), period) {
				stats[i].TotalMatriculas++
			}
		}
		for _, u := range t.users {
			if u.PoloID == nil || !u.Active() || !u.HasRole(user.RoleProfessor) {
				continue
			}
			if i, ok := idx[*u.PoloID]; ok {
				stats[i].TotalProfessores++
			}
		}
		for _, c := range t.charges {
			i, ok := idx[c.PoloID]
			if !ok || !inPeriod(c.Vencimento, period) {
				continue
			}
			switch c.Status {
			case billing.StatusPendente:
				stats[i].MensalidadesPendentesCents += c.ValorCents
			case billing.StatusPago:
				stats[i].MensalidadesPagasCents += c.ValorCents
			}
		}
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].PoloNome < stats[j].PoloNome })
	return stats, nil
}

func (repo reportRepository) OverdueCharges(_ context.Context, poloID string, ref core.Date, _ ...core.DBExecutor) ([]report.OverdueCharge, error) {
	charges := make([]report.OverdueCharge, 0)
	repo.s.read(func(t *tables) {
		for _, c := range t.charges {
			if c.Status != billing.StatusPendente || !c.Vencimento.Before(ref) {
				continue
			}
			if poloID != "" && c.PoloID != poloID {
				continue
			}
			charges = append(charges, report.OverdueCharge{
				ID:         c.ID,
				Titulo:     c.Titulo,
				ValorCents: c.ValorCents,
				Vencimento: c.Vencimento,
				AlunoID:    c.AlunoID,
				AlunoNome:  t.alunos[c.AlunoID].Nome,
				PoloID:     c.PoloID,
				PoloNome:   t.polos[c.PoloID].Nome,
			})
		}
	})
	sort.Slice(charges, func(i, j int) bool {
		if charges[i].Vencimento.Equal(charges[j].Vencimento.Time) {
			return charges[i].AlunoNome < charges[j].AlunoNome
		}
		return charges[i].Vencimento.Before(charges[j].Vencimento)
	})
	return charges, nil
}
