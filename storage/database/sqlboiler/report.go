package boiledrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/report"
)

// $1 and $2 bound the period; both are NULL for all time.
const siteStatsQuery = `
SELECT p.id AS polo_id, p.nome AS polo_nome, p.codigo AS polo_codigo,
	(SELECT COUNT(*) FROM alunos a WHERE a.polo_id = p.id) AS total_alunos,
	(SELECT COUNT(*) FROM matriculas m
		WHERE m.polo_id = p.id
		AND ($1::date IS NULL OR m.created_at::date BETWEEN $1::date AND $2::date)) AS total_matriculas,
	(SELECT COUNT(*) FROM usuarios u
		WHERE u.polo_id = p.id AND u.is_active AND 'professor' = ANY(u.roles)) AS total_professores,
	(SELECT COALESCE(SUM(c.valor_cents), 0) FROM mensalidades c
		WHERE c.polo_id = p.id AND c.status = 'pendente'
		AND ($1::date IS NULL OR c.vencimento BETWEEN $1::date AND $2::date)) AS pendentes_cents,
	(SELECT COALESCE(SUM(c.valor_cents), 0) FROM mensalidades c
		WHERE c.polo_id = p.id AND c.status = 'pago'
		AND ($1::date IS NULL OR c.vencimento BETWEEN $1::date AND $2::date)) AS pagas_cents
FROM polos p
WHERE p.status = 'ativo'
ORDER BY p.nome`

const overdueChargesQuery = `
SELECT c.id, c.titulo, c.valor_cents, c.vencimento, c.aluno_id, a.nome AS aluno_nome, c.polo_id, p.nome AS polo_nome
FROM mensalidades c
JOIN alunos a ON a.id = c.aluno_id
JOIN polos p ON p.id = c.polo_id
WHERE c.status = 'pendente' AND c.vencimento < $1::date
AND ($2 = '' OR c.polo_id::text = $2)
ORDER BY c.vencimento, a.nome`

type reportRepository struct {
	exec core.DBExecutor
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{exec: exec}
}

func (repo reportRepository) SiteStats(ctx context.Context, period report.Period, exec ...core.DBExecutor) ([]report.SiteStats, error) {
	var rows []*report.SiteStats
	if err := queries.Raw(siteStatsQuery, period.Inicio, period.Fim).Bind(ctx, core.GetExec(repo.exec, exec), &rows); err != nil {
		return nil, errors.Wrap(err, "aggregating site stats")
	}
	stats := make([]report.SiteStats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, *r)
	}
	return stats, nil
}

func (repo reportRepository) OverdueCharges(ctx context.Context, poloID string, ref core.Date, exec ...core.DBExecutor) ([]report.OverdueCharge, error) {
	var rows []*report.OverdueCharge
	if err := queries.Raw(overdueChargesQuery, ref, poloID).Bind(ctx, core.GetExec(repo.exec, exec), &rows); err != nil {
		return nil, errors.Wrap(err, "selecting overdue charges")
	}
	charges := make([]report.OverdueCharge, 0, len(rows))
	for _, r := range rows {
		charges = append(charges, *r)
	}
	return charges, nil
}
