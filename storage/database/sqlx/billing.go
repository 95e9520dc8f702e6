package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
)

const (
	chargeColumns = "id, aluno_id, polo_id, turma_id, titulo, valor_cents, desconto_cents, juros_cents, " +
		"vencimento, status, comprovante_url, pago_em, created_at, updated_at"
	chargePlaceholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	finConfigColumns   = "chave_pix, beneficiario_nome, beneficiario_cidade, updated_at"
)

type billingRepository struct {
	exec core.DBExecutor
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(exec core.DBExecutor) *billingRepository {
	return &billingRepository{exec: exec}
}

// chargesPerInsert keeps each INSERT below the 65535 bind parameters Postgres accepts.
var chargesPerInsert = 1000

// CreateCharges inserts the charges in multi-row statements of at most chargesPerInsert rows.
// Pass a transaction executor to make the batches all-or-nothing.
func (repo billingRepository) CreateCharges(ctx context.Context, charges []billing.Charge, exec ...core.DBExecutor) ([]billing.Charge, error) {
	created := make([]billing.Charge, 0, len(charges))
	for start := 0; start < len(charges); start += chargesPerInsert {
		end := start + chargesPerInsert
		if end > len(charges) {
			end = len(charges)
		}
		batch, err := repo.insertCharges(ctx, charges[start:end], exec)
		if err != nil {
			return nil, err
		}
		created = append(created, batch...)
	}
	return created, nil
}

func (repo billingRepository) insertCharges(ctx context.Context, charges []billing.Charge, exec []core.DBExecutor) ([]billing.Charge, error) {
	created := make([]billing.Charge, 0, len(charges))
	values := make([]string, 0, len(charges))
	args := make([]interface{}, 0, len(charges)*14)
	for _, c := range charges {
		c.ID = newID()
		created = append(created, c)
		values = append(values, chargePlaceholders)
		args = append(args,
			c.ID, c.AlunoID, c.PoloID, c.TurmaID, c.Titulo, c.ValorCents, c.DescontoCents, c.JurosCents,
			c.Vencimento, c.Status, c.ComprovanteURL, c.PagoEm, c.CreatedAt, c.UpdatedAt)
	}

	q := `INSERT INTO mensalidades (` + chargeColumns + `) VALUES ` + strings.Join(values, ", ")
	if _, err := execQuery(ctx, core.GetExec(repo.exec, exec), q, args...); err != nil {
		return nil, errors.Wrap(trapFKErr(err), "inserting charges")
	}
	return created, nil
}

func (repo billingRepository) getCharge(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (billing.Charge, error) {
	var charges []billing.Charge
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &charges, q, args...); err != nil {
		return billing.Charge{}, errors.Wrap(err, "selecting charge")
	}
	if len(charges) == 0 {
		return billing.Charge{}, billing.ErrChargeNotFound
	}
	return charges[0], nil
}

func (repo billingRepository) GetCharge(ctx context.Context, id string, exec ...core.DBExecutor) (billing.Charge, error) {
	if !validID(id) {
		return billing.Charge{}, billing.ErrChargeNotFound
	}
	return repo.getCharge(ctx, exec, `SELECT `+chargeColumns+` FROM mensalidades WHERE id = ?`, id)
}

func (repo billingRepository) GetChargeForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (billing.Charge, error) {
	if !validID(id) {
		return billing.Charge{}, billing.ErrChargeNotFound
	}
	return repo.getCharge(ctx, exec, `SELECT `+chargeColumns+` FROM mensalidades WHERE id = ? FOR UPDATE`, id)
}

func (repo billingRepository) QueryCharges(ctx context.Context, filter billing.QueryFilter, exec ...core.DBExecutor) ([]billing.Charge, error) {
	var where whereClause
	if filter.AlunoID != "" {
		where.add("aluno_id::text = ?", filter.AlunoID)
	}
	if filter.PoloID != "" {
		where.add("polo_id::text = ?", filter.PoloID)
	}
	if filter.TurmaID != "" {
		where.add("turma_id::text = ?", filter.TurmaID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	charges := make([]billing.Charge, 0)
	q := `SELECT ` + chargeColumns + ` FROM mensalidades` + where.String() + ` ORDER BY vencimento DESC, created_at DESC`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &charges, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting charges")
	}
	return charges, nil
}

func (repo billingRepository) UpdateCharge(ctx context.Context, c billing.Charge, exec ...core.DBExecutor) (billing.Charge, error) {
	return repo.getCharge(ctx, exec,
		`UPDATE mensalidades SET status = ?, comprovante_url = ?, pago_em = ?, desconto_cents = ?, juros_cents = ?, updated_at = ? `+
			`WHERE id = ? RETURNING `+chargeColumns,
		c.Status, c.ComprovanteURL, c.PagoEm, c.DescontoCents, c.JurosCents, c.UpdatedAt, c.ID)
}

func (repo billingRepository) GetFinancialConfig(ctx context.Context, exec ...core.DBExecutor) (billing.FinancialConfig, error) {
	var confs []billing.FinancialConfig
	q := `SELECT ` + finConfigColumns + ` FROM configuracoes_financeiras WHERE id = 1`
	if err := selectRows(ctx, core.GetExec(repo.exec, exec), &confs, q); err != nil {
		return billing.FinancialConfig{}, errors.Wrap(err, "selecting financial config")
	}
	if len(confs) == 0 {
		return billing.FinancialConfig{}, billing.ErrConfigNotFound
	}
	return confs[0], nil
}

func (repo billingRepository) SaveFinancialConfig(ctx context.Context, conf billing.FinancialConfig, exec ...core.DBExecutor) (billing.FinancialConfig, error) {
	var confs []billing.FinancialConfig
	q := `INSERT INTO configuracoes_financeiras (id, ` + finConfigColumns + `) VALUES (1, ?, ?, ?, ?) ` +
		`ON CONFLICT (id) DO UPDATE SET chave_pix = EXCLUDED.chave_pix, beneficiario_nome = EXCLUDED.beneficiario_nome, ` +
		`beneficiario_cidade = EXCLUDED.beneficiario_cidade, updated_at = EXCLUDED.updated_at ` +
		`RETURNING ` + finConfigColumns
	err := selectRows(ctx, core.GetExec(repo.exec, exec), &confs, q,
		conf.ChavePix, conf.BeneficiarioNome, conf.BeneficiarioCidade, conf.UpdatedAt)
	if err != nil {
		return billing.FinancialConfig{}, errors.Wrap(err, "upserting financial config")
	}
	if len(confs) == 0 {
		return conf, nil
	}
	return confs[0], nil
}
