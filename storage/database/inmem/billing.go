package inmem

import (
	"context"
	"sort"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
)

type billingRepository struct {
	s *Store
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(s *Store) *billingRepository {
	return &billingRepository{s: s}
}

func (repo billingRepository) CreateCharges(_ context.Context, charges []billing.Charge, exec ...core.DBExecutor) ([]billing.Charge, error) {
	created := make([]billing.Charge, 0, len(charges))
	_ = repo.s.write(exec, func(t *tables) error {
		for _, c := range charges {
			c.ID = newID()
			t.charges[c.ID] = c
			created = append(created, c)
		}
		return nil
	})
	return created, nil
}

func (repo billingRepository) GetCharge(_ context.Context, id string, _ ...core.DBExecutor) (billing.Charge, error) {
	var (
		c  billing.Charge
		ok bool
	)
	repo.s.read(func(t *tables) { c, ok = t.charges[id] })
	if !ok {
		return billing.Charge{}, billing.ErrChargeNotFound
	}
	return c, nil
}

// GetChargeForUpdate needs no lock: transactions are serialized by the Store.
func (repo billingRepository) GetChargeForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (billing.Charge, error) {
	return repo.GetCharge(ctx, id, exec...)
}

func (repo billingRepository) QueryCharges(_ context.Context, filter billing.QueryFilter, _ ...core.DBExecutor) ([]billing.Charge, error) {
	charges := make([]billing.Charge, 0)
	repo.s.read(func(t *tables) {
		for _, c := range t.charges {
			if filter.AlunoID != "" && c.AlunoID != filter.AlunoID {
				continue
			}
			if filter.PoloID != "" && c.PoloID != filter.PoloID {
				continue
			}
			if filter.TurmaID != "" && (c.TurmaID == nil || *c.TurmaID != filter.TurmaID) {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			charges = append(charges, c)
		}
	})
	sort.Slice(charges, func(i, j int) bool {
		if charges[i].Vencimento.Equal(charges[j].Vencimento.Time) {
			return charges[i].CreatedAt.After(charges[j].CreatedAt)
		}
		return charges[i].Vencimento.After(charges[j].Vencimento.Time)
	})
	return charges, nil
}

func (repo billingRepository) UpdateCharge(_ context.Context, charge billing.Charge, exec ...core.DBExecutor) (billing.Charge, error) {
	err := repo.s.write(exec, func(t *tables) error {
		if _, ok := t.charges[charge.ID]; !ok {
			return billing.ErrChargeNotFound
		}
		t.charges[charge.ID] = charge
		return nil
	})
	if err != nil {
		return billing.Charge{}, err
	}
	return charge, nil
}

func (repo billingRepository) GetFinancialConfig(_ context.Context, _ ...core.DBExecutor) (billing.FinancialConfig, error) {
	var conf *billing.FinancialConfig
	repo.s.read(func(t *tables) { conf = t.finConfig })
	if conf == nil {
		return billing.FinancialConfig{}, billing.ErrConfigNotFound
	}
	return *conf, nil
}

func (repo billingRepository) SaveFinancialConfig(_ context.Context, conf billing.FinancialConfig, exec ...core.DBExecutor) (billing.FinancialConfig, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		c := conf
		t.finConfig = &c
		return nil
	})
	return conf, nil
}
