package inmem

import (
	"context"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
)

type auditRepository struct {
	s *Store
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(s *Store) *auditRepository {
	return &auditRepository{s: s}
}

func (repo auditRepository) CreateEntry(_ context.Context, entry audit.Entry, exec ...core.DBExecutor) (audit.Entry, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		entry.ID = newID()
		t.audit = append(t.audit, entry)
		return nil
	})
	return entry, nil
}

// QueryEntries returns matching entries, latest first.
func (repo auditRepository) QueryEntries(_ context.Context, filter audit.QueryFilter, _ ...core.DBExecutor) ([]audit.Entry, error) {
	entries := make([]audit.Entry, 0)
	repo.s.read(func(t *tables) {
		for i := len(t.audit) - 1; i >= 0; i-- {
			e := t.audit[i]
			if filter.Entity != "" && e.Entity != filter.Entity {
				continue
			}
			if filter.EntityID != "" && e.EntityID != filter.EntityID {
				continue
			}
			entries = append(entries, e)
		}
	})
	return entries, nil
}
