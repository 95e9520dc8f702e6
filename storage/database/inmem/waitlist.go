package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
)

type waitlistRepository struct {
	s *Store
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(s *Store) *waitlistRepository {
	return &waitlistRepository{s: s}
}

func (repo waitlistRepository) CreateEntry(_ context.Context, entry waitlist.Entry, exec ...core.DBExecutor) (waitlist.Entry, error) {
	err := repo.s.write(exec, func(t *tables) error {
		for _, e := range t.waitlist {
			if e.Email == entry.Email {
				return waitlist.ErrEmailExists
			}
		}
		entry.ID = newID()
		t.waitlist[entry.ID] = entry
		return nil
	})
	if err != nil {
		return waitlist.Entry{}, err
	}
	return entry, nil
}

func (repo waitlistRepository) QueryEntries(_ context.Context, filter waitlist.QueryFilter, _ ...core.DBExecutor) ([]waitlist.Entry, error) {
	entries := make([]waitlist.Entry, 0)
	repo.s.read(func(t *tables) {
		for _, e := range t.waitlist {
			if filter.Status == "" || e.Status == filter.Status {
				entries = append(entries, e)
			}
		}
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (repo waitlistRepository) MarkNotified(_ context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	return repo.s.write(exec, func(t *tables) error {
		e, ok := t.waitlist[id]
		if !ok {
			return core.NewNotFoundError("inscrição na lista de espera")
		}
		e.Status = waitlist.StatusNotificado
		e.NotifiedAt = &at
		t.waitlist[id] = e
		return nil
	})
}
