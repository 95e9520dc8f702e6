package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

type userRepository struct {
	s *Store
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(s *Store) *userRepository {
	return &userRepository{s: s}
}

func (repo userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs []string, _ ...core.DBExecutor) error {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	var exists bool
	repo.s.read(func(t *tables) {
		for _, u := range t.users {
			if u.Email == email && !excluded[u.ID] {
				exists = true
				return
			}
		}
	})
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	_ = repo.s.write(exec, func(t *tables) error {
		usr.ID = newID()
		t.users[usr.ID] = usr
		return nil
	})
	return usr, nil
}

func (repo userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	users := make([]user.User, 0)
	search := strings.ToLower(filter.Search)
	repo.s.read(func(t *tables) {
		for _, u := range t.users {
			if search != "" && !strings.Contains(strings.ToLower(u.Nome), search) && !strings.Contains(u.Email, search) {
				continue
			}
			if len(filter.Roles) > 0 && !u.HasRole(filter.Roles...) {
				continue
			}
			if filter.PoloID != "" && (u.PoloID == nil || *u.PoloID != filter.PoloID) {
				continue
			}
			if filter.IsActive != nil && u.Active() != *filter.IsActive {
				continue
			}
			users = append(users, u)
		}
	})

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareUsers(users[i], users[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return users, nil
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "nome":
		return strings.Compare(a.Nome, b.Nome)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "last_login":
		return compareTimes(a.LastLogin.UnixNano(), b.LastLogin.UnixNano())
	default:
		return compareTimes(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	}
}

func compareTimes(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	var (
		usr   user.User
		found bool
	)
	repo.s.read(func(t *tables) {
		if filter.ID != "" {
			usr, found = t.users[filter.ID]
			return
		}
		if filter.Email == "" {
			return
		}
		for _, u := range t.users {
			if u.Email == filter.Email {
				usr, found = u, true
				return
			}
		}
	})
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := repo.s.write(exec, func(t *tables) error {
		if _, ok := t.users[usr.ID]; !ok {
			return user.ErrNotFound
		}
		t.users[usr.ID] = usr
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}
