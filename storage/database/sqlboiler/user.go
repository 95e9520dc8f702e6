// Package boiledrepos implements repositories with sqlboiler raw queries bound to plain row structs.
package boiledrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

const (
	userColumns = "id, nome, email, polo_id, roles, is_active, password_hash, created_at, updated_at, last_login"

	pqUniqueViolation = "23505"
)

// orderable maps the accepted ordering fields to their columns.
var orderable = map[string]string{
	"nome":       "nome",
	"email":      "email",
	"last_login": "last_login",
	"created_at": "created_at",
}

type userRow struct {
	ID           string         `boil:"id"`
	Nome         string         `boil:"nome"`
	Email        string         `boil:"email"`
	PoloID       null.String    `boil:"polo_id"`
	Roles        pq.StringArray `boil:"roles"`
	IsActive     bool           `boil:"is_active"`
	PasswordHash []byte         `boil:"password_hash"`
	CreatedAt    time.Time      `boil:"created_at"`
	UpdatedAt    time.Time      `boil:"updated_at"`
	LastLogin    null.Time      `boil:"last_login"`
}

func boilUser(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		Nome:         usr.Nome,
		Email:        usr.Email,
		PoloID:       null.StringFromPtr(usr.PoloID),
		Roles:        roles,
		IsActive:     usr.Active(),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) unboil() user.User {
	isActive := r.IsActive
	roles := []string(r.Roles)
	if roles == nil {
		roles = []string{}
	}
	return user.User{
		ID:           r.ID,
		Nome:         r.Nome,
		Email:        r.Email,
		PoloID:       r.PoloID.Ptr(),
		Roles:        roles,
		IsActive:     &isActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && string(pqErr.Code) == pqUniqueViolation
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) selectUsers(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) ([]user.User, error) {
	var rows []*userRow
	if err := queries.Raw(q, args...).Bind(ctx, core.GetExec(repo.exec, exec), &rows); err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unboil())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (user.User, error) {
	users, err := repo.selectUsers(ctx, exec, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	if len(users) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return users[0], nil
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	var res struct {
		Found bool `boil:"found"`
	}
	q := `SELECT EXISTS (SELECT 1 FROM usuarios WHERE email = $1 AND NOT (id::text = ANY($2))) AS found`
	if err := queries.Raw(q, email, pq.StringArray(excludedIDs)).Bind(ctx, core.GetExec(repo.exec, exec), &res); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if res.Found {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	r := boilUser(usr)
	_, err := queries.Raw(
		`INSERT INTO usuarios (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Nome, r.Email, r.PoloID, r.Roles, r.IsActive, r.PasswordHash, r.CreatedAt, r.UpdatedAt, r.LastLogin,
	).ExecContext(ctx, core.GetExec(repo.exec, exec))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return r.unboil(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// users with Nome or Email matching the search keyword
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(nome ILIKE %s OR email ILIKE %s)", p, p))
	}
	// users holding any of the provided roles
	if len(filter.Roles) > 0 {
		conds = append(conds, "roles && "+arg(pq.StringArray(filter.Roles)))
	}
	if filter.PoloID != "" {
		conds = append(conds, "polo_id::text = "+arg(filter.PoloID))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}

	q := `SELECT ` + userColumns + ` FROM usuarios`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}

	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := orderable[ord.Field]; ok {
			ord.Field = col
			orderList = append(orderList, ord.String()+" NULLS LAST")
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "created_at DESC")
	}
	q += ` ORDER BY ` + strings.Join(orderList, ", ")

	users, err := repo.selectUsers(ctx, exec, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		return repo.getUser(ctx, exec, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, filter.ID)
	case filter.Email != "":
		return repo.getUser(ctx, exec, `SELECT `+userColumns+` FROM usuarios WHERE email = $1`, filter.Email)
	}
	return user.User{}, user.ErrNotFound
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if _, err := uuid.Parse(usr.ID); err != nil {
		return user.User{}, user.ErrNotFound
	}
	r := boilUser(usr)
	return repo.getUser(ctx, exec,
		`UPDATE usuarios SET nome = $1, email = $2, polo_id = $3, roles = $4, is_active = $5, password_hash = $6, `+
			`updated_at = $7, last_login = $8 WHERE id = $9 RETURNING `+userColumns,
		r.Nome, r.Email, r.PoloID, r.Roles, r.IsActive, r.PasswordHash, r.UpdatedAt, r.LastLogin, r.ID)
}
