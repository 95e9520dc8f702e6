package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

// Roles
const (
	RoleAdmin           = "admin"
	RoleDiretoria       = "diretoria"
	RoleCoordenadorPolo = "coordenador_polo"
	RoleSecretarioPolo  = "secretario_polo"
	RoleProfessor       = "professor"
)

var (
	AdminRoles = []string{RoleAdmin, RoleDiretoria}
	AllRoles   = []string{RoleAdmin, RoleDiretoria, RoleCoordenadorPolo, RoleSecretarioPolo, RoleProfessor}

	rolePriorities = map[string]int{
		RoleAdmin:           50,
		RoleDiretoria:       40,
		RoleCoordenadorPolo: 30,
		RoleSecretarioPolo:  20,
		RoleProfessor:       10,
	}

	Roles = []Role{
		{Name: "Administrador", Value: RoleAdmin},
		{Name: "Diretoria", Value: RoleDiretoria},
		{Name: "Coordenador de Polo", Value: RoleCoordenadorPolo},
		{Name: "Secretário de Polo", Value: RoleSecretarioPolo},
		{Name: "Professor", Value: RoleProfessor},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is a staff account allowed to use the administration API.
type User struct {
	ID           string    `json:"id"`
	Nome         string    `json:"nome"`
	Email        string    `json:"email"`
	PoloID       *string   `json:"polo_id"`
	Roles        []string  `json:"roles"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(AdminRoles...)
}

func (u *User) IsProfessor() bool {
	return u.HasRole(RoleProfessor)
}

func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Nome            string   `json:"nome" validate:"required,notblank"`
	Email           string   `json:"email" validate:"required,email"`
	PoloID          string   `json:"polo_id" validate:"omitempty,uuid"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,roles"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Nome = core.CleanString(nu.Nome)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.PoloID = core.CleanString(nu.PoloID, true /* lower */)
	return validate.Struct(nu)
}

// ResetPassword sets a new password on an existing account.
type ResetPassword struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	usr User
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	PoloID   string   `query:"polo_id"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.PoloID == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.PoloID = core.CleanString(qf.PoloID)
}

// GetFilter selects a single user by ID or Email.
type GetFilter struct {
	ID    string
	Email string
}
