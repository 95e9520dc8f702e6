package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

// addUser creates a staff account, or updates the roles and password of an existing one.
func (cli *commandLine) addUser(nome, email, pwd string, roles []string) (user.User, error) {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, user.NewUser{
			Nome:            nome,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})
	}

	usr.Nome = core.CleanString(nome)
	usr.Roles = roles
	isActive := true
	usr.IsActive = &isActive
	return cli.usrSvc.ResetPassword(ctx, usr, user.ResetPassword{Password: pwd, PasswordConfirm: pwd})
}
