package main

import (
	"context"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.ResetPassword(ctx, usr, user.ResetPassword{Password: pwd, PasswordConfirm: pwd})
	return err
}
