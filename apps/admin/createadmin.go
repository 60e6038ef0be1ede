package main

import (
	"context"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

// createAdmin bootstraps an administrator account.
func (cli *commandLine) createAdmin(email, firstname, pwd string) error {
	ctx := context.Background()
	usr := user.User{
		Email:     core.CleanString(email, true /* lower */),
		Firstname: core.CleanString(firstname),
		Role:      access.RoleAdmin,
		CreatedAt: core.Now(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.usrRepo.CreateUser(ctx, usr)
	return err
}
