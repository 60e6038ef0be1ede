package main

import (
	"context"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	return cli.usrRepo.UpdatePassword(ctx, usr)
}
