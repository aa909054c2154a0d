package main

import (
	"context"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	return cli.usrSvc.ResetPassword(context.Background(), cli.db, uname, pwd)
}
