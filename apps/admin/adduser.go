package main

import (
	"context"
	"fmt"

	"github.com/trezcool/classbook/core/user"
)

// addUser creates a user.User after checking the password policy.
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), cli.db, nu)
	if err != nil {
		return err
	}
	fmt.Printf("%s %q created\n", usr.Role, usr.Username)
	return nil
}
