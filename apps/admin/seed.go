package main

import (
	"context"
	"fmt"
)

// seed creates the configured admin unless an admin already exists.
func (cli *commandLine) seed() error {
	created, err := cli.usrSvc.EnsureAdmin(context.Background(), cli.db, cli.conf.Admin.Username, cli.conf.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("admin %q created\n", cli.conf.Admin.Username)
	} else {
		fmt.Println("an admin already exists")
	}
	return nil
}
