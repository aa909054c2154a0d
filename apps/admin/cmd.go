package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sqlx.DB
	usrSvc   *user.Service
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose command (up, down, status, ...) against the database")
	fmt.Println("  adduser -username USERNAME [-firstname NAME] [-lastname NAME] [-admin] - create a teacher, or an admin")
	fmt.Println("  resetpassword -username USERNAME - reset user's password")
	fmt.Println("  seed - create the configured admin if no admin exists yet")
}

// promptPassword reads a password from the terminal; an empty one prints the usage of cmd.
func promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserFirstName := addUserCmd.String("firstname", "", "The user's first name.")
	addUserLastName := addUserCmd.String("lastname", "", "The user's last name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Create an admin instead of a teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		role := user.RoleTeacher
		if *addUserAdmin {
			role = user.RoleAdmin
		}
		return cli.addUser(user.NewUser{
			Username:  *addUserUname,
			FirstName: *addUserFirstName,
			LastName:  *addUserLastName,
			Role:      role,
			Password:  pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}
