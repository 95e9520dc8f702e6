package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	usrSvc     *user.Service
	schoolSvc  *school.Service
	waitSvc    *waitlist.Service
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                    - run database migrations (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  adduser -nome NOME -email EMAIL [-roles admin,diretoria] - create a user or update an existing one")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                                - reset a user's password")
	fmt.Fprintln(cli.out, "  addpolo -nome NOME -codigo CODIGO -cidade CIDADE          - register a polo")
	fmt.Fprintln(cli.out, "  notifywaitlist                                            - email every pending waitlist entry")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserNome := addUserCmd.String("nome", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRoles := addUserCmd.String("roles", user.RoleAdmin, "Comma-separated roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	addPoloCmd := flag.NewFlagSet("addpolo", flag.ExitOnError)
	addPoloNome := addPoloCmd.String("nome", "", "The polo's name.")
	addPoloCodigo := addPoloCmd.String("codigo", "", "The polo's unique code.")
	addPoloCidade := addPoloCmd.String("cidade", "", "The polo's city.")

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
		if *addUserEmail == "" || *addUserNome == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		usr, err := cli.addUser(*addUserNome, *addUserEmail, pwd, splitRoles(*addUserRoles))
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %s saved (%s)\n", usr.Email, strings.Join(usr.Roles, ", "))
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "addpolo":
		if err := addPoloCmd.Parse(args[2:]); err != nil {
			return err
		}
		polo, err := cli.addPolo(*addPoloNome, *addPoloCodigo, *addPoloCidade)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "polo %s created: %s\n", polo.Codigo, polo.ID)
		return nil

	case "notifywaitlist":
		n, err := cli.notifyWaitlist()
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d notification(s) sent\n", n)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func splitRoles(s string) []string {
	roles := make([]string, 0)
	for _, r := range strings.Split(s, ",") {
		if r = core.CleanString(r, true /* lower */); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// describe renders validation errors field by field.
func (cli *commandLine) describe(err error) string {
	var fields map[string]string
	switch e := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		fields = core.TranslateErrors(e, cli.translator)
	case *core.ValidationError:
		fields = make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			fields[f.Field] = f.Error
		}
	default:
		return err.Error()
	}

	lines := make([]string, 0, len(fields))
	for fld, msg := range fields {
		lines = append(lines, fmt.Sprintf("  %s: %s", fld, msg))
	}
	sort.Strings(lines)
	return "invalid data\n" + strings.Join(lines, "\n")
}
