package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanhub/lanhub/internal/cli/output"
	"github.com/lanhub/lanhub/internal/users"
)

var usersFile string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect the users file",
	Long: `Inspect the users file without starting the server.

Examples:
  # List all users and their capabilities
  lanhubd users list --file users.csv

  # Validate the file format only
  lanhubd users check --file users.csv`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users and their capability flags",
	RunE:  runUsersList,
}

var usersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the users file format",
	RunE:  runUsersCheck,
}

func init() {
	usersCmd.PersistentFlags().StringVar(&usersFile, "file", "users.csv", "Path to the users file")
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCheckCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	table, err := users.LoadFile(usersFile)
	if err != nil {
		return err
	}

	t := output.NewTable("id", "msg down", "msg up", "file down", "file up")
	for _, id := range table.IDs() {
		rec := table.Lookup(id)
		t.AddRow(id,
			yesNo(rec.Perms.MsgDown), yesNo(rec.Perms.MsgUp),
			yesNo(rec.Perms.FileDown), yesNo(rec.Perms.FileUp))
	}
	t.Render(os.Stdout)
	fmt.Printf("\n%d user(s)\n", table.Len())
	return nil
}

func runUsersCheck(cmd *cobra.Command, args []string) error {
	table, err := users.LoadFile(usersFile)
	if err != nil {
		return err
	}
	fmt.Printf("%s: OK (%d users)\n", usersFile, table.Len())
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
