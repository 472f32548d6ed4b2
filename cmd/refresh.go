package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal/auth"
	"github.com/chukul/daintree/internal/ui"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Assume the active role again for fresh credentials",
	Long: `Assume the active role again with the main account credentials. The role keeps
its place and nickname in the stack. The main account itself cannot be refreshed;
log in again instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		a.requireLogin()

		current := a.auth.CurrentRole()
		if current == auth.MainAccount {
			fail("the main account has no role to refresh, run 'daintree login' for new keys")
		}
		role := a.auth.Roles()[current]

		_, err := ui.Spin("Refreshing "+role.ARN()+"...", func() (struct{}, error) {
			return struct{}{}, a.auth.AssumeRole(context.Background(), auth.RoleRequest{
				AccountID: role.AccountID,
				RoleName:  role.RoleName,
				Nickname:  role.Nickname,
			})
		})
		if err != nil {
			a.printNotes()
			fail("%v", err)
		}
		success("Refreshed %s", a.auth.PrettyCredentials())
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
