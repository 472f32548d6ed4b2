package cmd

import (
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget every credential",
	Long: `Log out of the main account and every assumed role and delete the encrypted
session file. Enabled regions and remembered roles are kept.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		if !a.auth.IsLoggedIn() {
			success("Already logged out")
			return
		}
		who := a.auth.PrettyCredentials()
		if err := a.auth.Logout(); err != nil {
			fail("failed to clear session: %v", err)
		}
		success("Logged out %s", who)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
