package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Print the active credentials as shell exports",
	Long:    `Print export statements for the active credentials. Use with eval.`,
	Example: `  eval $(daintree export)`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		a.requireLogin()

		creds, err := a.auth.Credentials("")
		if err != nil {
			a.printNotes()
			fail("%v", err)
		}

		// Output shell-compatible export commands
		fmt.Printf("export AWS_ACCESS_KEY_ID=%s\n", creds.AccessKeyID)
		fmt.Printf("export AWS_SECRET_ACCESS_KEY=%s\n", creds.SecretAccessKey)
		if creds.SessionToken != "" {
			fmt.Printf("export AWS_SESSION_TOKEN=%s\n", creds.SessionToken)
		} else {
			fmt.Println("unset AWS_SESSION_TOKEN")
		}
		if regions := a.auth.Regions(); len(regions) > 0 {
			fmt.Printf("export AWS_REGION=%s\n", regions[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
