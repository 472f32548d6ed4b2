package cmd

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal/auth"
	"github.com/chukul/daintree/internal/ui"
)

var (
	roleNickname string
	roleRemember bool
)

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Assume and manage IAM roles",
	Long:  `Assume IAM roles with the main account credentials, list the role stack and forget remembered roles.`,
}

var roleAssumeCmd = &cobra.Command{
	Use:   "assume <account-id> <role-name>",
	Short: "Assume a role and make it active",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		a.requireLogin()

		accountID, roleName := args[0], args[1]
		if !accountIDPattern.MatchString(accountID) {
			fail("account ID must be 12 digits, got %q", accountID)
		}

		_, err := ui.Spin(fmt.Sprintf("Assuming %s in %s...", roleName, accountID), func() (struct{}, error) {
			return struct{}{}, a.auth.AssumeRole(context.Background(), auth.RoleRequest{
				AccountID: accountID,
				RoleName:  roleName,
				Nickname:  roleNickname,
				NewRole:   true,
				Remember:  roleRemember,
			})
		})
		if err != nil {
			a.printNotes()
			fail("%v", err)
		}
		success("Now using %s", a.auth.PrettyCredentials())
	},
}

var roleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the role stack",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()

		roles := a.auth.Roles()
		if len(roles) == 0 {
			fmt.Println("📭 No roles assumed or remembered.")
			fmt.Println("\n💡 Assume one with:")
			fmt.Println("   daintree role assume <account-id> <role-name> --remember")
			return
		}

		header := color.New(color.FgCyan, color.Bold).SprintFunc()
		active := color.New(color.FgGreen, color.Bold).SprintFunc()
		fmt.Printf("%-4s %-14s %-30s %-20s %s\n", header("#"), header("ACCOUNT"), header("ROLE"), header("NICKNAME"), header("REMEMBERED"))
		fmt.Println(strings.Repeat("─", 80))

		current := a.auth.CurrentRole()
		for i, r := range roles {
			idx := fmt.Sprintf("%d", i)
			if i == current {
				idx = active("*" + idx)
			}
			remembered := ""
			if r.Remember {
				remembered = "yes"
			}
			fmt.Printf("%-4s %-14s %-30s %-20s %s\n", idx, r.AccountID, truncateText(r.RoleName, 30), truncateText(r.Nickname, 20), remembered)
		}
	},
}

var roleForgetCmd = &cobra.Command{
	Use:     "forget <account-id> <role-name>",
	Aliases: []string{"rm"},
	Short:   "Stop remembering a role across logins",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()

		removed, err := a.auth.ForgetRole(args[0], args[1])
		if err != nil {
			fail("failed to forget role: %v", err)
		}
		if !removed {
			fmt.Printf("Role %s in %s was not remembered.\n", args[1], args[0])
			return
		}
		success("Forgot %s in %s", args[1], args[0])
	},
}

func init() {
	roleAssumeCmd.Flags().StringVar(&roleNickname, "nickname", "", "Display name for the role")
	roleAssumeCmd.Flags().BoolVar(&roleRemember, "remember", false, "Keep the role in the list after logout")

	roleCmd.AddCommand(roleAssumeCmd)
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleForgetCmd)
	rootCmd.AddCommand(roleCmd)
}
