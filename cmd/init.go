package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate shell integration code",
	Long:  `Generate shell integration code to simplify daintree usage. Add the output to your shell config file.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		shell := detectShell()

		fmt.Printf("# Daintree shell integration for %s\n", shell)
		fmt.Println("# Add this to your shell config file:")
		fmt.Println("# - Bash: ~/.bashrc or ~/.bash_profile")
		fmt.Println("# - Zsh: ~/.zshrc")
		fmt.Println("# - Fish: ~/.config/fish/config.fish")
		fmt.Println()

		switch shell {
		case "fish":
			printFishIntegration()
		default:
			printBashZshIntegration()
		}
	},
}

func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		if runtime.GOOS == "windows" {
			return "powershell"
		}
		return "bash"
	}
	return filepath.Base(shell)
}

func printBashZshIntegration() {
	fmt.Println(`# Switch role and load its credentials - usage: dts [index|nickname|main]
dts() {
  daintree switch "$@" && eval "$(daintree export)"
}

# Show the active identity in the prompt (optional)
daintree_prompt() {
  daintree prompt 2>/dev/null
}

# PS1='$(daintree_prompt) \u@\h:\w\$ '
# PROMPT='$(daintree_prompt) %n@%m:%~%# '

alias dtl='daintree login'
alias dtst='daintree status'
alias dtc='daintree console'`)
}

func printFishIntegration() {
	fmt.Println(`# Switch role and load its credentials - usage: dts [index|nickname|main]
function dts
    daintree switch $argv; and eval (daintree export)
end

# Show the active identity in the prompt (optional)
function fish_prompt
    set_color green
    daintree prompt 2>/dev/null
    set_color normal
    echo -n ' '
    set_color blue
    echo -n (whoami)@(hostname):(prompt_pwd)
    set_color normal
    echo -n '> '
end

alias dtl='daintree login'
alias dtst='daintree status'
alias dtc='daintree console'`)
}

func init() {
	rootCmd.AddCommand(initCmd)
}
