package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/log"
)

var (
	secretFlag string
	envFile    string
)

func printLogo() {
	ascii := []string{
		`  ___   _   ___ _  _ _____ ___ ___ ___ `,
		` |   \ /_\ |_ _| \| |_   _| _ \ __| __|`,
		` | |) / _ \ | || .' | | | |   / _|| _| `,
		` |___/_/ \_\___|_|\_| |_| |_|_\___|___|`,
	}

	fmt.Println()
	for _, line := range ascii {
		for i, char := range line {
			// Green to blue
			ratio := float64(i) / float64(len(line))
			g := int(200*(1-ratio) + 120*ratio)
			b := int(120*(1-ratio) + 255*ratio)
			fmt.Printf("\x1b[38;2;0;%d;%dm%c\x1b[0m", g, b, char)
		}
		fmt.Println()
	}
	fmt.Println("\x1b[1m  A multi-account, multi-region AWS console for the terminal\x1b[0m")
	fmt.Println()
}

var rootCmd = &cobra.Command{
	Use:   "daintree",
	Short: "daintree lists and inspects AWS resources across accounts and regions",
	Long: `Daintree keeps one login, any number of assumed roles and a set of enabled
regions, and shows EC2, VPC, ELB, ECS, SNS and SQS resources from all of them at once.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.InitLogger()
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Warnf("failed to read %s: %v", envFile, err)
		}
		if cmd.Name() != "version" {
			go notifyUpdate()
		}
	},
}

// notifyUpdate prints a hint when a newer release exists. It never blocks a
// command for long and stays silent on errors.
func notifyUpdate() {
	u := internal.NewUpdateChecker()
	if !u.Due() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rel, err := u.Latest(ctx)
	if err != nil {
		log.Debugf("update check failed: %v", err)
		return
	}
	if internal.IsNewer(rel.TagName, internal.CurrentVersion) {
		fmt.Fprintf(os.Stderr, "💡 Update available: %s → %s (%s)\n", internal.CurrentVersion, rel.TagName, rel.HTMLURL)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&secretFlag, "secret", "", "Session encryption secret (or set "+internal.SecretEnv+")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with AWS_* and DAINTREE_* variables")
}

// Execute runs the CLI
func Execute() {
	if len(os.Args) <= 1 || os.Args[1] == "help" {
		printLogo()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
