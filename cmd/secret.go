package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the session encryption secret",
	Long:  `Manage the secret used to encrypt the session file.`,
}

var secretInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a secret and store it in the keychain",
	Long:  "Generate a random secret and save it in the macOS login keychain, replacing any previous one. Existing sessions become unreadable.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !internal.KeychainSupported() {
			fmt.Println("❌ Keychain integration is only available on macOS")
			fmt.Println("\n💡 Generate a secret and export it instead:")
			fmt.Printf("   export %s=$(daintree secret generate)\n", internal.SecretEnv)
			return
		}
		secret, err := internal.SetupKeychain()
		if err != nil {
			fail("%v", err)
		}
		success("Secret stored in the keychain")
		fmt.Println(strings.Repeat("─", 64))
		fmt.Println(secret)
		fmt.Println(strings.Repeat("─", 64))
		fmt.Println("\n⚠️  KEEP THIS SAFE! You will need it to read the session on another machine.")
	},
}

var secretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a new random secret",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		key := make([]byte, internal.MinSecretLength/2)
		if _, err := rand.Read(key); err != nil {
			fail("%v", err)
		}
		fmt.Println(hex.EncodeToString(key))
	},
}

var secretCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that a usable secret is configured",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := internal.GetSecret(secretFlag); err != nil {
			fail("%v", err)
		}
		success("Secret found")
	},
}

func init() {
	secretCmd.AddCommand(secretInitCmd)
	secretCmd.AddCommand(secretGenerateCmd)
	secretCmd.AddCommand(secretCheckCmd)
	rootCmd.AddCommand(secretCmd)
}
