package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal/auth"
	"github.com/chukul/daintree/internal/catalog"
	"github.com/chukul/daintree/internal/router"
	"github.com/chukul/daintree/internal/ui"
)

var (
	accessKeyID     string
	secretAccessKey string
	sessionToken    string

	cognitoPoolID string
	cognitoIssuer string
	cognitoToken  string
)

func init() {
	loginCmd.Flags().StringVar(&accessKeyID, "access-key-id", "", "Access key ID (or AWS_ACCESS_KEY_ID)")
	loginCmd.Flags().StringVar(&secretAccessKey, "secret-access-key", "", "Secret access key (or AWS_SECRET_ACCESS_KEY)")
	loginCmd.Flags().StringVar(&sessionToken, "session-token", "", "Session token for temporary keys (or AWS_SESSION_TOKEN)")

	cognitoCmd.Flags().StringVar(&cognitoPoolID, "pool-id", "", "Cognito identity pool ID (or DAINTREE_IDENTITY_POOL)")
	cognitoCmd.Flags().StringVar(&cognitoIssuer, "issuer", "", "Identity provider issuer; read from the token when empty")
	cognitoCmd.Flags().StringVar(&cognitoToken, "id-token", "", "OpenID Connect id token (or DAINTREE_ID_TOKEN)")

	loginCmd.AddCommand(cognitoCmd)
	rootCmd.AddCommand(loginCmd)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func required(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with an IAM access key",
	Long: `Verify an access key with STS GetCallerIdentity and keep it as the main account.
Missing values are read from the environment (and the --env-file), then prompted for.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()

		id := firstNonEmpty(accessKeyID, os.Getenv("AWS_ACCESS_KEY_ID"))
		secret := firstNonEmpty(secretAccessKey, os.Getenv("AWS_SECRET_ACCESS_KEY"))
		token := firstNonEmpty(sessionToken, os.Getenv("AWS_SESSION_TOKEN"))

		var err error
		if id == "" {
			id, err = ui.Ask(ui.Prompt{Title: "Access Key ID", Placeholder: "AKIA...", Validate: required("access key ID")})
			if err != nil {
				fail("%v", err)
			}
		}
		if secret == "" {
			secret, err = readHidden("Secret Access Key: ")
			if err != nil || secret == "" {
				fail("secret access key is required")
			}
		}

		_, err = ui.Spin("Verifying credentials...", func() (struct{}, error) {
			return struct{}{}, a.auth.LoginWithAccessKey(context.Background(), id, secret, token)
		})
		if err != nil {
			a.printNotes()
			fail("login failed: %v", err)
		}
		afterLogin(a)
	},
}

var cognitoCmd = &cobra.Command{
	Use:   "cognito",
	Short: "Log in through a Cognito identity pool",
	Long: `Exchange an OpenID Connect id token for credentials using a Cognito identity
pool. The identity provider is taken from the token's issuer unless --issuer is set.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()

		pool := firstNonEmpty(cognitoPoolID, os.Getenv("DAINTREE_IDENTITY_POOL"))
		token := firstNonEmpty(cognitoToken, os.Getenv("DAINTREE_ID_TOKEN"))
		if pool == "" {
			fail("--pool-id is required")
		}
		if token == "" {
			var err error
			token, err = readHidden("ID token: ")
			if err != nil || token == "" {
				fail("--id-token is required")
			}
		}

		_, err := ui.Spin("Exchanging token...", func() (struct{}, error) {
			return struct{}{}, a.auth.LoginWithCognito(context.Background(), pool, cognitoIssuer, strings.TrimSpace(token))
		})
		if err != nil {
			a.printNotes()
			if errors.Is(err, auth.ErrIdentityNotFound) {
				fail("the identity pool returned credentials without an identity")
			}
			fail("cognito login failed: %v", err)
		}
		afterLogin(a)
	},
}

// afterLogin reports the new identity and the route the console opens next.
// The route stays recorded for the console to pick up.
func afterLogin(a *app) {
	success("Logged in as %s", a.auth.PrettyCredentials())
	rt := router.New(a.auth, catalog.New(a.auth).Routes()...)
	next := rt.PushURL(a.auth.RouteAfterLogin())
	if rt.ShowRegionsModal() {
		fmt.Fprintln(os.Stderr, "💡 No regions enabled yet. Run: daintree regions set us-east-1 ...")
		return
	}
	fmt.Fprintf(os.Stderr, "💡 Next: daintree console   (opens %s)\n", next.DocumentTitle())
}
