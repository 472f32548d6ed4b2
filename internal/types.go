package internal

import (
	"fmt"
	"time"
)

// Credentials is one set of AWS keys. Long-lived access keys have no
// Expiration.
type Credentials struct {
	AccessKeyID     string     `json:"accessKeyId"`
	SecretAccessKey string     `json:"secretAccessKey"`
	SessionToken    string     `json:"sessionToken,omitempty"`
	Expiration      *time.Time `json:"expiration,omitempty"`
}

// Valid reports whether both halves of the key pair are set.
func (c *Credentials) Valid() bool {
	return c != nil && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Expired reports whether the credentials carry an expiration that is not
// after now.
func (c *Credentials) Expired(now time.Time) bool {
	return c != nil && c.Expiration != nil && !c.Expiration.After(now)
}

// Role is an assumed IAM role. Credentials are only kept in the encrypted
// session file, never in the preferences file.
type Role struct {
	AccountID   string       `json:"accountId" yaml:"accountId"`
	RoleName    string       `json:"role" yaml:"role"`
	Nickname    string       `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Remember    bool         `json:"remember,omitempty" yaml:"-"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"-"`
}

// ARN is the role ARN passed to AssumeRole.
func (r Role) ARN() string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", r.AccountID, r.RoleName)
}

// Same reports whether r and o name the same role.
func (r Role) Same(o Role) bool {
	return r.AccountID == o.AccountID && r.RoleName == o.RoleName
}

// Identity is what GetCallerIdentity returns.
type Identity struct {
	Arn     string
	Account string
	UserID  string
}

// LoginMethod records how the base credentials were obtained.
type LoginMethod string

const (
	LoginAccessKey LoginMethod = "accessKey"
	LoginCognito   LoginMethod = "cognito"
)

// SessionData is the state kept for the duration of a login.
type SessionData struct {
	UserArn     string       `json:"userArn"`
	AccountID   string       `json:"accountId"`
	LoginMethod LoginMethod  `json:"loginMethod"`
	Credentials *Credentials `json:"credentials,omitempty"`
	Roles       []Role       `json:"roles,omitempty"`
	CurrentRole int          `json:"currentRole"`
	// RouteAfterLogin outlives the credentials: it is kept after an expiry
	// so the next login can return to it.
	RouteAfterLogin string `json:"routeAfterLogin,omitempty"`
}
