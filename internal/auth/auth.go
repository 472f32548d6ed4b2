// Package auth is the credential store: the base login, the stack of
// assumed roles and which of them is active. Every AWS call in daintree
// takes its credentials from here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/golang-jwt/jwt/v5"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/log"
	"github.com/chukul/daintree/internal/notify"
	"github.com/chukul/daintree/internal/router"
)

var (
	ErrCredentialsMissing = errors.New("no credentials found")
	ErrCredentialsExpired = errors.New("credentials have expired")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrIdentityNotFound   = errors.New("caller identity not found")
	ErrAssumeRoleFailed   = errors.New("assume role failed")
)

// Notification keys raised by the store.
const (
	KeyLogin              = "login"
	KeyCognito            = "cognitoCallback"
	KeyAssumeRole         = "assumeRole"
	KeyCredentialsExpired = "credentialsExpired"
)

// DefaultRouteAfterLogin is where a fresh login lands.
const DefaultRouteAfterLogin = "/home"

// MainAccount is the CurrentRole value when no role is assumed.
const MainAccount = -1

// State of the credential store.
type State int

const (
	LoggedOut State = iota
	LoggedIn
	RoleAssumed
)

func (s State) String() string {
	switch s {
	case LoggedIn:
		return "logged in"
	case RoleAssumed:
		return "role assumed"
	default:
		return "logged out"
	}
}

// Provider performs the STS and Cognito calls. *internal.AWS implements it.
type Provider interface {
	GetCallerIdentity(ctx context.Context, c internal.Credentials) (internal.Identity, error)
	AssumeRole(ctx context.Context, base internal.Credentials, roleArn string) (internal.Credentials, error)
	CognitoCredentials(ctx context.Context, poolID string, logins map[string]string) (internal.Credentials, error)
}

// Prefs is the durable part of the store. *config.File implements it.
type Prefs interface {
	Regions() []string
	SetRegions(regions []string) error
	Roles() []internal.Role
	RememberRole(r internal.Role) error
	ForgetRole(accountID, roleName string) (bool, error)
}

// RoleRequest asks for a role to be assumed.
type RoleRequest struct {
	AccountID string
	RoleName  string
	Nickname  string
	NewRole   bool
	Remember  bool
}

// Store is safe for concurrent use. Observers are called without the lock
// held.
type Store struct {
	provider Provider
	session  internal.SessionStore
	prefs    Prefs
	notifier notify.Notifier
	now      func() time.Time

	mu         sync.Mutex
	data       internal.SessionData
	current    *internal.Credentials
	regions    []string
	expired    bool
	roleSubs   []func()
	regionSubs []func([]string)
}

// Option configures a Store.
type Option func(*Store)

func WithNotifier(n notify.Notifier) Option { return func(s *Store) { s.notifier = n } }
func WithPrefs(p Prefs) Option { return func(s *Store) { s.prefs = p } }
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New returns a logged-out store. Call Restore to pick up a saved session.
func New(provider Provider, session internal.SessionStore, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		session:  session,
		notifier: notify.NewStore(),
		now:      time.Now,
		data:     internal.SessionData{CurrentRole: MainAccount},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.prefs != nil {
		s.regions = s.prefs.Regions()
	}
	return s
}

// Restore loads the saved session, if any, and merges in remembered roles.
func (s *Store) Restore() error {
	data, err := s.session.Load()
	if errors.Is(err, internal.ErrNoSession) {
		s.mu.Lock()
		s.mergeRememberedLocked()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	if s.data.CurrentRole < MainAccount || s.data.CurrentRole >= len(s.data.Roles) {
		s.data.CurrentRole = MainAccount
	}
	if s.data.CurrentRole != MainAccount {
		s.current = s.data.Roles[s.data.CurrentRole].Credentials
	}
	s.mergeRememberedLocked()
	log.Debugf("restored session for %s (%s)", s.data.UserArn, s.state())
	return nil
}

func (s *Store) mergeRememberedLocked() {
	if s.prefs == nil {
		return
	}
	for _, r := range s.prefs.Roles() {
		if s.roleIndexLocked(r) >= 0 {
			continue
		}
		r.Remember = true
		s.data.Roles = append(s.data.Roles, r)
	}
}

// LoginWithAccessKey verifies the key pair with GetCallerIdentity and makes
// it the base credentials.
func (s *Store) LoginWithAccessKey(ctx context.Context, accessKeyID, secretAccessKey, sessionToken string) error {
	s.notifier.DismissByKey(KeyLogin)

	creds := internal.Credentials{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		SessionToken:    sessionToken,
	}
	id, err := s.identify(ctx, creds)
	if err != nil {
		s.notifier.Show(notify.Notification{Key: KeyLogin, Text: err.Error(), Variant: notify.Danger})
		return err
	}
	return s.login(id, internal.LoginAccessKey, creds)
}

// LoginWithCognito exchanges an identity-provider token for credentials via
// a Cognito identity pool. An empty issuer is read from the token's iss
// claim.
func (s *Store) LoginWithCognito(ctx context.Context, poolID, issuer, idToken string) error {
	s.notifier.DismissByKey(KeyCognito)

	fail := func(err error) error {
		s.notifier.Show(notify.Notification{Key: KeyCognito, Text: err.Error(), Variant: notify.Danger})
		return err
	}

	if issuer == "" {
		iss, err := TokenIssuer(idToken)
		if err != nil {
			return fail(err)
		}
		issuer = iss
	}
	// Identity pools key logins by issuer without the scheme.
	issuer = strings.TrimPrefix(issuer, "https://")

	creds, err := s.provider.CognitoCredentials(ctx, poolID, map[string]string{issuer: idToken})
	if err != nil {
		return fail(err)
	}
	id, err := s.identify(ctx, creds)
	if err != nil {
		return fail(err)
	}
	return s.login(id, internal.LoginCognito, creds)
}

// TokenIssuer returns the iss claim of a JWT without verifying it. The
// identity pool does the verification.
func TokenIssuer(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse id token: %w", err)
	}
	iss, err := claims.GetIssuer()
	if err != nil || iss == "" {
		return "", errors.New("id token has no issuer")
	}
	return iss, nil
}

func (s *Store) identify(ctx context.Context, creds internal.Credentials) (internal.Identity, error) {
	id, err := s.provider.GetCallerIdentity(ctx, creds)
	if err != nil {
		return internal.Identity{}, err
	}
	if id.Arn == "" || id.Account == "" {
		return internal.Identity{}, ErrIdentityNotFound
	}
	return id, nil
}

func (s *Store) login(id internal.Identity, method internal.LoginMethod, creds internal.Credentials) error {
	s.mu.Lock()
	roles := s.data.Roles
	for i := range roles {
		roles[i].Credentials = nil
	}
	s.data = internal.SessionData{
		UserArn:         id.Arn,
		AccountID:       id.Account,
		LoginMethod:     method,
		Credentials:     &creds,
		Roles:           roles,
		CurrentRole:     MainAccount,
		RouteAfterLogin: s.data.RouteAfterLogin,
	}
	s.current = nil
	s.expired = false
	s.mergeRememberedLocked()
	err := s.saveLocked()
	s.mu.Unlock()

	log.Infof("logged in as %s via %s", id.Arn, method)
	s.roleChanged()
	return err
}

// AssumeRole assumes req's role with the base credentials. On success the
// role becomes active: a new entry is pushed, or the matching existing one
// is refreshed. On failure nothing changes.
func (s *Store) AssumeRole(ctx context.Context, req RoleRequest) error {
	s.mu.Lock()
	if s.data.Credentials == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	base := *s.data.Credentials
	s.mu.Unlock()

	role := internal.Role{AccountID: req.AccountID, RoleName: req.RoleName, Nickname: req.Nickname, Remember: req.Remember}
	creds, err := s.provider.AssumeRole(ctx, base, role.ARN())
	if err != nil {
		s.notifier.Show(notify.Notification{Key: KeyAssumeRole, Text: err.Error(), Variant: notify.Danger})
		return fmt.Errorf("%w: %s: %w", ErrAssumeRoleFailed, role.ARN(), err)
	}
	role.Credentials = &creds

	s.mu.Lock()
	idx := s.roleIndexLocked(role)
	if idx < 0 {
		s.data.Roles = append(s.data.Roles, role)
		idx = len(s.data.Roles) - 1
	} else {
		existing := &s.data.Roles[idx]
		existing.Credentials = &creds
		if req.NewRole && req.Nickname != "" {
			existing.Nickname = req.Nickname
		}
		existing.Remember = existing.Remember || req.Remember
		role = *existing
	}
	s.data.CurrentRole = idx
	s.current = &creds
	err = s.saveLocked()
	s.mu.Unlock()

	if req.Remember && s.prefs != nil {
		if perr := s.prefs.RememberRole(role); perr != nil {
			log.Warnf("failed to remember role %s: %v", role.ARN(), perr)
		}
	}
	log.Infof("assumed role %s", role.ARN())
	s.roleChanged()
	return err
}

// SwitchRole activates the role at index, reusing its cached credentials
// when they have not expired.
func (s *Store) SwitchRole(ctx context.Context, index int) error {
	s.mu.Lock()
	if index == MainAccount {
		s.mu.Unlock()
		return s.BackToMain()
	}
	if index < 0 || index >= len(s.data.Roles) {
		s.mu.Unlock()
		return fmt.Errorf("no role at index %d", index)
	}
	role := s.data.Roles[index]
	if role.Credentials.Valid() && !role.Credentials.Expired(s.now()) {
		s.data.CurrentRole = index
		s.current = role.Credentials
		err := s.saveLocked()
		s.mu.Unlock()
		log.Debugf("switched to cached role %s", role.ARN())
		s.roleChanged()
		return err
	}
	s.mu.Unlock()

	return s.AssumeRole(ctx, RoleRequest{
		AccountID: role.AccountID,
		RoleName:  role.RoleName,
		Nickname:  role.Nickname,
	})
}

// BackToMain deactivates the current role.
func (s *Store) BackToMain() error {
	s.mu.Lock()
	s.data.CurrentRole = MainAccount
	s.current = nil
	err := s.saveLocked()
	s.mu.Unlock()

	s.roleChanged()
	return err
}

// Logout forgets every credential and removes the session file. Enabled
// regions and remembered roles stay in the preferences file.
func (s *Store) Logout() error {
	return s.endSession("", false)
}

// endSession clears the session. A non-empty route is written back so the
// next process to log in can return to it.
func (s *Store) endSession(route string, expired bool) error {
	s.mu.Lock()
	s.data = internal.SessionData{CurrentRole: MainAccount, RouteAfterLogin: route}
	s.current = nil
	s.expired = expired
	s.mergeRememberedLocked()
	err := s.saveLocked()
	s.mu.Unlock()

	log.Infof("logged out")
	s.roleChanged()
	return err
}

// Credentials returns the active credentials. Missing or expired
// credentials raise a warning notification; expired ones also end the
// session and remember route for after the next login.
func (s *Store) Credentials(route string) (internal.Credentials, error) {
	s.mu.Lock()
	active := s.activeLocked()
	if active == nil {
		expired := s.expired
		s.mu.Unlock()
		if expired {
			// Fetches racing the expiry keep its notification.
			return internal.Credentials{}, ErrCredentialsExpired
		}
		s.notifier.Show(notify.Notification{
			Key:     KeyCredentialsExpired,
			Text:    "No credentials found.",
			Variant: notify.Warning,
		})
		return internal.Credentials{}, ErrCredentialsMissing
	}
	if active.Expired(s.now()) {
		s.mu.Unlock()
		s.notifier.Show(notify.Notification{
			Key:     KeyCredentialsExpired,
			Text:    "Your credentials have expired, please login again.",
			Variant: notify.Warning,
		})
		if err := s.endSession(route, true); err != nil {
			log.Warnf("failed to clear expired session: %v", err)
		}
		return internal.Credentials{}, ErrCredentialsExpired
	}
	c := *active
	s.mu.Unlock()
	return c, nil
}

// AWSConfig returns an SDK config for region signed with the active
// credentials. The route in ctx (see router.NewContext) is what Credentials
// records on expiry.
func (s *Store) AWSConfig(ctx context.Context, region string) (aws.Config, error) {
	route, _ := router.FromContext(ctx)
	creds, err := s.Credentials(route)
	if err != nil {
		return aws.Config{}, err
	}
	return internal.LoadAWSConfig(ctx, internal.WithRegion(region), internal.WithCredentials(&creds))
}

func (s *Store) activeLocked() *internal.Credentials {
	if s.data.CurrentRole != MainAccount {
		return s.current
	}
	return s.data.Credentials
}

func (s *Store) roleIndexLocked(r internal.Role) int {
	return slices.IndexFunc(s.data.Roles, r.Same)
}

func (s *Store) saveLocked() error {
	data := s.data
	if data.Credentials == nil {
		if data.RouteAfterLogin == "" {
			return s.session.Clear()
		}
		data = internal.SessionData{CurrentRole: MainAccount, RouteAfterLogin: data.RouteAfterLogin}
	}
	if err := s.session.Save(data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) state() State {
	switch {
	case s.data.Credentials == nil:
		return LoggedOut
	case s.data.CurrentRole != MainAccount:
		return RoleAssumed
	default:
		return LoggedIn
	}
}

// State reports where the store is in its lifecycle.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// IsLoggedIn reports whether base credentials are present.
func (s *Store) IsLoggedIn() bool {
	return s.State() != LoggedOut
}

func (s *Store) UserArn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UserArn
}

func (s *Store) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AccountID
}

func (s *Store) LoginMethod() internal.LoginMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LoginMethod
}

// Roles returns the role stack without credentials.
func (s *Store) Roles() []internal.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.data.Roles)
	for i := range out {
		out[i].Credentials = nil
	}
	return out
}

// CurrentRole is the active role index or MainAccount.
func (s *Store) CurrentRole() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CurrentRole
}

// PrettyCredentials names the active identity for display: the username
// and account of the base login, or the role's nickname, or role @ account.
func (s *Store) PrettyCredentials() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.CurrentRole == MainAccount {
		var b strings.Builder
		if s.data.UserArn != "" {
			elems := strings.Split(s.data.UserArn, "/")
			// Cognito ARNs end in the session name, the user sits before it.
			back := 1
			if s.data.LoginMethod == internal.LoginCognito && len(elems) > 1 {
				back = 2
			}
			b.WriteString(elems[len(elems)-back])
		}
		if s.data.AccountID != "" {
			fmt.Fprintf(&b, " @ %s", s.data.AccountID)
		}
		return b.String()
	}

	r := s.data.Roles[s.data.CurrentRole]
	if r.Nickname != "" {
		return r.Nickname
	}
	return fmt.Sprintf("%s @ %s", r.RoleName, r.AccountID)
}

// MainAccountUsername is the last path element of the login ARN.
func (s *Store) MainAccountUsername() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.UserArn == "" {
		return ""
	}
	elems := strings.Split(s.data.UserArn, "/")
	return elems[len(elems)-1]
}

// SetRouteAfterLogin records where to go once logged in again. The route is
// saved with the session, logged in or not; an empty route clears it.
func (s *Store) SetRouteAfterLogin(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RouteAfterLogin = route
	if err := s.saveLocked(); err != nil {
		log.Warnf("failed to save route after login: %v", err)
	}
}

// RouteAfterLogin returns the recorded route, DefaultRouteAfterLogin if none.
func (s *Store) RouteAfterLogin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.RouteAfterLogin == "" {
		return DefaultRouteAfterLogin
	}
	return s.data.RouteAfterLogin
}

// TakeRouteAfterLogin returns the recorded route and forgets it.
func (s *Store) TakeRouteAfterLogin() string {
	route := s.RouteAfterLogin()
	s.SetRouteAfterLogin("")
	return route
}

// ForgetRole stops remembering a role: it is removed from the preferences
// file and, unless it holds credentials, from the stack. It reports whether
// the role was remembered.
func (s *Store) ForgetRole(accountID, roleName string) (bool, error) {
	target := internal.Role{AccountID: accountID, RoleName: roleName}

	s.mu.Lock()
	forgotten := false
	if i := s.roleIndexLocked(target); i >= 0 {
		r := &s.data.Roles[i]
		forgotten = r.Remember
		r.Remember = false
		if r.Credentials == nil && i != s.data.CurrentRole {
			s.data.Roles = slices.Delete(s.data.Roles, i, i+1)
			if s.data.CurrentRole > i {
				s.data.CurrentRole--
			}
		}
	}
	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		return forgotten, err
	}

	if s.prefs == nil {
		return forgotten, nil
	}
	removed, err := s.prefs.ForgetRole(accountID, roleName)
	return forgotten || removed, err
}

// Regions returns the enabled regions.
func (s *Store) Regions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.regions)
}

// SetEnabledRegions replaces the enabled regions, persists them and
// notifies region observers.
func (s *Store) SetEnabledRegions(regions []string) error {
	s.mu.Lock()
	s.regions = slices.Clone(regions)
	subs := slices.Clone(s.regionSubs)
	s.mu.Unlock()

	var err error
	if s.prefs != nil {
		err = s.prefs.SetRegions(regions)
	}
	for _, fn := range subs {
		fn(slices.Clone(regions))
	}
	return err
}

// OnRoleChange registers fn to run whenever the active credentials change.
func (s *Store) OnRoleChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleSubs = append(s.roleSubs, fn)
}

// OnRegionsChange registers fn to run with the new region set.
func (s *Store) OnRegionsChange(fn func([]string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regionSubs = append(s.regionSubs, fn)
}

func (s *Store) roleChanged() {
	s.mu.Lock()
	subs := slices.Clone(s.roleSubs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
