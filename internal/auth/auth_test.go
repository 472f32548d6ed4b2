package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/notify"
	"github.com/chukul/daintree/internal/router"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetCallerIdentity(ctx context.Context, c internal.Credentials) (internal.Identity, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(internal.Identity), args.Error(1)
}

func (m *mockProvider) AssumeRole(ctx context.Context, base internal.Credentials, roleArn string) (internal.Credentials, error) {
	args := m.Called(ctx, base, roleArn)
	return args.Get(0).(internal.Credentials), args.Error(1)
}

func (m *mockProvider) CognitoCredentials(ctx context.Context, poolID string, logins map[string]string) (internal.Credentials, error) {
	args := m.Called(ctx, poolID, logins)
	return args.Get(0).(internal.Credentials), args.Error(1)
}

type fakePrefs struct {
	regions    []string
	roles      []internal.Role
	remembered []internal.Role
	forgotten  []internal.Role
}

func (f *fakePrefs) Regions() []string { return f.regions }
func (f *fakePrefs) SetRegions(r []string) error { f.regions = r; return nil }
func (f *fakePrefs) Roles() []internal.Role { return f.roles }
func (f *fakePrefs) RememberRole(r internal.Role) error {
	f.remembered = append(f.remembered, r)
	return nil
}

func (f *fakePrefs) ForgetRole(accountID, roleName string) (bool, error) {
	target := internal.Role{AccountID: accountID, RoleName: roleName}
	for i, r := range f.roles {
		if r.Same(target) {
			f.roles = append(f.roles[:i], f.roles[i+1:]...)
			f.forgotten = append(f.forgotten, r)
			return true, nil
		}
	}
	return false, nil
}

var (
	ctx      = context.Background()
	baseKeys = internal.Credentials{AccessKeyID: "AKIABASE", SecretAccessKey: "base-secret"}
	alice    = internal.Identity{Arn: "arn:aws:iam::111:user/alice", Account: "111", UserID: "AIDA"}
	adminArn = "arn:aws:iam::222:role/admin"
)

func roleKeys(id string, exp time.Time) internal.Credentials {
	return internal.Credentials{AccessKeyID: id, SecretAccessKey: id + "-secret", SessionToken: "tok", Expiration: &exp}
}

type harness struct {
	store    *Store
	provider *mockProvider
	session  *internal.MemorySession
	prefs    *fakePrefs
	notes    *notify.Store
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		provider: &mockProvider{},
		session:  &internal.MemorySession{},
		prefs:    &fakePrefs{regions: []string{"eu-west-1"}},
		notes:    notify.NewStore(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.store = New(h.provider, h.session,
		WithNotifier(h.notes),
		WithPrefs(h.prefs),
		WithClock(func() time.Time { return h.now }))
	t.Cleanup(func() { h.provider.AssertExpectations(t) })
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.provider.On("GetCallerIdentity", mock.Anything, baseKeys).Return(alice, nil).Once()
	require.NoError(t, h.store.LoginWithAccessKey(ctx, "AKIABASE", "base-secret", ""))
}

func TestAccessKeyLoginThenAssumeRole(t *testing.T) {
	h := newHarness(t)
	changes := 0
	h.store.OnRoleChange(func() { changes++ })

	h.login(t)
	assert.Equal(t, LoggedIn, h.store.State())
	assert.Equal(t, "arn:aws:iam::111:user/alice", h.store.UserArn())
	assert.Equal(t, "111", h.store.AccountID())
	assert.Equal(t, internal.LoginAccessKey, h.store.LoginMethod())
	assert.Equal(t, MainAccount, h.store.CurrentRole())

	temp := roleKeys("ASIAADMIN", h.now.Add(time.Hour))
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).Return(temp, nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))

	assert.Equal(t, RoleAssumed, h.store.State())
	assert.Equal(t, 0, h.store.CurrentRole())
	roles := h.store.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, adminArn, roles[0].ARN())
	assert.Nil(t, roles[0].Credentials, "Roles never leaks secrets")

	active, err := h.store.Credentials("/ec2/instances")
	require.NoError(t, err)
	assert.Equal(t, "ASIAADMIN", active.AccessKeyID)
	assert.NotEqual(t, baseKeys.AccessKeyID, active.AccessKeyID)

	assert.Equal(t, 2, changes)
	require.NotNil(t, h.session.Data)
	assert.Equal(t, 0, h.session.Data.CurrentRole)
	assert.Equal(t, "ASIAADMIN", h.session.Data.Roles[0].Credentials.AccessKeyID)
}

func TestLoginFailureRaisesNotification(t *testing.T) {
	h := newHarness(t)
	h.notes.Show(notify.Notification{Key: KeyLogin, Text: "stale"})
	h.provider.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(internal.Identity{}, errors.New("InvalidClientTokenId")).Once()

	err := h.store.LoginWithAccessKey(ctx, "AKIA", "bad", "")
	assert.ErrorContains(t, err, "InvalidClientTokenId")
	assert.Equal(t, LoggedOut, h.store.State())

	n, ok := h.notes.Find(KeyLogin)
	require.True(t, ok)
	assert.Equal(t, notify.Danger, n.Variant)
	assert.Equal(t, "InvalidClientTokenId", n.Text)
	assert.Len(t, h.notes.List(), 1)
	assert.Nil(t, h.session.Data)
}

func TestLoginEmptyIdentity(t *testing.T) {
	h := newHarness(t)
	h.provider.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(internal.Identity{}, nil).Once()

	err := h.store.LoginWithAccessKey(ctx, "AKIA", "s", "")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestAssumeRoleRequiresLogin(t *testing.T) {
	h := newHarness(t)
	err := h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAssumeRoleFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIAADMIN", h.now.Add(time.Hour)), nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))

	h.provider.On("AssumeRole", mock.Anything, baseKeys, "arn:aws:iam::333:role/ops").
		Return(internal.Credentials{}, errors.New("AccessDenied")).Once()
	err := h.store.AssumeRole(ctx, RoleRequest{AccountID: "333", RoleName: "ops", NewRole: true})

	assert.ErrorIs(t, err, ErrAssumeRoleFailed)
	assert.ErrorContains(t, err, "AccessDenied")
	assert.Equal(t, 0, h.store.CurrentRole())
	assert.Len(t, h.store.Roles(), 1)

	n, ok := h.notes.Find(KeyAssumeRole)
	require.True(t, ok)
	assert.Equal(t, notify.Danger, n.Variant)
}

func TestAssumeExistingRoleSwitchesInsteadOfPushing(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Hour)), nil).Once()
	h.provider.On("AssumeRole", mock.Anything, baseKeys, "arn:aws:iam::333:role/ops").
		Return(roleKeys("ASIA2", h.now.Add(time.Hour)), nil).Once()
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA3", h.now.Add(time.Hour)), nil).Once()

	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "333", RoleName: "ops", NewRole: true}))
	assert.Equal(t, 1, h.store.CurrentRole())

	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin"}))
	assert.Equal(t, 0, h.store.CurrentRole())
	assert.Len(t, h.store.Roles(), 2)

	active, err := h.store.Credentials("")
	require.NoError(t, err)
	assert.Equal(t, "ASIA3", active.AccessKeyID, "assume always refreshes")
}

func TestSwitchRoleReusesCachedCredentials(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Hour)), nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))
	require.NoError(t, h.store.BackToMain())

	active, err := h.store.Credentials("")
	require.NoError(t, err)
	assert.Equal(t, baseKeys, active)
	assert.Equal(t, LoggedIn, h.store.State())

	require.NoError(t, h.store.SwitchRole(ctx, 0))
	active, err = h.store.Credentials("")
	require.NoError(t, err)
	assert.Equal(t, "ASIA1", active.AccessKeyID)
	h.provider.AssertNumberOfCalls(t, "AssumeRole", 1)
}

func TestSwitchRoleReassumesWhenExpired(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Minute)), nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", Nickname: "prod", NewRole: true}))
	require.NoError(t, h.store.BackToMain())

	h.now = h.now.Add(2 * time.Minute)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA2", h.now.Add(time.Hour)), nil).Once()
	require.NoError(t, h.store.SwitchRole(ctx, 0))

	active, err := h.store.Credentials("")
	require.NoError(t, err)
	assert.Equal(t, "ASIA2", active.AccessKeyID)
	assert.Equal(t, "prod", h.store.PrettyCredentials())
}

func TestSwitchRoleOutOfRange(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	assert.Error(t, h.store.SwitchRole(ctx, 3))
	require.NoError(t, h.store.SwitchRole(ctx, MainAccount))
	assert.Equal(t, MainAccount, h.store.CurrentRole())
}

func TestCredentialsMissing(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.Credentials("/home")
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	n, ok := h.notes.Find(KeyCredentialsExpired)
	require.True(t, ok)
	assert.Equal(t, "No credentials found.", n.Text)
	assert.Equal(t, notify.Warning, n.Variant)
}

func TestCredentialsExpiredEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Minute)), nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))

	h.now = h.now.Add(time.Minute)
	_, err := h.store.Credentials("/vpc/subnets")
	assert.ErrorIs(t, err, ErrCredentialsExpired)
	assert.Equal(t, LoggedOut, h.store.State())
	assert.Equal(t, "/vpc/subnets", h.store.RouteAfterLogin())
	require.NotNil(t, h.session.Data)
	assert.Nil(t, h.session.Data.Credentials)
	assert.Empty(t, h.session.Data.Roles)
	assert.Equal(t, "/vpc/subnets", h.session.Data.RouteAfterLogin)

	n, ok := h.notes.Find(KeyCredentialsExpired)
	require.True(t, ok)
	assert.Equal(t, "Your credentials have expired, please login again.", n.Text)

	_, err = h.store.Credentials("/vpc/subnets")
	assert.ErrorIs(t, err, ErrCredentialsExpired, "later fetches see the expiry too")
	n, _ = h.notes.Find(KeyCredentialsExpired)
	assert.Equal(t, "Your credentials have expired, please login again.", n.Text)
}

func TestLoginWithCognitoReadsIssuerFromToken(t *testing.T) {
	h := newHarness(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_abc",
		"sub": "user",
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	exp := h.now.Add(time.Hour)
	creds := internal.Credentials{AccessKeyID: "ASIACOG", SecretAccessKey: "s", SessionToken: "t", Expiration: &exp}
	logins := map[string]string{"cognito-idp.eu-west-1.amazonaws.com/eu-west-1_abc": token}
	h.provider.On("CognitoCredentials", mock.Anything, "eu-west-1:pool", logins).Return(creds, nil).Once()
	h.provider.On("GetCallerIdentity", mock.Anything, creds).Return(internal.Identity{
		Arn:     "arn:aws:sts::111:assumed-role/Cognito_Auth_Role/CognitoIdentityCredentials",
		Account: "111",
	}, nil).Once()

	require.NoError(t, h.store.LoginWithCognito(ctx, "eu-west-1:pool", "", token))
	assert.Equal(t, internal.LoginCognito, h.store.LoginMethod())
	assert.Equal(t, "Cognito_Auth_Role @ 111", h.store.PrettyCredentials())
	assert.Equal(t, "CognitoIdentityCredentials", h.store.MainAccountUsername())
}

func TestLoginWithCognitoFailure(t *testing.T) {
	h := newHarness(t)
	h.provider.On("CognitoCredentials", mock.Anything, "eu-west-1:pool", map[string]string{"issuer.example": "tok"}).
		Return(internal.Credentials{}, errors.New("NotAuthorizedException")).Once()

	err := h.store.LoginWithCognito(ctx, "eu-west-1:pool", "https://issuer.example", "tok")
	assert.Error(t, err)
	n, ok := h.notes.Find(KeyCognito)
	require.True(t, ok)
	assert.Equal(t, "NotAuthorizedException", n.Text)
}

func TestTokenIssuerRejectsGarbage(t *testing.T) {
	_, err := TokenIssuer("not-a-jwt")
	assert.Error(t, err)
}

func TestPrettyCredentials(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "", h.store.PrettyCredentials())

	h.login(t)
	assert.Equal(t, "alice @ 111", h.store.PrettyCredentials())
	assert.Equal(t, "alice", h.store.MainAccountUsername())

	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Hour)), nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))
	assert.Equal(t, "admin @ 222", h.store.PrettyCredentials())
}

func TestRememberRoleGoesToPrefs(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Hour)), nil).Once()
	require.NoError(t, h.store.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", Nickname: "prod", NewRole: true, Remember: true}))

	require.Len(t, h.prefs.remembered, 1)
	assert.Equal(t, "prod", h.prefs.remembered[0].Nickname)
}

func TestRestore(t *testing.T) {
	h := newHarness(t)
	exp := h.now.Add(time.Hour)
	h.session.Data = &internal.SessionData{
		UserArn:     alice.Arn,
		AccountID:   "111",
		LoginMethod: internal.LoginAccessKey,
		Credentials: &baseKeys,
		Roles: []internal.Role{{
			AccountID:   "222",
			RoleName:    "admin",
			Credentials: &internal.Credentials{AccessKeyID: "ASIA1", SecretAccessKey: "s", Expiration: &exp},
		}},
		CurrentRole: 0,
	}
	h.prefs.roles = []internal.Role{
		{AccountID: "222", RoleName: "admin"},
		{AccountID: "333", RoleName: "ops", Nickname: "ops"},
	}

	require.NoError(t, h.store.Restore())
	assert.Equal(t, RoleAssumed, h.store.State())
	active, err := h.store.Credentials("")
	require.NoError(t, err)
	assert.Equal(t, "ASIA1", active.AccessKeyID)

	roles := h.store.Roles()
	require.Len(t, roles, 2)
	assert.True(t, roles[1].Remember)
}

func TestRestoreWithoutSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Restore())
	assert.Equal(t, LoggedOut, h.store.State())
}

func TestLogoutKeepsPreferences(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	require.NoError(t, h.store.Logout())

	assert.Equal(t, LoggedOut, h.store.State())
	assert.Nil(t, h.session.Data)
	assert.Equal(t, []string{"eu-west-1"}, h.store.Regions())
	assert.Equal(t, DefaultRouteAfterLogin, h.store.RouteAfterLogin())
}

func TestSetEnabledRegions(t *testing.T) {
	h := newHarness(t)
	var got []string
	h.store.OnRegionsChange(func(r []string) { got = r })

	require.NoError(t, h.store.SetEnabledRegions([]string{"us-east-1", "ap-south-1"}))
	assert.Equal(t, []string{"us-east-1", "ap-south-1"}, h.store.Regions())
	assert.Equal(t, []string{"us-east-1", "ap-south-1"}, h.prefs.regions)
	assert.Equal(t, []string{"us-east-1", "ap-south-1"}, got)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "logged out", LoggedOut.String())
	assert.Equal(t, "logged in", LoggedIn.String())
	assert.Equal(t, "role assumed", RoleAssumed.String())
}

func TestRouteAfterLoginSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	file := &internal.SessionFile{Path: filepath.Join(t.TempDir(), "session.json"), Secret: "1234567890ABCDEF1234567890ABCDEF"}
	first := New(h.provider, file, WithNotifier(h.notes), WithClock(func() time.Time { return h.now }))

	h.provider.On("GetCallerIdentity", mock.Anything, baseKeys).Return(alice, nil).Twice()
	require.NoError(t, first.LoginWithAccessKey(ctx, "AKIABASE", "base-secret", ""))
	h.provider.On("AssumeRole", mock.Anything, baseKeys, adminArn).
		Return(roleKeys("ASIA1", h.now.Add(time.Minute)), nil).Once()
	require.NoError(t, first.AssumeRole(ctx, RoleRequest{AccountID: "222", RoleName: "admin", NewRole: true}))

	h.now = h.now.Add(time.Minute)
	_, err := first.AWSConfig(router.NewContext(ctx, "/ec2/instances"), "us-east-1")
	require.ErrorIs(t, err, ErrCredentialsExpired)

	second := New(h.provider, file, WithNotifier(h.notes), WithClock(func() time.Time { return h.now }))
	require.NoError(t, second.Restore())
	assert.Equal(t, LoggedOut, second.State())
	assert.Equal(t, "/ec2/instances", second.RouteAfterLogin())

	require.NoError(t, second.LoginWithAccessKey(ctx, "AKIABASE", "base-secret", ""))
	assert.Equal(t, "/ec2/instances", second.TakeRouteAfterLogin())
	assert.Equal(t, DefaultRouteAfterLogin, second.RouteAfterLogin())

	third := New(h.provider, file)
	require.NoError(t, third.Restore())
	assert.Equal(t, LoggedIn, third.State())
	assert.Equal(t, DefaultRouteAfterLogin, third.RouteAfterLogin())
}

func TestStoreForgetRole(t *testing.T) {
	h := newHarness(t)
	h.prefs.roles = []internal.Role{
		{AccountID: "222", RoleName: "admin"},
		{AccountID: "333", RoleName: "ops"},
	}
	require.NoError(t, h.store.Restore())
	h.login(t)
	h.provider.On("AssumeRole", mock.Anything, baseKeys, "arn:aws:iam::333:role/ops").
		Return(roleKeys("ASIA3", h.now.Add(time.Hour)), nil).Once()
	require.NoError(t, h.store.SwitchRole(ctx, 1))
	require.Equal(t, 1, h.store.CurrentRole())

	forgotten, err := h.store.ForgetRole("222", "admin")
	require.NoError(t, err)
	assert.True(t, forgotten)
	roles := h.store.Roles()
	require.Len(t, roles, 1, "a remembered role without credentials leaves the stack")
	assert.Equal(t, "ops", roles[0].RoleName)
	assert.Equal(t, 0, h.store.CurrentRole())
	assert.Equal(t, "ops @ 333", h.store.PrettyCredentials())

	forgotten, err = h.store.ForgetRole("333", "ops")
	require.NoError(t, err)
	assert.True(t, forgotten)
	roles = h.store.Roles()
	require.Len(t, roles, 1, "the active role stays")
	assert.False(t, roles[0].Remember)
	assert.Len(t, h.prefs.forgotten, 2)

	forgotten, err = h.store.ForgetRole("999", "nobody")
	require.NoError(t, err)
	assert.False(t, forgotten)
}
