package router

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	loggedIn   bool
	regions    []string
	afterLogin string
}

func (f *fakeSession) IsLoggedIn() bool { return f.loggedIn }
func (f *fakeSession) Regions() []string { return f.regions }
func (f *fakeSession) SetRouteAfterLogin(r string) { f.afterLogin = r }

var volumes = Route{Path: "/ec2/volumes", Name: "Volumes", Title: "Volumes", RequiresLogin: true}

func TestPushRedirectsToLoginWhenLoggedOut(t *testing.T) {
	s := &fakeSession{}
	r := New(s, volumes)

	got := r.Push("/ec2/volumes", url.Values{"VolumeId": {"vol-1"}})
	assert.Equal(t, LoginPath, got.Path)
	assert.Equal(t, "/ec2/volumes?VolumeId=vol-1", s.afterLogin)
	assert.Equal(t, "Login | Daintree", r.Title())
	assert.Empty(t, r.Query())
	assert.False(t, r.ShowRegionsModal())
}

func TestPushWhenLoggedIn(t *testing.T) {
	s := &fakeSession{loggedIn: true, regions: []string{"eu-west-1"}}
	r := New(s, volumes)

	var seen []string
	r.OnNavigate(func(rt Route) { seen = append(seen, rt.Path) })

	got := r.Push("/ec2/volumes", url.Values{"VolumeId": {"vol-1"}})
	assert.Equal(t, volumes, got)
	assert.Equal(t, "Volumes | Daintree", r.Title())
	assert.Equal(t, "vol-1", r.Query().Get("VolumeId"))
	assert.False(t, r.ShowRegionsModal())
	assert.Equal(t, []string{"/ec2/volumes"}, seen)
}

func TestRegionsModalWhenNoRegions(t *testing.T) {
	r := New(&fakeSession{loggedIn: true}, volumes)
	r.Push(HomePath, nil)
	assert.True(t, r.ShowRegionsModal())

	r.SetShowRegionsModal(false)
	assert.False(t, r.ShowRegionsModal())
}

func TestUnknownPathAndUntitledRoute(t *testing.T) {
	r := New(&fakeSession{})
	assert.Equal(t, NotFound, r.Push("/nope", nil))
	assert.Equal(t, "404 | Daintree", r.Title())

	r.Push("/", nil)
	assert.Equal(t, "Daintree", r.Title())
}

func TestPushURL(t *testing.T) {
	s := &fakeSession{loggedIn: true, regions: []string{"us-east-1"}}
	r := New(s, volumes)
	got := r.PushURL("/ec2/volumes?VolumeId=vol-9")
	assert.Equal(t, volumes.Path, got.Path)
	assert.Equal(t, "vol-9", r.Query().Get("VolumeId"))
}

func TestQueryIsCopied(t *testing.T) {
	r := New(&fakeSession{loggedIn: true, regions: []string{"us-east-1"}})
	q := url.Values{"a": {"1"}}
	r.SetQuery(q)
	q.Set("a", "2")
	assert.Equal(t, "1", r.Query().Get("a"))

	out := r.Query()
	out.Set("a", "3")
	assert.Equal(t, "1", r.Query().Get("a"))
}

func TestRoutesSortedAndLookup(t *testing.T) {
	r := New(&fakeSession{}, volumes)
	routes := r.Routes()
	require.NotEmpty(t, routes)
	for i := 1; i < len(routes); i++ {
		assert.Less(t, routes[i-1].Path, routes[i].Path)
	}
	rt, ok := r.Lookup("/ec2/volumes")
	assert.True(t, ok)
	assert.Equal(t, volumes, rt)
}

func TestRouteContext(t *testing.T) {
	ctx := NewContext(context.Background(), "/ec2/volumes")
	path, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "/ec2/volumes", path)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
