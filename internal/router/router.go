// Package router maps paths to views, gates views behind login and keeps
// the current query string. It is the navigator list engines mirror their
// selection into.
package router

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/chukul/daintree/internal/log"
)

// Route is one navigable view.
type Route struct {
	Path          string
	Name          string
	Title         string
	RequiresLogin bool
}

// DocumentTitle is the window title shown for r.
func (r Route) DocumentTitle() string {
	if r.Title == "" {
		return "Daintree"
	}
	return r.Title + " | Daintree"
}

const (
	LoginPath = "/login"
	HomePath  = "/home"
)

// NotFound is returned for unknown paths.
var NotFound = Route{Path: "*", Name: "Not Found", Title: "404"}

// DefaultRoutes are the views that are not a resource list.
var DefaultRoutes = []Route{
	{Path: "/", Name: "Home"},
	{Path: LoginPath, Name: "Login", Title: "Login"},
	{Path: "/cognito_callback", Name: "Cognito Callback"},
	{Path: "/about", Name: "About"},
	{Path: HomePath, Name: "Main menu", Title: "Main Menu", RequiresLogin: true},
	{Path: "/ec2", Name: "EC2", Title: "EC2", RequiresLogin: true},
	{Path: "/network", Name: "Network", Title: "Network", RequiresLogin: true},
	{Path: "/ecs", Name: "ECS", Title: "ECS", RequiresLogin: true},
	{Path: "/messages", Name: "Messages", Title: "Messages", RequiresLogin: true},
}

// Session is what the guard needs from the credential store.
type Session interface {
	IsLoggedIn() bool
	Regions() []string
	SetRouteAfterLogin(route string)
}

// Router is safe for concurrent use.
type Router struct {
	session Session

	mu               sync.Mutex
	routes           map[string]Route
	current          Route
	query            url.Values
	showRegionsModal bool
	subs             []func(Route)
}

// New returns a router over DefaultRoutes plus extra.
func New(session Session, extra ...Route) *Router {
	r := &Router{
		session: session,
		routes:  make(map[string]Route),
		current: DefaultRoutes[0],
		query:   url.Values{},
	}
	for _, rt := range DefaultRoutes {
		r.routes[rt.Path] = rt
	}
	for _, rt := range extra {
		r.routes[rt.Path] = rt
	}
	return r
}

// Routes lists every registered route sorted by path.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Route, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt)
	}
	slices.SortFunc(out, func(a, b Route) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Lookup finds the route for path.
func (r *Router) Lookup(path string) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.routes[path]
	return rt, ok
}

// Push navigates to path. Views that require login redirect to the login
// view while logged out, recording path for after login. The route
// actually shown is returned.
func (r *Router) Push(path string, query url.Values) Route {
	r.mu.Lock()
	to, ok := r.routes[path]
	if !ok {
		to = NotFound
	}
	r.mu.Unlock()

	loggedIn := r.session.IsLoggedIn()
	if to.RequiresLogin && !loggedIn {
		target := path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		r.session.SetRouteAfterLogin(target)
		log.Debugf("redirecting %s to %s", path, LoginPath)
		r.mu.Lock()
		to = r.routes[LoginPath]
		r.mu.Unlock()
		query = nil
	}

	noRegions := loggedIn && len(r.session.Regions()) == 0

	r.mu.Lock()
	r.current = to
	r.query = cloneValues(query)
	if noRegions {
		r.showRegionsModal = true
	}
	subs := slices.Clone(r.subs)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(to)
	}
	return to
}

// PushURL navigates to a "path?query" string such as a recorded
// route-after-login.
func (r *Router) PushURL(raw string) Route {
	u, err := url.Parse(raw)
	if err != nil {
		return r.Push(raw, nil)
	}
	return r.Push(u.Path, u.Query())
}

// Current is the route last navigated to.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Title is the document title of the current route.
func (r *Router) Title() string {
	return r.Current().DocumentTitle()
}

// Query returns a copy of the current query parameters.
func (r *Router) Query() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneValues(r.query)
}

// SetQuery replaces the current query parameters without navigating.
func (r *Router) SetQuery(q url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = cloneValues(q)
}

// ShowRegionsModal reports whether the region picker should be shown.
func (r *Router) ShowRegionsModal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.showRegionsModal
}

// SetShowRegionsModal opens or closes the region picker.
func (r *Router) SetShowRegionsModal(show bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.showRegionsModal = show
}

// OnNavigate registers fn to run after every navigation.
func (r *Router) OnNavigate(fn func(Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		out[k] = slices.Clone(vs)
	}
	return out
}

type pathKey struct{}

// NewContext returns a copy of ctx carrying the route path work is done for.
// The credential store records it when it finds the credentials expired.
func NewContext(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathKey{}, path)
}

// FromContext returns the path stored by NewContext.
func FromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(pathKey{}).(string)
	return path, ok && path != ""
}
