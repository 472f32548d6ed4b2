// Package catalog describes every resource type daintree can list: how to
// fetch it, what identifies it, which states are still in progress and how
// to title it. Each Entry carries the route it is shown under.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/chukul/daintree/internal/resource"
	"github.com/chukul/daintree/internal/router"
)

// ConfigSource hands out SDK configs signed with the active credentials.
// *auth.Store implements it.
type ConfigSource interface {
	AWSConfig(ctx context.Context, region string) (aws.Config, error)
}

// Column is one table column of a list view.
type Column struct {
	Header string
	// Path is a gjson path into the resource document.
	Path string
	// Func overrides Path.
	Func func(resource.Resource) string
}

// Value renders the column for r.
func (c Column) Value(r resource.Resource) string {
	if c.Func != nil {
		return c.Func(r)
	}
	return r.Get(c.Path).String()
}

// Entry is one resource type.
type Entry struct {
	// Name is the CLI name, e.g. "volumes".
	Name    string
	Service string
	Route   router.Route
	Config  resource.Config
	Columns []Column
}

// Catalog is the set of entries built for one ConfigSource.
type Catalog struct {
	entries []Entry
}

// New builds every entry with fetchers bound to src.
func New(src ConfigSource) *Catalog {
	var entries []Entry
	entries = append(entries, ec2Entries(src)...)
	entries = append(entries, elbEntries(src)...)
	entries = append(entries, networkEntries(src)...)
	entries = append(entries, ecsEntries(src)...)
	entries = append(entries, messageEntries(src)...)
	for i := range entries {
		entries[i].Config.Fetcher = routed(entries[i].Route.Path, entries[i].Config.Fetcher)
	}
	return &Catalog{entries: entries}
}

// routed tags every fetch with the list route it serves, so an expiry found
// while fetching can send the next login back there.
func routed(path string, f resource.Fetcher) resource.Fetcher {
	return resource.FetcherFunc(func(ctx context.Context, region string, ids []string) ([]resource.Document, error) {
		return f.Fetch(router.NewContext(ctx, path), region, ids)
	})
}

// Entries returns every entry in declaration order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Names lists the CLI names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds an entry by CLI name or route path.
func (c *Catalog) Lookup(nameOrPath string) (Entry, error) {
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, nameOrPath) || e.Route.Path == nameOrPath {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("unknown resource type %q (known: %s)", nameOrPath, strings.Join(c.Names(), ", "))
}

// Routes returns the list routes of every entry.
func (c *Catalog) Routes() []router.Route {
	routes := make([]router.Route, 0, len(c.entries))
	for _, e := range c.entries {
		routes = append(routes, e.Route)
	}
	return routes
}

func listRoute(path, name, title string) router.Route {
	return router.Route{Path: path, Name: name, Title: title, RequiresLogin: true}
}

// paginate drains a paginator. next returns the documents of one page.
func paginate(hasMore func() bool, next func() ([]resource.Document, error)) ([]resource.Document, error) {
	var docs []resource.Document
	for hasMore() {
		page, err := next()
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)
	}
	return docs, nil
}

// filtered reports whether a fetch is restricted to ids, and whether there
// is nothing to ask for at all.
func filtered(ids []string) (restricted, empty bool) {
	return ids != nil, ids != nil && len(ids) == 0
}
