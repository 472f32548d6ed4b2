// Package resource keeps an eventually-consistent, per-region mirror of one
// AWS resource type. Records are stored as JSON documents so any SDK output
// type can be listed, and attributes are read by gjson path.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// Document is one service record encoded as JSON.
type Document []byte

// NewDocument encodes an SDK value (typically a struct from a Describe/List
// output) as a Document.
func NewDocument(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource: %w", err)
	}
	return Document(b), nil
}

// Documents encodes every element of items.
func Documents[T any](items []T) ([]Document, error) {
	docs := make([]Document, 0, len(items))
	for _, item := range items {
		d, err := NewDocument(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Get reads the attribute at a gjson path, e.g. "State.Name".
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d, path)
}

// Resource is a record plus the metadata the engine tracks for it.
type Resource struct {
	Key    string
	Region string
	// StillPresent is cleared at the start of a full region refresh and set
	// again by the merge; whatever is still false afterwards was deleted.
	StillPresent bool
	Doc          Document
}

// Get reads an attribute of the underlying document.
func (r Resource) Get(path string) gjson.Result {
	return r.Doc.Get(path)
}

// Pretty renders the document indented, for the detail drawer.
func (r Resource) Pretty() string {
	return r.Doc.Get("@pretty").Raw
}

// Fetcher is the per-service collaborator. A nil ids slice asks for every
// resource in the region; a non-nil one restricts the call to those keys.
type Fetcher interface {
	Fetch(ctx context.Context, region string, ids []string) ([]Document, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, region string, ids []string) ([]Document, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, region string, ids []string) ([]Document, error) {
	return f(ctx, region, ids)
}

// Navigator is the URL-like location the selection is mirrored into.
type Navigator interface {
	Query() url.Values
	SetQuery(q url.Values)
}

// Config describes one resource type.
type Config struct {
	// ResourceName is the human name, e.g. "volume". It is also the key of
	// fetch error notifications.
	ResourceName string
	// UniqueKey is the gjson path of the identifying attribute, e.g.
	// "VolumeId". It doubles as the query parameter name.
	UniqueKey string
	// StateKey is the gjson path of the lifecycle attribute. Empty disables
	// polling unless StateFunc is set.
	StateKey string
	// WorkingStates are the StateKey values of a resource still in progress.
	WorkingStates []string
	CanCreate     bool
	Fetcher       Fetcher

	// StateFunc overrides the StateKey lookup.
	StateFunc func(Resource) string
	// TitleFunc renders the drawer title; defaults to the key.
	TitleFunc func(Resource) string
}

func (c Config) state(r Resource) string {
	if c.StateFunc != nil {
		return c.StateFunc(r)
	}
	if c.StateKey == "" {
		return ""
	}
	return r.Get(c.StateKey).String()
}

func (c Config) working(state string) bool {
	if state == "" {
		return false
	}
	for _, s := range c.WorkingStates {
		if s == state {
			return true
		}
	}
	return false
}

// Title returns the display title of r.
func (c Config) Title(r Resource) string {
	if c.TitleFunc != nil {
		return c.TitleFunc(r)
	}
	return r.Key
}

// queryValue finds the query parameter named like key, ignoring case.
func queryValue(q url.Values, key string) string {
	for name, values := range q {
		if strings.EqualFold(name, key) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
