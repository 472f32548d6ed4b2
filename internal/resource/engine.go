package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond"

	"github.com/chukul/daintree/internal/log"
	"github.com/chukul/daintree/internal/notify"
)

// DefaultPollInterval is how long the engine waits before re-fetching
// resources in a working state.
const DefaultPollInterval = 5 * time.Second

// EventKind tells subscribers what changed.
type EventKind int

const (
	Updated EventKind = iota
	Deleted
	Purged
	Selected
	Deselected
	Reset
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case Purged:
		return "purged"
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Reset:
		return "reset"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Event is delivered to subscribers after the engine state changed.
type Event struct {
	Kind   EventKind
	Key    string
	Region string
	Err    error
}

// FetchError is a failed call to the Fetcher.
type FetchError struct {
	Resource string
	Region   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s in %s: %v", e.Resource, e.Region, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// regionScope lets a region's in-flight fetches be cancelled, and lets late
// results be recognised as stale.
type regionScope struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
}

type effect func()

// Engine mirrors one resource type across the enabled regions.
type Engine struct {
	cfg Config

	mu          sync.Mutex
	resources   map[string]*Resource
	wip         map[string][]string
	regions     []string
	scopes      map[string]*regionScope
	gen         uint64
	selectedKey string
	drawerOpen  bool
	isPolling   bool
	stopPoll    func() bool
	closed      bool
	subscribers []func(Event)

	notifier     notify.Notifier
	nav          Navigator
	activity     *Activity
	pool         *pond.WorkerPool
	ownPool      bool
	submitMu     sync.RWMutex
	inflight     sync.WaitGroup
	pollInterval time.Duration
	afterFunc    func(time.Duration, func()) func() bool
}

// Option customises an Engine.
type Option func(*Engine)

// WithNotifier sets where errors and deletions are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithNavigator mirrors the selection into n's query.
func WithNavigator(n Navigator) Option {
	return func(e *Engine) { e.nav = n }
}

// WithActivity shares a loading counter between engines.
func WithActivity(a *Activity) Option {
	return func(e *Engine) { e.activity = a }
}

// WithPool runs fetches on a shared worker pool. The engine does not stop it.
func WithPool(p *pond.WorkerPool) Option {
	return func(e *Engine) { e.pool = p }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// New returns an engine with no regions. Call SetRegions to start fetching.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg,
		resources:    map[string]*Resource{},
		wip:          map[string][]string{},
		scopes:       map[string]*regionScope{},
		pollInterval: DefaultPollInterval,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = notify.NewStore()
	}
	if e.activity == nil {
		e.activity = NewActivity()
	}
	if e.pool == nil {
		e.pool = pond.New(8, 256)
		e.ownPool = true
	}
	return e
}

// Config returns the resource type description.
func (e *Engine) Config() Config {
	return e.cfg
}

// Subscribe registers fn for every state change. fn runs outside the engine
// lock and may call back into the engine.
func (e *Engine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.mu.Unlock()
}

// Regions returns the enabled regions.
func (e *Engine) Regions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.regions...)
}

// SetRegions replaces the enabled region set. Added regions are fetched,
// removed ones are purged at once and their in-flight fetches cancelled.
func (e *Engine) SetRegions(regions []string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	added, removed := diffRegions(e.regions, regions)
	var effects []effect
	for _, region := range removed {
		if s, ok := e.scopes[region]; ok {
			s.cancel()
			delete(e.scopes, region)
		}
		delete(e.wip, region)
		for key, r := range e.resources {
			if r.Region != region {
				continue
			}
			delete(e.resources, key)
			if key == e.selectedKey {
				e.selectedKey = ""
				e.drawerOpen = false
				effects = append(effects, e.clearQuery)
			}
			effects = append(effects, e.emitLater(Event{Kind: Purged, Key: key, Region: region}))
		}
	}
	e.regions = dedup(regions)
	for _, region := range added {
		e.scopes[region] = e.newScope()
	}
	e.mu.Unlock()
	run(effects)

	if len(removed) > 0 {
		log.WithField("resource", e.cfg.ResourceName).Debugf("regions removed: %v", removed)
	}
	for _, region := range added {
		e.FetchRegion(region)
	}
}

// Refresh re-fetches every enabled region.
func (e *Engine) Refresh() {
	for _, region := range e.Regions() {
		e.FetchRegion(region)
	}
}

// ResetForRole drops everything fetched so far and fetches again. Called
// when the active credentials change: data read with another role cannot be
// trusted.
func (e *Engine) ResetForRole() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	for _, s := range e.scopes {
		s.cancel()
	}
	e.scopes = map[string]*regionScope{}
	for _, region := range e.regions {
		e.scopes[region] = e.newScope()
	}
	e.resources = map[string]*Resource{}
	e.wip = map[string][]string{}
	e.selectedKey = ""
	e.drawerOpen = false
	effects := []effect{e.emitLater(Event{Kind: Reset})}
	e.mu.Unlock()
	run(effects)

	e.Refresh()
}

// FetchRegion fetches every resource of region and merges the result.
// Regions that are not enabled are ignored.
func (e *Engine) FetchRegion(region string) {
	scope, ok := e.scopeFor(region)
	if !ok {
		return
	}
	e.activity.Inc()
	e.submit(func() {
		defer func() {
			e.activity.Dec()
			e.selectActiveResource()
		}()
		docs, err := e.cfg.Fetcher.Fetch(scope.ctx, region, nil)
		if err != nil {
			e.fetchFailed(region, scope, err)
			return
		}
		e.merge(region, scope, docs, nil)
	})
}

// FetchFiltered re-fetches only ids in region. Any requested id missing from
// the response has been deleted.
func (e *Engine) FetchFiltered(region string, ids []string) {
	if len(ids) == 0 {
		return
	}
	scope, ok := e.scopeFor(region)
	if !ok {
		return
	}
	ids = append([]string{}, ids...)
	e.submit(func() {
		docs, err := e.cfg.Fetcher.Fetch(scope.ctx, region, ids)
		if err != nil {
			e.fetchFailed(region, scope, err)
			return
		}
		e.merge(region, scope, docs, ids)
	})
}

// Wait blocks until every submitted fetch has been merged.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Loading reports whether any fetch sharing this engine's counter is running.
func (e *Engine) Loading() bool {
	return e.activity.Loading()
}

// Resources returns a snapshot sorted by region then key.
func (e *Engine) Resources() []Resource {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Resource, 0, len(e.resources))
	for _, r := range e.resources {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Get returns the resource with key.
func (e *Engine) Get(key string) (Resource, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.resources[key]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

// Len is the number of tracked resources.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.resources)
}

// Pending returns the keys of region waiting on the poller.
func (e *Engine) Pending(region string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.wip[region]...)
}

// IsPolling reports whether the poll timer is armed.
func (e *Engine) IsPolling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isPolling
}

// State returns the lifecycle value of r, empty if unknown.
func (e *Engine) State(r Resource) string {
	return e.cfg.state(r)
}

// EmptyStateDescription explains an empty list.
func (e *Engine) EmptyStateDescription() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daintree hasn't found any %s in the selected regions! You can ", e.cfg.ResourceName)
	if e.cfg.CanCreate {
		b.WriteString("create a new one, or ")
	}
	fmt.Fprintf(&b, "change selected regions in the settings. We have looked in %s.", strings.Join(e.Regions(), ", "))
	return b.String()
}

// Select opens the drawer on key and mirrors it into the query. An empty
// key closes the drawer instead.
func (e *Engine) Select(key string) bool {
	if key == "" {
		e.CloseDrawer()
		return false
	}
	e.mu.Lock()
	r, ok := e.resources[key]
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.selectedKey = key
	e.drawerOpen = true
	effects := []effect{e.emitLater(Event{Kind: Selected, Key: key, Region: r.Region})}
	e.mu.Unlock()

	if e.nav != nil {
		e.nav.SetQuery(url.Values{e.cfg.UniqueKey: {key}})
	}
	run(effects)
	return true
}

// Selected returns the resource shown in the drawer.
func (e *Engine) Selected() (Resource, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.resources[e.selectedKey]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

// DrawerOpen reports whether the detail drawer is shown.
func (e *Engine) DrawerOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drawerOpen
}

// CloseDrawer closes the drawer, re-fetches the selected resource to pick up
// any change made meanwhile, and clears the query.
func (e *Engine) CloseDrawer() {
	e.mu.Lock()
	e.drawerOpen = false
	r, ok := e.resources[e.selectedKey]
	if !ok {
		e.selectedKey = ""
		e.mu.Unlock()
		e.clearQuery()
		return
	}
	key, region := r.Key, r.Region
	e.selectedKey = ""
	effects := []effect{e.emitLater(Event{Kind: Deselected, Key: key, Region: region})}
	e.mu.Unlock()

	e.FetchFiltered(region, []string{key})
	e.clearQuery()
	run(effects)
}

// clearQuery drops the selection from the navigator. Must be called without
// mu held.
func (e *Engine) clearQuery() {
	if e.nav != nil {
		e.nav.SetQuery(url.Values{})
	}
}

// Shutdown stops polling, cancels fetches and dismisses the errors this
// engine raised. The engine ignores every call afterwards.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, s := range e.scopes {
		s.cancel()
	}
	e.scopes = map[string]*regionScope{}
	if e.stopPoll != nil {
		e.stopPoll()
	}
	e.isPolling = false
	e.mu.Unlock()

	if e.ownPool {
		e.submitMu.Lock()
		e.pool.StopAndWait()
		e.submitMu.Unlock()
	}
	e.notifier.DismissByKey(e.cfg.ResourceName)
}

func (e *Engine) newScope() *regionScope {
	e.gen++
	ctx, cancel := context.WithCancel(context.Background())
	return &regionScope{ctx: ctx, cancel: cancel, gen: e.gen}
}

func (e *Engine) scopeFor(region string) (*regionScope, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false
	}
	s, ok := e.scopes[region]
	return s, ok
}

// current reports whether scope is still the live scope of region. Must be
// called with mu held.
func (e *Engine) current(region string, scope *regionScope) bool {
	s, ok := e.scopes[region]
	return ok && s == scope && !e.closed
}

func (e *Engine) submit(task func()) {
	e.inflight.Add(1)
	e.submitMu.RLock()
	defer e.submitMu.RUnlock()
	if e.pool.Stopped() {
		e.inflight.Done()
		return
	}
	e.pool.Submit(func() {
		defer e.inflight.Done()
		task()
	})
}

func (e *Engine) fetchFailed(region string, scope *regionScope, err error) {
	e.mu.Lock()
	live := e.current(region, scope)
	var effects []effect
	if live {
		effects = append(effects, e.emitLater(Event{Kind: Failed, Region: region, Err: err}))
	}
	e.mu.Unlock()

	if !live || errors.Is(err, context.Canceled) {
		log.Debugf("dropping %s result for %s: region no longer tracked", e.cfg.ResourceName, region)
		return
	}
	ferr := &FetchError{Resource: e.cfg.ResourceName, Region: region, Err: err}
	log.WithError(err).WithField("region", region).Warnf("fetch %s failed", e.cfg.ResourceName)
	e.notifier.Show(notify.Notification{
		Key:     e.cfg.ResourceName,
		Text:    ferr.Error(),
		Variant: notify.Danger,
		Region:  region,
	})
	run(effects)
}

// merge applies a fetch result. filterIDs is nil for a full region fetch.
func (e *Engine) merge(region string, scope *regionScope, docs []Document, filterIDs []string) {
	e.mu.Lock()
	if !e.current(region, scope) {
		e.mu.Unlock()
		log.Debugf("dropping stale %s result for %s", e.cfg.ResourceName, region)
		return
	}

	var effects []effect
	arm := false

	if filterIDs == nil {
		e.markRegionForRefresh(region)
	}

	keys := make([]string, len(docs))
	retrieved := make(map[string]bool, len(docs))
	for i, doc := range docs {
		keys[i] = doc.Get(e.cfg.UniqueKey).String()
		if keys[i] == "" {
			log.Warnf("%s record without %s in %s, skipped", e.cfg.ResourceName, e.cfg.UniqueKey, region)
			continue
		}
		retrieved[keys[i]] = true
	}

	for _, id := range filterIDs {
		if !retrieved[id] {
			effects = append(effects, e.deleteLocked(id, region)...)
		}
	}

	for i, doc := range docs {
		key := keys[i]
		if key == "" {
			continue
		}
		r := &Resource{Key: key, Region: region, StillPresent: true, Doc: doc}
		e.resources[key] = r
		effects = append(effects, e.emitLater(Event{Kind: Updated, Key: key, Region: region}))

		if e.cfg.working(e.cfg.state(*r)) {
			if !contains(e.wip[region], key) {
				e.wip[region] = append(e.wip[region], key)
			}
			arm = true
		} else if contains(e.wip[region], key) {
			// Settled: stop polling it and drop alerts about the transition.
			e.wip[region] = remove(e.wip[region], key)
			if len(e.wip[region]) == 0 {
				delete(e.wip, region)
			}
			k := key
			effects = append(effects, func() { e.notifier.DismissByResourceID(k) })
		}
	}

	if filterIDs == nil {
		effects = append(effects, e.reconcileRegionDeletions(region)...)
	}
	e.mu.Unlock()

	run(effects)
	if arm {
		e.startPolling()
	}
}

// markRegionForRefresh flags every resource of region as possibly gone.
func (e *Engine) markRegionForRefresh(region string) {
	for _, r := range e.resources {
		if r.Region == region {
			r.StillPresent = false
		}
	}
}

// reconcileRegionDeletions removes what a full fetch of region did not
// return. Must be called with mu held.
func (e *Engine) reconcileRegionDeletions(region string) []effect {
	var effects []effect
	for key, r := range e.resources {
		if r.Region == region && !r.StillPresent {
			effects = append(effects, e.deleteLocked(key, region)...)
		}
	}
	return effects
}

func (e *Engine) deleteLocked(key, region string) []effect {
	delete(e.resources, key)
	if e.wip[region] != nil {
		e.wip[region] = remove(e.wip[region], key)
		if len(e.wip[region]) == 0 {
			delete(e.wip, region)
		}
	}
	var effects []effect
	if key == e.selectedKey {
		e.selectedKey = ""
		e.drawerOpen = false
		effects = append(effects, e.clearQuery)
	}
	name := e.cfg.ResourceName
	return append(effects,
		func() {
			e.notifier.DismissByResourceID(key)
			e.notifier.Show(notify.Notification{
				Key:     "deletedResource" + key,
				Text:    fmt.Sprintf("Deleted %s with ID %s", name, key),
				Variant: notify.Warning,
			})
		},
		e.emitLater(Event{Kind: Deleted, Key: key, Region: region}),
	)
}

// startPolling arms the poll timer unless it is already armed.
func (e *Engine) startPolling() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isPolling || e.closed {
		return
	}
	e.isPolling = true
	e.stopPoll = e.afterFunc(e.pollInterval, e.poll)
}

// poll disarms the timer and re-fetches every pending resource. The timer is
// armed again by the next merge that still finds a working state.
func (e *Engine) poll() {
	e.mu.Lock()
	e.isPolling = false
	e.stopPoll = nil
	pending := make(map[string][]string, len(e.wip))
	for region, ids := range e.wip {
		if len(ids) > 0 {
			pending[region] = append([]string(nil), ids...)
		}
	}
	e.mu.Unlock()

	for region, ids := range pending {
		log.Tracef("polling %d %s in %s", len(ids), e.cfg.ResourceName, region)
		e.FetchFiltered(region, ids)
	}
}

// selectActiveResource opens the drawer on the resource named in the query
// once loading is over.
func (e *Engine) selectActiveResource() {
	if e.nav == nil || e.activity.Loading() {
		return
	}
	id := queryValue(e.nav.Query(), e.cfg.UniqueKey)
	if id == "" {
		return
	}
	e.mu.Lock()
	r, ok := e.resources[id]
	if !ok || (e.selectedKey == id && e.drawerOpen) {
		e.mu.Unlock()
		return
	}
	e.selectedKey = id
	e.drawerOpen = true
	effects := []effect{e.emitLater(Event{Kind: Selected, Key: id, Region: r.Region})}
	e.mu.Unlock()
	run(effects)
}

// emitLater captures the subscriber list now and delivers ev after the lock
// is released. Must be called with mu held.
func (e *Engine) emitLater(ev Event) effect {
	subs := e.subscribers
	return func() {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

func run(effects []effect) {
	for _, fn := range effects {
		fn()
	}
}

func diffRegions(old, new []string) (added, removed []string) {
	for _, r := range dedup(new) {
		if !contains(old, r) {
			added = append(added, r)
		}
	}
	for _, r := range old {
		if !contains(new, r) {
			removed = append(removed, r)
		}
	}
	return added, removed
}

func dedup(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
