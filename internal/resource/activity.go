package resource

import (
	"time"

	"go.uber.org/atomic"
)

// Activity is the loading counter shared by every engine of a console. The
// header spinner shows while Loading is true.
type Activity struct {
	count       *atomic.Int32
	lastRefresh *atomic.Int64
}

// NewActivity returns an idle Activity.
func NewActivity() *Activity {
	return &Activity{
		count:       atomic.NewInt32(0),
		lastRefresh: atomic.NewInt64(0),
	}
}

// Inc records a fetch starting.
func (a *Activity) Inc() {
	a.count.Inc()
}

// Dec records a fetch finishing. The refresh time is stamped when the
// counter drops back to zero.
func (a *Activity) Dec() {
	if a.count.Dec() <= 0 {
		a.count.Store(0)
		a.lastRefresh.Store(time.Now().UnixNano())
	}
}

// Loading reports whether any fetch is in flight.
func (a *Activity) Loading() bool {
	return a.count.Load() > 0
}

// Count returns the number of fetches in flight.
func (a *Activity) Count() int {
	return int(a.count.Load())
}

// LastRefresh is when the counter last reached zero.
func (a *Activity) LastRefresh() time.Time {
	ns := a.lastRefresh.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
