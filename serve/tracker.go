package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
)

// opTTL is how long a finished operation stays visible to status requests.
const opTTL = 10 * time.Minute

type opEntry struct {
	status lacc.StatusResponse
	cancel context.CancelFunc
	seq    uint64
}

// Tracker records the progress of operations by op id so other connections
// can poll or cancel them.
type Tracker struct {
	mu    sync.Mutex
	seq   uint64
	cache *ttlcache.Cache[string, opEntry]
}

// NewTracker creates a tracker whose entries expire after ttl.
func NewTracker(ttl time.Duration) *Tracker {
	c := ttlcache.New[string, opEntry](
		ttlcache.WithTTL[string, opEntry](ttl),
	)
	go c.Start()
	return &Tracker{cache: c}
}

// Close stops the expiration loop.
func (t *Tracker) Close() {
	t.cache.Stop()
}

// NewOpID returns a fresh operation id.
func NewOpID() string {
	return uuid.NewString()
}

// Begin registers an in-flight operation and returns its sequence number.
// An earlier operation with the same id is cancelled and its later updates
// are ignored.
func (t *Tracker) Begin(id string, op lacc.Op, cancel context.CancelFunc) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if item := t.cache.Get(id); item != nil && !item.Value().status.Done && item.Value().cancel != nil {
		item.Value().cancel()
	}
	t.seq++
	t.cache.Set(id, opEntry{
		status: lacc.StatusResponse{OpID: id, Op: op},
		cancel: cancel,
		seq:    t.seq,
	}, ttlcache.DefaultTTL)
	return t.seq
}

// Progress records the latest progress message.
func (t *Tracker) Progress(id string, seq uint64, msg string) {
	t.update(id, seq, func(e *opEntry) { e.status.Progress = msg })
}

// Finish marks the operation done.
func (t *Tracker) Finish(id string, seq uint64, err *lacc.Error) {
	t.update(id, seq, func(e *opEntry) {
		e.status.Done = true
		e.status.Error = err
		e.cancel = nil
	})
}

func (t *Tracker) update(id string, seq uint64, fn func(*opEntry)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item := t.cache.Get(id)
	if item == nil || item.Value().seq != seq {
		return
	}
	e := item.Value()
	fn(&e)
	t.cache.Set(id, e, ttlcache.DefaultTTL)
}

// Status returns the state of an operation.
func (t *Tracker) Status(id string) (lacc.StatusResponse, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item := t.cache.Get(id)
	if item == nil {
		return lacc.StatusResponse{}, false
	}
	return item.Value().status, true
}

// Cancel stops an in-flight operation. It reports whether one was running.
func (t *Tracker) Cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	item := t.cache.Get(id)
	if item == nil || item.Value().status.Done || item.Value().cancel == nil {
		return false
	}
	item.Value().cancel()
	return true
}
