package pricing

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrStaleResult is returned for a pricing result superseded by a newer canvas version
var ErrStaleResult = errors.New("stale pricing result")

// Bounds of a VersionTracker
const (
	DefaultTrackedCanvases = 10000
	DefaultVersionIdleTTL  = 30 * time.Minute
)

// VersionToken identifies one pricing pass of a canvas
type VersionToken struct {
	CanvasID string
	Version  uint64
}

// VersionTracker keeps the latest pricing version per canvas. Results whose token is no
// longer current at completion must be dropped instead of overwriting newer ones.
// Canvases idle for longer than the TTL, or beyond the size bound, are forgotten.
type VersionTracker struct {
	mu       sync.Mutex
	versions *expirable.LRU[string, uint64]
}

// NewVersionTracker creates an empty tracker holding at most maxCanvases canvases, each
// forgotten idleTTL after its last pass. Values <= 0 use the defaults.
func NewVersionTracker(maxCanvases int, idleTTL time.Duration) *VersionTracker {
	if maxCanvases <= 0 {
		maxCanvases = DefaultTrackedCanvases
	}
	if idleTTL <= 0 {
		idleTTL = DefaultVersionIdleTTL
	}
	return &VersionTracker{versions: expirable.NewLRU[string, uint64](maxCanvases, nil, idleTTL)}
}

// Begin starts a new pass for canvasID and returns its token
func (t *VersionTracker) Begin(canvasID string) VersionToken {
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, _ := t.versions.Get(canvasID)
	latest++
	t.versions.Add(canvasID, latest)
	return VersionToken{CanvasID: canvasID, Version: latest}
}

// Observe registers a version chosen by the client, such as an editor revision counter.
// Versions only move forward: an older version yields a token that is already stale.
func (t *VersionTracker) Observe(canvasID string, version uint64) VersionToken {
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, _ := t.versions.Get(canvasID)
	if version > latest {
		latest = version
	}
	// re-adding refreshes the idle deadline
	t.versions.Add(canvasID, latest)
	return VersionToken{CanvasID: canvasID, Version: version}
}

// Latest returns the newest version seen for canvasID, 0 once it was forgotten
func (t *VersionTracker) Latest(canvasID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, _ := t.versions.Get(canvasID)
	return latest
}

// Len returns the number of tracked canvases
func (t *VersionTracker) Len() int {
	return t.versions.Len()
}

// IsCurrent reports whether token is still the newest pass of its canvas
func (t *VersionTracker) IsCurrent(token VersionToken) bool {
	return t.Latest(token.CanvasID) == token.Version
}

// Check returns ErrStaleResult when token has been superseded
func (t *VersionTracker) Check(token VersionToken) error {
	if !t.IsCurrent(token) {
		return ErrStaleResult
	}
	return nil
}

// Forget drops the state of a canvas, e.g. when its editing session ends
func (t *VersionTracker) Forget(canvasID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.versions.Remove(canvasID)
}
