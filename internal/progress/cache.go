package progress

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize = 1024
	DefaultCacheIdle = 30 * time.Minute
)

// TrackerKey identifies one learner in one course.
type TrackerKey struct {
	LearnerID string
	CourseID  string
}

// TrackerCache hands out one [Tracker] per (learner, course) so that every surface serving the
// same learner serializes its toggles through the same tracker.
//
// The cache is bounded: the least recently used tracker is dropped when it is full and any tracker
// idle for longer than the configured duration expires. A dropped tracker holds no unsaved state;
// the next request opens a fresh one from the store.
type TrackerCache struct {
	store Store
	opts  TrackerOpts

	mu  sync.Mutex
	lru *expirable.LRU[TrackerKey, *Tracker]
}

// NewTrackerCache creates a cache of at most size trackers that expire after idle.
// Non-positive values fall back to [DefaultCacheSize] and [DefaultCacheIdle].
func NewTrackerCache(store Store, opts TrackerOpts, size int, idle time.Duration) *TrackerCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if idle <= 0 {
		idle = DefaultCacheIdle
	}
	return &TrackerCache{
		store: store,
		opts:  opts,
		lru:   expirable.NewLRU[TrackerKey, *Tracker](size, nil, idle),
	}
}

// Get returns the cached tracker for the pair, replacing it when the course's step count changed.
func (c *TrackerCache) Get(learnerID, courseID string, totalSteps int) *Tracker {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := TrackerKey{LearnerID: learnerID, CourseID: courseID}
	if t, ok := c.lru.Get(key); ok && t.TotalSteps() == totalSteps {
		// Re-adding resets the idle timer.
		c.lru.Add(key, t)
		return t
	}

	t := NewTracker(c.store, learnerID, courseID, totalSteps, c.opts)
	c.lru.Add(key, t)
	return t
}

// ForgetCourse drops every tracker of a course.
func (c *TrackerCache) ForgetCourse(courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.lru.Keys() {
		if key.CourseID == courseID {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of live trackers.
func (c *TrackerCache) Len() int {
	return c.lru.Len()
}
