// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"maps"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// MemoryStore is an in-memory progress store with the same version guard as the real stores.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]models.ProgressDocument
	reads  int
	merges int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]models.ProgressDocument{}}
}

func (m *MemoryStore) Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	doc, ok := m.docs[models.ProgressKey(learnerID, courseID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	doc.StepCompleted = maps.Clone(doc.StepCompleted)
	return &doc, nil
}

func (m *MemoryStore) Merge(ctx context.Context, doc *models.ProgressDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merges++

	if cur, ok := m.docs[doc.Key()]; ok && cur.Version >= doc.Version {
		return shared.ErrStaleWrite
	}
	stored := *doc
	stored.StepCompleted = maps.Clone(doc.StepCompleted)
	m.docs[doc.Key()] = stored
	return nil
}

// Put stores doc unconditionally.
func (m *MemoryStore) Put(doc models.ProgressDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.StepCompleted = maps.Clone(doc.StepCompleted)
	m.docs[doc.Key()] = doc
}

// Get returns the stored document without counting a read.
func (m *MemoryStore) Get(learnerID, courseID string) (models.ProgressDocument, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[models.ProgressKey(learnerID, courseID)]
	return doc, ok
}

func (m *MemoryStore) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *MemoryStore) Merges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.merges
}

// ProgressStore is the method set shared by every progress store.
type ProgressStore interface {
	Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error)
	Merge(ctx context.Context, doc *models.ProgressDocument) error
}

// FlakyStore wraps a store and injects failures into Merge.
//
// MergeErr is returned while FailMerges is positive. Delay makes Merge wait before
// delegating, returning early with ctx.Err() if ctx ends first.
type FlakyStore struct {
	mu         sync.Mutex
	Inner      ProgressStore
	MergeErr   error
	FailMerges int
	ReadErr    error
	Delay      time.Duration
	attempts   int
}

func NewFlakyStore(inner ProgressStore) *FlakyStore {
	return &FlakyStore{Inner: inner}
}

// FailNext makes the next n merges return err.
func (f *FlakyStore) FailNext(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailMerges = n
	f.MergeErr = err
}

func (f *FlakyStore) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *FlakyStore) Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error) {
	f.mu.Lock()
	err := f.ReadErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Inner.Read(ctx, learnerID, courseID)
}

func (f *FlakyStore) Merge(ctx context.Context, doc *models.ProgressDocument) error {
	f.mu.Lock()
	f.attempts++
	delay := f.Delay
	var err error
	if f.FailMerges > 0 {
		f.FailMerges--
		err = f.MergeErr
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return f.Inner.Merge(ctx, doc)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper returns a canned response and records the last request
type MockRoundTripper struct {
	response *http.Response
	err      error
	Last     *http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	m.Last = r
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
