// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/plst/internal/events"
	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// FakeCatalog is an in-memory song catalog for service and handler tests.
type FakeCatalog struct {
	mu    sync.RWMutex
	songs map[string]models.Song
	Err   error
}

// NewFakeCatalog returns a catalog holding songs.
func NewFakeCatalog(songs ...models.Song) *FakeCatalog {
	c := &FakeCatalog{songs: make(map[string]models.Song)}
	for _, s := range songs {
		c.songs[s.ID] = s
	}
	return c
}

// Add registers a song.
func (c *FakeCatalog) Add(s models.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs[s.ID] = s
}

// Remove forgets a song, as if the catalog deleted it.
func (c *FakeCatalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.songs, id)
}

func (c *FakeCatalog) Exists(_ context.Context, songID string) (bool, error) {
	if c.Err != nil {
		return false, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.songs[songID]
	return ok, nil
}

func (c *FakeCatalog) Get(_ context.Context, songID string) (*models.Song, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.songs[songID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}
	return &s, nil
}

// RecordingPublisher keeps every published event; Err makes Publish fail after recording.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.Err
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// MustTestDB returns an in-memory SQLite database with migrations applied, closed when the test ends.
func MustTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
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

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
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
