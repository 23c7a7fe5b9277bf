package repositories

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// MemoryPlaylistRepository keeps playlists in process memory.
//
// Stored aggregates are cloned on the way in and out, so callers never share state with the store.
type MemoryPlaylistRepository struct {
	mu        sync.RWMutex
	playlists map[string]*models.Playlist
	sequence  int
}

// NewMemoryPlaylistRepository creates an empty in-memory playlist store.
func NewMemoryPlaylistRepository() *MemoryPlaylistRepository {
	return &MemoryPlaylistRepository{playlists: make(map[string]*models.Playlist)}
}

// Create stores a new playlist.
func (r *MemoryPlaylistRepository) Create(_ context.Context, p *models.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.playlists[p.ID]; exists {
		return fmt.Errorf("failed to insert playlist: duplicate id %s", p.ID)
	}

	r.sequence++
	p.Sequence = r.sequence
	r.playlists[p.ID] = p.Clone()
	return nil
}

// Get returns a copy of the stored playlist.
func (r *MemoryPlaylistRepository) Get(_ context.Context, id string) (*models.Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return p.Clone(), nil
}

// Commit replaces the stored playlist if its version still equals expectedVersion.
func (r *MemoryPlaylistRepository) Commit(_ context.Context, p *models.Playlist, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.playlists[p.ID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, p.ID)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: playlist %s is no longer at version %d", shared.ErrConflict, p.ID, expectedVersion)
	}

	next := p.Clone()
	next.Sequence = stored.Sequence
	next.OwnerID = stored.OwnerID
	next.CreatedAt = stored.CreatedAt
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	r.playlists[p.ID] = next

	p.Version, p.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

// Delete removes a playlist.
func (r *MemoryPlaylistRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.playlists[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	delete(r.playlists, id)
	return nil
}

// List returns copies of all playlists matching criteria in creation order.
func (r *MemoryPlaylistRepository) List(_ context.Context, criteria models.ListCriteria) ([]*models.Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	playlists := []*models.Playlist{}
	for _, p := range r.playlists {
		if criteria.OwnerID != "" && p.OwnerID != criteria.OwnerID {
			continue
		}
		if criteria.Visibility != "" && p.Visibility != criteria.Visibility {
			continue
		}
		if criteria.Tag != "" && !p.HasTag(criteria.Tag) {
			continue
		}
		playlists = append(playlists, p.Clone())
	}

	slices.SortFunc(playlists, func(a, b *models.Playlist) int { return cmp.Compare(a.Sequence, b.Sequence) })
	return playlists, nil
}

// MemorySongRepository keeps the song catalog in process memory.
type MemorySongRepository struct {
	mu       sync.RWMutex
	songs    map[string]models.Song
	sequence int
}

// NewMemorySongRepository creates an empty in-memory catalog.
func NewMemorySongRepository() *MemorySongRepository {
	return &MemorySongRepository{songs: make(map[string]models.Song)}
}

// Create stores a new song, generating an ID when none is set.
func (r *MemorySongRepository) Create(_ context.Context, s *models.Song) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = shared.GenerateID()
	}
	if _, exists := r.songs[s.ID]; exists {
		return fmt.Errorf("failed to insert song: duplicate id %s", s.ID)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	r.sequence++
	s.Sequence = r.sequence
	r.songs[s.ID] = *s
	return nil
}

// Get returns a copy of the song.
func (r *MemorySongRepository) Get(_ context.Context, id string) (*models.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.songs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return &s, nil
}

// List returns every song in insertion order.
func (r *MemorySongRepository) List(_ context.Context) ([]*models.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	songs := make([]*models.Song, 0, len(r.songs))
	for _, s := range r.songs {
		songs = append(songs, &s)
	}
	slices.SortFunc(songs, func(a, b *models.Song) int { return cmp.Compare(a.Sequence, b.Sequence) })
	return songs, nil
}

// Delete removes a song.
func (r *MemorySongRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.songs[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	delete(r.songs, id)
	return nil
}

var (
	_ models.PlaylistRepository = (*PlaylistRepository)(nil)
	_ models.PlaylistRepository = (*MemoryPlaylistRepository)(nil)
	_ models.SongRepository     = (*SongRepository)(nil)
	_ models.SongRepository     = (*MemorySongRepository)(nil)
)
