package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plst/internal/events"
	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/ordering"
	"github.com/desertthunder/plst/internal/shared"
)

// PlaylistStore wraps a [models.PlaylistRepository] with ownership checks, validation and versioned commits.
type PlaylistStore struct {
	repo      models.PlaylistRepository
	engine    *ordering.Engine
	publisher events.Publisher
	logger    *log.Logger
}

// Option configures a [PlaylistStore].
type Option func(*PlaylistStore)

// WithEngine replaces the default ordering engine.
func WithEngine(e *ordering.Engine) Option {
	return func(s *PlaylistStore) { s.engine = e }
}

// WithPublisher sends change events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *PlaylistStore) { s.publisher = p }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *PlaylistStore) { s.logger = l }
}

// New creates a PlaylistStore over repo.
func New(repo models.PlaylistRepository, opts ...Option) *PlaylistStore {
	s := &PlaylistStore{
		repo:      repo,
		engine:    ordering.NewEngine(),
		publisher: events.NopPublisher{},
		logger:    shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("store")
	return s
}

// Engine returns the ordering engine used for mutations and reads.
func (s *PlaylistStore) Engine() *ordering.Engine {
	return s.engine
}

// Create stores a new, empty playlist owned by ownerID.
func (s *PlaylistStore) Create(ctx context.Context, ownerID string, attrs models.PlaylistAttrs) (*models.Playlist, error) {
	if ownerID == "" {
		return nil, shared.ErrUnauthorized
	}
	if err := attrs.ValidateCreate(); err != nil {
		return nil, err
	}

	p := models.NewPlaylist(ownerID, attrs)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	s.logger.Debug("created playlist", "playlist", p.ID, "owner", ownerID)
	s.publish(ctx, events.PlaylistCreated, p, "")
	return p, nil
}

// Get loads a playlist the requester may read.
func (s *PlaylistStore) Get(ctx context.Context, playlistID, requesterID string) (*models.Playlist, error) {
	p, err := s.repo.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !p.ReadableBy(requesterID) {
		return nil, fmt.Errorf("%w: playlist %s is private", shared.ErrForbidden, playlistID)
	}
	return p, nil
}

// Authorize reports whether requesterID may modify the playlist, without loading it for a write.
func (s *PlaylistStore) Authorize(ctx context.Context, playlistID, requesterID string) error {
	_, err := s.loadOwned(ctx, playlistID, requesterID)
	return err
}

// List returns the playlists matching criteria that requesterID may read.
func (s *PlaylistStore) List(ctx context.Context, requesterID string, criteria models.ListCriteria) ([]*models.Playlist, error) {
	playlists, err := s.repo.List(ctx, criteria)
	if err != nil {
		return nil, err
	}

	readable := playlists[:0]
	for _, p := range playlists {
		if p.ReadableBy(requesterID) {
			readable = append(readable, p)
		}
	}
	return readable, nil
}

// Update applies attrs to a playlist the requester owns.
func (s *PlaylistStore) Update(ctx context.Context, playlistID, requesterID string, attrs models.PlaylistAttrs) (*models.Playlist, error) {
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	p, err := s.loadOwned(ctx, playlistID, requesterID)
	if err != nil {
		return nil, err
	}

	expected := p.Version
	p.Apply(attrs)
	if err := s.commit(ctx, p, expected, "update"); err != nil {
		return nil, err
	}

	s.publish(ctx, events.PlaylistUpdated, p, "")
	return p, nil
}

// Delete removes a playlist the requester owns together with all of its nodes.
func (s *PlaylistStore) Delete(ctx context.Context, playlistID, requesterID string) error {
	p, err := s.loadOwned(ctx, playlistID, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, playlistID); err != nil {
		return err
	}

	s.logger.Debug("deleted playlist", "playlist", playlistID, "nodes", p.Len())
	s.publish(ctx, events.PlaylistDeleted, p, "")
	return nil
}

// Mutate applies one ordering operation and commits the result if nothing else was committed since the load.
//
// Engine errors are returned unchanged. A result that fails [ordering.Validate] is never persisted.
func (s *PlaylistStore) Mutate(ctx context.Context, playlistID, requesterID string, op models.Operation) (*models.Playlist, error) {
	p, err := s.loadOwned(ctx, playlistID, requesterID)
	if err != nil {
		return nil, err
	}

	next, err := s.engine.Apply(p, op)
	if err != nil {
		if errors.Is(err, shared.ErrInvariantViolation) {
			s.logger.Error("engine rejected stored ordering", "playlist", playlistID, "op", op, "err", err)
		}
		return nil, err
	}

	if err := ordering.Validate(next); err != nil {
		s.logger.Error("refusing to persist invalid ordering", "playlist", playlistID, "op", op, "version", p.Version, "err", err)
		return nil, fmt.Errorf("failed to apply %s to playlist %s: %w", op, playlistID, err)
	}

	if err := s.commit(ctx, next, p.Version, op.String()); err != nil {
		return nil, err
	}

	s.publish(ctx, events.SongsChanged, next, op.String())
	return next, nil
}

// OrderedSongs returns the canonical order of a playlist the requester may read, along with the playlist.
func (s *PlaylistStore) OrderedSongs(ctx context.Context, playlistID, requesterID string) ([]models.SongRef, *models.Playlist, error) {
	p, err := s.Get(ctx, playlistID, requesterID)
	if err != nil {
		return nil, nil, err
	}

	refs, err := s.engine.Sequence(p)
	if err != nil {
		s.logger.Error("stored ordering does not terminate", "playlist", playlistID, "version", p.Version, "err", err)
		return nil, nil, fmt.Errorf("failed to read playlist %s: %w", playlistID, err)
	}
	return refs, p, nil
}

func (s *PlaylistStore) loadOwned(ctx context.Context, playlistID, requesterID string) (*models.Playlist, error) {
	p, err := s.repo.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(requesterID) {
		return nil, fmt.Errorf("%w: only the owner may modify playlist %s", shared.ErrForbidden, playlistID)
	}
	return p, nil
}

func (s *PlaylistStore) commit(ctx context.Context, p *models.Playlist, expected int64, op string) error {
	start := time.Now()
	if err := s.repo.Commit(ctx, p, expected); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			s.logger.Warn("version conflict", "playlist", p.ID, "op", op, "expected", expected)
		}
		return err
	}

	s.logger.Debug("committed", "playlist", p.ID, "op", op, "version", p.Version, "took", time.Since(start))
	return nil
}

func (s *PlaylistStore) publish(ctx context.Context, kind events.Type, p *models.Playlist, op string) {
	e := events.Event{Type: kind, PlaylistID: p.ID, OwnerID: p.OwnerID, Version: p.Version, Operation: op, At: time.Now().UTC()}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("failed to publish event", "type", kind, "playlist", p.ID, "err", err)
	}
}
