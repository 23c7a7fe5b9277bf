package services

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
	"github.com/desertthunder/plst/internal/store"
)

// DefaultMaxRetries bounds how often a write is retried after a version conflict.
const DefaultMaxRetries = 3

// PlaylistService is the entry point used by the HTTP handlers, the CLI and the TUI.
//
// Writes that lose an optimistic-concurrency race are retried against a freshly loaded
// playlist up to maxRetries times before the conflict is returned.
type PlaylistService struct {
	store      *store.PlaylistStore
	catalog    Catalog
	maxRetries int
	logger     *log.Logger
}

// NewPlaylistService wires the service. A negative maxRetries disables retrying.
func NewPlaylistService(st *store.PlaylistStore, catalog Catalog, maxRetries int, logger *log.Logger) *PlaylistService {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &PlaylistService{store: st, catalog: catalog, maxRetries: max(maxRetries, 0), logger: logger.WithPrefix("service")}
}

// CreatePlaylist creates an empty playlist for requesterID.
func (s *PlaylistService) CreatePlaylist(ctx context.Context, requesterID string, attrs models.PlaylistAttrs) (*models.Playlist, error) {
	return s.store.Create(ctx, requesterID, attrs)
}

// GetPlaylist returns the playlist with its ordered songs.
func (s *PlaylistService) GetPlaylist(ctx context.Context, playlistID, requesterID string) (*PlaylistView, error) {
	refs, p, err := s.store.OrderedSongs(ctx, playlistID, requesterID)
	if err != nil {
		return nil, err
	}
	return &PlaylistView{Playlist: p, Songs: s.describe(ctx, refs)}, nil
}

// ListPlaylists returns the requester's playlists, or all public ones when q.Public is set.
func (s *PlaylistService) ListPlaylists(ctx context.Context, requesterID string, q ListQuery) ([]*models.Playlist, error) {
	criteria := models.ListCriteria{OwnerID: requesterID, Tag: q.Tag}
	if q.Public {
		criteria = models.ListCriteria{Visibility: models.VisibilityPublic, Tag: q.Tag}
	} else if requesterID == "" {
		return nil, shared.ErrUnauthorized
	}
	return s.store.List(ctx, requesterID, criteria)
}

// UpdatePlaylist changes the provided attributes only.
func (s *PlaylistService) UpdatePlaylist(ctx context.Context, playlistID, requesterID string, attrs models.PlaylistAttrs) (*models.Playlist, error) {
	return s.retry(ctx, playlistID, "update", func() (*models.Playlist, error) {
		return s.store.Update(ctx, playlistID, requesterID, attrs)
	})
}

// DeletePlaylist deletes a playlist and all of its nodes.
func (s *PlaylistService) DeletePlaylist(ctx context.Context, playlistID, requesterID string) error {
	return s.store.Delete(ctx, playlistID, requesterID)
}

// AppendSong adds songID at the end of the playlist.
//
// Ownership is checked before the catalog is asked about songID.
func (s *PlaylistService) AppendSong(ctx context.Context, playlistID, requesterID, songID string) (*models.Playlist, error) {
	if songID == "" {
		return nil, shared.ErrMissingArgument
	}

	if err := s.store.Authorize(ctx, playlistID, requesterID); err != nil {
		return nil, err
	}

	ok, err := s.catalog.Exists(ctx, songID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrSongNotFound
	}

	return s.mutate(ctx, playlistID, requesterID, models.AppendOp(songID))
}

// RemoveNode removes one occurrence of a song, addressed by node id.
func (s *PlaylistService) RemoveNode(ctx context.Context, playlistID, requesterID, nodeID string) (*models.Playlist, error) {
	return s.mutate(ctx, playlistID, requesterID, models.RemoveOp(nodeID))
}

// MoveNode moves a node to newIndex of the resulting order.
func (s *PlaylistService) MoveNode(ctx context.Context, playlistID, requesterID, nodeID string, newIndex int) (*models.Playlist, error) {
	return s.mutate(ctx, playlistID, requesterID, models.MoveOp(nodeID, newIndex))
}

// GetOrderedSongs returns the playlist's songs head to tail with catalog metadata.
//
// Songs the catalog no longer knows are returned with their ids only.
func (s *PlaylistService) GetOrderedSongs(ctx context.Context, playlistID, requesterID string) ([]models.SongRef, error) {
	refs, _, err := s.store.OrderedSongs(ctx, playlistID, requesterID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, refs), nil
}

func (s *PlaylistService) mutate(ctx context.Context, playlistID, requesterID string, op models.Operation) (*models.Playlist, error) {
	return s.retry(ctx, playlistID, op.String(), func() (*models.Playlist, error) {
		return s.store.Mutate(ctx, playlistID, requesterID, op)
	})
}

// retry reruns fn while it fails with [shared.ErrConflict], at most maxRetries extra times.
func (s *PlaylistService) retry(ctx context.Context, playlistID, op string, fn func() (*models.Playlist, error)) (*models.Playlist, error) {
	for attempt := 0; ; attempt++ {
		p, err := fn()
		if err == nil || !errors.Is(err, shared.ErrConflict) {
			return p, err
		}
		if attempt >= s.maxRetries {
			s.logger.Warn("giving up after conflicts", "playlist", playlistID, "op", op, "attempts", attempt+1)
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug("retrying after conflict", "playlist", playlistID, "op", op, "attempt", attempt+1)
	}
}

// describe fills in catalog metadata, leaving refs bare when the catalog cannot supply it.
func (s *PlaylistService) describe(ctx context.Context, refs []models.SongRef) []models.SongRef {
	songs := make(map[string]*models.Song)
	out := make([]models.SongRef, len(refs))
	for i, ref := range refs {
		song, seen := songs[ref.SongID]
		if !seen {
			var err error
			if song, err = s.catalog.Get(ctx, ref.SongID); err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					s.logger.Warn("catalog lookup failed", "song", ref.SongID, "err", err)
				}
				song = nil
			}
			songs[ref.SongID] = song
		}

		if song == nil {
			out[i] = ref
			continue
		}
		out[i] = song.Ref(ref.NodeID)
		out[i].SongID = ref.SongID
	}
	return out
}
