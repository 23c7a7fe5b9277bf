// package services orchestrates playlist operations on behalf of authenticated users
//
// Catalog lookups go through [Catalog]; persistence and ordering go through the store.
package services

import (
	"context"

	"github.com/desertthunder/plst/internal/models"
)

// Catalog is the source of song identity and metadata.
type Catalog interface {
	// Exists reports whether the catalog knows songID.
	Exists(ctx context.Context, songID string) (bool, error)

	// Get returns the song or an error wrapping [shared.ErrSongNotFound].
	Get(ctx context.Context, songID string) (*models.Song, error)
}

// PlaylistView is a playlist together with its songs in canonical order.
type PlaylistView struct {
	Playlist *models.Playlist `json:"playlist"`
	Songs    []models.SongRef `json:"songs"`
}

// ListQuery selects which playlists [PlaylistService.ListPlaylists] returns.
//
// By default the requester's own playlists are listed; Public lists everyone's public playlists instead.
type ListQuery struct {
	Public bool
	Tag    string
}
