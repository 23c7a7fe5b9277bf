package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/services"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgPlaylistLoaded
)

type playlistsFetched struct {
	playlists []*models.Playlist
	err       error
}

type playlistLoaded struct {
	view   *services.PlaylistView
	action string // Describes the mutation that preceded the load, if any
	cursor int    // Song index to select after loading
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []*models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// playlistLoadedMsg is the constructor for [MsgPlaylistLoaded]
func playlistLoadedMsg(view *services.PlaylistView, action string, cursor int, err error) Msg {
	return Msg{kind: MsgPlaylistLoaded, data: playlistLoaded{view, action, cursor, err}}
}
