// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the signed-in user's playlists and edits their order:
//  1. [PlaylistListView] : Browse the user's playlists
//  2. [SongListView] : Songs in canonical order; move with K/J, remove with d, add with a
//  3. [AddSongView] : Enter a song id to append
//  4. [ConfirmRemoveView] : Confirm removing the selected occurrence
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every mutation goes through the playlist service and is followed by a reload, so the list always shows the committed order.
// Failures such as version conflicts are shown in the status line rather than ending the program.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
