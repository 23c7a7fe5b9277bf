package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	SongListView
	AddSongView
	ConfirmRemoveView
)

// PlaylistService is the part of [services.PlaylistService] the TUI drives.
type PlaylistService interface {
	ListPlaylists(ctx context.Context, requesterID string, q services.ListQuery) ([]*models.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID, requesterID string) (*services.PlaylistView, error)
	AppendSong(ctx context.Context, playlistID, requesterID, songID string) (*models.Playlist, error)
	RemoveNode(ctx context.Context, playlistID, requesterID, nodeID string) (*models.Playlist, error)
	MoveNode(ctx context.Context, playlistID, requesterID, nodeID string, newIndex int) (*models.Playlist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	svc          PlaylistService
	userID       string
	view         ViewState
	width        int
	height       int
	playlistList list.Model
	songList     list.Model
	current      *services.PlaylistView
	input        textinput.Model
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI browsing userID's playlists.
func NewModel(ctx context.Context, svc PlaylistService, userID string) *Model {
	input := textinput.New()
	input.Placeholder = "song id"
	input.CharLimit = 64

	m := &Model{
		ctx:    ctx,
		svc:    svc,
		userID: userID,
		view:   PlaylistListView,
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.playlistList = newList("Playlists", nil)
	m.songList = newList("Songs", nil)
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-6)
		m.songList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		case AddSongView:
			return m.handleAddSongKeys(msg)
		case ConfirmRemoveView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		cmd := m.playlistList.SetItems(playlistItems(data.playlists))
		return m, cmd

	case MsgPlaylistLoaded:
		data := msg.data.(playlistLoaded)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", data.action, data.err))
			if m.current == nil {
				m.view = PlaylistListView
			}
			return m, nil
		}

		m.current = data.view
		m.songList.Title = data.view.Playlist.Name
		cmd := m.songList.SetItems(songItems(data.view.Songs))
		if n := len(data.view.Songs); n > 0 {
			m.songList.Select(min(max(data.cursor, 0), n-1))
		}
		m.status = ""
		if data.action != "" {
			m.status = styles.ok.Render(fmt.Sprintf("✓ %s (version %d)", data.action, data.view.Playlist.Version))
		}
		m.view = SongListView
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case SongListView:
		return m.renderSongList()
	case AddSongView:
		return m.renderAddSong()
	case ConfirmRemoveView:
		return m.renderConfirmRemove()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.current = nil
			return m, m.loadPlaylist(item.playlist.ID, "", 0)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	idx := m.songList.Index()
	item, selected := m.songList.SelectedItem().(songItem)

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view, m.current, m.status = PlaylistListView, nil, ""
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.refresh):
		return m, m.loadPlaylist(m.current.Playlist.ID, "", idx)
	case key.Matches(msg, m.keys.add):
		m.view = AddSongView
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.remove):
		if selected {
			m.view = ConfirmRemoveView
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if selected && idx > 0 {
			return m, m.move(item.song.NodeID, idx-1)
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if selected && idx < len(m.current.Songs)-1 {
			return m, m.move(item.song.NodeID, idx+1)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleAddSongKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.view = SongListView
		return m, nil
	case tea.KeyEnter:
		songID := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.view = SongListView
		if songID == "" {
			return m, nil
		}
		return m, m.appendSong(songID)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = SongListView
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			return m, m.remove(item.song.NodeID, m.songList.Index())
		}
		return m, nil
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = SongListView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.svc.ListPlaylists(m.ctx, m.userID, services.ListQuery{})
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) loadPlaylist(id, action string, cursor int) tea.Cmd {
	return func() tea.Msg {
		view, err := m.svc.GetPlaylist(m.ctx, id, m.userID)
		return playlistLoadedMsg(view, action, cursor, err)
	}
}

// mutate runs fn against the open playlist and reloads it so the list shows the committed order.
func (m *Model) mutate(action string, cursor int, fn func(playlistID string) error) tea.Cmd {
	id := m.current.Playlist.ID
	return func() tea.Msg {
		if err := fn(id); err != nil {
			return playlistLoadedMsg(nil, action, cursor, err)
		}
		view, err := m.svc.GetPlaylist(m.ctx, id, m.userID)
		return playlistLoadedMsg(view, action, cursor, err)
	}
}

func (m *Model) move(nodeID string, to int) tea.Cmd {
	return m.mutate(fmt.Sprintf("move %s to %d", nodeID, to+1), to, func(id string) error {
		_, err := m.svc.MoveNode(m.ctx, id, m.userID, nodeID, to)
		return err
	})
}

func (m *Model) remove(nodeID string, idx int) tea.Cmd {
	return m.mutate("remove "+nodeID, idx, func(id string) error {
		_, err := m.svc.RemoveNode(m.ctx, id, m.userID, nodeID)
		return err
	})
}

func (m *Model) appendSong(songID string) tea.Cmd {
	return m.mutate("add "+songID, len(m.current.Songs), func(id string) error {
		_, err := m.svc.AppendSong(m.ctx, id, m.userID, songID)
		return err
	})
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSongList() string {
	helpKeys := []key.Binding{m.keys.moveUp, m.keys.moveDown, m.keys.remove, m.keys.add, m.keys.back, m.keys.quit}
	out := m.songList.View()
	if m.status != "" {
		out += "\n" + styles.status.Render(m.status)
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderAddSong() string {
	title := styles.title.Render(fmt.Sprintf("Add a song to '%s'", m.current.Playlist.Name))
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), styles.help.Render("enter to add • esc to cancel"))
}

func (m *Model) renderConfirmRemove() string {
	item, _ := m.songList.SelectedItem().(songItem)
	title := styles.title.Render(fmt.Sprintf("Remove %s from '%s'?", item.Title(), m.current.Playlist.Name))
	note := styles.warn.Render("Only this occurrence is removed; other copies of the song stay.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n\n%s", title, note, m.help.ShortHelpView(helpKeys))
}
