package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/repositories"
	"github.com/desertthunder/plst/internal/services"
	"github.com/desertthunder/plst/internal/store"
	tu "github.com/desertthunder/plst/internal/testing"
)

func ptr[T any](v T) *T { return &v }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the model and runs the resulting command chain until it yields no [Msg].
func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	for cmd != nil {
		next := cmd()
		if _, ok := next.(Msg); !ok {
			return
		}
		_, cmd = m.Update(next)
	}
}

func newTestModel(t *testing.T) (*Model, *services.PlaylistService, *models.Playlist) {
	t.Helper()
	ctx := context.Background()

	catalog := tu.NewFakeCatalog(
		models.Song{ID: "s1", Title: "Blue in Green", Artist: "Miles Davis"},
		models.Song{ID: "s2", Title: "So What", Artist: "Miles Davis"},
		models.Song{ID: "s3", Title: "Naima", Artist: "John Coltrane"},
	)
	svc := services.NewPlaylistService(store.New(repositories.NewMemoryPlaylistRepository()), catalog, services.DefaultMaxRetries, nil)

	p, err := svc.CreatePlaylist(ctx, "u1", models.PlaylistAttrs{Name: ptr("jazz")})
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	for _, id := range []string{"s1", "s2", "s3"} {
		if p, err = svc.AppendSong(ctx, p.ID, "u1", id); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	m := NewModel(ctx, svc, "u1")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	send(t, m, m.Init()())
	return m, svc, p
}

func order(t *testing.T, svc *services.PlaylistService, id string) string {
	t.Helper()
	refs, err := svc.GetOrderedSongs(context.Background(), id, "u1")
	if err != nil {
		t.Fatalf("failed to read order: %v", err)
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.SongID
	}
	return strings.Join(ids, ",")
}

func TestModel(t *testing.T) {
	t.Run("lists playlists and opens one", func(t *testing.T) {
		m, _, p := newTestModel(t)

		if n := len(m.playlistList.Items()); n != 1 {
			t.Fatalf("expected 1 playlist, got %d", n)
		}
		if !strings.Contains(m.View(), "jazz") {
			t.Error("playlist view should show the playlist name")
		}

		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != SongListView || m.current == nil || m.current.Playlist.ID != p.ID {
			t.Fatalf("expected song view for %s, got view %d", p.ID, m.view)
		}
		if n := len(m.songList.Items()); n != 3 {
			t.Errorf("expected 3 songs, got %d", n)
		}
	})

	t.Run("move up and down", func(t *testing.T) {
		m, svc, p := newTestModel(t)
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		m.songList.Select(2)
		send(t, m, runes("K"))
		if got := order(t, svc, p.ID); got != "s1,s3,s2" {
			t.Errorf("expected s1,s3,s2 after move up, got %s", got)
		}
		if m.songList.Index() != 1 {
			t.Errorf("cursor should follow the moved song, at %d", m.songList.Index())
		}

		m.songList.Select(0)
		send(t, m, runes("J"))
		if got := order(t, svc, p.ID); got != "s3,s1,s2" {
			t.Errorf("expected s3,s1,s2 after move down, got %s", got)
		}

		m.songList.Select(0)
		send(t, m, runes("K"))
		if got := order(t, svc, p.ID); got != "s3,s1,s2" {
			t.Errorf("moving the head up should do nothing, got %s", got)
		}
	})

	t.Run("remove asks for confirmation", func(t *testing.T) {
		m, svc, p := newTestModel(t)
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		m.songList.Select(1)
		send(t, m, runes("d"))
		if m.view != ConfirmRemoveView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}

		send(t, m, runes("n"))
		if got := order(t, svc, p.ID); got != "s1,s2,s3" {
			t.Errorf("declined removal changed the order: %s", got)
		}

		send(t, m, runes("d"))
		send(t, m, runes("y"))
		if got := order(t, svc, p.ID); got != "s1,s3" {
			t.Errorf("expected s1,s3 after removal, got %s", got)
		}
		if m.view != SongListView {
			t.Errorf("expected song view after removal, got %d", m.view)
		}
	})

	t.Run("add song", func(t *testing.T) {
		m, svc, p := newTestModel(t)
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		m.Update(runes("a"))
		if m.view != AddSongView {
			t.Fatalf("expected add view, got %d", m.view)
		}
		send(t, m, runes("s2"))
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		if got := order(t, svc, p.ID); got != "s1,s2,s3,s2" {
			t.Errorf("expected duplicate appended at the tail, got %s", got)
		}
		if m.songList.Index() != 3 {
			t.Errorf("expected cursor on the new song, at %d", m.songList.Index())
		}
	})

	t.Run("failed mutation shows status", func(t *testing.T) {
		m, svc, p := newTestModel(t)
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		m.Update(runes("a"))
		send(t, m, runes("unknown"))
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		if got := order(t, svc, p.ID); got != "s1,s2,s3" {
			t.Errorf("order should be unchanged, got %s", got)
		}
		if m.view != SongListView || !strings.Contains(m.View(), "failed") {
			t.Errorf("expected failure in status line, got %q", m.status)
		}
	})

	t.Run("back returns to playlists", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

		if m.view != PlaylistListView || m.current != nil {
			t.Errorf("expected playlist view, got %d", m.view)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
