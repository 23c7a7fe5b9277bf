package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/repositories"
	"github.com/desertthunder/plst/internal/services"
	"github.com/desertthunder/plst/internal/shared"
	"github.com/desertthunder/plst/internal/store"
	tu "github.com/desertthunder/plst/internal/testing"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	repo *repositories.MemoryPlaylistRepository
	svc  *services.PlaylistService
	eng  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repositories.NewMemoryPlaylistRepository()
	catalog := tu.NewFakeCatalog(
		models.Song{ID: "s1", Title: "Blue in Green", Artist: "Miles Davis"},
		models.Song{ID: "s2", Title: "So What", Artist: "Miles Davis"},
		models.Song{ID: "s3", Title: "Naima", Artist: "John Coltrane"},
	)
	svc := services.NewPlaylistService(store.New(repo), catalog, services.DefaultMaxRetries, nil)
	return &fixture{repo: repo, svc: svc, eng: NewEngine(svc, repo, nil)}
}

func (f *fixture) create(t *testing.T, owner, name string) *models.Playlist {
	t.Helper()
	p, err := f.svc.CreatePlaylist(context.Background(), owner, models.PlaylistAttrs{Name: ptr(name)})
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	return p
}

func TestEngine_BulkAppend(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		owner       string
		requester   string
		songs       []string
		wantErr     error
		wantSuccess int
		wantFailed  int
		wantOrder   []string
	}{
		{
			name:        "all songs appended in order",
			owner:       "u1",
			requester:   "u1",
			songs:       []string{"s3", "s1", "s3"},
			wantSuccess: 3,
			wantOrder:   []string{"s3", "s1", "s3"},
		},
		{
			name:        "unknown songs are skipped",
			owner:       "u1",
			requester:   "u1",
			songs:       []string{"s1", "missing", "s2"},
			wantSuccess: 2,
			wantFailed:  1,
			wantOrder:   []string{"s1", "s2"},
		},
		{
			name:       "no songs found",
			owner:      "u1",
			requester:  "u1",
			songs:      []string{"x", "y"},
			wantErr:    shared.ErrSongNotFound,
			wantFailed: 2,
			wantOrder:  []string{},
		},
		{
			name:       "foreign playlist stops the run",
			owner:      "u1",
			requester:  "u2",
			songs:      []string{"s1", "s2"},
			wantErr:    shared.ErrForbidden,
			wantFailed: 1,
			wantOrder:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.create(t, tt.owner, "bulk")

			progress := make(chan ProgressUpdate, 100)
			result, err := f.eng.BulkAppend(ctx, progress, p.ID, tt.requester, tt.songs)
			close(progress)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.SuccessCount != tt.wantSuccess || result.FailedCount != tt.wantFailed {
				t.Errorf("expected %d/%d success/failed, got %d/%d", tt.wantSuccess, tt.wantFailed, result.SuccessCount, result.FailedCount)
			}

			refs, err := f.svc.GetOrderedSongs(ctx, p.ID, tt.owner)
			if err != nil {
				t.Fatalf("failed to read songs: %v", err)
			}
			got := []string{}
			for _, r := range refs {
				got = append(got, r.SongID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.wantOrder) {
				t.Errorf("expected order %v, got %v", tt.wantOrder, got)
			}

			for _, s := range result.Songs {
				if (s.Error == nil) == (s.NodeID == "") {
					t.Errorf("song %s: node id %q inconsistent with error %v", s.SongID, s.NodeID, s.Error)
				}
			}

			updates := 0
			for range progress {
				updates++
			}
			if updates != len(result.Songs)+1 {
				t.Errorf("expected %d progress updates, got %d", len(result.Songs)+1, updates)
			}
		})
	}

	t.Run("missing playlist", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.eng.BulkAppend(ctx, nil, "nope", "u1", []string{"s1"})
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		p := f.create(t, "u1", "bulk")

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := f.eng.BulkAppend(cctx, nil, p.ID, "u1", []string{"s1", "s2"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result.SuccessCount != 0 {
			t.Errorf("expected nothing appended, got %d", result.SuccessCount)
		}
	})

	t.Run("service not initialized", func(t *testing.T) {
		_, err := NewEngine(nil, nil, nil).BulkAppend(ctx, nil, "p", "u1", nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestEngine_Check(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	good := f.create(t, "u1", "good")
	if _, err := f.eng.BulkAppend(ctx, nil, good.ID, "u1", []string{"s1", "s2"}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	bad := models.NewPlaylist("u1", models.PlaylistAttrs{Name: ptr("bad")})
	bad.Nodes = models.NodeTable{
		"n1": {ID: "n1", SongID: "s1", NextID: "n2"},
		"n2": {ID: "n2", SongID: "s2", PrevID: "n1", NextID: "n1"},
	}
	bad.HeadID, bad.TailID = "n1", "n2"
	if err := f.repo.Create(ctx, bad); err != nil {
		t.Fatalf("failed to seed corrupt playlist: %v", err)
	}

	progress := make(chan ProgressUpdate, 10)
	report, err := f.eng.Check(ctx, progress, models.ListCriteria{OwnerID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Valid != 1 || report.Invalid != 1 {
		t.Fatalf("expected 1 valid and 1 invalid, got %d/%d", report.Valid, report.Invalid)
	}
	for _, res := range report.Results {
		if res.PlaylistID == bad.ID && !errors.Is(res.Error, shared.ErrInvariantViolation) {
			t.Errorf("expected invariant violation for corrupt playlist, got %v", res.Error)
		}
	}
	if len(progress) != 3 {
		t.Errorf("expected 3 progress updates, got %d", len(progress))
	}

	if _, err := NewEngine(f.svc, nil, nil).Check(ctx, nil, models.ListCriteria{}); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable without a repository, got %v", err)
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	e := NewEngine(nil, nil, nil)

	t.Run("nil channel", func(t *testing.T) {
		e.sendProgress(nil, appendStartUpdate(1, "p"))
	})

	t.Run("full channel", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		e.sendProgress(ch, appendStartUpdate(1, "p"))
		e.sendProgress(ch, appendStartUpdate(2, "p"))

		if len(ch) != 1 {
			t.Errorf("expected 1 buffered update, got %d", len(ch))
		}
		if u := <-ch; u.Total != 1 {
			t.Errorf("expected first update to be kept, got %+v", u)
		}
	})
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{AppendSongs, "append_songs"},
		{FetchPlaylist, "fetch_playlist"},
		{ExportPlaylist, "export_playlist"},
		{WriteManifest, "write_manifest"},
		{CheckOrdering, "check_ordering"},
		{Phase(99), ""},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
