package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/plst/internal/formatter"
	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/services"
)

// seedPlaylists creates count playlists for u1, each holding s1 and s2.
func (f *fixture) seedPlaylists(t *testing.T, count int) []string {
	t.Helper()
	ids := make([]string, 0, count)
	for i := range count {
		p := f.create(t, "u1", "Playlist "+string(rune('A'+i)))
		if _, err := f.eng.BulkAppend(context.Background(), nil, p.ID, "u1", []string{"s1", "s2"}); err != nil {
			t.Fatalf("failed to seed playlist: %v", err)
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name          string
		format        formatter.Format
		playlistCount int
		wantContent   string
	}{
		{name: "single playlist text export", format: formatter.FormatText, playlistCount: 1, wantContent: "Miles Davis - So What"},
		{name: "multiple playlists csv export", format: formatter.FormatCSV, playlistCount: 3, wantContent: "Position,Node ID,Song ID"},
		{name: "markdown export", format: formatter.FormatMarkdown, playlistCount: 2, wantContent: "Blue in Green"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ids := f.seedPlaylists(t, tt.playlistCount)
			dir := t.TempDir()

			result, err := f.eng.BulkExport(context.Background(), nil, "u1", ids, BulkExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.SuccessfulExports != tt.playlistCount || result.FailedExports != 0 {
				t.Errorf("expected %d successes, got %d (%d failed)", tt.playlistCount, result.SuccessfulExports, result.FailedExports)
			}

			for _, res := range result.Results {
				want := filepath.Join(dir, res.PlaylistID+"."+tt.format.Extension())
				if res.File != want {
					t.Errorf("expected file %s, got %s", want, res.File)
				}
				data, err := os.ReadFile(res.File)
				if err != nil {
					t.Fatalf("failed to read export: %v", err)
				}
				if !strings.Contains(string(data), tt.wantContent) {
					t.Errorf("export %s missing %q", res.File, tt.wantContent)
				}
				if res.Songs != 2 {
					t.Errorf("expected 2 songs, got %d", res.Songs)
				}
			}
		})
	}
}

func TestBulkExport_PartialFailures(t *testing.T) {
	f := newFixture(t)
	ids := f.seedPlaylists(t, 2)
	private := f.create(t, "u2", "someone else's")
	ids = append(ids, "missing", private.ID)

	result, err := f.eng.BulkExport(context.Background(), nil, "u1", ids, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000})
	if err != nil {
		t.Fatalf("partial failures should not fail the run: %v", err)
	}

	if result.SuccessfulExports != 2 || result.FailedExports != 2 {
		t.Errorf("expected 2/2 success/failed, got %d/%d", result.SuccessfulExports, result.FailedExports)
	}
	for _, res := range result.Results {
		if !res.Success && res.ErrorMessage == "" {
			t.Errorf("failed result for %s should carry an error message", res.PlaylistID)
		}
	}
}

func TestBulkExport_Manifest(t *testing.T) {
	f := newFixture(t)
	ids := f.seedPlaylists(t, 2)
	dir := t.TempDir()

	result, err := f.eng.BulkExport(context.Background(), nil, "u1", ids, BulkExportOpts{Format: formatter.FormatCSV, OutputDir: dir, RateLimit: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
		t.Fatalf("unexpected manifest path %s", result.ManifestPath)
	}

	data, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}

	var manifest struct {
		Total   int    `json:"total_playlists"`
		Success int    `json:"successful_exports"`
		Format  string `json:"format"`
		Results []struct {
			PlaylistID string `json:"playlist_id"`
			File       string `json:"file"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest.Total != 2 || manifest.Success != 2 || manifest.Format != "csv" || len(manifest.Results) != 2 {
		t.Errorf("unexpected manifest %+v", manifest)
	}
}

func TestBulkExport_ContextCancellation(t *testing.T) {
	f := newFixture(t)
	ids := f.seedPlaylists(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.eng.BulkExport(ctx, nil, "u1", ids, BulkExportOpts{OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if result == nil || result.ManifestPath != "" {
		t.Error("cancelled export should return a partial result without a manifest")
	}
}

func TestBulkExport_DefaultOptions(t *testing.T) {
	f := newFixture(t)
	ids := f.seedPlaylists(t, 1)

	tmp := t.TempDir()
	t.Chdir(tmp)

	result, err := f.eng.BulkExport(context.Background(), nil, "u1", ids, BulkExportOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(result.OutputDirectory, "plst_export_") {
		t.Errorf("unexpected default output directory %s", result.OutputDirectory)
	}
	if result.Format != formatter.FormatText {
		t.Errorf("expected text format by default, got %s", result.Format)
	}
	if _, err := os.Stat(filepath.Join(tmp, result.OutputDirectory)); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestBulkExport_RateLimiting(t *testing.T) {
	f := newFixture(t)
	ids := f.seedPlaylists(t, 3)

	start := time.Now()
	if _, err := f.eng.BulkExport(context.Background(), nil, "u1", ids, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// burst of 1 at 10/s: the second and third reads wait ~100ms each
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("expected rate limiting to slow the export, took %v", elapsed)
	}
}

func TestBulkExport_ProgressUpdates(t *testing.T) {
	f := newFixture(t)
	ids := f.seedPlaylists(t, 2)

	progress := make(chan ProgressUpdate, 50)
	if _, err := f.eng.BulkExport(context.Background(), progress, "u1", ids, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(progress)

	phases := map[Phase]int{}
	for u := range progress {
		phases[u.Phase]++
	}
	if phases[FetchPlaylist] != 2 || phases[ExportPlaylist] != 2 || phases[WriteManifest] != 1 {
		t.Errorf("unexpected progress phases %v", phases)
	}
}

func TestBulkExport_InvalidOutputDirectory(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	_, err := f.eng.BulkExport(context.Background(), nil, "u1", []string{"p"}, BulkExportOpts{OutputDir: filepath.Join(file, "sub")})
	if err == nil {
		t.Error("expected error for output directory under a file")
	}
}

func TestExportSinglePlaylist(t *testing.T) {
	dir := t.TempDir()
	p := models.NewPlaylist("u1", models.PlaylistAttrs{Name: ptr("solo")})
	job := PlaylistExportJob{PlaylistID: p.ID, View: &services.PlaylistView{
		Playlist: p,
		Songs:    []models.SongRef{{NodeID: "n1", SongID: "s1", Title: "Naima"}},
	}}

	res := exportSinglePlaylist(job, BulkExportOpts{Format: formatter.FormatMarkdown, OutputDir: dir})
	if !res.Success || res.Error != nil {
		t.Fatalf("expected success, got %v", res.Error)
	}

	res = exportSinglePlaylist(job, BulkExportOpts{Format: formatter.FormatText, OutputDir: filepath.Join(dir, "missing")})
	if res.Success || res.Error == nil {
		t.Error("expected failure writing into a missing directory")
	}
}
