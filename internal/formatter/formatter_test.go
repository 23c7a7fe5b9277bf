package formatter

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
	th "github.com/desertthunder/plst/internal/testing"
)

func fixture() (*models.Playlist, []models.SongRef) {
	name := "Test Playlist"
	p := models.NewPlaylist("u1", models.PlaylistAttrs{Name: &name, Tags: []string{"jazz", "modal"}})
	p.Description = "A test playlist"

	songs := []models.SongRef{
		{NodeID: "n1", SongID: "s1", Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", Duration: 562},
		{NodeID: "n2", SongID: "s2", Title: "Naima", Artist: "John Coltrane", Duration: 261},
		{NodeID: "n3", SongID: "gone"},
	}
	return p, songs
}

func TestExporters(t *testing.T) {
	p, songs := fixture()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(songs)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
		}
		if lines[0] != "Position,Node ID,Song ID,Title,Artist,Album,Duration" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,n1,s1,So What,Miles Davis,Kind of Blue,562" {
			t.Errorf("unexpected first row %s", lines[1])
		}
		if !strings.HasPrefix(lines[3], "3,n3,gone,") {
			t.Errorf("unexpected bare row %s", lines[3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(p, songs)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Test Playlist",
			"**Description**: A test playlist",
			"**Songs**: 3",
			"**Visibility**: private",
			"**Tags**: jazz, modal",
			"1. Miles Davis - So What (Kind of Blue) [9:22]",
			"2. John Coltrane - Naima [4:21]",
			"3. gone [0:00]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(p, songs)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Test Playlist\nDescription: A test playlist\nSongs: 3\n\n") {
			t.Errorf("unexpected header, got:\n%s", output)
		}
		if !strings.Contains(output, "2. John Coltrane - Naima\n") {
			t.Errorf("missing second song, got:\n%s", output)
		}
	})

	t.Run("Empty playlist", func(t *testing.T) {
		data, err := ExportToText(p, nil)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Songs: 0") {
			t.Errorf("expected zero songs, got %s", data)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "MD", want: FormatMarkdown},
		{in: "markdown", want: FormatMarkdown},
		{in: "", want: FormatText},
		{in: "txt", want: FormatText},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	p, songs := fixture()

	t.Run("Success", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatCSV, p, songs); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "Position,") {
			t.Errorf("unexpected output %s", buf.String())
		}
	})

	t.Run("WriterError", func(t *testing.T) {
		if err := Write(&th.FWriter{}, FormatText, p, songs); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if err := Write(&bytes.Buffer{}, Format("xml"), p, songs); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	p, songs := fixture()

	t.Run("ExplicitPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.md")
		got, err := WriteExport(FormatMarkdown, p, songs, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "## Songs") {
			t.Error("markdown file missing songs section")
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "out.txt")
		if _, err := WriteExport(FormatText, p, songs, path); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
