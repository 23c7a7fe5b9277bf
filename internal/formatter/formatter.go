// package formatter renders a playlist's canonical order as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts csv, markdown (or md) and text (or txt).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// Render produces the export of p with songs in the given order.
func Render(f Format, p *models.Playlist, songs []models.SongRef) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(songs)
	case FormatMarkdown:
		return ExportToMarkdown(p, songs)
	case FormatText:
		return ExportToText(p, songs)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// Write renders the export into w.
func Write(w io.Writer, f Format, p *models.Playlist, songs []models.SongRef) error {
	data, err := Render(f, p, songs)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportToCSV writes one row per node with columns: Position, Node ID, Song ID, Title, Artist, Album, Duration
func ExportToCSV(songs []models.SongRef) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Node ID", "Song ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range songs {
		record := []string{
			strconv.Itoa(i + 1),
			song.NodeID,
			song.SongID,
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, the playlist attributes and a numbered song list.
func ExportToMarkdown(p *models.Playlist, songs []models.SongRef) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n", len(songs))
	fmt.Fprintf(&buf, "**Visibility**: %s\n", p.Visibility)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&buf, "**Tags**: %s\n", strings.Join(p.Tags, ", "))
	}
	buf.WriteString("\n## Songs\n\n")

	for i, song := range songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, label(song), albumPart, shared.FormatDuration(song.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText renders the playlist as a plain numbered list.
func ExportToText(p *models.Playlist, songs []models.SongRef) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(songs))

	for i, song := range songs {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, label(song))
	}

	return buf.Bytes(), nil
}

// WriteExport renders p into a file and returns its path.
//
// Defaults to {playlist.ID}.{ext} as the filename.
func WriteExport(f Format, p *models.Playlist, songs []models.SongRef, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", p.ID, f.Extension())
	}

	data, err := Render(f, p, songs)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// label is "Artist - Title", falling back to the song id when the catalog had no metadata.
func label(song models.SongRef) string {
	switch {
	case song.Title == "":
		return song.SongID
	case song.Artist == "":
		return song.Title
	default:
		return song.Artist + " - " + song.Title
	}
}
