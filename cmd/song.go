package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// localSongs returns the local catalog repository, refusing when the catalog is remote.
func (r *Runner) localSongs(ctx context.Context) (models.SongRepository, error) {
	if r.config.Catalog.Mode == "remote" {
		return nil, fmt.Errorf("%w: catalog.mode is remote; songs are managed by %s", shared.ErrInvalidOperation, r.config.Catalog.BaseURL)
	}
	if err := r.open(ctx); err != nil {
		return nil, err
	}
	return r.songs, nil
}

// SongAdd adds a song to the local catalog.
func (r *Runner) SongAdd(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.localSongs(ctx)
	if err != nil {
		return err
	}

	song := &models.Song{
		ID:       cmd.String("id"),
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Album:    cmd.String("album"),
		Genre:    cmd.String("genre"),
		URL:      cmd.String("url"),
		Duration: int(cmd.Int("duration")),
	}
	if err := songs.Create(ctx, song); err != nil {
		return err
	}

	r.writePlain("✓ Added %s - %s (%s)\n", song.Artist, song.Title, song.ID)
	return nil
}

// SongList prints the local catalog.
func (r *Runner) SongList(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.localSongs(ctx)
	if err != nil {
		return err
	}

	list, err := songs.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	if len(list) == 0 {
		r.writePlain("No songs in the local catalog\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Songs (%d)", len(list)))
	for _, s := range list {
		r.writePlain("%-36s %-30s %-24s %s\n", s.ID, s.Title, s.Artist, shared.FormatDuration(s.Duration))
	}
	return nil
}
