package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plst/internal/formatter"
	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/services"
	"github.com/desertthunder/plst/internal/shared"
	"github.com/desertthunder/plst/internal/tasks"
)

// session resolves the acting user and opens dependencies.
func (r *Runner) session(ctx context.Context, cmd *cli.Command) (string, error) {
	userID, err := r.user(cmd)
	if err != nil {
		return "", err
	}
	if err := r.open(ctx); err != nil {
		return "", err
	}
	return userID, nil
}

func playlistID(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("id")
	if id == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return id, nil
}

// attrsFromFlags collects only the attribute flags that were set.
func attrsFromFlags(cmd *cli.Command) models.PlaylistAttrs {
	var attrs models.PlaylistAttrs
	if cmd.IsSet("name") {
		attrs.Name = new(string)
		*attrs.Name = cmd.String("name")
	}
	if cmd.IsSet("description") {
		attrs.Description = new(string)
		*attrs.Description = cmd.String("description")
	}
	if cmd.IsSet("visibility") {
		attrs.Visibility = new(models.Visibility)
		*attrs.Visibility = models.Visibility(strings.ToLower(cmd.String("visibility")))
	}
	if cmd.IsSet("favorite") {
		attrs.Favorite = new(bool)
		*attrs.Favorite = cmd.Bool("favorite")
	}
	if cmd.IsSet("tag") {
		attrs.Tags = cmd.StringSlice("tag")
	}
	return attrs
}

// PlaylistCreate creates an empty playlist owned by the acting user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	attrs := attrsFromFlags(cmd)
	name := cmd.StringArg("name")
	attrs.Name = &name

	p, err := r.service.CreatePlaylist(ctx, userID, attrs)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Created playlist %s (%s)\n", p.Name, p.ID)
	return nil
}

// PlaylistList lists the acting user's playlists, or public ones with --public.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	var userID string
	if !cmd.Bool("public") {
		var err error
		if userID, err = r.user(cmd); err != nil {
			return err
		}
	} else {
		userID = cmd.String("user")
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	playlists, err := r.service.ListPlaylists(ctx, userID, services.ListQuery{Public: cmd.Bool("public"), Tag: cmd.String("tag")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists found\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, p := range playlists {
		fav := " "
		if p.Favorite {
			fav = "★"
		}
		r.writePlain("%s %-36s %-24s %3d songs  %-7s %s\n", fav, p.ID, p.Name, p.Len(), p.Visibility, strings.Join(p.Tags, ","))
	}
	return nil
}

// PlaylistShow prints a playlist and its songs in canonical order.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	view, err := r.service.GetPlaylist(ctx, id, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, cmd.Bool("pretty"))
	}

	p := view.Playlist
	r.writePlainHeader(p.Name)
	if p.Description != "" {
		r.writePlain("%s\n", p.Description)
	}
	r.writePlain("Owner: %s • %s • version %d\n", p.OwnerID, p.Visibility, p.Version)
	if len(p.Tags) > 0 {
		r.writePlain("Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	r.writePlainln("Songs (%d):", len(view.Songs))
	for i, s := range view.Songs {
		title := s.SongID
		if s.Title != "" {
			title = fmt.Sprintf("%s - %s", s.Artist, s.Title)
		}
		r.writePlain("%3d. %-40s [%s]\n", i+1, title, s.NodeID)
	}
	return nil
}

// PlaylistUpdate changes only the attributes given as flags.
func (r *Runner) PlaylistUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	p, err := r.service.UpdatePlaylist(ctx, id, userID, attrsFromFlags(cmd))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Updated %s (version %d)\n", p.Name, p.Version)
	return nil
}

// PlaylistDelete deletes a playlist the acting user owns.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	if err := r.service.DeletePlaylist(ctx, id, userID); err != nil {
		return err
	}
	r.writePlain("✓ Deleted %s\n", id)
	return nil
}

// PlaylistAdd appends one or more songs, reporting progress per song.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	songs := cmd.StringSlice("song")
	progressCh := make(chan tasks.ProgressUpdate, len(songs)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkAppend(ctx, progressCh, id, userID, songs)
	close(progressCh)
	<-done

	if result != nil && result.Playlist != nil {
		r.writePlain("\n%d appended, %d failed (version %d)\n", result.SuccessCount, result.FailedCount, result.Playlist.Version)
	}
	return err
}

// PlaylistRemove removes one node.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	p, err := r.service.RemoveNode(ctx, id, userID, cmd.String("node"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Removed %s (%d songs left, version %d)\n", cmd.String("node"), p.Len(), p.Version)
	return nil
}

// PlaylistMove moves one node to a new position.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	to := int(cmd.Int("to"))
	p, err := r.service.MoveNode(ctx, id, userID, cmd.String("node"), to)
	if err != nil {
		return err
	}
	r.writePlain("✓ Moved %s to position %d (version %d)\n", cmd.String("node"), to, p.Version)
	return nil
}

// PlaylistExport writes one playlist, or with --all every owned playlist, in the chosen format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		return r.exportAll(ctx, cmd, format)
	}

	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	view, err := r.service.GetPlaylist(ctx, id, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.String("output") == "-" {
		return formatter.Write(r.output, format, view.Playlist, view.Songs)
	}

	path, err := formatter.WriteExport(format, view.Playlist, view.Songs, cmd.String("output"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Exported %d songs to %s\n", len(view.Songs), path)
	return nil
}

func (r *Runner) exportAll(ctx context.Context, cmd *cli.Command, format formatter.Format) error {
	userID, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	playlists, err := r.service.ListPlaylists(ctx, userID, services.ListQuery{})
	if err != nil {
		return err
	}
	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}

	progressCh := make(chan tasks.ProgressUpdate, 2*len(ids)+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase != tasks.FetchPlaylist {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, userID, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Catalog.RateLimit,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}
	r.writePlainln("%d exported, %d failed → %s", result.SuccessfulExports, result.FailedExports, result.OutputDirectory)
	return nil
}

// PlaylistCheck runs the ordering validator over stored playlists and fails if any is inconsistent.
func (r *Runner) PlaylistCheck(ctx context.Context, cmd *cli.Command) error {
	var criteria models.ListCriteria
	if !cmd.Bool("all") {
		userID, err := r.user(cmd)
		if err != nil {
			return err
		}
		criteria.OwnerID = userID
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	report, err := r.engine.Check(ctx, nil, criteria)
	if err != nil {
		return err
	}

	for _, res := range report.Results {
		if res.Error != nil {
			r.writePlain("✗ %s (%s): %v\n", res.Name, res.PlaylistID, res.Error)
		}
	}
	r.writePlain("%d valid, %d invalid\n", report.Valid, report.Invalid)

	if report.Invalid > 0 {
		return fmt.Errorf("%w: %d playlists have inconsistent ordering", shared.ErrInvariantViolation, report.Invalid)
	}
	return nil
}
