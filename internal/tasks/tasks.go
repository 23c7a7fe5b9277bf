// package tasks implements long-running playlist operations that report progress as they go.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/ordering"
	"github.com/desertthunder/plst/internal/services"
	"github.com/desertthunder/plst/internal/shared"
)

// PlaylistService is the part of [services.PlaylistService] the tasks drive.
type PlaylistService interface {
	AppendSong(ctx context.Context, playlistID, requesterID, songID string) (*models.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID, requesterID string) (*services.PlaylistView, error)
}

// SongAppendResult is the outcome of appending one song.
type SongAppendResult struct {
	SongID string // Requested song
	NodeID string // Node created for it, empty on failure
	Error  error  // Error if the append failed
}

// BulkAppendResult contains all data from a bulk append.
type BulkAppendResult struct {
	Playlist     *models.Playlist   // Playlist after the last successful append
	Songs        []SongAppendResult // Per-song results in request order
	SuccessCount int
	FailedCount  int
}

// CheckResult is the validator outcome for one stored playlist.
type CheckResult struct {
	PlaylistID string
	Name       string
	Nodes      int
	Error      error // nil when the ordering is consistent
}

// CheckReport summarizes a consistency check over stored playlists.
type CheckReport struct {
	Results []CheckResult
	Valid   int
	Invalid int
}

// Engine runs bulk operations against the playlist service.
type Engine struct {
	svc    PlaylistService
	repo   models.PlaylistRepository
	logger *log.Logger
}

// NewEngine creates an [Engine]. repo is only needed by [Engine.Check].
func NewEngine(svc PlaylistService, repo models.PlaylistRepository, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Engine{svc: svc, repo: repo, logger: logger.WithPrefix("tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BulkAppend appends songIDs to the playlist in order, one committed mutation per song.
//
// Songs that cannot be appended (unknown to the catalog, for example) are recorded and skipped.
// Errors that would fail every remaining append, such as a missing playlist or a foreign owner,
// stop the run and are returned with the partial result.
func (e *Engine) BulkAppend(ctx context.Context, progress chan<- ProgressUpdate, playlistID, requesterID string, songIDs []string) (*BulkAppendResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}

	total := len(songIDs)
	result := &BulkAppendResult{Songs: make([]SongAppendResult, 0, total)}
	e.sendProgress(progress, appendStartUpdate(total, playlistID))

	for i, songID := range songIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		p, err := e.svc.AppendSong(ctx, playlistID, requesterID, songID)
		if err != nil {
			result.Songs = append(result.Songs, SongAppendResult{SongID: songID, Error: err})
			result.FailedCount++
			e.sendProgress(progress, appendFailedUpdate(i+1, total, songID, err))

			if fatalAppendError(err) {
				e.logger.Warn("bulk append aborted", "playlist", playlistID, "song", songID, "err", err)
				return result, err
			}
			continue
		}

		result.Playlist = p
		result.Songs = append(result.Songs, SongAppendResult{SongID: songID, NodeID: p.TailID})
		result.SuccessCount++
		e.sendProgress(progress, appendedUpdate(i+1, total, songID, p.TailID))
	}

	if total > 0 && result.SuccessCount == 0 {
		return result, fmt.Errorf("no songs were appended: %w", result.Songs[0].Error)
	}
	return result, nil
}

// fatalAppendError reports errors that do not depend on the song being appended.
func fatalAppendError(err error) bool {
	return errors.Is(err, shared.ErrPlaylistNotFound) ||
		errors.Is(err, shared.ErrForbidden) ||
		errors.Is(err, shared.ErrUnauthorized) ||
		errors.Is(err, shared.ErrInvariantViolation) ||
		errors.Is(err, shared.ErrConflict) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Check runs the ordering validator over every stored playlist matching criteria.
//
// It reads the repository directly so that playlists the store would refuse to serve are still reported.
func (e *Engine) Check(ctx context.Context, progress chan<- ProgressUpdate, criteria models.ListCriteria) (*CheckReport, error) {
	if e.repo == nil {
		return nil, fmt.Errorf("%w: playlist repository not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, checkStartUpdate())
	playlists, err := e.repo.List(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	report := &CheckReport{Results: make([]CheckResult, 0, len(playlists))}
	for i, p := range playlists {
		res := CheckResult{PlaylistID: p.ID, Name: p.Name, Nodes: p.Len(), Error: ordering.Validate(p)}
		if res.Error != nil {
			report.Invalid++
			e.logger.Error("inconsistent ordering", "playlist", p.ID, "version", p.Version, "err", res.Error)
		} else {
			report.Valid++
		}
		report.Results = append(report.Results, res)
		e.sendProgress(progress, checkedUpdate(i+1, len(playlists), res))
	}
	return report, nil
}
