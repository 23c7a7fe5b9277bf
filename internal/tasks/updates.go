package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	AppendSongs Phase = iota
	FetchPlaylist
	ExportPlaylist
	WriteManifest
	CheckOrdering
)

func (p Phase) String() string {
	switch p {
	case AppendSongs:
		return "append_songs"
	case FetchPlaylist:
		return "fetch_playlist"
	case ExportPlaylist:
		return "export_playlist"
	case WriteManifest:
		return "write_manifest"
	case CheckOrdering:
		return "check_ordering"
	default:
		return ""
	}
}

func appendStartUpdate(total int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendSongs,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Appending %d songs to %s...", total, playlistID),
	}
}

func appendedUpdate(step, total int, songID, nodeID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (node %s)", step, total, songID, nodeID),
		Data:    nodeID,
	}
}

func appendFailedUpdate(step, total int, songID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, songID, err),
	}
}

func fetchingPlaylistUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, name string, songs int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, name, songs),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s...", path),
	}
}

func checkStartUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckOrdering,
		Message: "Loading playlists...",
	}
}

func checkedUpdate(step, total int, res CheckResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d nodes)", step, total, res.Name, res.Nodes)
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Name, res.Error)
	}
	return ProgressUpdate{
		Phase:   CheckOrdering,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}
