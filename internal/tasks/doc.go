// Package tasks runs multi-step playlist operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.BulkAppend] : Append many songs to one playlist
//     - One committed mutation per song, so progress survives a failure midway
//     - Songs the catalog rejects are recorded and skipped
//     - Ownership and missing-playlist errors stop the run
//
//  2. [Engine.BulkExport] : Export several playlists to files
//     - Rate-limited reads through the service, worker pool for rendering
//     - Writes export_manifest.json summarizing successes and failures
//
//  3. [Engine.Check] : Run the ordering validator over stored playlists
//     - Reads the repository directly, reporting playlists the store would refuse to serve
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking; a nil channel disables reporting.
package tasks
