// Package repositories implements persistence for playlists and the local song catalog.
//
// Key Implementations:
//   - [PlaylistRepository] : SQLite document table holding each playlist aggregate in one row, nodes as JSON
//   - [SongRepository] : SQLite songs table backing the local catalog
//   - [MemoryPlaylistRepository] / [MemorySongRepository] : process-local stores with the same semantics
//
// Playlist writes go through [PlaylistRepository.Commit], a compare-and-set on the version column:
// the row is updated only while its version still matches the one the caller loaded.
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// [NextSequence] increments per-table counters kept in dedicated sequence tables.
package repositories
