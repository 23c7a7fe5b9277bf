// Package models defines the domain entities of the playlist service and the persistence interfaces around them.
//
//   - [Playlist] : the aggregate root, owning a [NodeTable] of [SongNode] entries plus head and tail ids
//   - [SongNode] : one occurrence of a song in the ordering, linked to its neighbors by node id
//   - [Song] / [SongRef] : catalog entries and their projection into a playlist's canonical order
//   - [PlaylistAttrs] : partial updates of user-editable fields
//   - [Operation] : append, remove and move requests applied through the store
//
// Order lives only in the node links. Any linear view is derived from them on demand.
// The [PlaylistRepository] and [SongRepository] interfaces are implemented by the repositories package.
package models
