// Package ordering maintains the linked order of song nodes inside a playlist.
//
// The [Engine] transforms a playlist's node table, head and tail without touching storage.
// Every operation works on a clone and either returns a new consistent aggregate or fails
// with no effect on its input. [Validate] checks the structural rules the engine promises:
//
//   - every non-empty prev/next id refers to a node in the same table
//   - exactly one node has no prev and it is the head; exactly one has no next and it is the tail
//   - walking next from the head visits every node once and ends at the tail, and walking prev from the tail mirrors it
//   - an empty table has neither head nor tail
//
// The store runs [Validate] after each engine call and refuses to persist a playlist that fails it.
package ordering
