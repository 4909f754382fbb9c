// Package post defines the document model of the composer.
//
// A [Schema] holds the grid blocks ([BlockMap]), their row arrangement
// ([PositionList]) and the floating nodes ([NodeMap]). A [Block] is either a
// [*TextBlock] or an [*ImageBlock]; an image block without a value is a
// placeholder awaiting an image.
//
// # Invariants
//
// Every id is unique. Every id in the positions exists in the block map and
// every grid block appears in the positions exactly once. An id is never in
// the grid and in the floating nodes at the same time. [Schema.Validate]
// checks all of them.
//
// # Frames
//
// Block frames are derived values. The layout and snap engines compute
// them; [Arrange] recomputes the origins from the row structure.
//
// # Encoding
//
// Blocks encode as a tagged union with a "type" field ("text" or "image").
// Rows encode as arrays of ids and also decode from a single id string.
package post
