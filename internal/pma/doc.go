// Package pma implements the vertex-finding and track-stitching core of a
// projection-matching track reconstruction: an arena-based graph of nodes,
// segments and tracks, vertex candidates that fit a common 3D crossing point
// over a growing set of tracks, and the graph surgery that splices a
// finalized vertex into the track forest as a shared node while keeping the
// topology loop-free.
package pma
