package pma

import "errors"

var (
	// ErrBrokenTrack reports a track whose parent chain cycles or dangles,
	// i.e. a structurally corrupt graph.
	ErrBrokenTrack = errors.New("pma: broken track, no discoverable root")

	// ErrVertexAlreadyJoined reports a repeated commit of the same vertex
	// candidate. The first commit is the only one; the candidate is
	// terminal afterwards.
	ErrVertexAlreadyJoined = errors.New("pma: tracks already attached to the vertex")

	// ErrNoVertexSegments reports a finalized vertex node that ended up
	// with no attached segment at all.
	ErrNoVertexSegments = errors.New("pma: vertex with no segments attached")

	// ErrCandidateClosed reports a mutation of a candidate that already
	// moved past its building phase.
	ErrCandidateClosed = errors.New("pma: vertex candidate no longer accepts changes")
)
