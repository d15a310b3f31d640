package board

import "sync/atomic"

// StateInfo holds the per-ply state of a position. The search supplies one
// StateInfo per ply (on its own stack or ring); DoMove only ever writes into
// caller-provided storage and never allocates. The Previous links form the
// history chain used for repetition detection and unmake.
type StateInfo struct {
	// Copied forward from the previous state by DoMove.
	PawnKey         uint64
	MaterialKey     uint64
	NonPawnMaterial [2]int
	CastlingRights  CastlingRights
	Rule50          int
	PliesFromNull   int
	EnPassant       Square

	// Recomputed after every move.
	Key             uint64
	Checkers        Bitboard
	BlockersForKing [2]Bitboard
	Pinners         [2]Bitboard
	CheckSquares    [6]Bitboard
	Captured        Piece
	Repetition      int

	// Previous points at the parent ply's state; nil at the root.
	Previous *StateInfo
}

// copyPersistent copies the fields that carry over from one ply to the
// next. Everything else is recomputed by DoMove, so copying it would be
// wasted work.
func (si *StateInfo) copyPersistent(from *StateInfo) {
	si.PawnKey = from.PawnKey
	si.MaterialKey = from.MaterialKey
	si.NonPawnMaterial = from.NonPawnMaterial
	si.CastlingRights = from.CastlingRights
	si.Rule50 = from.Rule50
	si.PliesFromNull = from.PliesFromNull
	si.EnPassant = from.EnPassant
}

// Thread holds the per-worker counters a Position reports into. The
// relationship is weak: the worker owns the Position, the Position only
// borrows the Thread to bump the node counter from DoMove. A nil Thread is
// fine for positions used outside a search.
type Thread struct {
	Nodes atomic.Uint64
}
