package board

import "testing"

// TestZobristDeterminism: the tables come from a fixed seed. Replaying the
// generator from that seed must give back the first piece key and the side
// key, which catches accidental reseeding or reordering; every piece-square
// key must also be nonzero and distinct.
func TestZobristDeterminism(t *testing.T) {
	rng := newPRNG(zobristSeed)
	if ZobristPiece(WhitePawn, A1) != rng.next() {
		t.Error("first piece key does not come from the fixed seed")
	}
	for i := 0; i < 12*64-1+8+4; i++ { // rest of the piece keys, ep, castling
		rng.next()
	}
	if ZobristSideToMove() != rng.next() {
		t.Error("side key does not come from the fixed seed")
	}

	seen := make(map[uint64]bool)
	for pc := WhitePawn; pc <= BlackKing; pc++ {
		for sq := A1; sq <= H8; sq++ {
			k := ZobristPiece(pc, sq)
			if k == 0 {
				t.Fatalf("zero key for %v on %v", pc, sq)
			}
			if seen[k] {
				t.Fatalf("duplicate key for %v on %v", pc, sq)
			}
			seen[k] = true
		}
	}
	if ZobristSideToMove() == 0 {
		t.Error("zero side key")
	}
}

// TestZobristCastlingComposable: the castling table must satisfy
// castling[a] ^ castling[b] == castling[a^b] so DoMove can fold a rights
// change into a single lookup.
func TestZobristCastlingComposable(t *testing.T) {
	for a := CastlingRights(0); a < 16; a++ {
		for b := CastlingRights(0); b < 16; b++ {
			if ZobristCastling(a)^ZobristCastling(b) != ZobristCastling(a^b) {
				t.Fatalf("castling keys not composable for %04b and %04b", a, b)
			}
		}
	}
	if ZobristCastling(0) != 0 {
		t.Error("castling[0] must be zero for composability")
	}
}

// TestIncrementalVsScratch: after a deep scripted walk the incrementally
// maintained keys must equal a from-scratch recomputation.
func TestIncrementalVsScratch(t *testing.T) {
	p := mustSet(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", false)

	var stack [64]StateInfo
	ply := 0

	// Walk a deterministic pseudo-random line to a fixed depth.
	var walk func(depth int)
	walk = func(depth int) {
		if depth == 0 {
			return
		}
		moves := p.GenerateLegalMoves()
		if moves.Len() == 0 {
			return
		}
		m := moves.Get((ply*31 + 7) % moves.Len())
		p.DoMove(m, &stack[ply], p.GivesCheck(m))
		ply++

		var scratch StateInfo
		scratch.EnPassant = p.st.EnPassant
		scratch.CastlingRights = p.st.CastlingRights
		p.SetState(&scratch)
		if scratch.Key != p.Key() || scratch.PawnKey != p.PawnKey() || scratch.MaterialKey != p.MaterialKey() {
			t.Fatalf("incremental keys diverged at ply %d (%s)", ply, p.Fen())
		}

		walk(depth - 1)

		ply--
		p.UndoMove(m)
	}

	walk(40)
}
