package board

import "math/bits"

// Zobrist hash keys for position hashing. The tables are filled once at
// startup from a PRNG with a fixed seed so every process computes identical
// keys.
var (
	zobristPiece     [12][64]uint64 // [Piece][Square]; the square index doubles as a piece-count index for material keys
	zobristEnPassant [8]uint64      // One per file
	zobristCastling  [16]uint64     // All 16 castling-rights subsets, XOR-composable
	zobristSide      uint64         // XOR when black to move
	zobristNoPawns   uint64         // Base value of the pawn key
)

const zobristSeed = 1070372

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(zobristSeed)

	for pc := WhitePawn; pc <= BlackKing; pc++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}

	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	// One draw per right, then every subset as the XOR of its bits. This
	// keeps castling[a] ^ castling[b] == castling[a^b], so a rights change
	// updates the key with a single table lookup.
	var rightKey [4]uint64
	for i := range rightKey {
		rightKey[i] = rng.next()
	}
	for cr := 0; cr < 16; cr++ {
		for b := cr; b != 0; b &= b - 1 {
			zobristCastling[cr] ^= rightKey[bits.TrailingZeros(uint(b))]
		}
	}

	zobristSide = rng.next()
	zobristNoPawns = rng.next()
}

// ZobristPiece returns the Zobrist key for a piece on a square.
func ZobristPiece(pc Piece, sq Square) uint64 {
	return zobristPiece[pc][sq]
}

// ZobristEnPassant returns the Zobrist key for an en passant file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling returns the Zobrist key for a castling-rights subset.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastling[cr]
}

// ZobristSideToMove returns the Zobrist key for side to move.
func ZobristSideToMove() uint64 {
	return zobristSide
}
