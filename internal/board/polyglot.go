package board

// Book-style Zobrist keys, kept apart from the engine's internal keys. The
// table comes from its own fixed-seed generator, not from the published
// Polyglot Random64 values, and uses its own piece order, so the keys do
// not match standard Polyglot opening books.
var (
	polyglotPieces     [12][64]uint64 // [piece_kind][square]
	polyglotCastling   [4]uint64      // [KQkq]
	polyglotEnPassant  [8]uint64      // [file]
	polyglotSideToMove uint64
)

// PolyglotHash computes the position's key over the book-style table
// above, with Polyglot's castling, en passant and side-to-move layout.
func (p *Position) PolyglotHash() uint64 {
	var hash uint64

	// Piece ordering of this table: bp, bN, bB, bR, bQ, bK, wp, wN, wB, wR, wQ, wK
	pieceKind := [2][6]int{
		{6, 7, 8, 9, 10, 11}, // White
		{0, 1, 2, 3, 4, 5},   // Black
	}

	for b := p.occupied; b != 0; {
		sq := b.PopLSB()
		pc := p.board[sq]
		hash ^= polyglotPieces[pieceKind[pc.Color()][pc.Type()]][sq]
	}

	if p.CanCastle(WhiteKingSideCastle) {
		hash ^= polyglotCastling[0]
	}
	if p.CanCastle(WhiteQueenSideCastle) {
		hash ^= polyglotCastling[1]
	}
	if p.CanCastle(BlackKingSideCastle) {
		hash ^= polyglotCastling[2]
	}
	if p.CanCastle(BlackQueenSideCastle) {
		hash ^= polyglotCastling[3]
	}

	// The en passant file counts only when a capture is actually possible,
	// which Set already guarantees for any retained target square.
	if ep := p.st.EnPassant; ep != NoSquare {
		hash ^= polyglotEnPassant[ep.File()]
	}

	if p.sideToMove == White {
		hash ^= polyglotSideToMove
	}

	return hash
}

// initPolyglotKeys fills the table from a fixed-seed xorshift64* generator.
func initPolyglotKeys() {
	var s uint64 = 0x37b4a4b3f0d1c0d0

	rng := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}

	for piece := 0; piece < 12; piece++ {
		for sq := 0; sq < 64; sq++ {
			polyglotPieces[piece][sq] = rng()
		}
	}

	for i := 0; i < 4; i++ {
		polyglotCastling[i] = rng()
	}

	for i := 0; i < 8; i++ {
		polyglotEnPassant[i] = rng()
	}

	polyglotSideToMove = rng()
}
