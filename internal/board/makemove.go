package board

// DoMove makes a move and fills newSt with everything needed to take it
// back. The move is assumed to be legal; pseudo-legal input must be
// filtered before this is called. givesCheck is the caller's (usually
// cached) answer from GivesCheck and lets the checkers bitboard be set
// without a king-attack scan for quiet moves.
func (p *Position) DoMove(m Move, newSt *StateInfo, givesCheck bool) {
	if p.thread != nil {
		p.thread.Nodes.Add(1)
	}

	k := p.st.Key ^ zobristSide

	// Carry the persistent fields forward and switch the state pointer;
	// the rest of newSt is written below.
	newSt.copyPersistent(p.st)
	newSt.Previous = p.st
	p.st = newSt
	st := newSt

	// rule50 is reset further down on captures and pawn moves.
	p.gamePly++
	st.Rule50++
	st.PliesFromNull++

	us := p.sideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	pc := p.board[from]

	captured := p.board[to]
	if m.IsEnPassant() {
		captured = NewPiece(Pawn, them)
	}

	if m.IsCastling() {
		// The "captured" rook is our own; account for its key flips here
		// and let the capture branch below see nothing.
		var rfrom, rto Square
		to, rfrom, rto = p.doCastling(true, us, from, to)
		rook := NewPiece(Rook, us)
		k ^= zobristPiece[rook][rfrom] ^ zobristPiece[rook][rto]
		captured = NoPiece
	}

	if captured != NoPiece {
		capsq := to

		if captured.Type() == Pawn {
			if m.IsEnPassant() {
				capsq = Square(int(to) - PawnPushDelta(us))
				p.board[capsq] = NoPiece // removePiece leaves the board entry alone
			}
			st.PawnKey ^= zobristPiece[captured][capsq]
		} else {
			st.NonPawnMaterial[them] -= PieceValue[captured.Type()]
		}

		p.removePiece(captured, capsq)

		k ^= zobristPiece[captured][capsq]
		st.MaterialKey ^= zobristPiece[captured][p.pieceCount[captured]]
		st.Rule50 = 0
	}

	k ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]

	if st.EnPassant != NoSquare {
		k ^= zobristEnPassant[st.EnPassant.File()]
		st.EnPassant = NoSquare
	}

	// Clear castling rights implied by the touched squares. The castling
	// table is XOR-composable, so the difference folds into one lookup.
	if st.CastlingRights != 0 && p.castlingRightsMask[from]|p.castlingRightsMask[to] != 0 {
		cr := p.castlingRightsMask[from] | p.castlingRightsMask[to]
		k ^= zobristCastling[st.CastlingRights&cr]
		st.CastlingRights &^= cr
	}

	// The board was already rearranged for castling.
	if !m.IsCastling() {
		p.movePiece(pc, from, to)
	}

	if pc.Type() == Pawn {
		if int(to)^int(from) == 16 &&
			pawnAttacks[us][Square(int(to)-PawnPushDelta(us))]&p.pieces(them, Pawn) != 0 {
			// Double push an enemy pawn could actually capture.
			st.EnPassant = Square(int(to) - PawnPushDelta(us))
			k ^= zobristEnPassant[st.EnPassant.File()]
		} else if m.IsPromotion() {
			promotion := NewPiece(m.Promotion(), us)

			p.removePiece(pc, to)
			p.putPiece(promotion, to)

			k ^= zobristPiece[pc][to] ^ zobristPiece[promotion][to]
			st.PawnKey ^= zobristPiece[pc][to]
			st.MaterialKey ^= zobristPiece[promotion][p.pieceCount[promotion]-1] ^
				zobristPiece[pc][p.pieceCount[pc]]
			st.NonPawnMaterial[us] += PieceValue[m.Promotion()]
		}

		st.PawnKey ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
		st.Rule50 = 0
	}

	st.Captured = captured
	st.Key = k

	if givesCheck {
		st.Checkers = p.AttackersTo(p.KingSquare(them), p.occupied) & p.byColor[us]
	} else {
		st.Checkers = 0
	}

	p.sideToMove = them

	p.setCheckInfo(st)

	// Repetition distance: walk back in steps of two plies, bounded by
	// the irreversible horizon. Negative means the ancestor itself was a
	// repetition, i.e. this is at least the third occurrence.
	st.Repetition = 0
	end := min(st.Rule50, st.PliesFromNull)
	if end >= 4 {
		stp := st.Previous.Previous
		for i := 4; i <= end; i += 2 {
			stp = stp.Previous.Previous
			if stp.Key == st.Key {
				if stp.Repetition != 0 {
					st.Repetition = -i
				} else {
					st.Repetition = i
				}
				break
			}
		}
	}
}

// UndoMove unmakes a move. The position is restored bit-for-bit: the
// hashes and counters come back by discarding the current StateInfo, never
// by recomputation.
func (p *Position) UndoMove(m Move) {
	p.sideToMove = p.sideToMove.Other()

	us := p.sideToMove
	from, to := m.From(), m.To()
	pc := p.board[to]

	if m.IsPromotion() {
		// Demote before moving back so the pawn travels, not the piece.
		p.removePiece(pc, to)
		pc = NewPiece(Pawn, us)
		p.putPiece(pc, to)
	}

	if m.IsCastling() {
		p.doCastling(false, us, from, to)
	} else {
		p.movePiece(pc, to, from)

		if p.st.Captured != NoPiece {
			capsq := to
			if m.IsEnPassant() {
				capsq = Square(int(to) - PawnPushDelta(us))
			}
			p.putPiece(p.st.Captured, capsq)
		}
	}

	p.st = p.st.Previous
	p.gamePly--
}

// doCastling moves (or restores) both king and rook of a castling move.
// The destinations are the standard ones in Chess960 as well; origin and
// destination squares may overlap there, so both pieces come off the board
// before either is placed.
func (p *Position) doCastling(do bool, us Color, from, to Square) (kto, rfrom, rto Square) {
	kingSide := to > from
	rfrom = to // castling is encoded as "king captures friendly rook"
	if kingSide {
		kto, rto = RelativeSquare(us, G1), RelativeSquare(us, F1)
	} else {
		kto, rto = RelativeSquare(us, C1), RelativeSquare(us, D1)
	}

	king, rook := NewPiece(King, us), NewPiece(Rook, us)

	if do {
		p.removePiece(king, from)
		p.removePiece(rook, rfrom)
		p.board[from], p.board[rfrom] = NoPiece, NoPiece // removePiece leaves these
		p.putPiece(king, kto)
		p.putPiece(rook, rto)
	} else {
		p.removePiece(king, kto)
		p.removePiece(rook, rto)
		p.board[kto], p.board[rto] = NoPiece, NoPiece
		p.putPiece(king, from)
		p.putPiece(rook, rfrom)
	}
	return
}

// DoNullMove flips the side to move without touching the board, for null
// move pruning. Precondition: the side to move is not in check.
func (p *Position) DoNullMove(newSt *StateInfo) {
	if p.thread != nil {
		p.thread.Nodes.Add(1)
	}

	*newSt = *p.st
	newSt.Previous = p.st
	p.st = newSt
	st := newSt

	if st.EnPassant != NoSquare {
		st.Key ^= zobristEnPassant[st.EnPassant.File()]
		st.EnPassant = NoSquare
	}

	st.Key ^= zobristSide

	st.Rule50++
	st.PliesFromNull = 0

	p.sideToMove = p.sideToMove.Other()

	p.setCheckInfo(st)

	st.Repetition = 0
}

// UndoNullMove takes back a null move.
func (p *Position) UndoNullMove() {
	p.st = p.st.Previous
	p.sideToMove = p.sideToMove.Other()
}

// KeyAfter returns the position key that DoMove would produce for a plain
// move: no castling, no en passant, no promotion, no rights change. It is
// speculative by design and exists only so callers can prefetch the
// transposition-table cluster before committing to the move.
func (p *Position) KeyAfter(m Move) uint64 {
	from, to := m.From(), m.To()
	pc := p.board[from]
	captured := p.board[to]

	k := p.st.Key ^ zobristSide
	if captured != NoPiece {
		k ^= zobristPiece[captured][to]
	}
	return k ^ zobristPiece[pc][to] ^ zobristPiece[pc][from]
}

// IsDraw tests whether the position is drawn by repetition: the earlier
// occurrence lies fewer than ply plies back. A three-fold shows up with
// Repetition < 0 and is judged by the same distance test as a two-fold;
// the sign carries the distinction for callers that need it.
// Stalemate is not detected here.
func (p *Position) IsDraw(ply int) bool {
	return p.st.Repetition != 0 && abs(p.st.Repetition) < ply
}

// HasRepeated tests whether any position since the last irreversible move
// has occurred at least twice.
func (p *Position) HasRepeated() bool {
	stc := p.st
	end := min(p.st.Rule50, p.st.PliesFromNull)

	for end >= 4 {
		if stc.Repetition != 0 {
			return true
		}
		stc = stc.Previous
		end--
	}
	return false
}
