package board

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	pseudo := NewMoveList()
	p.generateAllMoves(pseudo)

	result := NewMoveList()
	for i := 0; i < pseudo.Len(); i++ {
		if m := pseudo.Get(i); p.Legal(m) {
			result.Add(m)
		}
	}
	return result
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (they may
// leave the own king in check).
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates all legal captures and promotion pushes (all
// four promotion pieces).
func (p *Position) GenerateCaptures() *MoveList {
	pseudo := NewMoveList()
	p.generateCaptures(pseudo)

	result := NewMoveList()
	for i := 0; i < pseudo.Len(); i++ {
		if m := pseudo.Get(i); p.Legal(m) {
			result.Add(m)
		}
	}
	return result
}

// HasLegalMoves returns true if the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	pseudo := NewMoveList()
	p.generateAllMoves(pseudo)
	for i := 0; i < pseudo.Len(); i++ {
		if p.Legal(pseudo.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// generateAllMoves generates all pseudo-legal moves.
func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.sideToMove
	occupied := p.occupied
	enemies := p.byColor[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied)

	for pt := Knight; pt <= Queen; pt++ {
		pieces := p.pieces(us, pt)
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := AttacksBB(pt, from, occupied) &^ p.byColor[us]
			for attacks != 0 {
				ml.Add(NewMove(from, attacks.PopLSB()))
			}
		}
	}

	from := p.KingSquare(us)
	attacks := KingAttacks(from) &^ p.byColor[us]
	for attacks != 0 {
		ml.Add(NewMove(from, attacks.PopLSB()))
	}

	p.generateCastlingMoves(ml, us)
}

// generatePawnMoves generates all pawn moves with bitboard shifts.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.pieces(us, Pawn)
	empty := ^occupied

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	// Single pushes (non-promotion)
	nonPromo := push1 &^ promotionRank
	for nonPromo != 0 {
		to := nonPromo.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir), to))
	}

	// Double pushes
	for push2 != 0 {
		to := push2.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*pushDir), to))
	}

	// Captures (non-promotion)
	nonPromoL := attackL &^ promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to))
	}

	nonPromoR := attackR &^ promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to))
	}

	// Promotions
	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to)
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to)
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to)
	}

	// En passant
	if ep := p.st.EnPassant; ep != NoSquare {
		epAttackers := pawnAttacks[us.Other()][ep] & pawns
		for epAttackers != 0 {
			ml.Add(NewEnPassant(epAttackers.PopLSB(), ep))
		}
	}
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateCastlingMoves emits castling candidates whose paths are clear.
// Attack safety along the king's walk is Legal's job.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	if p.st.Checkers != 0 {
		return
	}

	for _, kingSide := range []bool{true, false} {
		cr := CastlingRight(us, kingSide)
		if p.st.CastlingRights&cr != 0 && p.castlingPath[cr]&p.occupied == 0 {
			ml.Add(NewCastling(p.KingSquare(us), p.castlingRookSquare[cr]))
		}
	}
}

// generateCaptures generates pseudo-legal captures plus promotion pushes
// to every promotion piece (the forcing moves a quiescence search wants).
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.sideToMove
	occupied := p.occupied
	enemies := p.byColor[us.Other()]

	pawns := p.pieces(us, Pawn)

	var push1, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & ^occupied
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & ^occupied
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromoL := attackL &^ promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to))
	}

	nonPromoR := attackR &^ promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to))
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to)
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to)
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to)
	}

	if ep := p.st.EnPassant; ep != NoSquare {
		epAttackers := pawnAttacks[us.Other()][ep] & pawns
		for epAttackers != 0 {
			ml.Add(NewEnPassant(epAttackers.PopLSB(), ep))
		}
	}

	for pt := Knight; pt <= Queen; pt++ {
		pieces := p.pieces(us, pt)
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := AttacksBB(pt, from, occupied) & enemies
			for attacks != 0 {
				ml.Add(NewMove(from, attacks.PopLSB()))
			}
		}
	}

	from := p.KingSquare(us)
	attacks := KingAttacks(from) & enemies
	for attacks != 0 {
		ml.Add(NewMove(from, attacks.PopLSB()))
	}
}
