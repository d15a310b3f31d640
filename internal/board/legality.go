package board

// AttackersTo returns a bitboard of all pieces of both colors attacking a
// square, given an occupancy. Pawn attackers are found by reverse symmetry:
// the squares a black pawn on sq would attack are exactly the squares from
// which a white pawn attacks sq.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	return (pawnAttacks[Black][sq] & p.pieces(White, Pawn)) |
		(pawnAttacks[White][sq] & p.pieces(Black, Pawn)) |
		(knightAttacks[sq] & p.byType[Knight]) |
		(kingAttacks[sq] & p.byType[King]) |
		(BishopAttacks(sq, occupied) & (p.byType[Bishop] | p.byType[Queen])) |
		(RookAttacks(sq, occupied) & (p.byType[Rook] | p.byType[Queen]))
}

// AttackersByColor returns a bitboard of pieces of one color attacking a
// square, given an occupancy.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.pieces(c, Pawn)) |
		(knightAttacks[sq] & p.pieces(c, Knight)) |
		(kingAttacks[sq] & p.pieces(c, King)) |
		(BishopAttacks(sq, occupied) & (p.pieces(c, Bishop) | p.pieces(c, Queen))) |
		(RookAttacks(sq, occupied) & (p.pieces(c, Rook) | p.pieces(c, Queen)))
}

// IsSquareAttacked returns true if the square is attacked by the given color.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.occupied) != 0
}

// SliderBlockers returns the pieces of either color that stand alone
// between a slider in sliders and the target square s: removing one would
// expose s. pinners receives the snipers whose blocker has the same color
// as the piece on s.
func (p *Position) SliderBlockers(sliders Bitboard, s Square, pinners *Bitboard) Bitboard {
	var blockers Bitboard
	*pinners = 0

	// Snipers are sliders that would attack s if every blocker and every
	// other sniper were lifted off the board.
	snipers := ((pseudoRookAttacks[s] & (p.byType[Queen] | p.byType[Rook])) |
		(pseudoBishopAttacks[s] & (p.byType[Queen] | p.byType[Bishop]))) & sliders
	occupancy := p.occupied ^ snipers

	sColor := p.board[s].Color()

	for snipers != 0 {
		sniper := snipers.PopLSB()
		b := Between(s, sniper) & occupancy

		if b != 0 && !MoreThanOne(b) {
			blockers |= b
			if b&p.byColor[sColor] != 0 {
				*pinners |= SquareBB(sniper)
			}
		}
	}
	return blockers
}

// Legal tests whether a pseudo-legal move leaves the own king safe. The
// move must come from the generator or have passed PseudoLegal.
func (p *Position) Legal(m Move) bool {
	us := p.sideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare(us)

	// The generator emits every pseudo-legal move even in check, so
	// non-king moves must first prove they deal with the checker.
	if p.st.Checkers != 0 && from != ksq {
		if MoreThanOne(p.st.Checkers) {
			return false
		}
		checker := p.st.Checkers.LSB()
		capsq := to
		if m.IsEnPassant() {
			capsq = Square(int(to) - PawnPushDelta(us))
		}
		if capsq != checker && Between(checker, ksq)&SquareBB(to) == 0 {
			return false
		}
	}

	switch {
	case m.IsEnPassant():
		// Two pawns leave their squares at once, so simulate the
		// occupancy and look for exposed slider rays.
		capsq := Square(int(to) - PawnPushDelta(us))
		occupied := (p.occupied ^ SquareBB(from) ^ SquareBB(capsq)) | SquareBB(to)

		return RookAttacks(ksq, occupied)&(p.pieces(them, Queen)|p.pieces(them, Rook)) == 0 &&
			BishopAttacks(ksq, occupied)&(p.pieces(them, Queen)|p.pieces(them, Bishop)) == 0

	case m.IsCastling():
		if p.st.Checkers != 0 {
			return false
		}

		// The rook and king destinations are the same in Chess960 as in
		// standard chess; walk every square the king crosses.
		kto := RelativeSquare(us, C1)
		if to > from {
			kto = RelativeSquare(us, G1)
		}
		step := 1
		if kto > from {
			step = -1
		}
		for s := kto; s != from; s = Square(int(s) + step) {
			if p.AttackersByColor(s, them, p.occupied) != 0 {
				return false
			}
		}

		// In Chess960 the vacated rook square may uncover a slider aimed
		// at the king's destination.
		if p.chess960 &&
			RookAttacks(kto, p.occupied^SquareBB(to))&(p.pieces(them, Rook)|p.pieces(them, Queen)) != 0 {
			return false
		}
		return true

	case from == ksq:
		// King moves test the destination with the king lifted off, so a
		// retreat along a slider's ray is still seen as attacked.
		return p.AttackersByColor(to, them, p.occupied^SquareBB(from)) == 0

	default:
		// Legal iff not a blocker for our king, or moving along the ray
		// towards or away from it.
		return p.st.BlockersForKing[us]&SquareBB(from) == 0 || Aligned(from, to, ksq)
	}
}

// PseudoLegal is a cheap validity test for moves of untrusted provenance,
// chiefly transposition-table hits that may have been corrupted by hash
// aliasing or racy writes. Only normal moves are handled directly; tagged
// moves fall back to full move-list membership.
func (p *Position) PseudoLegal(m Move) bool {
	us := p.sideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	pc := p.board[from]

	// Uncommon tagged moves take the slow, certain path.
	if m.Flag() != FlagNormal {
		return p.GenerateLegalMoves().Contains(m)
	}

	// A normal move never carries promotion bits; an encoding that does is
	// corrupt, not a variant spelling of the plain move.
	if (m>>12)&3 != 0 {
		return false
	}

	if pc == NoPiece || pc.Color() != us {
		return false
	}

	if p.byColor[us]&SquareBB(to) != 0 {
		return false
	}

	if pc.Type() == Pawn {
		// Promotions carry their own tag, so the destination cannot be a
		// back rank here.
		if (Rank1|Rank8)&SquareBB(to) != 0 {
			return false
		}

		push := PawnPushDelta(us)
		isCapture := pawnAttacks[us][from]&p.byColor[them]&SquareBB(to) != 0
		isSingle := int(from)+push == int(to) && p.IsEmpty(to)
		isDouble := int(from)+2*push == int(to) &&
			from.RelativeRank(us) == 1 &&
			p.IsEmpty(to) &&
			p.IsEmpty(Square(int(to) - push))
		if !isCapture && !isSingle && !isDouble {
			return false
		}
	} else if AttacksBB(pc.Type(), from, p.occupied)&SquareBB(to) == 0 {
		return false
	}

	// Under check the move must be an evasion the legality test can
	// handle: either a king step to an unattacked square, or a block or
	// capture of a lone checker.
	if p.st.Checkers != 0 {
		if pc.Type() != King {
			if MoreThanOne(p.st.Checkers) {
				return false
			}
			if (Between(p.st.Checkers.LSB(), p.KingSquare(us))|p.st.Checkers)&SquareBB(to) == 0 {
				return false
			}
		} else if p.AttackersTo(to, p.occupied^SquareBB(from))&p.byColor[them] != 0 {
			return false
		}
	}

	return true
}

// GivesCheck tests whether a pseudo-legal move checks the opponent.
func (p *Position) GivesCheck(m Move) bool {
	us := p.sideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare(them)

	// Direct check?
	if p.st.CheckSquares[p.board[from].Type()]&SquareBB(to) != 0 {
		return true
	}

	// Discovered check?
	if p.st.BlockersForKing[them]&SquareBB(from) != 0 && !Aligned(from, to, ksq) {
		return true
	}

	switch m.Flag() {
	case FlagPromotion:
		return AttacksBB(m.Promotion(), to, p.occupied^SquareBB(from))&SquareBB(ksq) != 0

	case FlagEnPassant:
		// The captured pawn leaves its square too, which may open a
		// discovered check neither case above can see.
		capsq := NewSquare(to.File(), from.Rank())
		b := (p.occupied ^ SquareBB(from) ^ SquareBB(capsq)) | SquareBB(to)

		return RookAttacks(ksq, b)&(p.pieces(us, Queen)|p.pieces(us, Rook)) != 0 ||
			BishopAttacks(ksq, b)&(p.pieces(us, Queen)|p.pieces(us, Bishop)) != 0

	case FlagCastling:
		kfrom, rfrom := from, to
		var kto, rto Square
		if rfrom > kfrom {
			kto, rto = RelativeSquare(us, G1), RelativeSquare(us, F1)
		} else {
			kto, rto = RelativeSquare(us, C1), RelativeSquare(us, D1)
		}

		return pseudoRookAttacks[rto]&SquareBB(ksq) != 0 &&
			RookAttacks(rto, (p.occupied^SquareBB(kfrom)^SquareBB(rfrom))|SquareBB(rto)|SquareBB(kto))&SquareBB(ksq) != 0

	default:
		return false
	}
}
