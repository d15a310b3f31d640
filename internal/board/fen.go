package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Set initializes the position from a FEN string. The castling field
// accepts three encodings interchangeably: standard KQkq, Shredder rook
// file letters, and X-FEN. The parser is permissive by contract -- input
// FENs are trusted, and only gross malformations are reported; Validate
// re-asserts the invariants when wanted.
//
// The caller supplies the root StateInfo; th may be nil for positions used
// outside a search.
func (p *Position) Set(fen string, chess960 bool, si *StateInfo, th *Thread) error {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	p.clear(si, th)
	p.chess960 = chess960

	// 1. Piece placement
	if err := p.parsePiecePlacement(parts[0]); err != nil {
		return err
	}

	// 2. Active color
	switch parts[1] {
	case "w":
		p.sideToMove = White
	case "b":
		p.sideToMove = Black
	default:
		return fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// 3. Castling availability
	if err := p.parseCastling(parts[2]); err != nil {
		return err
	}

	// 4. En passant square. Kept only if a pawn of the side to move could
	// actually capture onto it and the double-pushed pawn is in place, so
	// positions reached by different move orders hash identically.
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		si.EnPassant = sq
		us, them := p.sideToMove, p.sideToMove.Other()
		if p.AttackersTo(sq, p.occupied)&p.pieces(us, Pawn) == 0 ||
			p.pieces(them, Pawn)&SquareBB(Square(int(sq)+PawnPushDelta(them))) == 0 {
			si.EnPassant = NoSquare
		}
	}

	// 5-6. Halfmove clock and fullmove number (both optional)
	fullmove := 1
	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil {
			return fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
		si.Rule50 = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil {
			return fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		fullmove = n
	}

	// Convert fullmove (starting from 1) to gamePly (starting from 0),
	// tolerating the common incorrect fullmove = 0 and guaranteeing enough
	// implied history for a rule-50 draw claim.
	p.gamePly = max(2*(max(fullmove, si.Rule50/2+1)-1), 0)
	if p.sideToMove == Black {
		p.gamePly++
	}

	p.SetState(si)
	return nil
}

func (p *Position) parsePiecePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
			} else {
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				p.putPiece(piece, NewSquare(file, rank))
				file++
			}
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

func (p *Position) parseCastling(castling string) error {
	if castling == "-" {
		return nil
	}

	for _, tok := range castling {
		c := White
		if tok >= 'a' && tok <= 'z' {
			c = Black
		}
		rook := NewPiece(Rook, c)
		upper := byte(tok &^ 0x20)

		var rsq Square
		switch {
		case upper == 'K':
			// Outermost rook toward the h-file.
			for rsq = RelativeSquare(c, H1); p.board[rsq] != rook; rsq-- {
			}
		case upper == 'Q':
			// Outermost rook toward the a-file.
			for rsq = RelativeSquare(c, A1); p.board[rsq] != rook; rsq++ {
			}
		case upper >= 'A' && upper <= 'H':
			// Shredder / X-FEN: the file letter names the rook directly.
			rsq = NewSquare(int(upper-'A'), RelativeSquare(c, A1).Rank())
		default:
			return fmt.Errorf("invalid castling character: %c", tok)
		}

		p.setCastlingRight(c, rsq)
	}

	return nil
}

// setCastlingRight enables the castling right implied by the rook's origin
// square and records the descriptors DoMove relies on.
func (p *Position) setCastlingRight(c Color, rfrom Square) {
	kfrom := p.KingSquare(c)
	cr := CastlingRight(c, kfrom < rfrom)

	p.st.CastlingRights |= cr
	p.castlingRightsMask[kfrom] |= cr
	p.castlingRightsMask[rfrom] |= cr
	p.castlingRookSquare[cr] = rfrom

	var kto, rto Square
	if kfrom < rfrom {
		kto, rto = RelativeSquare(c, G1), RelativeSquare(c, F1)
	} else {
		kto, rto = RelativeSquare(c, C1), RelativeSquare(c, D1)
	}

	// Squares both pieces travel through, minus their own origins: those
	// may legitimately be occupied by the castling pieces themselves.
	p.castlingPath[cr] = (Between(rfrom, rto) | Between(kfrom, kto) |
		SquareBB(rto) | SquareBB(kto)) &^ (SquareBB(kfrom) | SquareBB(rfrom))
}

// setCheckInfo refreshes the king-attack data used by fast check detection:
// blockers and pinners for both kings, and per-piece-type checking squares
// against the opponent's king.
func (p *Position) setCheckInfo(si *StateInfo) {
	si.BlockersForKing[White] = p.SliderBlockers(p.byColor[Black], p.KingSquare(White), &si.Pinners[Black])
	si.BlockersForKing[Black] = p.SliderBlockers(p.byColor[White], p.KingSquare(Black), &si.Pinners[White])

	them := p.sideToMove.Other()
	ksq := p.KingSquare(them)

	si.CheckSquares[Pawn] = pawnAttacks[them][ksq]
	si.CheckSquares[Knight] = knightAttacks[ksq]
	si.CheckSquares[Bishop] = BishopAttacks(ksq, p.occupied)
	si.CheckSquares[Rook] = RookAttacks(ksq, p.occupied)
	si.CheckSquares[Queen] = si.CheckSquares[Bishop] | si.CheckSquares[Rook]
	si.CheckSquares[King] = 0
}

// SetState recomputes the hashes, material totals and check info of the
// position from scratch into si. Set uses it when a new position is built;
// Validate uses it to cross-check the incremental updates.
func (p *Position) SetState(si *StateInfo) {
	si.Key = 0
	si.MaterialKey = 0
	si.PawnKey = zobristNoPawns
	si.NonPawnMaterial = [2]int{}
	si.Checkers = p.AttackersTo(p.KingSquare(p.sideToMove), p.occupied) & p.byColor[p.sideToMove.Other()]

	p.setCheckInfo(si)

	for b := p.occupied; b != 0; {
		sq := b.PopLSB()
		pc := p.board[sq]
		si.Key ^= zobristPiece[pc][sq]

		switch pc.Type() {
		case Pawn:
			si.PawnKey ^= zobristPiece[pc][sq]
		case King:
		default:
			si.NonPawnMaterial[pc.Color()] += PieceValue[pc.Type()]
		}
	}

	if si.EnPassant != NoSquare {
		si.Key ^= zobristEnPassant[si.EnPassant.File()]
	}

	if p.sideToMove == Black {
		si.Key ^= zobristSide
	}

	si.Key ^= zobristCastling[si.CastlingRights]

	for pc := WhitePawn; pc <= BlackKing; pc++ {
		for cnt := 0; cnt < p.pieceCount[pc]; cnt++ {
			si.MaterialKey ^= zobristPiece[pc][cnt]
		}
	}
}

// SetEndgame initializes the position from an endgame code like "KBPKN",
// with the strong side's pieces given first. It exists to compute material
// keys for endgame-table lookups; the resulting placement is minimal, not
// meaningful.
func (p *Position) SetEndgame(code string, strong Color, si *StateInfo) error {
	if len(code) == 0 || code[0] != 'K' {
		return fmt.Errorf("invalid endgame code: %q", code)
	}
	split := strings.Index(code[1:], "K")
	if split < 0 {
		return fmt.Errorf("invalid endgame code: %q", code)
	}

	sides := [2]string{
		code[split+1:],  // Weak
		code[:split+1],  // Strong
	}
	sides[strong] = strings.ToLower(sides[strong])

	fen := "8/" + sides[0] + strconv.Itoa(8-len(sides[0])) + "/8/8/8/8/" +
		sides[1] + strconv.Itoa(8-len(sides[1])) + "/8 w - - 0 1"

	return p.Set(fen, false, si, nil)
}

// Fen returns the FEN representation of the position. Under Chess960 the
// castling field uses Shredder-FEN rook file letters.
func (p *Position) Fen() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.board[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	if p.sideToMove == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	if p.st.CastlingRights == NoCastling {
		sb.WriteByte('-')
	} else {
		writeRight := func(cr CastlingRights, std byte, base byte) {
			if !p.CanCastle(cr) {
				return
			}
			if p.chess960 {
				sb.WriteByte(base + byte(p.castlingRookSquare[cr].File()))
			} else {
				sb.WriteByte(std)
			}
		}
		writeRight(WhiteKingSideCastle, 'K', 'A')
		writeRight(WhiteQueenSideCastle, 'Q', 'A')
		writeRight(BlackKingSideCastle, 'k', 'a')
		writeRight(BlackQueenSideCastle, 'q', 'a')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.st.EnPassant.String())

	fullmove := 1 + (p.gamePly-b2i(p.sideToMove == Black))/2
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.st.Rule50))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(fullmove))

	return sb.String()
}

// Flip rebuilds the position with the colors reversed and the board
// mirrored vertically. Debugging helper, e.g. for hunting evaluation
// symmetry bugs in callers.
func (p *Position) Flip() error {
	fields := strings.Fields(p.Fen())

	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	placement := swapCase(strings.Join(ranks, "/"))

	side := "w"
	if fields[1] == "w" {
		side = "b"
	}

	castling := swapCase(fields[2])

	ep := fields[3]
	if ep != "-" {
		if ep[1] == '3' {
			ep = string(ep[0]) + "6"
		} else {
			ep = string(ep[0]) + "3"
		}
	}

	fen := placement + " " + side + " " + castling + " " + ep
	if len(fields) > 4 {
		fen += " " + strings.Join(fields[4:], " ")
	}

	return p.Set(fen, p.chess960, p.st, p.thread)
}

func swapCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = c &^ 0x20
		case c >= 'A' && c <= 'Z':
			b[i] = c | 0x20
		}
	}
	return string(b)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
