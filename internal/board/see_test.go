package board

import "testing"

func TestSeeGE(t *testing.T) {
	tests := []struct {
		fen       string
		move      string
		threshold int
		want      bool
	}{
		// Pawn takes pawn defended by a pawn: the exchange nets zero.
		{"4k3/8/2p5/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", 0, true},
		{"4k3/8/2p5/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", 1, false},

		// Undefended pawn: clean win of a pawn.
		{"4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", 100, true},
		{"4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", 101, false},

		// Rook takes a pawn defended by a pawn: loses rook for pawn.
		{"4k3/8/2p5/3p4/8/8/8/3RK3 w - - 0 1", "d1d5", 0, false},
		{"4k3/8/2p5/3p4/8/8/8/3RK3 w - - 0 1", "d1d5", 100-500, true},

		// QxP defended by a rook behind the pawn is a disaster.
		{"3rk3/8/8/3p4/8/8/3Q4/4K3 w - - 0 1", "d2d5", 0, false},

		// NxP with a pinned defender: the defending knight may not
		// recapture while the pin holds.
		{"4k3/4n3/8/3p4/8/2N5/8/4RK2 w - - 0 1", "c3d5", 100, true},

		// Quiet move into an undefended square is fine, into a pawn's
		// bite it loses the piece.
		{"4k3/8/2p5/8/8/8/8/3NK3 w - - 0 1", "d1b2", 0, true},
		{"4k3/8/8/8/3p4/8/8/3NK3 w - - 0 1", "d1c3", 0, false},
	}

	for _, tc := range tests {
		p := mustSet(t, tc.fen, false)
		m, err := ParseMove(tc.move, p)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", tc.move, err)
		}
		if got := p.SeeGE(m, tc.threshold); got != tc.want {
			t.Errorf("%s %s SeeGE(%d) = %v, want %v", tc.fen, tc.move, tc.threshold, got, tc.want)
		}
	}
}

// TestSeeGEMonotone: SeeGE must be monotone in the threshold. If a move
// passes threshold t it must pass every threshold below t.
func TestSeeGEMonotone(t *testing.T) {
	fens := []string{
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1",
		"4k3/8/2p5/3p4/4P3/8/8/4K3 w - - 0 1",
	}

	thresholds := []int{-900, -500, -330, -100, -1, 0, 1, 100, 330, 500, 900}

	for _, fen := range fens {
		p := mustSet(t, fen, false)
		moves := p.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			prev := true
			for _, th := range thresholds {
				got := p.SeeGE(m, th)
				if got && !prev {
					t.Fatalf("%s %s: SeeGE not monotone around threshold %d", fen, m, th)
				}
				prev = got
			}
		}
	}
}
