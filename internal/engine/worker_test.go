package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func TestWorkerPerft(t *testing.T) {
	pool := NewPool(1)

	nodes, err := pool.Perft(board.StartFEN, false, 4)
	if err != nil {
		t.Fatalf("Perft: %v", err)
	}
	if nodes != 197281 {
		t.Errorf("perft(4) = %d, want 197281", nodes)
	}
	if pool.Nodes() == 0 {
		t.Error("node counter never incremented")
	}
}

func TestParallelPerftMatchesSerial(t *testing.T) {
	depth := 4
	if testing.Short() {
		depth = 3
	}

	serial := NewPool(1)
	want, err := serial.Perft(kiwipete, false, depth)
	if err != nil {
		t.Fatalf("serial perft: %v", err)
	}

	parallel := NewPool(4)
	got, err := parallel.PerftParallel(kiwipete, false, depth)
	if err != nil {
		t.Fatalf("parallel perft: %v", err)
	}

	if got != want {
		t.Errorf("parallel perft = %d, serial = %d", got, want)
	}
}

func TestDivide(t *testing.T) {
	pool := NewPool(1)

	div, err := pool.Divide(board.StartFEN, false, 2)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	if len(div) != 20 {
		t.Fatalf("divide returned %d root moves, want 20", len(div))
	}

	var total uint64
	for _, n := range div {
		total += n
	}
	if total != 400 {
		t.Errorf("divide sums to %d, want 400", total)
	}
	if div["e2e4"] != 20 {
		t.Errorf("divide[e2e4] = %d, want 20", div["e2e4"])
	}
}

func TestMaterialTable(t *testing.T) {
	w := NewWorker(0, nil)
	if err := w.SetPosition(kiwipete, false); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}

	e := w.MaterialTable().Probe(w.Position())
	if e.Key != w.Position().MaterialKey() {
		t.Error("entry key mismatch")
	}
	if int(e.NonPawnMaterial[board.White]) != w.Position().NonPawnMaterial(board.White) {
		t.Error("cached non-pawn material mismatch")
	}
	if e.PieceCount != uint8(w.Position().All().PopCount()) {
		t.Error("cached piece count mismatch")
	}

	// Probing the same material configuration again hits the cached entry.
	if e2 := w.MaterialTable().Probe(w.Position()); e2 != e {
		t.Error("probe of identical material missed the cache")
	}
}

func TestStopUnwindsPerft(t *testing.T) {
	pool := NewPool(1)
	pool.Stop()

	// With the stop flag raised the walk breaks off before the first root
	// move, so the count collapses to zero.
	w := pool.Worker(0)
	if err := w.SetPosition(board.StartFEN, false); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if nodes := w.Perft(5); nodes >= 4865609 {
		t.Errorf("stop flag ignored: %d nodes", nodes)
	}

	// A fresh pool run clears the flag and completes.
	if nodes, err := pool.Perft(board.StartFEN, false, 3); err != nil || nodes != 8902 {
		t.Errorf("perft after stop = %d, %v", nodes, err)
	}
}
