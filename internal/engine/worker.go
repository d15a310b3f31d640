package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// MaxPly bounds the search depth and sizes the per-worker StateInfo ring.
const MaxPly = 246

// Worker owns one Position and everything DoMove needs around it: the
// node counter the position reports into, a preallocated StateInfo ring
// indexed by ply (make/unmake never allocates), and the per-worker
// material cache.
type Worker struct {
	id       int
	pos      *board.Position
	thread   *board.Thread
	stack    [MaxPly + 10]board.StateInfo
	material *MaterialTable
	stop     *atomic.Bool
}

// NewWorker creates a worker with an empty position.
func NewWorker(id int, stop *atomic.Bool) *Worker {
	return &Worker{
		id:       id,
		pos:      &board.Position{},
		thread:   &board.Thread{},
		material: NewMaterialTable(materialTableMB),
		stop:     stop,
	}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Position returns the worker's position.
func (w *Worker) Position() *board.Position {
	return w.pos
}

// Nodes returns the number of nodes this worker has made moves through.
func (w *Worker) Nodes() uint64 {
	return w.thread.Nodes.Load()
}

// MaterialTable returns the worker's material cache.
func (w *Worker) MaterialTable() *MaterialTable {
	return w.material
}

// SetPosition points the worker at a new root position. Ply zero of the
// worker's ring becomes the root state.
func (w *Worker) SetPosition(fen string, chess960 bool) error {
	return w.pos.Set(fen, chess960, &w.stack[0], w.thread)
}

// Perft counts leaf positions at the given depth below the worker's
// current position, driving the full do/undo machinery.
func (w *Worker) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	return w.perft(depth, 1)
}

func (w *Worker) perft(depth, ply int) uint64 {
	moves := w.pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		if w.stop != nil && w.stop.Load() {
			break
		}
		m := moves.Get(i)
		w.pos.DoMove(m, &w.stack[ply], w.pos.GivesCheck(m))
		nodes += w.perft(depth-1, ply+1)
		w.pos.UndoMove(m)
	}
	return nodes
}

// Pool is a fixed set of workers. Each worker owns its Position
// exclusively; the transposition table is the only shared mutable state
// between them.
type Pool struct {
	workers []*Worker
	stop    atomic.Bool

	// busy is held for the duration of a search-like run so that
	// WaitForSearchFinished (and through it TT.Resize) can block until
	// the workers are quiescent.
	busy sync.Mutex
}

// NewPool creates a pool of n workers.
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	pl := &Pool{}
	for i := 0; i < n; i++ {
		pl.workers = append(pl.workers, NewWorker(i, &pl.stop))
	}
	return pl
}

// Size returns the number of workers.
func (pl *Pool) Size() int {
	return len(pl.workers)
}

// Worker returns worker i.
func (pl *Pool) Worker(i int) *Worker {
	return pl.workers[i]
}

// Nodes sums the node counters of all workers.
func (pl *Pool) Nodes() uint64 {
	var n uint64
	for _, w := range pl.workers {
		n += w.thread.Nodes.Load()
	}
	return n
}

// Stop asks running workers to unwind. They return through their UndoMove
// chains; there is no cancellation primitive below this flag.
func (pl *Pool) Stop() {
	pl.stop.Store(true)
}

// WaitForSearchFinished blocks until no run is in progress.
func (pl *Pool) WaitForSearchFinished() {
	pl.busy.Lock()
	pl.busy.Unlock() // the lock is only a quiescence barrier
}

// Perft runs a serial perft on worker 0.
func (pl *Pool) Perft(fen string, chess960 bool, depth int) (uint64, error) {
	pl.busy.Lock()
	defer pl.busy.Unlock()
	pl.stop.Store(false)

	w := pl.workers[0]
	if err := w.SetPosition(fen, chess960); err != nil {
		return 0, err
	}
	return w.Perft(depth), nil
}

// Divide returns the per-root-move leaf counts, the classic perft
// debugging view.
func (pl *Pool) Divide(fen string, chess960 bool, depth int) (map[string]uint64, error) {
	pl.busy.Lock()
	defer pl.busy.Unlock()
	pl.stop.Store(false)

	w := pl.workers[0]
	if err := w.SetPosition(fen, chess960); err != nil {
		return nil, err
	}

	out := make(map[string]uint64)
	moves := w.pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		w.pos.DoMove(m, &w.stack[1], w.pos.GivesCheck(m))
		n := uint64(1)
		if depth > 1 {
			n = w.perft(depth-1, 2)
		}
		w.pos.UndoMove(m)
		out[m.UCI(chess960)] = n
	}
	return out, nil
}

// PerftParallel splits the root moves across all workers. Every worker
// sets up its own copy of the position from the FEN, so nothing but the
// node counters is shared.
func (pl *Pool) PerftParallel(fen string, chess960 bool, depth int) (uint64, error) {
	if depth <= 1 || len(pl.workers) == 1 {
		return pl.Perft(fen, chess960, depth)
	}

	pl.busy.Lock()
	defer pl.busy.Unlock()
	pl.stop.Store(false)

	root := &board.Position{}
	if err := root.Set(fen, chess960, &board.StateInfo{}, nil); err != nil {
		return 0, err
	}
	rootMoves := root.GenerateLegalMoves()

	var total atomic.Uint64
	var g errgroup.Group

	for i, w := range pl.workers {
		i, w := i, w
		g.Go(func() error {
			if err := w.SetPosition(fen, chess960); err != nil {
				return err
			}
			var nodes uint64
			for j := i; j < rootMoves.Len(); j += len(pl.workers) {
				if pl.stop.Load() {
					break
				}
				m := rootMoves.Get(j)
				w.pos.DoMove(m, &w.stack[1], w.pos.GivesCheck(m))
				nodes += w.perft(depth-1, 2)
				w.pos.UndoMove(m)
			}
			total.Add(nodes)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total.Load(), nil
}

// Bench reports a one-line summary for a finished run.
func Bench(nodes uint64, seconds float64) string {
	nps := uint64(0)
	if seconds > 0 {
		nps = uint64(float64(nodes) / seconds)
	}
	return fmt.Sprintf("nodes %d time %.3fs nps %d", nodes, seconds, nps)
}
