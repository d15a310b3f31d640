// Package engine hosts the shared search infrastructure around the
// position core: the transposition table, the worker pool that owns the
// per-thread positions, and the per-worker material cache.
package engine

import (
	"math/bits"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// Bound describes the kind of score stored in a table entry.
type Bound uint8

const (
	BoundNone  Bound = 0
	BoundUpper Bound = 1
	BoundLower Bound = 2
	BoundExact Bound = BoundUpper | BoundLower
)

// Search depths are stored in a byte, shifted so the negative depths of a
// quiescence search still fit.
const depthOffset = 7

// TTEntry is one transposition-table slot, 10 bytes packed:
//
//	key16     high 16 bits of the position key, for cluster discrimination
//	move16    best move found
//	value16   score, bounded per genBound8
//	eval16    static evaluation at the node
//	depth8    search depth + depthOffset
//	genBound8 top 5 bits generation, bit 2 PV flag, bits 0-1 bound
type TTEntry struct {
	key16     uint16
	move16    uint16
	value16   int16
	eval16    int16
	depth8    uint8
	genBound8 uint8
}

// Move returns the stored best move. It may be corrupted by a racy write;
// callers must run it through board.PseudoLegal before trusting it.
func (e *TTEntry) Move() board.Move {
	return board.Move(e.move16)
}

// Value returns the stored (bounded) score.
func (e *TTEntry) Value() int16 {
	return e.value16
}

// Eval returns the stored static evaluation.
func (e *TTEntry) Eval() int16 {
	return e.eval16
}

// Depth returns the stored search depth.
func (e *TTEntry) Depth() int {
	return int(e.depth8) - depthOffset
}

// Bound returns the stored bound kind.
func (e *TTEntry) Bound() Bound {
	return Bound(e.genBound8 & 0x3)
}

// IsPV reports whether the entry was stored on a principal-variation node.
func (e *TTEntry) IsPV() bool {
	return e.genBound8&0x4 != 0
}

// ClusterSize is the number of entries probed together per cluster.
const ClusterSize = 3

const cacheLineSize = 64

// Cluster is a cache-line-sized bucket of entries: 3 x 10 bytes plus two
// bytes of padding make 32, so two clusters share a 64-byte line and one
// probe touches a single line.
type Cluster struct {
	entry [ClusterSize]TTEntry
	_     [2]byte
}

// TranspositionTable is a shared, fixed-capacity cache of previously
// evaluated positions keyed by the position hash. All workers read and
// write it concurrently without locks: entries are small enough that torn
// reads are rare, tolerated, and filtered by consumers (via PseudoLegal on
// the move, and by the fact that every cached value can be re-derived).
type TranspositionTable struct {
	mem          []byte    // oversized backing block, keeps table alive
	table        []Cluster // cache-line-aligned view into mem
	clusterCount uint64
	generation8  uint8 // steps by 8; the low three bits belong to PV/bound
}

// TT is the process-wide table instance.
var TT TranspositionTable

// Resize sets the table size in megabytes, dropping all stored data. It
// must be called from the main thread only; pool (if non-nil) is drained
// first so no worker is probing freed memory. A size the process cannot
// represent is fatal.
func (tt *TranspositionTable) Resize(mbSize int, pool *Pool) {
	if pool != nil {
		pool.WaitForSearchFinished()
	}

	clusterBytes := uint64(unsafe.Sizeof(Cluster{}))
	tt.clusterCount = uint64(mbSize) << 20 / clusterBytes
	if mbSize <= 0 || tt.clusterCount == 0 {
		log.Fatal().Int("mb", mbSize).Msg("failed to allocate transposition table")
	}

	// Release the previous block before allocating, then align the new
	// base address up to a cache line so clusters never straddle lines,
	// whatever the allocator returned.
	tt.mem = nil
	tt.table = nil
	tt.mem = make([]byte, tt.clusterCount*clusterBytes+cacheLineSize-1)

	base := uintptr(unsafe.Pointer(&tt.mem[0]))
	off := (cacheLineSize - base%cacheLineSize) % cacheLineSize
	tt.table = unsafe.Slice((*Cluster)(unsafe.Pointer(&tt.mem[off])), tt.clusterCount)

	threads := 1
	if pool != nil {
		threads = pool.Size()
	}
	tt.Clear(threads)
}

// Clear zero-fills the table, partitioned evenly across threadCount
// goroutines. Like Resize it requires search quiescence.
func (tt *TranspositionTable) Clear(threadCount int) {
	if threadCount < 1 {
		threadCount = 1
	}
	if uint64(threadCount) > tt.clusterCount {
		threadCount = int(tt.clusterCount)
	}

	var g errgroup.Group
	stride := tt.clusterCount / uint64(threadCount)
	for idx := 0; idx < threadCount; idx++ {
		start := stride * uint64(idx)
		length := stride
		if idx == threadCount-1 {
			length = tt.clusterCount - start
		}
		g.Go(func() error {
			clear(tt.table[start : start+length])
			return nil
		})
	}
	g.Wait()
}

// NewSearch starts a new generation. Called once when a search begins at a
// new root.
func (tt *TranspositionTable) NewSearch() {
	tt.generation8 += 8 // the low three bits are PV flag and bound
}

// Generation returns the current generation bits.
func (tt *TranspositionTable) Generation() uint8 {
	return tt.generation8
}

// FirstEntry returns the cluster a key maps to. The mapping multiplies the
// low 32 bits of the key with the cluster count and keeps the high part,
// which spreads keys evenly without requiring a power-of-two table and
// leaves the cluster index independent of the key16 stored in the entry.
func (tt *TranspositionTable) FirstEntry(key uint64) *Cluster {
	hi, _ := bits.Mul64(key<<32, tt.clusterCount)
	return &tt.table[hi]
}

// relativeAge computes the entry's age, eight per generation (the
// generation step), stable across the
// 8-bit wrap. 263 is the modulus 256 plus 7 to keep the unrelated low
// three bits from affecting the result.
func (tt *TranspositionTable) relativeAge(genBound uint8) int {
	return (263 + int(tt.generation8) - int(genBound)) & 0xF8
}

// Probe looks the key up. On a hit (or an empty slot) the entry's
// generation is refreshed and it is returned with found telling the two
// apart. On a full miss the cluster's least valuable entry is returned for
// the caller to overwrite via Save: value is depth minus the relative age
// (eight per generation of age), ties going to the earliest slot.
func (tt *TranspositionTable) Probe(key uint64) (entry *TTEntry, found bool) {
	cluster := tt.FirstEntry(key)
	key16 := uint16(key >> 48)

	for i := range cluster.entry {
		e := &cluster.entry[i]
		if e.key16 == 0 || e.key16 == key16 {
			e.genBound8 = tt.generation8 | (e.genBound8 & 0x7) // refresh
			return e, e.key16 != 0
		}
	}

	replace := &cluster.entry[0]
	for i := 1; i < ClusterSize; i++ {
		e := &cluster.entry[i]
		if int(replace.depth8)-tt.relativeAge(replace.genBound8) >
			int(e.depth8)-tt.relativeAge(e.genBound8) {
			replace = e
		}
	}
	return replace, false
}

// Save populates an entry returned by Probe. An existing move for the same
// position is preserved when the new one is null; the rest of the entry is
// overwritten only for a new position, a deeper (within 4 plies) search,
// or an exact bound. The write is not atomic and may race; see Probe.
func (tt *TranspositionTable) Save(e *TTEntry, key uint64, value int16, pv bool, bound Bound, depth int, move board.Move, eval int16) {
	newKey := uint16(key >> 48)

	if move != board.NoMove || newKey != e.key16 {
		e.move16 = uint16(move)
	}

	if newKey != e.key16 || depth > e.Depth()-4 || bound == BoundExact {
		e.key16 = newKey
		e.value16 = value
		e.eval16 = eval
		e.genBound8 = tt.generation8 | uint8(b2u(pv))<<2 | uint8(bound)
		e.depth8 = uint8(depth + depthOffset)
	}
}

// Hashfull estimates the per-mille fill rate of the current generation by
// sampling clusters at a fixed stride; empty slots do not count. Bigger
// tables get more samples.
func (tt *TranspositionTable) Hashfull() int {
	samples := 1000
	if tt.clusterCount > 64000000 {
		samples = 10000
	}
	stride := tt.clusterCount / uint64(samples)

	cnt := 0
	for i := 0; i < samples; i++ {
		c := &tt.table[uint64(i)*stride]
		for j := 0; j < ClusterSize; j++ {
			if e := &c.entry[j]; e.key16 != 0 && e.genBound8&0xF8 == tt.generation8 {
				cnt++
			}
		}
	}
	return cnt * 1000 / (samples * ClusterSize)
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
