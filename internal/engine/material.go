package engine

import "github.com/hailam/chesscore/internal/board"

// materialTableMB sizes each worker's material cache. The table is tiny on
// purpose: material configurations repeat constantly within a search.
const materialTableMB = 1

// MaterialEntry caches per-configuration data keyed by the material key,
// so a node can pick it up without rescanning the piece counts.
type MaterialEntry struct {
	Key             uint64
	NonPawnMaterial [2]int32
	PieceCount      uint8
	PawnCount       [2]uint8
}

// MaterialTable is a per-worker, power-of-two-sized cache indexed by the
// material key. It is strictly thread-owned: no locks, no sharing.
type MaterialTable struct {
	entries []MaterialEntry
	mask    uint64
}

// NewMaterialTable creates a material table of the given size in MB.
func NewMaterialTable(sizeMB int) *MaterialTable {
	entrySize := 24
	numEntries := sizeMB * 1024 * 1024 / entrySize

	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &MaterialTable{
		entries: make([]MaterialEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the entry for the position's material configuration,
// computing and caching it on a miss.
func (mt *MaterialTable) Probe(pos *board.Position) *MaterialEntry {
	key := pos.MaterialKey()
	e := &mt.entries[key&mt.mask]
	if e.Key == key {
		return e
	}

	e.Key = key
	e.NonPawnMaterial[board.White] = int32(pos.NonPawnMaterial(board.White))
	e.NonPawnMaterial[board.Black] = int32(pos.NonPawnMaterial(board.Black))
	e.PieceCount = uint8(pos.All().PopCount())
	e.PawnCount[board.White] = uint8(pos.Pieces(board.White, board.Pawn).PopCount())
	e.PawnCount[board.Black] = uint8(pos.Pieces(board.Black, board.Pawn).PopCount())
	return e
}

// Clear drops all cached configurations.
func (mt *MaterialTable) Clear() {
	clear(mt.entries)
}
