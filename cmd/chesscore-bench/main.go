// chesscore-bench drives the position core from the command line: perft
// (serial or split across a worker pool), divide output for movegen
// debugging, and a transposition-table stress run with a hashfull report.
package main

import (
	"flag"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

func main() {
	var (
		fen      = flag.String("fen", board.StartFEN, "position to search from")
		depth    = flag.Int("depth", 5, "perft depth")
		threads  = flag.Int("threads", runtime.NumCPU(), "worker count")
		hashMB   = flag.Int("hash", 64, "transposition table size in MB")
		chess960 = flag.Bool("chess960", false, "use Chess960 castling rules")
		divide   = flag.Bool("divide", false, "print per-root-move counts")
		ttStress = flag.Bool("ttstress", false, "hammer the shared TT from all workers")
		store    = flag.Bool("store", false, "record the run in the local database")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	pool := engine.NewPool(*threads)
	engine.TT.Resize(*hashMB, pool)

	if *ttStress {
		stressTT(pool)
		return
	}

	if *divide {
		div, err := pool.Divide(*fen, *chess960, *depth)
		if err != nil {
			log.Fatal().Err(err).Msg("divide failed")
		}
		var total uint64
		for mv, n := range div {
			log.Info().Str("move", mv).Uint64("nodes", n).Msg("divide")
			total += n
		}
		log.Info().Uint64("total", total).Msg("divide done")
		return
	}

	start := time.Now()
	nodes, err := pool.PerftParallel(*fen, *chess960, *depth)
	if err != nil {
		log.Fatal().Err(err).Msg("perft failed")
	}
	elapsed := time.Since(start)

	nps := uint64(0)
	if elapsed > 0 {
		nps = uint64(float64(nodes) / elapsed.Seconds())
	}
	log.Info().
		Str("fen", *fen).
		Int("depth", *depth).
		Int("threads", *threads).
		Uint64("nodes", nodes).
		Dur("time", elapsed).
		Uint64("nps", nps).
		Msg("perft done")

	if *store {
		recordRun(*fen, *depth, *threads, nodes, elapsed, nps)
	}
}

// stressTT probes and saves pseudo-random keys from every worker
// concurrently, then reports the fill estimate. Writes race by design;
// moves read back are filtered through PseudoLegal like a search would.
func stressTT(pool *engine.Pool) {
	pos := board.NewPosition()
	legal := pos.GenerateLegalMoves()

	const perWorker = 2_000_000
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < pool.Size(); i++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			key := seed*0x9E3779B97F4A7C15 + 1
			hits, torn := 0, 0
			for n := 0; n < perWorker; n++ {
				key = key*6364136223846793005 + 1442695040888963407
				e, found := engine.TT.Probe(key)
				if found {
					hits++
					if m := e.Move(); m != board.NoMove && !pos.PseudoLegal(m) {
						torn++
					}
				}
				engine.TT.Save(e, key, int16(n), false, engine.BoundLower, n%24,
					legal.Get(n%legal.Len()), 0)
			}
			log.Debug().Uint64("seed", seed).Int("hits", hits).Int("torn", torn).Msg("stress worker done")
		}(uint64(i + 1))
	}
	wg.Wait()

	log.Info().
		Int("workers", pool.Size()).
		Int("stores", pool.Size()*perWorker).
		Dur("time", time.Since(start)).
		Int("hashfull", engine.TT.Hashfull()).
		Msg("tt stress done")
}

func recordRun(fen string, depth, threads int, nodes uint64, elapsed time.Duration, nps uint64) {
	s, err := storage.NewStorage()
	if err != nil {
		log.Error().Err(err).Msg("open storage")
		return
	}
	defer s.Close()

	run := &storage.BenchRun{
		FEN:      fen,
		Depth:    depth,
		Threads:  threads,
		Nodes:    nodes,
		Duration: elapsed,
		NPS:      nps,
	}
	if err := s.RecordBenchRun(run); err != nil {
		log.Error().Err(err).Msg("record bench run")
		return
	}
	log.Info().Str("id", run.ID).Msg("run recorded")
}
