package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Storage keys
const (
	keyOptions     = "options"
	benchKeyPrefix = "bench/"
	suiteKeyPrefix = "suite/"
)

// EngineOptions stores the tool settings that survive restarts.
type EngineOptions struct {
	HashMB   int       `json:"hash_mb"`
	Threads  int       `json:"threads"`
	Chess960 bool      `json:"chess960"`
	LastUsed time.Time `json:"last_used"`
}

// DefaultOptions returns the default engine options.
func DefaultOptions() *EngineOptions {
	return &EngineOptions{
		HashMB:  64,
		Threads: 1,
	}
}

// BenchRun records one finished benchmark or perft run.
type BenchRun struct {
	ID       string        `json:"id"`
	FEN      string        `json:"fen"`
	Depth    int           `json:"depth"`
	Threads  int           `json:"threads"`
	Nodes    uint64        `json:"nodes"`
	Duration time.Duration `json:"duration"`
	NPS      uint64        `json:"nps"`
	When     time.Time     `json:"when"`
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStorage opens the storage in the platform default location.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenStorage(dbDir)
}

// OpenStorage opens (or creates) the storage in a specific directory.
func OpenStorage(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Storage{db: db, encoder: encoder, decoder: decoder}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.encoder != nil {
		s.encoder.Close()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOptions saves the engine options.
func (s *Storage) SaveOptions(opts *EngineOptions) error {
	opts.LastUsed = time.Now()

	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// LoadOptions loads the engine options, returning defaults if not found.
func (s *Storage) LoadOptions() (*EngineOptions, error) {
	opts := DefaultOptions()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, opts)
		})
	})

	return opts, err
}

// RecordBenchRun appends a benchmark run to the history. A fresh run ID is
// assigned when the caller left it empty.
func (s *Storage) RecordBenchRun(run *BenchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.When.IsZero() {
		run.When = time.Now()
	}
	if run.NPS == 0 && run.Duration > 0 {
		run.NPS = uint64(float64(run.Nodes) / run.Duration.Seconds())
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	key := benchKeyPrefix + run.When.UTC().Format(time.RFC3339Nano) + "/" + run.ID
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// ListBenchRuns returns all recorded runs in chronological order.
func (s *Storage) ListBenchRuns() ([]BenchRun, error) {
	var runs []BenchRun

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(benchKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var run BenchRun
				if err := json.Unmarshal(val, &run); err != nil {
					return err
				}
				runs = append(runs, run)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return runs, err
}

// SaveSuite stores a named test-suite blob (EPD or FEN lines),
// zstd-compressed. Suites run to megabytes and compress extremely well.
func (s *Storage) SaveSuite(name string, data []byte) error {
	compressed := s.encoder.EncodeAll(data, nil)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(suiteKeyPrefix+name), compressed)
	})
}

// LoadSuite returns a stored test-suite blob, decompressed.
func (s *Storage) LoadSuite(name string) ([]byte, error) {
	var out []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(suiteKeyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out, err = s.decoder.DecodeAll(val, nil)
			return err
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("suite %q not found", name)
	}
	return out, err
}
