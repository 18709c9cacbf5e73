// Package checkpoint persists the header ranges the operator fetched from
// the source chain, so a restart after a failed cycle does not have to
// re-fetch headers it already pulled. This is a supplementary feature: the
// core advancement search itself is stateless (spec §9, "Light-client
// state is an artifact, not required") — this cache only shortcuts
// fetch_headers, never the trust decision.
//
// Cached batches are integrity-checked with a small Merkle tree, adapted
// from the validator's batch-commitment tree, so a half-written cache file
// (crash mid-write) is detected by root mismatch rather than trusted
// blindly.
package checkpoint

import (
	"encoding/binary"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/merkle"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// Store is a local on-disk cache of fetched header batches, keyed by
// height. It is an optimization only: callers must treat a cache miss the
// same as "not yet fetched" and fall back to the source-chain client.
type Store struct {
	db dbm.DB
}

// Open opens (creating if absent) a goleveldb-backed checkpoint store at
// dir/name.
func Open(dir, name string) (*Store, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const rootKeySuffix = "/root"

// PutRange caches a contiguous header batch and records a Merkle root over
// its encoded leaves so a later Get can detect corruption.
func (s *Store) PutRange(start int64, headers []tendermint.Header) error {
	if len(headers) == 0 {
		return nil
	}

	leaves := make([][]byte, len(headers))
	batch := s.db.NewBatch()
	defer batch.Close()

	for i, h := range headers {
		encoded := encodeHeader(h)
		leaves[i] = merkle.HashData(encoded)
		key := rangeKey(start + int64(i))
		if err := batch.Set(key, encoded); err != nil {
			return fmt.Errorf("stage header %d: %w", start+int64(i), err)
		}
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return fmt.Errorf("build checkpoint integrity tree: %w", err)
	}
	if err := batch.Set([]byte(fmt.Sprintf("range:%d:%d%s", start, start+int64(len(headers)), rootKeySuffix)), tree.Root()); err != nil {
		return fmt.Errorf("stage integrity root: %w", err)
	}

	return batch.Write()
}

// GetRange returns a previously cached batch if present and its integrity
// root still matches; a (nil, false, nil) return means "not cached",
// which callers treat as a normal cache miss, not an error.
func (s *Store) GetRange(start, end int64) ([]tendermint.Header, bool, error) {
	storedRoot, err := s.db.Get([]byte(fmt.Sprintf("range:%d:%d%s", start, end, rootKeySuffix)))
	if err != nil {
		return nil, false, fmt.Errorf("read integrity root: %w", err)
	}
	if storedRoot == nil {
		return nil, false, nil
	}

	headers := make([]tendermint.Header, end-start)
	leaves := make([][]byte, end-start)
	for i := start; i < end; i++ {
		raw, err := s.db.Get(rangeKey(i))
		if err != nil {
			return nil, false, fmt.Errorf("read cached header %d: %w", i, err)
		}
		if raw == nil {
			return nil, false, nil
		}
		headers[i-start] = decodeHeader(raw)
		leaves[i-start] = merkle.HashData(raw)
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, false, fmt.Errorf("rebuild integrity tree: %w", err)
	}
	if string(tree.Root()) != string(storedRoot) {
		return nil, false, fmt.Errorf("checkpoint cache corrupted: root mismatch for range [%d,%d)", start, end)
	}

	return headers, true, nil
}

func rangeKey(height int64) []byte {
	key := make([]byte, 9)
	key[0] = 'h'
	binary.BigEndian.PutUint64(key[1:], uint64(height))
	return key
}

func encodeHeader(h tendermint.Header) []byte {
	buf := make([]byte, 8+32+32+32)
	binary.BigEndian.PutUint64(buf[0:8], h.Height)
	copy(buf[8:40], h.LastResultsHash[:])
	copy(buf[40:72], h.LastBlockIDHash[:])
	copy(buf[72:104], h.HeaderHash[:])
	return buf
}

func decodeHeader(buf []byte) tendermint.Header {
	var h tendermint.Header
	h.Height = binary.BigEndian.Uint64(buf[0:8])
	copy(h.LastResultsHash[:], buf[8:40])
	copy(h.LastBlockIDHash[:], buf[40:72])
	copy(h.HeaderHash[:], buf[72:104])
	return h
}
