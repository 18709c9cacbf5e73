package checkpoint

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/merkle"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// PostgresStore is the shared-cursor alternative to Store: several operator
// replicas can fail over onto one Postgres instance instead of each keeping
// its own goleveldb directory, per the D1 deployment note (manual failover
// implies the operator is not always a singleton process).
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and ensures the checkpoint tables exist.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres checkpoint store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres checkpoint store: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS checkpoint_headers (
	height BIGINT PRIMARY KEY,
	last_results_hash BYTEA NOT NULL,
	last_block_id_hash BYTEA NOT NULL,
	header_hash BYTEA NOT NULL
);
CREATE TABLE IF NOT EXISTS checkpoint_ranges (
	range_start BIGINT NOT NULL,
	range_end BIGINT NOT NULL,
	root BYTEA NOT NULL,
	PRIMARY KEY (range_start, range_end)
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// PutRange caches a contiguous header batch and its integrity root, the same
// contract as Store.PutRange.
func (s *PostgresStore) PutRange(start int64, headers []tendermint.Header) error {
	if len(headers) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer tx.Rollback()

	leaves := make([][]byte, len(headers))
	for i, h := range headers {
		encoded := encodeHeader(h)
		leaves[i] = merkle.HashData(encoded)

		_, err := tx.Exec(
			`INSERT INTO checkpoint_headers (height, last_results_hash, last_block_id_hash, header_hash)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (height) DO UPDATE SET
			   last_results_hash = EXCLUDED.last_results_hash,
			   last_block_id_hash = EXCLUDED.last_block_id_hash,
			   header_hash = EXCLUDED.header_hash`,
			start+int64(i), h.LastResultsHash[:], h.LastBlockIDHash[:], h.HeaderHash[:],
		)
		if err != nil {
			return fmt.Errorf("stage header %d: %w", start+int64(i), err)
		}
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return fmt.Errorf("build checkpoint integrity tree: %w", err)
	}

	end := start + int64(len(headers))
	_, err = tx.Exec(
		`INSERT INTO checkpoint_ranges (range_start, range_end, root) VALUES ($1, $2, $3)
		 ON CONFLICT (range_start, range_end) DO UPDATE SET root = EXCLUDED.root`,
		start, end, tree.Root(),
	)
	if err != nil {
		return fmt.Errorf("stage integrity root: %w", err)
	}

	return tx.Commit()
}

// GetRange mirrors Store.GetRange: a (nil, false, nil) return means a clean
// cache miss.
func (s *PostgresStore) GetRange(start, end int64) ([]tendermint.Header, bool, error) {
	var storedRoot []byte
	err := s.db.QueryRow(
		`SELECT root FROM checkpoint_ranges WHERE range_start = $1 AND range_end = $2`,
		start, end,
	).Scan(&storedRoot)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read integrity root: %w", err)
	}

	headers := make([]tendermint.Header, end-start)
	leaves := make([][]byte, end-start)

	for i := start; i < end; i++ {
		var h tendermint.Header
		var lastResultsHash, lastBlockIDHash, headerHash []byte
		err := s.db.QueryRow(
			`SELECT last_results_hash, last_block_id_hash, header_hash FROM checkpoint_headers WHERE height = $1`,
			i,
		).Scan(&lastResultsHash, &lastBlockIDHash, &headerHash)
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("read cached header %d: %w", i, err)
		}

		h.Height = uint64(i)
		copy(h.LastResultsHash[:], lastResultsHash)
		copy(h.LastBlockIDHash[:], lastBlockIDHash)
		copy(h.HeaderHash[:], headerHash)

		headers[i-start] = h
		leaves[i-start] = merkle.HashData(encodeHeader(h))
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
