package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/edutoken/internal/token"
	"go.uber.org/zap"
)

// advisoryLockKey serialises concurrent Append calls across tokend instances
// sharing one database.
const advisoryLockKey = int64(2_044_171_905)

var schema = []string{`
CREATE TABLE IF NOT EXISTS token_journal (
	idx        integer     PRIMARY KEY,
	seq        integer     NOT NULL DEFAULT -1,
	timestamp  timestamptz NOT NULL,
	tx_id      text        NOT NULL DEFAULT '',
	tx_type    text        NOT NULL,
	from_id    text        NOT NULL DEFAULT '',
	to_id      text        NOT NULL DEFAULT '',
	amount     bigint      NOT NULL DEFAULT 0,
	prev_hash  text        NOT NULL,
	hash       text        NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS token_journal_tx_id ON token_journal (tx_id) WHERE tx_id <> ''`,
}

const selectColumns = `idx, seq, timestamp, tx_id, tx_type, from_id, to_id, amount, prev_hash, hash`

// PostgresJournal writes the journal chain to PostgreSQL.
type PostgresJournal struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a PostgresJournal backed by the given pool.
// Call EnsureSchema once before use.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *PostgresJournal {
	return &PostgresJournal{pool: pool, logger: logger}
}

// EnsureSchema creates the token_journal table and its genesis row if they
// do not exist yet.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := j.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create token_journal: %w", err)
		}
	}
	g := genesisEntry()
	if _, err := j.pool.Exec(ctx,
		`INSERT INTO token_journal (idx, seq, timestamp, tx_type, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (idx) DO NOTHING`,
		g.Index, g.Seq, g.Timestamp, string(g.TxType), g.PrevHash, g.Hash,
	); err != nil {
		return fmt.Errorf("insert genesis entry: %w", err)
	}
	return nil
}

// Append implements Journal. The tail read and insert run in one
// transaction under an advisory lock.
func (j *PostgresJournal) Append(ctx context.Context, tx token.Transaction) (*Entry, error) {
	dbTx, err := j.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := dbTx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var prevIdx int
	var prevHash string
	if err := dbTx.QueryRow(ctx,
		"SELECT idx, hash FROM token_journal ORDER BY idx DESC LIMIT 1",
	).Scan(&prevIdx, &prevHash); err != nil {
		return nil, fmt.Errorf("read journal tail: %w", err)
	}

	entry := newEntry(prevIdx+1, prevHash, tx)
	if _, err := dbTx.Exec(ctx,
		`INSERT INTO token_journal (`+selectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.Index, entry.Seq, entry.Timestamp, entry.TxID, string(entry.TxType),
		entry.From, entry.To, entry.Amount, entry.PrevHash, entry.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit journal tx: %w", err)
	}

	j.logger.Debug("journal entry appended",
		zap.Int("idx", entry.Index),
		zap.Int("seq", entry.Seq),
		zap.String("tx_type", string(entry.TxType)),
		zap.String("tx_id", entry.TxID),
	)
	return entry, nil
}

// Get implements Journal.
func (j *PostgresJournal) Get(ctx context.Context, index int) (*Entry, error) {
	row := j.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM token_journal WHERE idx = $1`, index)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: index %d", ErrEntryNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry %d: %w", index, err)
	}
	return entry, nil
}

// Lookup implements Journal.
func (j *PostgresJournal) Lookup(ctx context.Context, txID string) (*Entry, error) {
	row := j.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM token_journal
		 WHERE tx_id = $1 AND tx_id <> '' ORDER BY idx DESC LIMIT 1`, txID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: tx %s", ErrEntryNotFound, txID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup journal tx %s: %w", txID, err)
	}
	return entry, nil
}

// Tail implements Journal.
func (j *PostgresJournal) Tail(ctx context.Context, n int) ([]*Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := j.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM (
			SELECT `+selectColumns+` FROM token_journal
			WHERE idx > 0 ORDER BY idx DESC LIMIT $1
		 ) t ORDER BY idx ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("query journal tail: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Len implements Journal.
func (j *PostgresJournal) Len(ctx context.Context) (int, error) {
	var n int
	if err := j.pool.QueryRow(ctx, "SELECT COUNT(*) FROM token_journal").Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

// Verify implements Journal. It streams every row in index order; cost is
// linear in the chain length.
func (j *PostgresJournal) Verify(ctx context.Context) error {
	rows, err := j.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM token_journal ORDER BY idx ASC`)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var prev *Entry
	for rows.Next() {
		curr, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("scan journal row: %w", err)
		}
		if err := verifyLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Journal.
func (j *PostgresJournal) Root(ctx context.Context) (string, error) {
	var hash string
	if err := j.pool.QueryRow(ctx,
		"SELECT hash FROM token_journal ORDER BY idx DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get journal root: %w", err)
	}
	return hash, nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	var txType string
	if err := row.Scan(
		&e.Index, &e.Seq, &e.Timestamp, &e.TxID, &txType,
		&e.From, &e.To, &e.Amount, &e.PrevHash, &e.Hash,
	); err != nil {
		return nil, err
	}
	e.TxType = token.TxType(txType)
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}
