package journal_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/edutoken/internal/journal"
	"github.com/jmerrifield20/edutoken/internal/token"
	"go.uber.org/zap"
)

// newTestPostgres returns a PostgresJournal in a throwaway schema. The test
// is skipped unless DATABASE_URL is set.
func newTestPostgres(t *testing.T) *journal.PostgresJournal {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(admin.Close)

	schemaName := fmt.Sprintf("journal_test_%d", time.Now().UnixNano())
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schemaName); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schemaName+" CASCADE")
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schemaName
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	j := journal.NewPostgres(pool, zap.NewNop())
	if err := j.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	return j
}

func TestPostgres_roundTripVerifies(t *testing.T) {
	j := newTestPostgres(t)
	ledger := token.MustNew("EduCoin", "EDU", 1_000_000, "admin")

	var last *journal.Entry
	for _, to := range []string{"user1", "user2", "user3"} {
		res := ledger.Transfer("admin", to, 1000)
		e, err := j.Append(ctx, *res.Transaction)
		if err != nil {
			t.Fatal(err)
		}
		last = e
	}

	if err := j.Verify(ctx); err != nil {
		t.Fatalf("Verify after round trip: %v", err)
	}
	if err := journal.CheckMirror(ctx, j, ledger.TransactionHistory()); err != nil {
		t.Fatalf("CheckMirror: %v", err)
	}

	n, _ := j.Len(ctx)
	if n != 4 {
		t.Errorf("expected 4 entries, got %d", n)
	}
	root, _ := j.Root(ctx)
	if root != last.Hash {
		t.Errorf("Root: got %q, want %q", root, last.Hash)
	}

	got, err := j.Get(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 1 || got.To != "user2" {
		t.Errorf("unexpected entry: %+v", got)
	}

	e, err := j.Lookup(ctx, last.TxID)
	if err != nil || e.Index != 3 {
		t.Errorf("Lookup: %+v %v", e, err)
	}
	if _, err := j.Lookup(ctx, uuid.NewString()); err == nil {
		t.Error("expected error for unknown tx")
	}

	// EnsureSchema is idempotent and keeps the chain
	if err := j.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if err := j.Verify(ctx); err != nil {
		t.Errorf("Verify after second EnsureSchema: %v", err)
	}
}
