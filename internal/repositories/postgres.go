package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG implements Stores over Postgres. The zero pool marks a transaction-bound
// instance, whose WithinTx joins the open transaction instead of nesting.
type PG struct {
	pool *pgxpool.Pool
	q    Querier
}

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool, q: pool}
}

func (p *PG) Orders() OrderStore     { return &OrderRepo{q: p.q} }
func (p *PG) Disputes() DisputeStore { return &DisputeRepo{q: p.q} }
func (p *PG) Listings() ListingStore { return &ListingRepo{q: p.q} }
func (p *PG) Profiles() ProfileStore { return &ProfileRepo{q: p.q} }
func (p *PG) Audit() AuditStore      { return &AuditRepo{q: p.q} }

func (p *PG) WithinTx(ctx context.Context, fn func(tx Stores) error) error {
	if p.pool == nil {
		return fn(p)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&PG{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
