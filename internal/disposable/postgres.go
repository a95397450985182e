package disposable

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads the list from a disposable_domains table, so
// operators can curate it without a redeploy.
type PostgresSource struct {
	DSN string
}

func (s *PostgresSource) Name() string { return "postgres" }

// Load connects, makes sure the table exists and reads every row. The pool
// is closed afterwards since the set is loaded only once.
func (s *PostgresSource) Load(ctx context.Context) ([]string, error) {
	if s.DSN == "" {
		return nil, fmt.Errorf("postgres source: empty DSN")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(connectCtx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `SELECT domain FROM disposable_domains ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("querying disposable domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning disposable domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading disposable domains: %w", err)
	}
	return domains, nil
}

// runMigrations creates the table if it doesn't exist
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
	CREATE TABLE IF NOT EXISTS disposable_domains (
		domain TEXT PRIMARY KEY,
		added_at TIMESTAMP DEFAULT NOW()
	);`

	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("migration failed (disposable_domains): %w", err)
	}
	return nil
}
