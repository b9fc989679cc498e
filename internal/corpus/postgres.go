package corpus

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobrec/internal/domain"
)

// DefaultQuery selects the active jobs. Custom queries must return
// job_id, title, description and role in that order.
const DefaultQuery = `SELECT job_id, title, description, role FROM jobs WHERE is_active = true`

// URLEnvFallbacks are consulted in order when no URL is configured.
var URLEnvFallbacks = []string{"DATABASE_URL", "JOB_DB_URL", "DB_URL"}

// PostgresConfig configures the PostgreSQL provider.
type PostgresConfig struct {
	URL    string
	URLEnv string
	Query  string
}

// ResolveURL returns the configured URL, or the first non-empty of URLEnv and URLEnvFallbacks.
func (c PostgresConfig) ResolveURL() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	envs := URLEnvFallbacks
	if c.URLEnv != "" {
		envs = append([]string{c.URLEnv}, envs...)
	}
	for _, name := range envs {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("no database URL: set one of %v", envs)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads job records from a jobs table.
type Postgres struct {
	db    querier
	pool  *pgxpool.Pool
	query string
}

var _ domain.CorpusProvider = (*Postgres)(nil)

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	url, err := cfg.ResolveURL()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	query := cfg.Query
	if query == "" {
		query = DefaultQuery
	}
	return &Postgres{db: pool, pool: pool, query: query}, nil
}

// Name returns the provider name.
func (p *Postgres) Name() string { return "postgres" }

// Close releases the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Jobs runs the query. The matching text is title, role and description joined by spaces.
func (p *Postgres) Jobs(ctx context.Context) ([]domain.JobRecord, error) {
	rows, err := p.db.Query(ctx, p.query)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	jobs, err := pgx.CollectRows(rows, scanJob)
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.CollectableRow) (domain.JobRecord, error) {
	var (
		id                       int64
		title, description, role *string
	)
	if err := row.Scan(&id, &title, &description, &role); err != nil {
		return domain.JobRecord{}, err
	}
	return domain.JobRecord{
		ID:    id,
		Title: deref(title),
		Text:  JoinFields(deref(title), deref(role), deref(description)),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
