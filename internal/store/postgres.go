package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/001_runs.sql
var runsSchema string

var runColumns = []string{
	"id::text", "created_at", "strategy", "cost_weight", "performance_weight",
	"backend", "cache_hit", "duration_ns", "solution",
}

// Postgres stores runs in a single table with the solution as JSONB.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
	index string
	psql  sq.StatementBuilderType
}

// NewPostgres opens a pool against dsn and verifies connectivity. An empty
// table name uses the default.
func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newPostgres(pool, table), nil
}

func newPostgres(pool *pgxpool.Pool, table string) *Postgres {
	if table == "" {
		table = constants.DefaultRunsTable
	}
	return &Postgres{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		index: pgx.Identifier{table + "_created_at_idx"}.Sanitize(),
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the runs table and its index when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, p.schema()); err != nil {
		return fmt.Errorf("migrate %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) schema() string {
	return strings.NewReplacer("{{table_index}}", p.index, "{{table}}", p.table).Replace(runsSchema)
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) SaveRun(ctx context.Context, run *Run) error {
	query, args, err := p.insertQuery(run)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (p *Postgres) insertQuery(run *Run) (string, []any, error) {
	solution, err := json.Marshal(run.Solution)
	if err != nil {
		return "", nil, fmt.Errorf("encode solution for run %s: %w", run.ID, err)
	}
	var totalCost float64
	if run.Solution != nil {
		totalCost = run.Solution.TotalCost
	}
	return p.psql.Insert(p.table).
		Columns("id", "created_at", "strategy", "cost_weight", "performance_weight",
			"backend", "cache_hit", "duration_ns", "total_cost", "solution").
		Values(run.ID.String(), run.CreatedAt, string(run.Strategy), run.Weights.Cost, run.Weights.Performance,
			run.Backend, run.CacheHit, int64(run.Duration), totalCost, solution).
		Suffix("ON CONFLICT (id) DO UPDATE SET solution = EXCLUDED.solution, total_cost = EXCLUDED.total_cost").
		ToSql()
}

func (p *Postgres) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query, args, err := p.psql.Select(runColumns...).
		From(p.table).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}
	run, err := scanRun(p.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query, args, err := p.listQuery(limit)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (p *Postgres) listQuery(limit int) (string, []any, error) {
	if limit <= 0 {
		limit = constants.DefaultRunListLimit
	}
	return p.psql.Select(runColumns...).
		From(p.table).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		id       string
		strategy string
		duration int64
		solution []byte
		run      Run
	)
	if err := row.Scan(&id, &run.CreatedAt, &strategy, &run.Weights.Cost, &run.Weights.Performance,
		&run.Backend, &run.CacheHit, &duration, &solution); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", id, err)
	}
	run.ID = parsed
	run.Strategy = optimizer.StrategyKind(strategy)
	run.Duration = time.Duration(duration)
	if err := json.Unmarshal(solution, &run.Solution); err != nil {
		return nil, fmt.Errorf("decode solution for run %s: %w", id, err)
	}
	return &run, nil
}
