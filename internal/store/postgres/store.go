package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/taskhub/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so every repository
// runs unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repos struct {
	tenants  *TenantRepo
	users    *UserRepo
	projects *ProjectRepo
	tasks    *TaskRepo
	audit    *AuditRepo
}

func newRepos(db querier) repos {
	return repos{
		tenants:  NewTenantRepo(db),
		users:    NewUserRepo(db),
		projects: NewProjectRepo(db),
		tasks:    NewTaskRepo(db),
		audit:    NewAuditRepo(db),
	}
}

func (r repos) Tenants() domain.TenantRepository   { return r.tenants }
func (r repos) Users() domain.UserRepository       { return r.users }
func (r repos) Projects() domain.ProjectRepository { return r.projects }
func (r repos) Tasks() domain.TaskRepository       { return r.tasks }
func (r repos) Audit() domain.AuditRepository      { return r.audit }

type Store struct {
	pool *pgxpool.Pool
	repos
}

var _ domain.Store = (*Store)(nil) //nolint:gochecknoglobals // compile-time check

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:  pool,
		repos: newRepos(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Store.Ping: %w", err)
	}
	return nil
}

// WithinTx runs fn with repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise,
// including on panic.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.Store.WithinTx: begin: %w", err)
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Store.WithinTx: commit: %w", err)
	}
	return nil
}
