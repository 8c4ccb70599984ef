// Package memory is an in-process domain.Store. It backs the "memory" store
// driver for local runs and is the fixture most service and handler tests
// are built on.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

// ErrForeignKey mirrors a foreign key violation in the SQL store.
var ErrForeignKey = errors.New("memory: foreign key violation")

type state struct {
	tenants  map[uuid.UUID]domain.Tenant
	users    map[uuid.UUID]domain.User
	projects map[uuid.UUID]domain.Project
	tasks    map[uuid.UUID]domain.Task
	audit    []domain.AuditEntry
}

func newState() *state {
	return &state{
		tenants:  make(map[uuid.UUID]domain.Tenant),
		users:    make(map[uuid.UUID]domain.User),
		projects: make(map[uuid.UUID]domain.Project),
		tasks:    make(map[uuid.UUID]domain.Task),
	}
}

func (s *state) clone() *state {
	c := &state{
		tenants:  make(map[uuid.UUID]domain.Tenant, len(s.tenants)),
		users:    make(map[uuid.UUID]domain.User, len(s.users)),
		projects: make(map[uuid.UUID]domain.Project, len(s.projects)),
		tasks:    make(map[uuid.UUID]domain.Task, len(s.tasks)),
		audit:    make([]domain.AuditEntry, len(s.audit)),
	}
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	copy(c.audit, s.audit)
	return c
}

// Store keeps all rows in maps guarded by one mutex. A transaction holds the
// mutex for its whole duration and works on a copy that replaces the live
// data on commit, so transactions are fully serialized. Repositories obtained
// from the Store itself must not be used inside a WithinTx callback.
type Store struct {
	mu   sync.Mutex
	data *state

	commits   int
	rollbacks int
	failAudit error
}

var _ domain.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{data: newState()}
}

type repos struct {
	s  *Store
	st *state // set inside a transaction
}

func (r repos) Tenants() domain.TenantRepository   { return tenantRepo{r} }
func (r repos) Users() domain.UserRepository       { return userRepo{r} }
func (r repos) Projects() domain.ProjectRepository { return projectRepo{r} }
func (r repos) Tasks() domain.TaskRepository       { return taskRepo{r} }
func (r repos) Audit() domain.AuditRepository      { return auditRepo{r} }

// do runs fn against the transaction copy, or against the live data under
// the lock when called outside a transaction.
func (r repos) do(fn func(st *state) error) error {
	if r.st != nil {
		return fn(r.st)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(r.s.data)
}

func (s *Store) Tenants() domain.TenantRepository   { return repos{s: s}.Tenants() }
func (s *Store) Users() domain.UserRepository       { return repos{s: s}.Users() }
func (s *Store) Projects() domain.ProjectRepository { return repos{s: s}.Projects() }
func (s *Store) Tasks() domain.TaskRepository       { return repos{s: s}.Tasks() }
func (s *Store) Audit() domain.AuditRepository      { return repos{s: s}.Audit() }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WithinTx runs fn on a private copy of the data and publishes the copy only
// when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory.WithinTx: %w", err)
	}

	tx := s.data.clone()
	if err := fn(repos{s: s, st: tx}); err != nil {
		s.rollbacks++
		return err
	}

	s.data = tx
	s.commits++
	return nil
}

// Commits reports how many transactions were committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks reports how many transactions were rolled back.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// FailAudit makes every following audit insert return err. Pass nil to reset.
func (s *Store) FailAudit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAudit = err
}

// AuditEntries returns a copy of every stored audit row, oldest first.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEntry, len(s.data.audit))
	copy(out, s.data.audit)
	return out
}

func conflict(constraint string) error {
	return fmt.Errorf("%w: %s", domain.ErrConflict, constraint)
}

func paginate[T any](items []T, page domain.Page) []T {
	off := page.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 && off+page.Limit < end {
		end = off + page.Limit
	}
	return items[off:end]
}

func matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

func ptr[T any](v T) *T { return &v }
