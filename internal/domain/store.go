package domain

import "context"

// Repositories groups the repository accessors. Inside WithinTx every
// accessor is bound to the same transaction.
type Repositories interface {
	Tenants() TenantRepository
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Audit() AuditRepository
}

// Store is the persistence boundary used by the service layer.
type Store interface {
	Repositories
	// WithinTx runs fn in a single transaction. fn returning an error rolls
	// the transaction back.
	WithinTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
}
