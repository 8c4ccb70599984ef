package domain

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusTrial     TenantStatus = "trial"
	TenantStatusSuspended TenantStatus = "suspended"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusActive, TenantStatusTrial, TenantStatusSuspended:
		return true
	default:
		return false
	}
}

type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

// Limits returns the default user and project caps for the plan.
func (p SubscriptionPlan) Limits() (maxUsers, maxProjects int) {
	switch p {
	case PlanPro:
		return 25, 15
	case PlanEnterprise:
		return 100, 50
	default:
		return 5, 3
	}
}

type Tenant struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Subdomain        string           `json:"subdomain"`
	Status           TenantStatus     `json:"status"`
	SubscriptionPlan SubscriptionPlan `json:"subscriptionPlan"`
	MaxUsers         int              `json:"maxUsers"`
	MaxProjects      int              `json:"maxProjects"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61}[a-z0-9])$`)

// NormalizeSubdomain lowercases and trims a subdomain slug.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewTenant creates a Tenant on the given plan with that plan's limits.
func NewTenant(name, subdomain string, plan SubscriptionPlan) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrValidation, "Tenant name is required")
	}
	subdomain = NormalizeSubdomain(subdomain)
	if !subdomainPattern.MatchString(subdomain) {
		return nil, NewError(ErrValidation, "Subdomain must be 3-63 lowercase letters, digits or hyphens")
	}
	if plan == "" {
		plan = PlanFree
	}
	if !plan.Valid() {
		return nil, NewError(ErrValidation, "Invalid subscription plan")
	}
	maxUsers, maxProjects := plan.Limits()
	now := time.Now()
	return &Tenant{
		ID:               uuid.New(),
		Name:             name,
		Subdomain:        subdomain,
		Status:           TenantStatusActive,
		SubscriptionPlan: plan,
		MaxUsers:         maxUsers,
		MaxProjects:      maxProjects,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// TenantStats summarizes the resources owned by a tenant.
type TenantStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalProjects int `json:"totalProjects"`
	TotalTasks    int `json:"totalTasks"`
}

// TenantPatch carries the fields of a partial tenant update. Nil means unchanged.
type TenantPatch struct {
	Name             *string
	Status           *TenantStatus
	SubscriptionPlan *SubscriptionPlan
	MaxUsers         *int
	MaxProjects      *int
}

func (p TenantPatch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.SubscriptionPlan == nil &&
		p.MaxUsers == nil && p.MaxProjects == nil
}

// NameOnly reports whether the patch touches nothing but the name.
func (p TenantPatch) NameOnly() bool {
	return p.Status == nil && p.SubscriptionPlan == nil && p.MaxUsers == nil && p.MaxProjects == nil
}

// Validate checks enum values and limit bounds.
func (p TenantPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewError(ErrValidation, "Tenant name cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewError(ErrValidation, "Invalid tenant status")
	}
	if p.SubscriptionPlan != nil && !p.SubscriptionPlan.Valid() {
		return NewError(ErrValidation, "Invalid subscription plan")
	}
	if p.MaxUsers != nil && *p.MaxUsers < 1 {
		return NewError(ErrValidation, "maxUsers must be at least 1")
	}
	if p.MaxProjects != nil && *p.MaxProjects < 1 {
		return NewError(ErrValidation, "maxProjects must be at least 1")
	}
	return nil
}

type TenantFilter struct {
	Status           TenantStatus
	SubscriptionPlan SubscriptionPlan
	Page
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	// LockByID reads the tenant with SELECT ... FOR UPDATE. Only meaningful
	// inside a transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Update(ctx context.Context, id uuid.UUID, patch TenantPatch) (*Tenant, error)
	SetStatus(ctx context.Context, id uuid.UUID, status TenantStatus) error
	List(ctx context.Context, filter TenantFilter) ([]*Tenant, int, error)
	Stats(ctx context.Context, id uuid.UUID) (*TenantStats, error)
	Count(ctx context.Context) (int, error)
}
