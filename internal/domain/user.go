package domain

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     *uuid.UUID `json:"tenantId"` // nil only for the super admin
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // bcrypt
	FullName     string     `json:"fullName"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserRef is the compact user shape embedded in other resources.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports a validation error for malformed addresses.
func ValidateEmail(email string) error {
	if email == "" {
		return NewError(ErrValidation, "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewError(ErrValidation, "Invalid email address")
	}
	return nil
}

// NewUser builds an active tenant-scoped user. The password hash is set by the caller.
func NewUser(tenantID uuid.UUID, email, fullName string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, NewError(ErrValidation, "Full name is required")
	}
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleTenantAdmin {
		return nil, NewError(ErrValidation, "Role must be user or tenant_admin")
	}
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		TenantID:  &tenantID,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UserPatch carries the fields of a partial user update. Nil means unchanged.
type UserPatch struct {
	FullName *string
	Role     *Role
	IsActive *bool
}

func (p UserPatch) Empty() bool {
	return p.FullName == nil && p.Role == nil && p.IsActive == nil
}

// SelfService reports whether the patch only touches fields any user may
// change on their own account.
func (p UserPatch) SelfService() bool {
	return p.Role == nil && p.IsActive == nil
}

func (p UserPatch) Validate() error {
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		return NewError(ErrValidation, "Full name cannot be empty")
	}
	if p.Role != nil && !p.Role.Valid() {
		return NewError(ErrValidation, "Invalid role")
	}
	return nil
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	u.UpdatedAt = time.Now()
}

type UserFilter struct {
	Role     Role
	Search   string
	IsActive *bool
	Page
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	// FindByID looks a user up without a tenant filter. Used only to resolve
	// the owning tenant for super admin requests.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	GetSuperAdminByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
	Count(ctx context.Context) (int, error)
}
