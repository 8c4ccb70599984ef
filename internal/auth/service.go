package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/metrics"
)

// Login failures that are safe to show to the client verbatim.
var (
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "Invalid credentials")
	ErrTenantNotFound     = domain.NewError(domain.ErrNotFound, "Tenant not found")
	ErrTenantSuspended    = domain.NewError(domain.ErrForbidden, "Tenant account is suspended")
	ErrAccountDisabled    = domain.NewError(domain.ErrForbidden, "Account is deactivated")
)

// ExpiresIn is TokenTTL in seconds, as reported to clients.
const ExpiresIn = int(TokenTTL / time.Second)

// Service provides login, identity and logout operations.
type Service struct {
	store     domain.Store
	jwtSecret string
	metrics   *metrics.Metrics
}

// NewService creates a new auth service. m may be nil.
func NewService(store domain.Store, jwtSecret string, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		jwtSecret: jwtSecret,
		metrics:   m,
	}
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expiresIn"`
}

// Login authenticates by email and password. With an empty subdomain only a
// super admin account can sign in; otherwise the user is looked up inside the
// tenant with that subdomain.
func (s *Service) Login(ctx context.Context, email, password, subdomain string) (*LoginResult, error) {
	user, err := s.lookup(ctx, domain.NormalizeEmail(email), domain.NormalizeSubdomain(subdomain))
	if err != nil {
		s.metrics.LoginAttempt(loginResult(err))
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	if user == nil {
		VerifyPassword(password, dummyHash())
		s.metrics.LoginAttempt("invalid_credentials")
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.metrics.LoginAttempt("invalid_credentials")
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !user.IsActive {
		s.metrics.LoginAttempt("forbidden")
		return nil, fmt.Errorf("auth.Login: %w", ErrAccountDisabled)
	}

	token, err := IssueToken(s.jwtSecret, user.ID, user.TenantID, user.Role)
	if err != nil {
		s.metrics.LoginAttempt("error")
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	entry := domain.NewAuditEntry(user.TenantID, &user.ID, domain.AuditLogin, domain.EntityUser, user.ID)
	if err := s.store.Audit().Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("auth: failed to record login")
	} else {
		s.metrics.AuditRecorded(string(domain.AuditLogin))
	}

	s.metrics.LoginAttempt("success")

	return &LoginResult{User: user, Token: token, ExpiresIn: ExpiresIn}, nil
}

// lookup returns (nil, nil) when the account does not exist so the caller can
// answer with the same error as a wrong password.
func (s *Service) lookup(ctx context.Context, email, subdomain string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)

	if subdomain == "" {
		user, err = s.store.Users().GetSuperAdminByEmail(ctx, email)
	} else {
		tenant, tErr := s.store.Tenants().GetBySubdomain(ctx, subdomain)
		if errors.Is(tErr, domain.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		if tErr != nil {
			return nil, tErr
		}
		if tenant.Status == domain.TenantStatusSuspended {
			return nil, ErrTenantSuspended
		}
		user, err = s.store.Users().GetByEmail(ctx, tenant.ID, email)
	}

	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// TenantSummary is the tenant block embedded in the /auth/me response.
type TenantSummary struct {
	ID               uuid.UUID               `json:"id"`
	Name             string                  `json:"name"`
	Subdomain        string                  `json:"subdomain"`
	Status           domain.TenantStatus     `json:"status"`
	SubscriptionPlan domain.SubscriptionPlan `json:"subscriptionPlan"`
	MaxUsers         int                     `json:"maxUsers"`
	MaxProjects      int                     `json:"maxProjects"`
}

// Identity is the current user together with their tenant, if any.
type Identity struct {
	*domain.User
	Tenant *TenantSummary `json:"tenant"`
}

// Me returns the authenticated user and a summary of their tenant.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Identity, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.Me: %w", err)
	}

	id := &Identity{User: user}
	if user.TenantID == nil {
		return id, nil
	}

	tenant, err := s.store.Tenants().GetByID(ctx, *user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("auth.Me: %w", err)
	}

	id.Tenant = &TenantSummary{
		ID:               tenant.ID,
		Name:             tenant.Name,
		Subdomain:        tenant.Subdomain,
		Status:           tenant.Status,
		SubscriptionPlan: tenant.SubscriptionPlan,
		MaxUsers:         tenant.MaxUsers,
		MaxProjects:      tenant.MaxProjects,
	}
	return id, nil
}

// Logout records the LOGOUT audit row. Tokens are stateless, so the client
// simply discards its copy.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID) error {
	entry := domain.NewAuditEntry(tenantID, &userID, domain.AuditLogout, domain.EntityUser, userID)
	if err := s.store.Audit().Record(ctx, entry); err != nil {
		return fmt.Errorf("auth.Logout: %w", err)
	}
	s.metrics.AuditRecorded(string(domain.AuditLogout))
	return nil
}
