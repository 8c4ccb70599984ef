package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

const (
	superAdminEmail = "superadmin@system.com"
	demoPassword    = "Admin@123"
	demoSubdomain   = "demo"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the super admin and a demo tenant into PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			svcs := service.New(service.Deps{Store: store, Policy: policy.MustNew()})
			return seedDemo(ctx, store, svcs)
		},
	}
}

// seedDemo creates the super admin and the "demo" tenant. Rows that already
// exist are left alone, so it is safe to run repeatedly.
func seedDemo(ctx context.Context, store domain.Store, svcs *service.Services) error {
	super, err := ensureSuperAdmin(ctx, store)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	_, err = store.Tenants().GetBySubdomain(ctx, demoSubdomain)
	if err == nil {
		log.Info().Str("subdomain", demoSubdomain).Msg("seed: demo tenant exists, skipping")
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("seed: %w", err)
	}

	sp := tenancy.Principal{UserID: super.ID, Role: domain.RoleSuperAdmin}
	reg, err := svcs.Tenants.Create(ctx, sp, service.RegisterTenantInput{
		TenantName:    "Demo Company",
		Subdomain:     demoSubdomain,
		AdminEmail:    "admin@demo.com",
		AdminPassword: demoPassword,
		AdminFullName: "Demo Admin",
		Plan:          domain.PlanPro,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	var members []*domain.User
	for _, u := range []service.CreateUserInput{
		{Email: "john@demo.com", Password: "User@1234", FullName: "John Doe", Role: domain.RoleUser},
		{Email: "jane@demo.com", Password: "User@1234", FullName: "Jane Smith", Role: domain.RoleUser},
	} {
		user, err := svcs.Users.Create(ctx, sp, &reg.TenantID, u)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		members = append(members, user)
	}

	admin := tenancy.Principal{UserID: reg.AdminUser.ID, TenantID: &reg.TenantID, Role: domain.RoleTenantAdmin}
	project, err := svcs.Projects.Create(ctx, admin, service.CreateProjectInput{
		Name:        "Website Redesign",
		Description: "Refresh the marketing site",
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	due := time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	for i, title := range []string{"Design mockups", "Build landing page"} {
		assignee := members[i].ID
		if _, err := svcs.Tasks.Create(ctx, admin, project.ID, service.CreateTaskInput{
			Title:      title,
			Priority:   domain.TaskPriorityHigh,
			AssignedTo: &assignee,
			DueDate:    &due,
		}); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	log.Info().
		Str("tenant", reg.Subdomain).
		Str("admin", reg.AdminUser.Email).
		Int("users", len(members)).
		Msg("seed: demo tenant created")
	return nil
}

func ensureSuperAdmin(ctx context.Context, store domain.Store) (*domain.User, error) {
	existing, err := store.Users().GetSuperAdminByEmail(ctx, superAdminEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	super := &domain.User{
		ID:        uuid.New(),
		Email:     superAdminEmail,
		FullName:  "Super Admin",
		Role:      domain.RoleSuperAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if super.PasswordHash, err = auth.HashPassword(demoPassword); err != nil {
		return nil, err
	}
	if err := store.Users().Create(ctx, super); err != nil {
		return nil, err
	}
	log.Info().Str("email", super.Email).Msg("seed: super admin created")
	return super, nil
}
