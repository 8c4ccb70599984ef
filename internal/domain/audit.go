package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditRegisterTenant   AuditAction = "REGISTER_TENANT"
	AuditCreateTenant     AuditAction = "CREATE_TENANT"
	AuditUpdateTenant     AuditAction = "UPDATE_TENANT"
	AuditLogin            AuditAction = "LOGIN"
	AuditLogout           AuditAction = "LOGOUT"
	AuditCreateUser       AuditAction = "CREATE_USER"
	AuditUpdateUser       AuditAction = "UPDATE_USER"
	AuditDeleteUser       AuditAction = "DELETE_USER"
	AuditCreateProject    AuditAction = "CREATE_PROJECT"
	AuditUpdateProject    AuditAction = "UPDATE_PROJECT"
	AuditDeleteProject    AuditAction = "DELETE_PROJECT"
	AuditCreateTask       AuditAction = "CREATE_TASK"
	AuditUpdateTaskStatus AuditAction = "UPDATE_TASK_STATUS"
	AuditUpdateTask       AuditAction = "UPDATE_TASK"
	AuditDeleteTask       AuditAction = "DELETE_TASK"
)

// Entity types recorded in the audit log.
const (
	EntityTenant  = "tenant"
	EntityUser    = "user"
	EntityProject = "project"
	EntityTask    = "task"
)

// AuditListLimit caps the audit view.
const AuditListLimit = 50

type AuditEntry struct {
	ID         uuid.UUID   `json:"id"`
	TenantID   *uuid.UUID  `json:"tenantId"`
	UserID     *uuid.UUID  `json:"userId"`
	UserName   string      `json:"userName,omitempty"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entityType"`
	EntityID   *uuid.UUID  `json:"entityId"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// NewAuditEntry builds an entry stamped with a fresh id and the current time.
func NewAuditEntry(tenantID, userID *uuid.UUID, action AuditAction, entityType string, entityID uuid.UUID) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		CreatedAt:  time.Now(),
	}
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	// ListRecent returns the newest entries first. A nil tenantID lists
	// across all tenants.
	ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*AuditEntry, error)
}
