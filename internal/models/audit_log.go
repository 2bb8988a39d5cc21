// internal/models/audit_log.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog records every mutating request against the engine. Written by the
// audit middleware and by services for privileged operations.
type AuditLog struct {
	BaseModel
	ActorID      *uuid.UUID `json:"actor_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	OldValues    JSONB      `json:"old_values" gorm:"type:jsonb"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`

	// Relationships
	Actor *Profile `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
}
