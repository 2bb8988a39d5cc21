// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. IDs are generated application-side so the
// same models work against Postgres and the sqlite test database.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type ProfileRole string

const (
	RoleGod    ProfileRole = "god"    // platform admin, unrestricted
	RoleParent ProfileRole = "parent" // broker, scoped to own organization
	RoleChild  ProfileRole = "child"  // agent, scoped to own records
)

func (r ProfileRole) Valid() bool {
	switch r {
	case RoleGod, RoleParent, RoleChild:
		return true
	}
	return false
}

type OrganizationStatus string

const (
	OrganizationStatusActive         OrganizationStatus = "active"
	OrganizationStatusPendingPayment OrganizationStatus = "pending_payment"
	OrganizationStatusSuspended      OrganizationStatus = "suspended"
)

type BillingType string

const (
	BillingTypeRoyalty BillingType = "royalty"
	BillingTypeOther   BillingType = "other"
)

type BillingStatus string

const (
	BillingStatusPending   BillingStatus = "pending"
	BillingStatusPaid      BillingStatus = "paid"
	BillingStatusOverdue   BillingStatus = "overdue"
	BillingStatusCancelled BillingStatus = "cancelled"
)

// Actor is the identity descriptor resolved by the upstream authentication
// collaborator. The engine authorizes with it but never authenticates.
type Actor struct {
	ID             uuid.UUID   `json:"id"`
	Role           ProfileRole `json:"role"`
	OrganizationID *uuid.UUID  `json:"organization_id,omitempty"`
}
