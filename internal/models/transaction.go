// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one closed real-estate deal. The four derived commission
// fields are written by the ledger and always satisfy
// gross == master + net + office at stored precision.
type Transaction struct {
	BaseModel
	OrganizationID  uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	AgentID         uuid.UUID  `json:"agent_id" gorm:"type:uuid;not null;index"`
	PropertyID      *uuid.UUID `json:"property_id" gorm:"type:uuid;index"`
	TransactionDate time.Time  `json:"transaction_date" gorm:"not null;index"`

	ActualPrice decimal.Decimal `json:"actual_price" gorm:"type:numeric(14,2);not null"`
	// Number of ends of the deal the office represents; multiplies gross.
	Sides                int             `json:"sides" gorm:"not null;default:1"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage" gorm:"type:numeric(5,2);not null"`
	AgentSplitPercentage decimal.Decimal `json:"agent_split_percentage" gorm:"type:numeric(5,2);not null"`
	// Frozen copy of the organization's royalty rate at closing time. Never
	// recomputed from the current org rate except by an explicit amend that
	// touches the economic fields.
	RoyaltyPercentageAtClosure decimal.Decimal `json:"royalty_percentage_at_closure" gorm:"type:numeric(5,2);not null"`

	// Scale 10 holds the exact products of a 2-dp price and 2-dp
	// percentages, so nothing is rounded at the column boundary.
	GrossCommission        decimal.Decimal `json:"gross_commission" gorm:"type:numeric(24,10);not null"`
	MasterCommissionAmount decimal.Decimal `json:"master_commission_amount" gorm:"type:numeric(24,10);not null"`
	NetCommission          decimal.Decimal `json:"net_commission" gorm:"type:numeric(24,10);not null"`
	OfficeCommissionAmount decimal.Decimal `json:"office_commission_amount" gorm:"type:numeric(24,10);not null"`

	BuyerName  string `json:"buyer_name" gorm:"size:255"`
	SellerName string `json:"seller_name" gorm:"size:255"`
	Notes      string `json:"notes,omitempty" gorm:"type:text"`

	// Optimistic lock for concurrent amends.
	Version int `json:"version" gorm:"not null;default:1"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Agent        Profile      `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
}
