// internal/models/organization.go
package models

import (
	"github.com/shopspring/decimal"
)

type Organization struct {
	BaseModel
	Name         string             `json:"name" gorm:"size:255;not null"`
	LegalName    string             `json:"legal_name" gorm:"size:255"`
	ContactEmail string             `json:"contact_email" gorm:"size:255"`
	Phone        string             `json:"phone" gorm:"size:50"`
	// Platform cut of gross commission, 0-100. Point-in-time rate: changing
	// it never touches transactions that were already closed.
	RoyaltyPercentage decimal.Decimal    `json:"royalty_percentage" gorm:"type:numeric(5,2);not null;default:0"`
	Status            OrganizationStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Profiles       []Profile       `json:"profiles,omitempty" gorm:"foreignKey:OrganizationID"`
	Transactions   []Transaction   `json:"transactions,omitempty" gorm:"foreignKey:OrganizationID"`
	BillingRecords []BillingRecord `json:"billing_records,omitempty" gorm:"foreignKey:OrganizationID"`
}
