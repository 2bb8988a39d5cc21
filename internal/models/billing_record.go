// internal/models/billing_record.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingRecord is a platform-to-organization charge with its own payment
// lifecycle. Records are never physically deleted: cancel (status=cancelled)
// is the only delete path and cancelled rows stay queryable for audit.
type BillingRecord struct {
	BaseModel
	OrganizationID uuid.UUID   `json:"organization_id" gorm:"type:uuid;not null;index"`
	Concept        string      `json:"concept" gorm:"size:255;not null"`
	BillingType    BillingType `json:"billing_type" gorm:"type:varchar(20);not null;default:'royalty';index"`

	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	OriginalAmount  decimal.Decimal `json:"original_amount" gorm:"type:numeric(14,2);not null"`
	SurchargeAmount decimal.Decimal `json:"surcharge_amount" gorm:"type:numeric(14,2);not null;default:0"`

	Status BillingStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	DueDate       time.Time  `json:"due_date" gorm:"not null"`
	FirstDueDate  *time.Time `json:"first_due_date"`
	SecondDueDate *time.Time `json:"second_due_date"`
	PaidAt        *time.Time `json:"paid_at"`

	PaymentMethod    string `json:"payment_method" gorm:"size:50"`
	PaymentReference string `json:"payment_reference" gorm:"size:255"`
	ReceiptURL       string `json:"receipt_url" gorm:"size:512"`
	PaymentDetails   JSONB  `json:"payment_details,omitempty" gorm:"type:jsonb"`

	// Calendar period the charge belongs to, YYYY-MM. Together with
	// organization_id and billing_type this is the closing idempotency key.
	Period string `json:"period" gorm:"size:7;index"`

	Notes         string `json:"notes,omitempty" gorm:"type:text"`
	InternalNotes string `json:"internal_notes,omitempty" gorm:"type:text"`

	// Relationships
	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// DueAt is the authoritative due date: first_due_date when set, otherwise
// due_date. Every component that needs the fallback goes through here.
func (b *BillingRecord) DueAt() time.Time {
	if b.FirstDueDate != nil {
		return *b.FirstDueDate
	}
	return b.DueDate
}

// EscalationAt is the grace deadline after which the closing batch applies
// the surcharge. The status flip itself happens at DueAt.
func (b *BillingRecord) EscalationAt() time.Time {
	if b.SecondDueDate != nil {
		return *b.SecondDueDate
	}
	return b.DueAt()
}

// IsOverdue is the single overdue predicate shared by the aggregator and the
// closing batch. A record whose stored status was already flipped counts as
// overdue regardless of asOf.
func (b *BillingRecord) IsOverdue(asOf time.Time) bool {
	switch b.Status {
	case BillingStatusOverdue:
		return true
	case BillingStatusPending:
		return b.DueAt().Before(asOf)
	}
	return false
}

// IsUnpaid reports whether the record still represents debt.
func (b *BillingRecord) IsUnpaid() bool {
	return b.Status == BillingStatusPending || b.Status == BillingStatusOverdue
}

// TotalOwed is amount plus surcharge.
func (b *BillingRecord) TotalOwed() decimal.Decimal {
	return b.Amount.Add(b.SurchargeAmount)
}
