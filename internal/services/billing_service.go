// internal/services/billing_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

// BillingService manages the records of money owed by organizations to the
// platform. All mutations here are platform-operator (god) operations;
// organizations only ever read their own records.
type BillingService struct {
	db     *gorm.DB
	config *config.Config
}

func NewBillingService(db *gorm.DB, cfg *config.Config) *BillingService {
	return &BillingService{db: db, config: cfg}
}

type CreateBillingRecordRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id" validate:"required"`
	Concept        string     `json:"concept" validate:"required,min=3,max=255"`
	BillingType    string     `json:"billing_type" validate:"omitempty,oneof=royalty other"`
	Amount         float64    `json:"amount" validate:"required,gt=0"`
	DueDate        *time.Time `json:"due_date" validate:"required"`
	FirstDueDate   *time.Time `json:"first_due_date"`
	SecondDueDate  *time.Time `json:"second_due_date"`
	Period         string     `json:"period" validate:"omitempty,period"`
	Notes          string     `json:"notes"`
	InternalNotes  string     `json:"internal_notes"`
}

type UpdateBillingRecordRequest struct {
	Concept          *string    `json:"concept" validate:"omitempty,min=3,max=255"`
	Status           *string    `json:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	DueDate          *time.Time `json:"due_date"`
	FirstDueDate     *time.Time `json:"first_due_date"`
	SecondDueDate    *time.Time `json:"second_due_date"`
	PaymentMethod    *string    `json:"payment_method"`
	PaymentReference *string    `json:"payment_reference"`
	Notes            *string    `json:"notes"`
	InternalNotes    *string    `json:"internal_notes"`
}

type BillingRecordFilter struct {
	utils.PaginationParams
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Status         *string    `json:"status,omitempty"`
	BillingType    *string    `json:"billing_type,omitempty"`
	Period         *string    `json:"period,omitempty"`
}

// Create registers a manual charge. Royalty charges are normally produced by
// the monthly closing; this path covers ad-hoc invoicing and corrections.
func (s *BillingService) Create(ctx context.Context, actor models.Actor, req *CreateBillingRecordRequest) (*models.BillingRecord, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, NewValidationError("amount must be greater than zero")
	}
	if req.DueDate == nil {
		return nil, NewValidationError("due_date is required")
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).Select("id").First(&org, "id = ?", req.OrganizationID).Error; err != nil {
		return nil, wrapDBError(err, "organization")
	}

	billingType := models.BillingTypeRoyalty
	if req.BillingType != "" {
		billingType = models.BillingType(req.BillingType)
	}

	dueDate := *req.DueDate
	firstDueDate := dueDate
	if req.FirstDueDate != nil {
		firstDueDate = *req.FirstDueDate
	}

	amount := decimal.NewFromFloat(req.Amount)
	record := &models.BillingRecord{
		OrganizationID:  req.OrganizationID,
		Concept:         req.Concept,
		BillingType:     billingType,
		Amount:          amount,
		OriginalAmount:  amount,
		SurchargeAmount: decimal.Zero,
		Status:          models.BillingStatusPending,
		DueDate:         dueDate,
		FirstDueDate:    &firstDueDate,
		SecondDueDate:   req.SecondDueDate,
		Period:          req.Period,
		Notes:           req.Notes,
		InternalNotes:   req.InternalNotes,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	logrus.WithFields(logrus.Fields{
		"billing_record_id": record.ID,
		"organization_id":   record.OrganizationID,
		"amount":            amount.String(),
		"billing_type":      billingType,
	}).Info("Billing record created")

	return record, nil
}

// Update applies the allow-listed patch. Transitioning to paid stamps
// paid_at; moving a paid record back to pending or overdue clears it.
func (s *BillingService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateBillingRecordRequest) (*models.BillingRecord, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}

	var record models.BillingRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}
	if record.Status == models.BillingStatusCancelled {
		return nil, NewConflictError("cancelled billing records cannot be updated")
	}

	if req.Concept != nil {
		record.Concept = *req.Concept
	}
	if req.DueDate != nil {
		record.DueDate = *req.DueDate
	}
	if req.FirstDueDate != nil {
		record.FirstDueDate = req.FirstDueDate
	}
	if req.SecondDueDate != nil {
		record.SecondDueDate = req.SecondDueDate
	}
	if req.PaymentMethod != nil {
		record.PaymentMethod = *req.PaymentMethod
	}
	if req.PaymentReference != nil {
		record.PaymentReference = *req.PaymentReference
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	if req.InternalNotes != nil {
		record.InternalNotes = *req.InternalNotes
	}
	if req.Status != nil {
		newStatus := models.BillingStatus(*req.Status)
		if newStatus == models.BillingStatusPaid && record.Status != models.BillingStatusPaid {
			now := time.Now()
			record.PaidAt = &now
		}
		if newStatus != models.BillingStatusPaid {
			record.PaidAt = nil
		}
		record.Status = newStatus
	}

	if err := s.db.WithContext(ctx).Select("*").Omit("id", "created_at").Save(&record).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	logrus.WithFields(logrus.Fields{
		"billing_record_id": record.ID,
		"status":            record.Status,
	}).Info("Billing record updated")

	return &record, nil
}

// Cancel voids a record. Billing rows are never physically deleted; a
// cancelled record stays out of every debt computation but remains auditable.
func (s *BillingService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.BillingRecord, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}

	var record models.BillingRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}
	if record.Status == models.BillingStatusPaid {
		return nil, NewConflictError("paid billing records cannot be cancelled")
	}
	if record.Status == models.BillingStatusCancelled {
		return &record, nil
	}

	record.Status = models.BillingStatusCancelled
	if reason != "" {
		if record.InternalNotes != "" {
			record.InternalNotes += "\n"
		}
		record.InternalNotes += "Cancelled: " + reason
	}

	if err := s.db.WithContext(ctx).Select("status", "internal_notes", "updated_at").Updates(&record).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	logrus.WithFields(logrus.Fields{
		"billing_record_id": record.ID,
		"reason":            reason,
	}).Info("Billing record cancelled")

	return &record, nil
}

// Get loads one record. Non-god actors only see records of their own
// organization, with internal notes stripped.
func (s *BillingService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.BillingRecord, error) {
	var record models.BillingRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	if actor.Role != models.RoleGod {
		if actor.OrganizationID == nil || *actor.OrganizationID != record.OrganizationID {
			return nil, NewNotFoundError("billing record")
		}
		record.InternalNotes = ""
	}

	return &record, nil
}

// List returns billing records visible to the actor, most recent due first.
func (s *BillingService) List(ctx context.Context, actor models.Actor, filter BillingRecordFilter) ([]models.BillingRecord, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.BillingRecord{})

	switch actor.Role {
	case models.RoleGod:
		if filter.OrganizationID != nil {
			query = query.Where("organization_id = ?", *filter.OrganizationID)
		}
	case models.RoleParent, models.RoleChild:
		if actor.OrganizationID == nil {
			return nil, 0, NewForbiddenError("actor has no organization")
		}
		query = query.Where("organization_id = ?", *actor.OrganizationID)
	default:
		return nil, 0, NewForbiddenError("unknown role %q", actor.Role)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BillingType != nil {
		query = query.Where("billing_type = ?", *filter.BillingType)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "billing record")
	}

	allowedSortFields := []string{"due_date", "amount", "status", "period", "created_at"}
	query = utils.ApplySort(query, filter.PaginationParams, "due_date", allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var records []models.BillingRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, wrapDBError(err, "billing record")
	}

	if actor.Role != models.RoleGod {
		for i := range records {
			records[i].InternalNotes = ""
		}
	}

	return records, total, nil
}
