// internal/services/organization_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

// OrganizationService manages the franchised offices billed by the platform.
type OrganizationService struct {
	db *gorm.DB
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

type CreateOrganizationRequest struct {
	Name              string  `json:"name" validate:"required,min=2,max=255"`
	LegalName         string  `json:"legal_name" validate:"omitempty,max=255"`
	ContactEmail      string  `json:"contact_email" validate:"required,email"`
	Phone             string  `json:"phone" validate:"omitempty,max=50"`
	RoyaltyPercentage float64 `json:"royalty_percentage" validate:"required,percentage"`
}

type UpdateOrganizationRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=2,max=255"`
	LegalName         *string  `json:"legal_name" validate:"omitempty,max=255"`
	ContactEmail      *string  `json:"contact_email" validate:"omitempty,email"`
	Phone             *string  `json:"phone" validate:"omitempty,max=50"`
	RoyaltyPercentage *float64 `json:"royalty_percentage" validate:"omitempty,percentage"`
	Status            *string  `json:"status" validate:"omitempty,oneof=active pending_payment suspended"`
}

// Create registers a new organization. Changing the royalty rate later only
// affects future transactions; closed deals keep the rate frozen at closure.
func (s *OrganizationService) Create(ctx context.Context, actor models.Actor, req *CreateOrganizationRequest) (*models.Organization, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}

	org := &models.Organization{
		Name:              req.Name,
		LegalName:         req.LegalName,
		ContactEmail:      req.ContactEmail,
		Phone:             req.Phone,
		RoyaltyPercentage: decimal.NewFromFloat(req.RoyaltyPercentage),
		Status:            models.OrganizationStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		return nil, wrapDBError(err, "organization")
	}

	logrus.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"name":            org.Name,
		"royalty":         org.RoyaltyPercentage.String(),
	}).Info("Organization created")

	return org, nil
}

func (s *OrganizationService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateOrganizationRequest) (*models.Organization, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "organization")
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.LegalName != nil {
		org.LegalName = *req.LegalName
	}
	if req.ContactEmail != nil {
		org.ContactEmail = *req.ContactEmail
	}
	if req.Phone != nil {
		org.Phone = *req.Phone
	}
	if req.RoyaltyPercentage != nil {
		org.RoyaltyPercentage = decimal.NewFromFloat(*req.RoyaltyPercentage)
	}
	if req.Status != nil {
		org.Status = models.OrganizationStatus(*req.Status)
	}

	if err := s.db.WithContext(ctx).Select("*").Omit("id", "created_at").Save(&org).Error; err != nil {
		return nil, wrapDBError(err, "organization")
	}

	return &org, nil
}

// Suspend blocks an organization, typically after repeated non-payment.
// Suspension does not touch its billing records; the debt stays collectable.
func (s *OrganizationService) Suspend(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Organization, error) {
	status := string(models.OrganizationStatusSuspended)
	return s.Update(ctx, actor, id, &UpdateOrganizationRequest{Status: &status})
}

// Get loads one organization. Members may read their own.
func (s *OrganizationService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Organization, error) {
	if actor.Role != models.RoleGod {
		if actor.OrganizationID == nil || *actor.OrganizationID != id {
			return nil, NewNotFoundError("organization")
		}
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "organization")
	}
	return &org, nil
}

func (s *OrganizationService) List(ctx context.Context, actor models.Actor, params utils.PaginationParams, status *string) ([]models.Organization, int64, error) {
	if err := RequireGod(actor); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Organization{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "organization")
	}

	allowedSortFields := []string{"name", "status", "royalty_percentage", "created_at"}
	query = utils.ApplySort(query, params, "created_at", allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orgs []models.Organization
	if err := query.Find(&orgs).Error; err != nil {
		return nil, 0, wrapDBError(err, "organization")
	}
	return orgs, total, nil
}
