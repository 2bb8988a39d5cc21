// internal/services/profile_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

// ProfileService manages user profiles and authentication. Profiles are the
// identity behind every actor: god operators, office managers (parent) and
// agents (child).
type ProfileService struct {
	db     *gorm.DB
	config *config.Config
}

func NewProfileService(db *gorm.DB, cfg *config.Config) *ProfileService {
	return &ProfileService{db: db, config: cfg}
}

type CreateProfileRequest struct {
	FullName               string     `json:"full_name" validate:"required,min=2,max=255"`
	Email                  string     `json:"email" validate:"required,email"`
	Password               string     `json:"password" validate:"required,min=8"`
	Role                   string     `json:"role" validate:"required,oneof=god parent child"`
	OrganizationID         *uuid.UUID `json:"organization_id"`
	DefaultSplitPercentage *float64   `json:"default_split_percentage" validate:"omitempty,percentage"`
}

type UpdateProfileRequest struct {
	FullName               *string  `json:"full_name" validate:"omitempty,min=2,max=255"`
	Password               *string  `json:"password" validate:"omitempty,min=8"`
	DefaultSplitPercentage *float64 `json:"default_split_percentage" validate:"omitempty,percentage"`
	IsActive               *bool    `json:"is_active"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// Login verifies credentials and issues a JWT carrying the actor claims.
func (s *ProfileService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "email = ?", req.Email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewForbiddenError("invalid credentials")
		}
		return nil, wrapDBError(err, "profile")
	}
	if !profile.IsActive {
		return nil, NewForbiddenError("profile is inactive")
	}
	if err := profile.CheckPassword(req.Password); err != nil {
		return nil, NewForbiddenError("invalid credentials")
	}

	token, err := utils.GenerateJWT(profile.ID, string(profile.Role), profile.OrganizationID, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, NewInternalError("failed to issue token", err)
	}

	profile.PasswordHash = ""
	return &LoginResponse{Token: token, Profile: &profile}, nil
}

// Create registers a profile. God creates any role anywhere; parents only
// create child profiles inside their own organization.
func (s *ProfileService) Create(ctx context.Context, actor models.Actor, req *CreateProfileRequest) (*models.Profile, error) {
	role := models.ProfileRole(req.Role)
	if !role.Valid() {
		return nil, NewValidationError("invalid role %q", req.Role)
	}

	organizationID := req.OrganizationID
	switch actor.Role {
	case models.RoleGod:
		if role != models.RoleGod && organizationID == nil {
			return nil, NewValidationError("organization_id is required for %s profiles", role)
		}
	case models.RoleParent:
		if role != models.RoleChild {
			return nil, NewForbiddenError("managers may only create agent profiles")
		}
		if actor.OrganizationID == nil {
			return nil, NewForbiddenError("actor has no organization")
		}
		if organizationID != nil && *organizationID != *actor.OrganizationID {
			return nil, NewForbiddenError("cannot create profiles in another organization")
		}
		organizationID = actor.OrganizationID
	default:
		return nil, NewForbiddenError("insufficient privileges")
	}

	profile := &models.Profile{
		FullName:       req.FullName,
		Email:          req.Email,
		Role:           role,
		OrganizationID: organizationID,
		IsActive:       true,
	}
	if req.DefaultSplitPercentage != nil {
		v := decimal.NewFromFloat(*req.DefaultSplitPercentage)
		profile.DefaultSplitPercentage = &v
	}
	if err := profile.SetPassword(req.Password); err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, wrapDBError(err, "profile")
	}

	logrus.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"role":       profile.Role,
	}).Info("Profile created")

	profile.PasswordHash = ""
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateProfileRequest) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "profile")
	}

	if err := s.canManage(actor, &profile); err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Password != nil {
		if err := profile.SetPassword(*req.Password); err != nil {
			return nil, NewInternalError("failed to hash password", err)
		}
	}
	if req.DefaultSplitPercentage != nil {
		v := decimal.NewFromFloat(*req.DefaultSplitPercentage)
		profile.DefaultSplitPercentage = &v
	}
	if req.IsActive != nil {
		if actor.ID == profile.ID {
			return nil, NewValidationError("cannot change your own active state")
		}
		profile.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Select("*").Omit("id", "created_at").Save(&profile).Error; err != nil {
		return nil, wrapDBError(err, "profile")
	}

	profile.PasswordHash = ""
	return &profile, nil
}

func (s *ProfileService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "profile")
	}
	if err := s.canRead(actor, &profile); err != nil {
		return nil, NewNotFoundError("profile")
	}
	profile.PasswordHash = ""
	return &profile, nil
}

func (s *ProfileService) List(ctx context.Context, actor models.Actor, params utils.PaginationParams, organizationID *uuid.UUID) ([]models.Profile, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Profile{})

	switch actor.Role {
	case models.RoleGod:
		if organizationID != nil {
			query = query.Where("organization_id = ?", *organizationID)
		}
	case models.RoleParent:
		if actor.OrganizationID == nil {
			return nil, 0, NewForbiddenError("actor has no organization")
		}
		query = query.Where("organization_id = ?", *actor.OrganizationID)
	default:
		return nil, 0, NewForbiddenError("insufficient privileges")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "profile")
	}

	allowedSortFields := []string{"full_name", "email", "role", "created_at"}
	query = utils.ApplySort(query, params, "created_at", allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var profiles []models.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, 0, wrapDBError(err, "profile")
	}
	for i := range profiles {
		profiles[i].PasswordHash = ""
	}
	return profiles, total, nil
}

func (s *ProfileService) canManage(actor models.Actor, target *models.Profile) error {
	switch actor.Role {
	case models.RoleGod:
		return nil
	case models.RoleParent:
		if actor.ID == target.ID {
			return nil
		}
		if target.Role == models.RoleChild && target.OrganizationID != nil &&
			actor.OrganizationID != nil && *target.OrganizationID == *actor.OrganizationID {
			return nil
		}
		return NewForbiddenError("cannot manage this profile")
	case models.RoleChild:
		if actor.ID == target.ID {
			return nil
		}
		return NewForbiddenError("cannot manage this profile")
	default:
		return NewForbiddenError("unknown role %q", actor.Role)
	}
}

func (s *ProfileService) canRead(actor models.Actor, target *models.Profile) error {
	if actor.Role == models.RoleGod || actor.ID == target.ID {
		return nil
	}
	if actor.OrganizationID != nil && target.OrganizationID != nil &&
		*actor.OrganizationID == *target.OrganizationID {
		return nil
	}
	return NewForbiddenError("cannot read this profile")
}
