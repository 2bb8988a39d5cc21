// internal/services/rate_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

// RateService resolves the royalty and split percentages in force at the
// moment a transaction is closed or amended. No caching: organization rates
// can change between requests and the ledger is the one freezing values.
type RateService struct {
	db     *gorm.DB
	config *config.Config
}

func NewRateService(db *gorm.DB, cfg *config.Config) *RateService {
	return &RateService{
		db:     db,
		config: cfg,
	}
}

// ResolveRoyalty reads the organization's current royalty percentage.
func (s *RateService) ResolveRoyalty(ctx context.Context, organizationID uuid.UUID) (decimal.Decimal, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Select("id", "royalty_percentage").
		First(&org, "id = ?", organizationID).Error; err != nil {
		return decimal.Zero, wrapDBError(err, "organization")
	}
	return org.RoyaltyPercentage, nil
}

// ResolveSplit returns the agent split to apply: the request-level override
// when supplied, else the agent's configured default, else the platform
// default.
func (s *RateService) ResolveSplit(ctx context.Context, agentID uuid.UUID, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return *override, nil
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).Select("id", "default_split_percentage").
		First(&profile, "id = ?", agentID).Error; err != nil {
		return decimal.Zero, wrapDBError(err, "profile")
	}

	if profile.DefaultSplitPercentage != nil {
		return *profile.DefaultSplitPercentage, nil
	}
	return decimal.NewFromFloat(s.config.Billing.DefaultSplitPercent), nil
}
