// internal/services/service_test.go
package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Organization{},
		&models.Profile{},
		&models.Transaction{},
		&models.BillingRecord{},
		&models.ClosingRun{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Billing: config.BillingConfig{
			DefaultSplitPercent:      45.0,
			DefaultCommissionPercent: 3.0,
			RoyaltyDueDay:            10,
			GraceDays:                10,
			SurchargePercent:         10.0,
		},
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 1,
		},
	}
}

func seedOrganization(t *testing.T, db *gorm.DB, royaltyPct float64) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Name:              "Test Office",
		ContactEmail:      uuid.NewString() + "@example.com",
		RoyaltyPercentage: decimal.NewFromFloat(royaltyPct),
		Status:            models.OrganizationStatusActive,
	}
	require.NoError(t, db.Create(org).Error)
	return org
}

func seedProfile(t *testing.T, db *gorm.DB, role models.ProfileRole, orgID *uuid.UUID, splitPct *float64) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		FullName:       "Test Profile",
		Email:          uuid.NewString() + "@example.com",
		Role:           role,
		OrganizationID: orgID,
		IsActive:       true,
	}
	if splitPct != nil {
		v := decimal.NewFromFloat(*splitPct)
		profile.DefaultSplitPercentage = &v
	}
	require.NoError(t, profile.SetPassword("secret-password"))
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func godActor() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleGod}
}

func seedBillingRecord(t *testing.T, db *gorm.DB, orgID uuid.UUID, status models.BillingStatus, amount float64, dueDate time.Time, period string) *models.BillingRecord {
	t.Helper()

	amt := decimal.NewFromFloat(amount)
	record := &models.BillingRecord{
		OrganizationID:  orgID,
		Concept:         "Royalty " + period,
		BillingType:     models.BillingTypeRoyalty,
		Amount:          amt,
		OriginalAmount:  amt,
		SurchargeAmount: decimal.Zero,
		Status:          status,
		DueDate:         dueDate,
		FirstDueDate:    &dueDate,
		Period:          period,
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
