// internal/services/summary_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

func TestSummarizeGroupsDebtByOrganization(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSummaryService(db)

	now := time.Now()
	orgA := seedOrganization(t, db, 10)
	orgB := seedOrganization(t, db, 10)
	clean := seedOrganization(t, db, 10)

	// orgA owes a pending and an overdue record with surcharge.
	seedBillingRecord(t, db, orgA.ID, models.BillingStatusPending, 1000, now.AddDate(0, 0, 5), "2026-07")
	overdue := seedBillingRecord(t, db, orgA.ID, models.BillingStatusOverdue, 2000, now.AddDate(0, 0, -20), "2026-06")
	require.NoError(t, db.Model(overdue).Update("surcharge_amount", decimal.NewFromInt(200)).Error)

	// orgB's only charges are settled or voided, but one is still open.
	seedBillingRecord(t, db, orgB.ID, models.BillingStatusPaid, 9000, now.AddDate(0, 0, -30), "2026-05")
	seedBillingRecord(t, db, orgB.ID, models.BillingStatusCancelled, 5000, now.AddDate(0, 0, -30), "2026-05")
	seedBillingRecord(t, db, orgB.ID, models.BillingStatusPending, 300, now.AddDate(0, 0, 3), "2026-07")

	// clean has paid everything and must not appear at all.
	seedBillingRecord(t, db, clean.ID, models.BillingStatusPaid, 700, now.AddDate(0, 0, -10), "2026-06")

	summaries, err := svc.Summarize(context.Background(), godActor(), now)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := make(map[string]OrganizationDebtSummary)
	for _, s := range summaries {
		byID[s.OrganizationID.String()] = s
	}

	a := byID[orgA.ID.String()]
	assert.True(t, a.TotalOwed.Equal(decimal.NewFromInt(3200)), "owed = %s", a.TotalOwed)
	assert.Equal(t, 1, a.PendingCount)
	assert.Equal(t, 1, a.OverdueCount)
	require.NotNil(t, a.OldestDueDate)
	assert.Equal(t, orgA.Name, a.OrganizationName)

	b := byID[orgB.ID.String()]
	assert.True(t, b.TotalOwed.Equal(decimal.NewFromInt(300)), "owed = %s", b.TotalOwed)
	assert.Equal(t, 1, b.PendingCount)
	assert.Equal(t, 0, b.OverdueCount)
}

func TestSummarizeCountsStaleRecordsAsOverdue(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSummaryService(db)

	now := time.Now()
	org := seedOrganization(t, db, 10)
	// Past due but the closing pass has not flipped it yet.
	seedBillingRecord(t, db, org.ID, models.BillingStatusPending, 1000, now.AddDate(0, 0, -3), "2026-06")

	summaries, err := svc.Summarize(context.Background(), godActor(), now)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].OverdueCount)
	assert.Equal(t, 0, summaries[0].PendingCount)
	// No surcharge until the flip actually happens.
	assert.True(t, summaries[0].TotalOwed.Equal(decimal.NewFromInt(1000)))
}

func TestSummarizeRequiresGod(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSummaryService(db)
	org := seedOrganization(t, db, 10)
	manager := seedProfile(t, db, models.RoleParent, &org.ID, nil)

	_, err := svc.Summarize(context.Background(), manager.Actor(), time.Now())
	assert.True(t, IsCode(err, CodeForbidden), "expected forbidden, got %v", err)
}

func TestOrganizationDebtScoping(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSummaryService(db)

	now := time.Now()
	orgA := seedOrganization(t, db, 10)
	orgB := seedOrganization(t, db, 10)
	manager := seedProfile(t, db, models.RoleParent, &orgA.ID, nil)
	seedBillingRecord(t, db, orgA.ID, models.BillingStatusPending, 1000, now.AddDate(0, 0, 5), "2026-07")

	summary, err := svc.OrganizationDebt(context.Background(), manager.Actor(), orgA.ID, now)
	require.NoError(t, err)
	assert.True(t, summary.TotalOwed.Equal(decimal.NewFromInt(1000)))

	_, err = svc.OrganizationDebt(context.Background(), manager.Actor(), orgB.ID, now)
	assert.True(t, IsCode(err, CodeForbidden), "expected forbidden, got %v", err)
}

func TestPlatformStats(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	txSvc := NewTransactionService(db, NewRateService(db, cfg), cfg)
	svc := NewSummaryService(db)

	org := seedOrganization(t, db, 10)
	suspended := seedOrganization(t, db, 10)
	require.NoError(t, db.Model(suspended).Update("status", models.OrganizationStatusSuspended).Error)

	agent := seedProfile(t, db, models.RoleChild, &org.ID, floatPtr(45))
	_, err := txSvc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)

	seedBillingRecord(t, db, org.ID, models.BillingStatusPending, 500, time.Now().AddDate(0, 0, 10), "2026-08")

	stats, err := svc.Stats(context.Background(), godActor())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.OrganizationsActive)
	assert.Equal(t, int64(1), stats.OrganizationsSuspended)
	assert.Equal(t, 1, stats.DebtorOrganizations)
	assert.True(t, stats.TotalDebt.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, int64(1), stats.TransactionsThisMonth)
	assert.True(t, stats.GrossCommissionMonth.Equal(decimal.NewFromInt(3000)))
	assert.True(t, stats.RoyaltyMonth.Equal(decimal.NewFromInt(300)))
}
