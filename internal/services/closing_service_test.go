// internal/services/closing_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

func seedClosedDeal(t *testing.T, db *gorm.DB, svc *TransactionService, agent *models.Profile, price float64, date time.Time) {
	t.Helper()
	_, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{
		ActualPrice:     price,
		TransactionDate: &date,
	})
	require.NoError(t, err)
}

func TestRunCloseCreatesRoyaltyRecords(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	txSvc := NewTransactionService(db, NewRateService(db, cfg), cfg)
	svc := NewClosingService(db, cfg)

	orgA := seedOrganization(t, db, 10)
	orgB := seedOrganization(t, db, 20)
	agentA := seedProfile(t, db, models.RoleChild, &orgA.ID, floatPtr(45))
	agentB := seedProfile(t, db, models.RoleChild, &orgB.ID, floatPtr(45))

	// The current month, so the emitted due dates land in the future and
	// the in-run overdue pass leaves the new records alone.
	now := time.Now().UTC()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	period := periodStart.Format("2006-01")
	dealDate := periodStart.AddDate(0, 0, 14)

	seedClosedDeal(t, db, txSvc, agentA, 100000, dealDate)
	seedClosedDeal(t, db, txSvc, agentA, 200000, dealDate)
	seedClosedDeal(t, db, txSvc, agentB, 100000, dealDate)
	// Outside the period, must not count.
	seedClosedDeal(t, db, txSvc, agentA, 500000, dealDate.AddDate(0, 1, 0))

	result, err := svc.RunClose(context.Background(), period)
	require.NoError(t, err)

	assert.Equal(t, 2, result.OrganizationsTotal)
	assert.Equal(t, 2, result.RecordsCreated)
	assert.Equal(t, 0, result.RecordsFailed)
	assert.Empty(t, result.Errors)

	var recordA models.BillingRecord
	require.NoError(t, db.First(&recordA, "organization_id = ? AND period = ?", orgA.ID, period).Error)
	// 10% royalty over 3000 + 6000 gross.
	assert.True(t, recordA.Amount.Equal(decimal.NewFromInt(900)), "amount = %s", recordA.Amount)
	assert.Equal(t, models.BillingTypeRoyalty, recordA.BillingType)
	assert.Equal(t, models.BillingStatusPending, recordA.Status)
	assert.Equal(t, period, recordA.Period)

	// Due the 10th of the month after the period, escalation 10 days later.
	wantFirst := periodStart.AddDate(0, 1, cfg.Billing.RoyaltyDueDay-1)
	wantSecond := wantFirst.AddDate(0, 0, cfg.Billing.GraceDays)
	require.NotNil(t, recordA.FirstDueDate)
	require.NotNil(t, recordA.SecondDueDate)
	assert.True(t, recordA.FirstDueDate.Equal(wantFirst), "first due = %s", recordA.FirstDueDate)
	assert.True(t, recordA.SecondDueDate.Equal(wantSecond), "second due = %s", recordA.SecondDueDate)

	var recordB models.BillingRecord
	require.NoError(t, db.First(&recordB, "organization_id = ? AND period = ?", orgB.ID, period).Error)
	// 20% royalty over 3000 gross.
	assert.True(t, recordB.Amount.Equal(decimal.NewFromInt(600)), "amount = %s", recordB.Amount)

	var run models.ClosingRun
	require.NoError(t, db.First(&run, "period = ?", period).Error)
	assert.Equal(t, 2, run.RecordsCreated)
	require.NotNil(t, run.FinishedAt)
}

func TestRunCloseIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	txSvc := NewTransactionService(db, NewRateService(db, cfg), cfg)
	svc := NewClosingService(db, cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	seedClosedDeal(t, db, txSvc, agent, 100000, time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC))

	first, err := svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 1, first.RecordsCreated)

	second, err := svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 0, second.RecordsCreated)
	assert.Equal(t, 1, second.RecordsSkipped)

	var count int64
	require.NoError(t, db.Model(&models.BillingRecord{}).
		Where("organization_id = ? AND period = ? AND billing_type = ?", org.ID, "2026-07", models.BillingTypeRoyalty).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunCloseReissuesAfterCancellation(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	txSvc := NewTransactionService(db, NewRateService(db, cfg), cfg)
	svc := NewClosingService(db, cfg)
	billingSvc := NewBillingService(db, cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	seedClosedDeal(t, db, txSvc, agent, 100000, time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC))

	_, err := svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)

	var record models.BillingRecord
	require.NoError(t, db.First(&record, "organization_id = ? AND period = ?", org.ID, "2026-07").Error)
	_, err = billingSvc.Cancel(context.Background(), godActor(), record.ID, "wrong amount")
	require.NoError(t, err)

	// A cancelled record no longer blocks the period.
	result, err := svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsCreated)
}

func TestRunCloseSkipsZeroRoyalty(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	txSvc := NewTransactionService(db, NewRateService(db, cfg), cfg)
	svc := NewClosingService(db, cfg)

	org := seedOrganization(t, db, 0)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	seedClosedDeal(t, db, txSvc, agent, 100000, time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC))

	result, err := svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordsCreated)
	assert.Equal(t, 1, result.RecordsSkipped)
}

func TestRunCloseMarksOverdueWithSurcharge(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewClosingService(db, cfg)

	org := seedOrganization(t, db, 10)
	pastDue := time.Now().AddDate(0, 0, -5)
	record := seedBillingRecord(t, db, org.ID, models.BillingStatusPending, 1000, pastDue, "2026-06")
	futureDue := time.Now().AddDate(0, 0, 5)
	fresh := seedBillingRecord(t, db, org.ID, models.BillingStatusPending, 2000, futureDue, "2026-07")

	result, err := svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 1, result.OverdueMarked)

	var flipped models.BillingRecord
	require.NoError(t, db.First(&flipped, "id = ?", record.ID).Error)
	assert.Equal(t, models.BillingStatusOverdue, flipped.Status)
	// Surcharge is 10% of the original amount; the base stays untouched.
	assert.True(t, flipped.SurchargeAmount.Equal(decimal.NewFromInt(100)), "surcharge = %s", flipped.SurchargeAmount)
	assert.True(t, flipped.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, flipped.TotalOwed().Equal(decimal.NewFromInt(1100)))

	var untouched models.BillingRecord
	require.NoError(t, db.First(&untouched, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.BillingStatusPending, untouched.Status)

	// Running again never stacks a second surcharge.
	result, err = svc.RunClose(context.Background(), "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 0, result.OverdueMarked)

	require.NoError(t, db.First(&flipped, "id = ?", record.ID).Error)
	assert.True(t, flipped.SurchargeAmount.Equal(decimal.NewFromInt(100)))
}

func TestOverdueSurchargeWaitsForGraceWindow(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewClosingService(db, cfg)

	org := seedOrganization(t, db, 10)
	firstDue := time.Now().AddDate(0, 0, -1)
	secondDue := time.Now().AddDate(0, 0, 9)
	record := seedBillingRecord(t, db, org.ID, models.BillingStatusPending, 1000, firstDue, "2026-06")
	require.NoError(t, db.Model(record).Update("second_due_date", secondDue).Error)

	// Past the first due date but inside the grace window: the record goes
	// overdue with no surcharge yet.
	marked, err := svc.markOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	var flipped models.BillingRecord
	require.NoError(t, db.First(&flipped, "id = ?", record.ID).Error)
	assert.Equal(t, models.BillingStatusOverdue, flipped.Status)
	assert.True(t, flipped.SurchargeAmount.IsZero(), "surcharge = %s", flipped.SurchargeAmount)
	assert.True(t, flipped.TotalOwed().Equal(decimal.NewFromInt(1000)))

	// A second pass inside the window changes nothing.
	marked, err = svc.markOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, marked)

	// Once the escalation date passes, the surcharge lands exactly once.
	afterGrace := secondDue.AddDate(0, 0, 1)
	marked, err = svc.markOverdue(context.Background(), afterGrace)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	require.NoError(t, db.First(&flipped, "id = ?", record.ID).Error)
	assert.Equal(t, models.BillingStatusOverdue, flipped.Status)
	assert.True(t, flipped.SurchargeAmount.Equal(decimal.NewFromInt(100)), "surcharge = %s", flipped.SurchargeAmount)
	assert.True(t, flipped.TotalOwed().Equal(decimal.NewFromInt(1100)))

	marked, err = svc.markOverdue(context.Background(), afterGrace)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
	require.NoError(t, db.First(&flipped, "id = ?", record.ID).Error)
	assert.True(t, flipped.SurchargeAmount.Equal(decimal.NewFromInt(100)))
}

func TestRunCloseRejectsBadPeriod(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClosingService(db, testConfig())

	_, err := svc.RunClose(context.Background(), "July 2026")
	assert.True(t, IsCode(err, CodeValidation), "expected validation error, got %v", err)
}

func TestPreviousPeriod(t *testing.T) {
	assert.Equal(t, "2026-07", PreviousPeriod(time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12", PreviousPeriod(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
}
