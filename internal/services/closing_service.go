// internal/services/closing_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/database"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

// ClosingService runs the monthly royalty closing: it aggregates the master
// commission earned by each organization over a period, emits one royalty
// billing record per organization, flips stale pending records to overdue,
// and applies the configured surcharge once the grace window has expired.
type ClosingService struct {
	repo   PrivilegedRepository
	config *config.Config
}

func NewClosingService(db *gorm.DB, cfg *config.Config) *ClosingService {
	return &ClosingService{repo: newPrivilegedRepository(db), config: cfg}
}

// ClosingResult summarizes a single closing run.
type ClosingResult struct {
	Period             string   `json:"period"`
	OrganizationsTotal int      `json:"organizations_total"`
	RecordsCreated     int      `json:"records_created"`
	RecordsSkipped     int      `json:"records_skipped"`
	RecordsFailed      int      `json:"records_failed"`
	OverdueMarked      int      `json:"overdue_marked"`
	Errors             []string `json:"errors,omitempty"`
}

type organizationRoyalty struct {
	OrganizationID uuid.UUID       `gorm:"column:organization_id"`
	Total          decimal.Decimal `gorm:"column:total"`
}

// RunClose closes the given period (YYYY-MM). The run is idempotent: an
// organization that already has a non-cancelled royalty record for the
// period is counted as skipped, and a partial unique index backs this up
// against concurrent runs. One failing organization never aborts the rest;
// each failure lands in the run's error list instead.
func (s *ClosingService) RunClose(ctx context.Context, period string) (*ClosingResult, error) {
	periodStart, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	periodEnd := periodStart.AddDate(0, 1, 0)

	run := &models.ClosingRun{
		Period:    period,
		StartedAt: time.Now(),
	}
	if err := s.repo.DB().WithContext(ctx).Create(run).Error; err != nil {
		return nil, wrapDBError(err, "closing run")
	}

	logrus.WithField("period", period).Info("Monthly closing started")

	var totals []organizationRoyalty
	err = s.repo.DB().WithContext(ctx).Model(&models.Transaction{}).
		Select("organization_id, SUM(master_commission_amount) AS total").
		Where("transaction_date >= ? AND transaction_date < ?", periodStart, periodEnd).
		Group("organization_id").
		Scan(&totals).Error
	if err != nil {
		return nil, wrapDBError(err, "transaction")
	}

	result := &ClosingResult{
		Period:             period,
		OrganizationsTotal: len(totals),
	}

	firstDue := time.Date(periodStart.Year(), periodStart.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, s.config.Billing.RoyaltyDueDay-1)
	secondDue := firstDue.AddDate(0, 0, s.config.Billing.GraceDays)

	for _, row := range totals {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "run interrupted: "+err.Error())
			break
		}

		err := s.closeOrganization(ctx, row, period, firstDue, secondDue, result)
		if IsCode(err, CodeUnavailable) {
			// One retry after a short backoff covers transient pool
			// exhaustion without stalling the whole run.
			time.Sleep(200 * time.Millisecond)
			err = s.closeOrganization(ctx, row, period, firstDue, secondDue, result)
		}
		if err != nil {
			result.RecordsFailed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("organization %s: %v", row.OrganizationID, err))
			logrus.WithFields(logrus.Fields{
				"organization_id": row.OrganizationID,
				"period":          period,
			}).WithError(err).Warn("Closing failed for organization")
		}
	}

	result.OverdueMarked, err = s.markOverdue(ctx, time.Now())
	if err != nil {
		result.Errors = append(result.Errors, "overdue pass: "+err.Error())
	}

	now := time.Now()
	run.FinishedAt = &now
	run.OrganizationsTotal = result.OrganizationsTotal
	run.RecordsCreated = result.RecordsCreated
	run.RecordsSkipped = result.RecordsSkipped
	run.RecordsFailed = result.RecordsFailed
	run.OverdueMarked = result.OverdueMarked
	run.Errors = pq.StringArray(result.Errors)
	if err := s.repo.DB().WithContext(ctx).Select("*").Omit("id", "created_at").Save(run).Error; err != nil {
		logrus.WithError(err).Error("Failed to persist closing run")
	}

	logrus.WithFields(logrus.Fields{
		"period":  period,
		"created": result.RecordsCreated,
		"skipped": result.RecordsSkipped,
		"failed":  result.RecordsFailed,
		"overdue": result.OverdueMarked,
	}).Info("Monthly closing finished")

	return result, nil
}

func (s *ClosingService) closeOrganization(ctx context.Context, row organizationRoyalty, period string, firstDue, secondDue time.Time, result *ClosingResult) error {
	if row.Total.LessThanOrEqual(decimal.Zero) {
		result.RecordsSkipped++
		return nil
	}

	return database.WithTransaction(s.repo.DB().WithContext(ctx), func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&models.BillingRecord{}).
			Where("organization_id = ? AND period = ? AND billing_type = ? AND status <> ?",
				row.OrganizationID, period, models.BillingTypeRoyalty, models.BillingStatusCancelled).
			Count(&existing).Error
		if err != nil {
			return wrapDBError(err, "billing record")
		}
		if existing > 0 {
			result.RecordsSkipped++
			return nil
		}

		amount := row.Total.Round(2)
		record := &models.BillingRecord{
			OrganizationID:  row.OrganizationID,
			Concept:         fmt.Sprintf("Royalty %s", period),
			BillingType:     models.BillingTypeRoyalty,
			Amount:          amount,
			OriginalAmount:  amount,
			SurchargeAmount: decimal.Zero,
			Status:          models.BillingStatusPending,
			DueDate:         firstDue,
			FirstDueDate:    &firstDue,
			SecondDueDate:   &secondDue,
			Period:          period,
		}
		if err := tx.Create(record).Error; err != nil {
			wrapped := wrapDBError(err, "billing record")
			if IsCode(wrapped, CodeConflict) {
				// The unique index won the race for us.
				result.RecordsSkipped++
				return nil
			}
			return wrapped
		}

		result.RecordsCreated++
		return nil
	})
}

// markOverdue flips every pending record whose due date has passed. The
// surcharge waits for the escalation date: a record inside its grace window
// goes overdue with surcharge 0 and gets surcharged by a later pass. The
// base amount stays untouched so the owed total is always amount plus
// surcharge, and the surcharge is applied at most once.
func (s *ClosingService) markOverdue(ctx context.Context, asOf time.Time) (int, error) {
	var candidates []models.BillingRecord
	err := s.repo.DB().WithContext(ctx).
		Where("status = ? OR (status = ? AND surcharge_amount = 0)",
			models.BillingStatusPending, models.BillingStatusOverdue).
		Find(&candidates).Error
	if err != nil {
		return 0, wrapDBError(err, "billing record")
	}

	surchargePct := decimal.NewFromFloat(s.config.Billing.SurchargePercent)
	marked := 0
	for _, record := range candidates {
		if !record.IsOverdue(asOf) {
			continue
		}
		surchargeDue := record.EscalationAt().Before(asOf) && record.SurchargeAmount.IsZero()
		if record.Status == models.BillingStatusOverdue && !surchargeDue {
			continue
		}

		var update *gorm.DB
		if surchargeDue {
			surcharge := record.OriginalAmount.Mul(surchargePct).Div(oneHundred).Round(2)
			update = s.repo.DB().WithContext(ctx).Model(&models.BillingRecord{}).
				Where("id = ? AND status IN ? AND surcharge_amount = 0",
					record.ID, []models.BillingStatus{models.BillingStatusPending, models.BillingStatusOverdue}).
				Updates(map[string]interface{}{
					"status":           models.BillingStatusOverdue,
					"surcharge_amount": surcharge,
				})
		} else {
			update = s.repo.DB().WithContext(ctx).Model(&models.BillingRecord{}).
				Where("id = ? AND status = ?", record.ID, models.BillingStatusPending).
				Updates(map[string]interface{}{
					"status": models.BillingStatusOverdue,
				})
		}
		if update.Error != nil {
			return marked, wrapDBError(update.Error, "billing record")
		}
		if update.RowsAffected > 0 {
			marked++
		}
	}
	return marked, nil
}

// ListRuns returns past closing runs, newest first.
func (s *ClosingService) ListRuns(ctx context.Context, limit int) ([]models.ClosingRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.ClosingRun
	err := s.repo.DB().WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, wrapDBError(err, "closing run")
	}
	return runs, nil
}

// PreviousPeriod returns the period string for the month before t in UTC.
func PreviousPeriod(t time.Time) string {
	prev := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return prev.Format("2006-01")
}

func parsePeriod(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, NewValidationError("period must be in YYYY-MM format")
	}
	return t, nil
}
