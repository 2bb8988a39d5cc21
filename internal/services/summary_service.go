// internal/services/summary_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

// SummaryService aggregates billing state into per-organization debt
// summaries and platform-wide dashboard figures.
type SummaryService struct {
	db *gorm.DB
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{db: db}
}

// OrganizationDebtSummary is the collections view of one organization.
type OrganizationDebtSummary struct {
	OrganizationID    uuid.UUID       `json:"organization_id"`
	OrganizationName  string          `json:"organization_name"`
	Status            string          `json:"status"`
	RoyaltyPercentage decimal.Decimal `json:"royalty_percentage"`
	TotalOwed         decimal.Decimal `json:"total_owed"`
	PendingCount      int             `json:"pending_count"`
	OverdueCount      int             `json:"overdue_count"`
	OldestDueDate     *time.Time      `json:"oldest_due_date,omitempty"`
}

// PlatformStats is the god dashboard payload.
type PlatformStats struct {
	OrganizationsActive    int64           `json:"organizations_active"`
	OrganizationsSuspended int64           `json:"organizations_suspended"`
	TotalDebt              decimal.Decimal `json:"total_debt"`
	DebtorOrganizations    int             `json:"debtor_organizations"`
	TransactionsThisMonth  int64           `json:"transactions_this_month"`
	GrossCommissionMonth   decimal.Decimal `json:"gross_commission_month"`
	RoyaltyMonth           decimal.Decimal `json:"royalty_month"`
}

// Summarize builds one debt summary per organization that has at least one
// unpaid billing record as of the given instant. A record still marked
// pending but past its due date counts as overdue here even if the closing
// pass has not flipped it yet; in that case the surcharge is not yet owed.
func (s *SummaryService) Summarize(ctx context.Context, actor models.Actor, asOf time.Time) ([]OrganizationDebtSummary, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}

	var records []models.BillingRecord
	err := s.db.WithContext(ctx).
		Where("status IN ?", []models.BillingStatus{models.BillingStatusPending, models.BillingStatusOverdue}).
		Order("due_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	byOrg := make(map[uuid.UUID]*OrganizationDebtSummary)
	var order []uuid.UUID
	for i := range records {
		record := &records[i]
		summary, ok := byOrg[record.OrganizationID]
		if !ok {
			summary = &OrganizationDebtSummary{
				OrganizationID: record.OrganizationID,
				TotalOwed:      decimal.Zero,
			}
			byOrg[record.OrganizationID] = summary
			order = append(order, record.OrganizationID)
		}

		summary.TotalOwed = summary.TotalOwed.Add(record.TotalOwed())
		if record.IsOverdue(asOf) {
			summary.OverdueCount++
		} else {
			summary.PendingCount++
		}
		due := record.DueAt()
		if summary.OldestDueDate == nil || due.Before(*summary.OldestDueDate) {
			d := due
			summary.OldestDueDate = &d
		}
	}

	if len(order) == 0 {
		return []OrganizationDebtSummary{}, nil
	}

	var orgs []models.Organization
	err = s.db.WithContext(ctx).
		Select("id", "name", "status", "royalty_percentage").
		Where("id IN ?", order).
		Find(&orgs).Error
	if err != nil {
		return nil, wrapDBError(err, "organization")
	}
	for i := range orgs {
		if summary, ok := byOrg[orgs[i].ID]; ok {
			summary.OrganizationName = orgs[i].Name
			summary.Status = string(orgs[i].Status)
			summary.RoyaltyPercentage = orgs[i].RoyaltyPercentage
		}
	}

	summaries := make([]OrganizationDebtSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byOrg[id])
	}
	return summaries, nil
}

// OrganizationDebt computes the summary for a single organization. Parents
// can query their own organization; god can query any.
func (s *SummaryService) OrganizationDebt(ctx context.Context, actor models.Actor, organizationID uuid.UUID, asOf time.Time) (*OrganizationDebtSummary, error) {
	if actor.Role != models.RoleGod {
		if actor.OrganizationID == nil || *actor.OrganizationID != organizationID {
			return nil, NewForbiddenError("cannot read another organization's billing summary")
		}
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).Select("id", "name", "status", "royalty_percentage").First(&org, "id = ?", organizationID).Error; err != nil {
		return nil, wrapDBError(err, "organization")
	}

	var records []models.BillingRecord
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND status IN ?", organizationID,
			[]models.BillingStatus{models.BillingStatusPending, models.BillingStatusOverdue}).
		Find(&records).Error
	if err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	summary := &OrganizationDebtSummary{
		OrganizationID:    org.ID,
		OrganizationName:  org.Name,
		Status:            string(org.Status),
		RoyaltyPercentage: org.RoyaltyPercentage,
		TotalOwed:         decimal.Zero,
	}
	for i := range records {
		record := &records[i]
		summary.TotalOwed = summary.TotalOwed.Add(record.TotalOwed())
		if record.IsOverdue(asOf) {
			summary.OverdueCount++
		} else {
			summary.PendingCount++
		}
		due := record.DueAt()
		if summary.OldestDueDate == nil || due.Before(*summary.OldestDueDate) {
			d := due
			summary.OldestDueDate = &d
		}
	}
	return summary, nil
}

// Stats builds the platform dashboard figures for the current month.
func (s *SummaryService) Stats(ctx context.Context, actor models.Actor) (*PlatformStats, error) {
	if err := RequireGod(actor); err != nil {
		return nil, err
	}

	stats := &PlatformStats{
		TotalDebt:            decimal.Zero,
		GrossCommissionMonth: decimal.Zero,
		RoyaltyMonth:         decimal.Zero,
	}

	err := s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("status = ?", models.OrganizationStatusActive).
		Count(&stats.OrganizationsActive).Error
	if err != nil {
		return nil, wrapDBError(err, "organization")
	}
	err = s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("status = ?", models.OrganizationStatusSuspended).
		Count(&stats.OrganizationsSuspended).Error
	if err != nil {
		return nil, wrapDBError(err, "organization")
	}

	summaries, err := s.Summarize(ctx, actor, time.Now())
	if err != nil {
		return nil, err
	}
	stats.DebtorOrganizations = len(summaries)
	for i := range summaries {
		stats.TotalDebt = stats.TotalDebt.Add(summaries[i].TotalOwed)
	}

	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	type monthTotals struct {
		Count   int64           `gorm:"column:count"`
		Gross   decimal.Decimal `gorm:"column:gross"`
		Royalty decimal.Decimal `gorm:"column:royalty"`
	}
	var totals monthTotals
	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(gross_commission), 0) AS gross, COALESCE(SUM(master_commission_amount), 0) AS royalty").
		Where("transaction_date >= ? AND transaction_date < ?", monthStart, monthEnd).
		Scan(&totals).Error
	if err != nil {
		return nil, wrapDBError(err, "transaction")
	}
	stats.TransactionsThisMonth = totals.Count
	stats.GrossCommissionMonth = totals.Gross
	stats.RoyaltyMonth = totals.Royalty

	return stats, nil
}
