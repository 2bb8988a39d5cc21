// internal/services/transaction_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/database"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

// TransactionService is the ledger owning closed-deal records: create with
// rate freezing, amend with full recompute, role-checked delete and listing.
type TransactionService struct {
	db          *gorm.DB
	rateService *RateService
	config      *config.Config
}

func NewTransactionService(db *gorm.DB, rateService *RateService, cfg *config.Config) *TransactionService {
	return &TransactionService{
		db:          db,
		rateService: rateService,
		config:      cfg,
	}
}

type CreateTransactionRequest struct {
	OrganizationID       *uuid.UUID `json:"organization_id"`
	AgentID              *uuid.UUID `json:"agent_id"`
	PropertyID           *uuid.UUID `json:"property_id"`
	TransactionDate      *time.Time `json:"transaction_date"`
	ActualPrice          float64    `json:"actual_price" validate:"required,gt=0"`
	Sides                *int       `json:"sides" validate:"omitempty,min=1,max=10"`
	CommissionPercentage *float64   `json:"commission_percentage" validate:"omitempty,percentage"`
	AgentSplitPercentage *float64   `json:"agent_split_percentage" validate:"omitempty,percentage"`
	BuyerName            string     `json:"buyer_name"`
	SellerName           string     `json:"seller_name"`
	Notes                string     `json:"notes"`
}

type AmendTransactionRequest struct {
	PropertyID           *uuid.UUID `json:"property_id"`
	TransactionDate      *time.Time `json:"transaction_date"`
	ActualPrice          *float64   `json:"actual_price" validate:"omitempty,gt=0"`
	Sides                *int       `json:"sides" validate:"omitempty,min=1,max=10"`
	CommissionPercentage *float64   `json:"commission_percentage" validate:"omitempty,percentage"`
	AgentSplitPercentage *float64   `json:"agent_split_percentage" validate:"omitempty,percentage"`
	BuyerName            *string    `json:"buyer_name"`
	SellerName           *string    `json:"seller_name"`
	Notes                *string    `json:"notes"`
	// Expected version for optimistic locking. When set, the amend fails
	// with a conflict if another writer got there first.
	Version *int `json:"version"`
}

type TransactionFilter struct {
	utils.PaginationParams
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	AgentID        *uuid.UUID `json:"agent_id,omitempty"`
	PropertyID     *uuid.UUID `json:"property_id,omitempty"`
	Year           *int       `json:"year,omitempty"`
	Month          *int       `json:"month,omitempty"`
}

// Create validates the request, resolves organization and agent according to
// the actor's scope, resolves the rates in force, computes the split and
// persists the transaction with the royalty rate frozen at closure.
func (s *TransactionService) Create(ctx context.Context, actor models.Actor, req *CreateTransactionRequest) (*models.Transaction, error) {
	if req.ActualPrice <= 0 {
		return nil, NewValidationError("actual_price must be greater than zero")
	}

	agentID, err := s.resolveAgentID(actor, req.AgentID)
	if err != nil {
		return nil, err
	}

	var agent models.Profile
	if err := s.db.WithContext(ctx).First(&agent, "id = ?", agentID).Error; err != nil {
		return nil, wrapDBError(err, "profile")
	}
	if !agent.IsActive {
		return nil, NewValidationError("agent profile is inactive")
	}

	organizationID, err := s.resolveOrganizationID(actor, req.OrganizationID, &agent)
	if err != nil {
		return nil, err
	}

	if err := CanAssignAgent(actor, organizationID, &agent); err != nil {
		return nil, err
	}

	sides := 1
	if req.Sides != nil {
		sides = *req.Sides
	}

	commissionPct := decimal.NewFromFloat(s.config.Billing.DefaultCommissionPercent)
	if req.CommissionPercentage != nil {
		commissionPct = decimal.NewFromFloat(*req.CommissionPercentage)
	}

	var splitOverride *decimal.Decimal
	if req.AgentSplitPercentage != nil {
		v := decimal.NewFromFloat(*req.AgentSplitPercentage)
		splitOverride = &v
	}
	splitPct, err := s.rateService.ResolveSplit(ctx, agentID, splitOverride)
	if err != nil {
		return nil, err
	}

	royaltyPct, err := s.rateService.ResolveRoyalty(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(req.ActualPrice)
	breakdown := CalculateCommission(price, sides, commissionPct, splitPct, royaltyPct)

	transactionDate := time.Now()
	if req.TransactionDate != nil {
		transactionDate = *req.TransactionDate
	}

	transaction := &models.Transaction{
		OrganizationID:             organizationID,
		AgentID:                    agentID,
		PropertyID:                 req.PropertyID,
		TransactionDate:            transactionDate,
		ActualPrice:                price,
		Sides:                      sides,
		CommissionPercentage:       commissionPct,
		AgentSplitPercentage:       splitPct,
		RoyaltyPercentageAtClosure: royaltyPct,
		GrossCommission:            breakdown.Gross,
		MasterCommissionAmount:     breakdown.Master,
		NetCommission:              breakdown.Net,
		OfficeCommissionAmount:     breakdown.Office,
		BuyerName:                  req.BuyerName,
		SellerName:                 req.SellerName,
		Notes:                      req.Notes,
		Version:                    1,
	}

	if err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Create(transaction).Error
	}); err != nil {
		return nil, wrapDBError(err, "transaction")
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id":  transaction.ID,
		"organization_id": organizationID,
		"agent_id":        agentID,
		"gross":           breakdown.Gross.String(),
	}).Info("Transaction registered")

	return transaction, nil
}

// Amend applies the allow-listed patch. When any economic field changes
// (price, commission %, split %, sides) the derived amounts are fully
// recomputed using the organization's current royalty rate; this is the
// deliberate recompute-on-edit policy, distinct from freeze-at-creation.
// A version check guards against concurrent amends.
func (s *TransactionService) Amend(ctx context.Context, actor models.Actor, id uuid.UUID, req *AmendTransactionRequest) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "transaction")
	}

	if err := CanTouchTransaction(actor, &transaction); err != nil {
		return nil, err
	}

	previousVersion := transaction.Version
	if req.Version != nil && *req.Version != previousVersion {
		return nil, NewConflictError("transaction was modified concurrently")
	}
	economicChange := false

	if req.ActualPrice != nil {
		transaction.ActualPrice = decimal.NewFromFloat(*req.ActualPrice)
		economicChange = true
	}
	if req.Sides != nil {
		transaction.Sides = *req.Sides
		economicChange = true
	}
	if req.CommissionPercentage != nil {
		transaction.CommissionPercentage = decimal.NewFromFloat(*req.CommissionPercentage)
		economicChange = true
	}
	if req.AgentSplitPercentage != nil {
		transaction.AgentSplitPercentage = decimal.NewFromFloat(*req.AgentSplitPercentage)
		economicChange = true
	}
	if req.PropertyID != nil {
		transaction.PropertyID = req.PropertyID
	}
	if req.TransactionDate != nil {
		transaction.TransactionDate = *req.TransactionDate
	}
	if req.BuyerName != nil {
		transaction.BuyerName = *req.BuyerName
	}
	if req.SellerName != nil {
		transaction.SellerName = *req.SellerName
	}
	if req.Notes != nil {
		transaction.Notes = *req.Notes
	}

	if economicChange {
		royaltyPct, err := s.rateService.ResolveRoyalty(ctx, transaction.OrganizationID)
		if err != nil {
			return nil, err
		}
		transaction.RoyaltyPercentageAtClosure = royaltyPct

		breakdown := CalculateCommission(
			transaction.ActualPrice,
			transaction.Sides,
			transaction.CommissionPercentage,
			transaction.AgentSplitPercentage,
			royaltyPct,
		)
		transaction.GrossCommission = breakdown.Gross
		transaction.MasterCommissionAmount = breakdown.Master
		transaction.NetCommission = breakdown.Net
		transaction.OfficeCommissionAmount = breakdown.Office
	}

	transaction.Version = previousVersion + 1

	result := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND version = ?", id, previousVersion).
		Select("*").Omit("id", "created_at").
		Updates(&transaction)
	if result.Error != nil {
		return nil, wrapDBError(result.Error, "transaction")
	}
	if result.RowsAffected == 0 {
		return nil, NewConflictError("transaction was modified concurrently")
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id":  id,
		"economic_change": economicChange,
		"version":         transaction.Version,
	}).Info("Transaction amended")

	return &transaction, nil
}

// Delete removes the transaction irreversibly. Unlike billing records there
// is no soft-cancel path for ledger rows.
func (s *TransactionService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return wrapDBError(err, "transaction")
	}

	if err := CanTouchTransaction(actor, &transaction); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return wrapDBError(result.Error, "transaction")
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("transaction")
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": id,
		"actor_id":       actor.ID,
	}).Info("Transaction deleted")

	return nil
}

// Get loads one transaction visible to the actor.
func (s *TransactionService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, wrapDBError(err, "transaction")
	}
	if err := CanTouchTransaction(actor, &transaction); err != nil {
		// Invisible rows read as absent, not forbidden.
		return nil, NewNotFoundError("transaction")
	}
	return &transaction, nil
}

// List returns the transactions visible to the actor, newest deals first.
func (s *TransactionService) List(ctx context.Context, actor models.Actor, filter TransactionFilter) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})

	query, err := ApplyTransactionScope(query, actor, filter.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Year != nil {
		start := time.Date(*filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		if filter.Month != nil {
			start = time.Date(*filter.Year, time.Month(*filter.Month), 1, 0, 0, 0, 0, time.UTC)
			end = start.AddDate(0, 1, 0)
		}
		query = query.Where("transaction_date >= ? AND transaction_date < ?", start, end)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "transaction")
	}

	allowedSortFields := []string{"transaction_date", "actual_price", "gross_commission", "created_at"}
	query = utils.ApplySort(query, filter.PaginationParams, "transaction_date", allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, wrapDBError(err, "transaction")
	}

	return transactions, total, nil
}

func (s *TransactionService) resolveAgentID(actor models.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	switch actor.Role {
	case models.RoleGod:
		if requested == nil {
			return uuid.Nil, NewValidationError("agent_id is required")
		}
		return *requested, nil
	case models.RoleParent:
		if requested != nil {
			return *requested, nil
		}
		return actor.ID, nil
	case models.RoleChild:
		if requested != nil && *requested != actor.ID {
			return uuid.Nil, NewForbiddenError("agents may only register their own transactions")
		}
		return actor.ID, nil
	default:
		return uuid.Nil, NewForbiddenError("unknown role %q", actor.Role)
	}
}

func (s *TransactionService) resolveOrganizationID(actor models.Actor, requested *uuid.UUID, agent *models.Profile) (uuid.UUID, error) {
	if actor.Role == models.RoleGod {
		if requested != nil {
			return *requested, nil
		}
		if agent.OrganizationID != nil {
			return *agent.OrganizationID, nil
		}
		return uuid.Nil, NewValidationError("organization_id is required")
	}

	if actor.OrganizationID == nil {
		return uuid.Nil, NewForbiddenError("actor has no organization")
	}
	if requested != nil && *requested != *actor.OrganizationID {
		return uuid.Nil, NewForbiddenError("cannot create transactions for another organization")
	}
	return *actor.OrganizationID, nil
}
