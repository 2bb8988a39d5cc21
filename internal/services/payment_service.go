// internal/services/payment_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

// PaymentService collects billing record payments through Stripe.
// Organizations pay the platform; there are no outbound payouts.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

func NewPaymentService(db *gorm.DB, cfg *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{db: db, config: cfg}
}

type CreatePaymentIntentRequest struct {
	BillingRecordID uuid.UUID `json:"billing_record_id" validate:"required"`
	Currency        string    `json:"currency" validate:"omitempty,len=3"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	BillingRecordID uuid.UUID `json:"billing_record_id" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

// CreatePaymentIntent opens a Stripe intent for the full amount owed on a
// billing record, surcharge included.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, actor models.Actor, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	var record models.BillingRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", req.BillingRecordID).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	if actor.Role != models.RoleGod {
		if actor.OrganizationID == nil || *actor.OrganizationID != record.OrganizationID {
			return nil, NewNotFoundError("billing record")
		}
	}
	if !record.IsUnpaid() {
		return nil, NewConflictError("billing record is not payable in status %s", record.Status)
	}

	currency := req.Currency
	if currency == "" {
		currency = "eur"
	}

	// Stripe works in cents.
	amountInCents := record.TotalOwed().Mul(oneHundred).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("billing_record_id", record.ID.String())
	params.AddMetadata("organization_id", record.OrganizationID.String())
	params.AddMetadata("period", record.Period)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, NewUnavailableError(err)
	}

	logrus.WithFields(logrus.Fields{
		"billing_record_id": record.ID,
		"payment_intent":    pi.ID,
		"amount_cents":      amountInCents,
	}).Info("Payment intent created")

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment checks the intent with Stripe and settles the billing
// record when the charge succeeded.
func (s *PaymentService) ConfirmPayment(ctx context.Context, actor models.Actor, req *ConfirmPaymentRequest) (*models.BillingRecord, error) {
	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, NewUnavailableError(err)
	}

	var record models.BillingRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", req.BillingRecordID).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	if actor.Role != models.RoleGod {
		if actor.OrganizationID == nil || *actor.OrganizationID != record.OrganizationID {
			return nil, NewNotFoundError("billing record")
		}
	}
	if record.Status == models.BillingStatusPaid {
		return &record, nil
	}
	if record.Status == models.BillingStatusCancelled {
		return nil, NewConflictError("billing record is cancelled")
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, NewConflictError("payment intent is in status %s", pi.Status)
	}

	now := time.Now()
	record.Status = models.BillingStatusPaid
	record.PaidAt = &now
	record.PaymentMethod = "stripe"
	record.PaymentReference = pi.ID
	record.PaymentDetails = models.JSONB{
		"payment_intent": pi.ID,
		"amount_cents":   pi.Amount,
		"currency":       string(pi.Currency),
	}

	err = s.db.WithContext(ctx).
		Select("status", "paid_at", "payment_method", "payment_reference", "payment_details", "updated_at").
		Updates(&record).Error
	if err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	logrus.WithFields(logrus.Fields{
		"billing_record_id": record.ID,
		"payment_intent":    pi.ID,
	}).Info("Billing record paid")

	return &record, nil
}
