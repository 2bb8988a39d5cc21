// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication / authorization
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAccessDenied           = "auth.access_denied"

	// Organizations
	KeyOrganizationCreated  = "organization.created"
	KeyOrganizationUpdated  = "organization.updated"
	KeyOrganizationNotFound = "organization.not_found"

	// Profiles
	KeyProfileCreated  = "profile.created"
	KeyProfileUpdated  = "profile.updated"
	KeyProfileNotFound = "profile.not_found"

	// Transactions
	KeyTransactionCreated  = "transaction.created"
	KeyTransactionUpdated  = "transaction.updated"
	KeyTransactionDeleted  = "transaction.deleted"
	KeyTransactionNotFound = "transaction.not_found"

	// Billing
	KeyBillingCreated   = "billing.created"
	KeyBillingUpdated   = "billing.updated"
	KeyBillingCancelled = "billing.cancelled"
	KeyBillingNotFound  = "billing.not_found"
	KeyBillingPaid      = "billing.paid"

	// Closing
	KeyClosingStarted   = "closing.started"
	KeyClosingFinished  = "closing.finished"
	KeyClosingDuplicate = "closing.duplicate_period"

	// Payments
	KeyPaymentSuccess = "payment.success"
	KeyPaymentFailed  = "payment.failed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	KeyRateLimited = "rate.limited"
)
