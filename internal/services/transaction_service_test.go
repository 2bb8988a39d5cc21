// internal/services/transaction_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

func TestTransactionCreateFreezesRoyalty(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, floatPtr(45))

	tx, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{
		ActualPrice: 100000,
	})
	require.NoError(t, err)

	assert.Equal(t, org.ID, tx.OrganizationID)
	assert.Equal(t, agent.ID, tx.AgentID)
	assert.Equal(t, 1, tx.Sides)
	assert.True(t, tx.GrossCommission.Equal(decimal.NewFromInt(3000)), "gross = %s", tx.GrossCommission)
	assert.True(t, tx.MasterCommissionAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, tx.NetCommission.Equal(decimal.NewFromInt(1350)))
	assert.True(t, tx.OfficeCommissionAmount.Equal(decimal.NewFromInt(1350)))
	assert.True(t, tx.RoyaltyPercentageAtClosure.Equal(decimal.NewFromInt(10)))

	// Raising the organization's royalty must not touch the closed deal.
	require.NoError(t, db.Model(org).Update("royalty_percentage", decimal.NewFromInt(20)).Error)

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, "id = ?", tx.ID).Error)
	assert.True(t, reloaded.RoyaltyPercentageAtClosure.Equal(decimal.NewFromInt(10)))
	assert.True(t, reloaded.MasterCommissionAmount.Equal(decimal.NewFromInt(300)))
}

func TestTransactionCreateSplitResolutionOrder(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)

	// Profile default wins over the config fallback.
	agent := seedProfile(t, db, models.RoleChild, &org.ID, floatPtr(50))
	tx, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)
	assert.True(t, tx.AgentSplitPercentage.Equal(decimal.NewFromInt(50)))

	// Request override wins over the profile default.
	tx, err = svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{
		ActualPrice:          100000,
		AgentSplitPercentage: floatPtr(60),
	})
	require.NoError(t, err)
	assert.True(t, tx.AgentSplitPercentage.Equal(decimal.NewFromInt(60)))

	// No profile default falls back to the configured split.
	bare := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	tx, err = svc.Create(context.Background(), bare.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)
	assert.True(t, tx.AgentSplitPercentage.Equal(decimal.NewFromInt(45)))
}

func TestTransactionCreateChildCannotAssignOthers(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	other := seedProfile(t, db, models.RoleChild, &org.ID, nil)

	_, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{
		ActualPrice: 100000,
		AgentID:     &other.ID,
	})
	assert.True(t, IsCode(err, CodeForbidden), "expected forbidden, got %v", err)
}

func TestTransactionCreateParentAssignsWithinOrg(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	otherOrg := seedOrganization(t, db, 10)
	manager := seedProfile(t, db, models.RoleParent, &org.ID, nil)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	outsider := seedProfile(t, db, models.RoleChild, &otherOrg.ID, nil)

	tx, err := svc.Create(context.Background(), manager.Actor(), &CreateTransactionRequest{
		ActualPrice: 100000,
		AgentID:     &agent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, agent.ID, tx.AgentID)

	_, err = svc.Create(context.Background(), manager.Actor(), &CreateTransactionRequest{
		ActualPrice: 100000,
		AgentID:     &outsider.ID,
	})
	assert.True(t, IsCode(err, CodeForbidden), "expected forbidden, got %v", err)
}

func TestTransactionAmendNotesOnlyKeepsAmounts(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, floatPtr(45))

	tx, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)

	// Royalty changes between creation and the cosmetic edit.
	require.NoError(t, db.Model(org).Update("royalty_percentage", decimal.NewFromInt(25)).Error)

	amended, err := svc.Amend(context.Background(), agent.Actor(), tx.ID, &AmendTransactionRequest{
		Notes: strPtr("keys handed over"),
	})
	require.NoError(t, err)

	assert.Equal(t, "keys handed over", amended.Notes)
	assert.True(t, amended.RoyaltyPercentageAtClosure.Equal(decimal.NewFromInt(10)))
	assert.True(t, amended.MasterCommissionAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 2, amended.Version)
}

func TestTransactionAmendEconomicChangeRecomputes(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, floatPtr(45))

	tx, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)

	// Economic edits pick up the royalty rate in force now, not the frozen one.
	require.NoError(t, db.Model(org).Update("royalty_percentage", decimal.NewFromInt(20)).Error)

	amended, err := svc.Amend(context.Background(), agent.Actor(), tx.ID, &AmendTransactionRequest{
		ActualPrice: floatPtr(200000),
	})
	require.NoError(t, err)

	assert.True(t, amended.GrossCommission.Equal(decimal.NewFromInt(6000)), "gross = %s", amended.GrossCommission)
	assert.True(t, amended.RoyaltyPercentageAtClosure.Equal(decimal.NewFromInt(20)))
	assert.True(t, amended.MasterCommissionAmount.Equal(decimal.NewFromInt(1200)))
	assert.True(t, amended.NetCommission.Equal(decimal.NewFromInt(2700)))
	assert.True(t, amended.OfficeCommissionAmount.Equal(decimal.NewFromInt(2100)))

	sum := amended.MasterCommissionAmount.Add(amended.NetCommission).Add(amended.OfficeCommissionAmount)
	assert.True(t, sum.Equal(amended.GrossCommission))
}

func TestTransactionAmendConcurrentConflict(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)

	tx, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)

	// Two clients read version 1. The first one wins.
	_, err = svc.Amend(context.Background(), agent.Actor(), tx.ID, &AmendTransactionRequest{
		Notes:   strPtr("first edit"),
		Version: intPtr(1),
	})
	require.NoError(t, err)

	_, err = svc.Amend(context.Background(), agent.Actor(), tx.ID, &AmendTransactionRequest{
		Notes:   strPtr("stale edit"),
		Version: intPtr(1),
	})
	assert.True(t, IsCode(err, CodeConflict), "expected conflict, got %v", err)
}

func TestTransactionDelete(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, nil)
	otherOrg := seedOrganization(t, db, 10)
	outsider := seedProfile(t, db, models.RoleParent, &otherOrg.ID, nil)

	tx, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), outsider.Actor(), tx.ID)
	assert.True(t, IsCode(err, CodeForbidden), "expected forbidden, got %v", err)

	require.NoError(t, svc.Delete(context.Background(), agent.Actor(), tx.ID))

	err = svc.Delete(context.Background(), agent.Actor(), tx.ID)
	assert.True(t, IsCode(err, CodeNotFound), "expected not found, got %v", err)
}

func TestTransactionListScoping(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	orgA := seedOrganization(t, db, 10)
	orgB := seedOrganization(t, db, 10)
	managerA := seedProfile(t, db, models.RoleParent, &orgA.ID, nil)
	agentA1 := seedProfile(t, db, models.RoleChild, &orgA.ID, nil)
	agentA2 := seedProfile(t, db, models.RoleChild, &orgA.ID, nil)
	agentB := seedProfile(t, db, models.RoleChild, &orgB.ID, nil)

	for _, agent := range []*models.Profile{agentA1, agentA2, agentB} {
		_, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{ActualPrice: 100000})
		require.NoError(t, err)
	}

	// Agents only see their own deals.
	list, total, err := svc.List(context.Background(), agentA1.Actor(), TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, agentA1.ID, list[0].AgentID)

	// Managers see the whole office.
	_, total, err = svc.List(context.Background(), managerA.Actor(), TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// God sees everything and can narrow by organization.
	_, total, err = svc.List(context.Background(), godActor(), TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, total, err = svc.List(context.Background(), godActor(), TransactionFilter{OrganizationID: &orgB.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestStoredCommissionKeepsFullPrecision(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewTransactionService(db, NewRateService(db, cfg), cfg)

	org := seedOrganization(t, db, 10.1)
	agent := seedProfile(t, db, models.RoleChild, &org.ID, floatPtr(45.55))

	created, err := svc.Create(context.Background(), agent.Actor(), &CreateTransactionRequest{
		ActualPrice:          123456.78,
		CommissionPercentage: floatPtr(3.33),
	})
	require.NoError(t, err)

	price := decimal.RequireFromString("123456.78")
	commission := decimal.RequireFromString("3.33")
	royalty := decimal.RequireFromString("10.1")
	split := decimal.RequireFromString("45.55")
	gross := price.Mul(commission).Div(oneHundred)
	master := gross.Mul(royalty).Div(oneHundred)
	net := gross.Mul(split).Div(oneHundred)
	office := gross.Sub(master).Sub(net)

	// Reload so the assertions see what actually survived the store.
	var stored models.Transaction
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)

	assert.True(t, stored.GrossCommission.Equal(gross), "gross = %s", stored.GrossCommission)
	assert.True(t, stored.MasterCommissionAmount.Equal(master), "master = %s", stored.MasterCommissionAmount)
	assert.True(t, stored.NetCommission.Equal(net), "net = %s", stored.NetCommission)
	assert.True(t, stored.OfficeCommissionAmount.Equal(office), "office = %s", stored.OfficeCommissionAmount)

	sum := stored.MasterCommissionAmount.Add(stored.NetCommission).Add(stored.OfficeCommissionAmount)
	assert.True(t, sum.Equal(stored.GrossCommission), "sum = %s, gross = %s", sum, stored.GrossCommission)
}
