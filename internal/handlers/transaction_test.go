// internal/handlers/transaction_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/middleware"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

type TransactionHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	org    *models.Organization
	agent  *models.Profile
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.Organization{},
		&models.Profile{},
		&models.Transaction{},
	))
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		Billing: config.BillingConfig{
			DefaultSplitPercent:      45.0,
			DefaultCommissionPercent: 3.0,
		},
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	rateService := services.NewRateService(db, cfg)
	transactionService := services.NewTransactionService(db, rateService, cfg)
	handler := NewTransactionHandler(transactionService)

	suite.router = gin.New()
	transactions := suite.router.Group("/transactions")
	transactions.Use(middleware.AuthRequired())
	{
		transactions.GET("", handler.GetTransactions)
		transactions.POST("", handler.CreateTransaction)
	}

	suite.org = &models.Organization{
		Name:              "Test Office",
		ContactEmail:      "office@example.com",
		RoyaltyPercentage: decimal.NewFromInt(10),
		Status:            models.OrganizationStatusActive,
	}
	suite.Require().NoError(db.Create(suite.org).Error)

	split := decimal.NewFromInt(45)
	suite.agent = &models.Profile{
		FullName:               "Agent",
		Email:                  "agent@example.com",
		Role:                   models.RoleChild,
		OrganizationID:         &suite.org.ID,
		DefaultSplitPercentage: &split,
		IsActive:               true,
	}
	suite.Require().NoError(suite.agent.SetPassword("secret-password"))
	suite.Require().NoError(db.Create(suite.agent).Error)
}

func (suite *TransactionHandlerTestSuite) tokenFor(profile *models.Profile) string {
	token, err := utils.GenerateJWT(profile.ID, string(profile.Role), profile.OrganizationID, 1)
	suite.Require().NoError(err)
	return token
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction() {
	body, _ := json.Marshal(map[string]interface{}{
		"actual_price": 100000,
	})

	req, _ := http.NewRequest("POST", "/transactions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.tokenFor(suite.agent))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response["success"].(bool))

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Equal(suite.T(), int64(1), count)
}

func (suite *TransactionHandlerTestSuite) TestCreateTransactionRejectsZeroPrice() {
	body, _ := json.Marshal(map[string]interface{}{
		"actual_price": 0,
	})

	req, _ := http.NewRequest("POST", "/transactions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.tokenFor(suite.agent))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestRequiresAuthentication() {
	req, _ := http.NewRequest("GET", "/transactions", nil)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestRejectsGarbageToken() {
	req, _ := http.NewRequest("GET", "/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+uuid.NewString())

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestListTransactions() {
	// Seed through the API to exercise the whole create path.
	body, _ := json.Marshal(map[string]interface{}{"actual_price": 150000})
	req, _ := http.NewRequest("POST", "/transactions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.tokenFor(suite.agent))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Require().Equal(http.StatusCreated, w.Code)

	req, _ = http.NewRequest("GET", "/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+suite.tokenFor(suite.agent))
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response["success"].(bool))
}

func TestTransactionHandlerSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
